// Package services implements the post lifecycle, the handover/claim
// request state machine, conversation retention and teardown, and the glue
// into the notification dispatcher. Handlers stay thin; every workflow rule
// lives here.
package services

import (
	"errors"

	"foundhub/services/notify"
)

// Error taxonomy. Validation and not-found errors cross the service
// boundary; best-effort side effects (notifications, photo cleanup) are
// logged and swallowed at their call sites.
var (
	ErrValidation = errors.New("invalid request")
	ErrNotFound   = errors.New("not found")
)

var dispatcher *notify.Dispatcher

// SetDispatcher wires the notification dispatcher. Services tolerate a nil
// dispatcher (tests exercising workflows without notifications).
func SetDispatcher(d *notify.Dispatcher) {
	dispatcher = d
}

func enqueue(ev notify.Event) {
	if dispatcher != nil {
		dispatcher.Enqueue(ev)
	}
}
