package notify

import (
	"context"
	"log"
	"time"

	"foundhub/database"
	"foundhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Dispatcher turns domain events into persisted notification documents plus
// a best-effort push nudge. All dispatch goes through one bounded queue and
// one worker, so failures surface in one place instead of being lost in
// per-call-site goroutines. The documents are the durable truth; recipients
// observe them through their live subscriptions.
type Dispatcher struct {
	queue chan Event
	done  chan struct{}
}

func NewDispatcher(queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = 256
	}
	return &Dispatcher{
		queue: make(chan Event, queueSize),
		done:  make(chan struct{}),
	}
}

func (d *Dispatcher) Start() {
	for ev := range d.queue {
		d.deliver(ev)
	}
	close(d.done)
}

// Stop drains the queue and waits for the worker to finish.
func (d *Dispatcher) Stop() {
	close(d.queue)
	<-d.done
}

// Enqueue hands an event to the worker. It never blocks and never fails the
// caller; a full queue drops the event with a log line.
func (d *Dispatcher) Enqueue(ev Event) {
	select {
	case d.queue <- ev:
	default:
		log.Printf("notify: queue full, dropping %s event (depth %d)", ev.Kind, len(d.queue))
	}
}

// QueueDepth reports how many events are waiting.
func (d *Dispatcher) QueueDepth() int {
	return len(d.queue)
}

func (d *Dispatcher) deliver(ev Event) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("notify: panic delivering %s event: %v", ev.Kind, r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	title, body, err := BuildTitleBody(ev.Kind, ev.Params)
	if err != nil {
		log.Printf("notify: cannot build %s notification: %v", ev.Kind, err)
		return
	}

	if ev.AdminBroadcast {
		d.deliverAdmin(ctx, ev, title, body)
		return
	}

	recipients := d.filterRecipients(ctx, ev.Kind, ev.Recipients)
	if len(recipients) == 0 {
		return
	}

	now := time.Now().Unix()
	writes := make([]mongo.WriteModel, 0, len(recipients))
	for _, uid := range recipients {
		writes = append(writes, &mongo.InsertOneModel{Document: models.Notification{
			ID:             primitive.NewObjectID(),
			UserID:         uid,
			Type:           string(ev.Kind),
			Title:          title,
			Body:           body,
			PostID:         ev.PostID,
			ConversationID: ev.ConversationID,
			CreatedAt:      now,
		}})
	}

	// One batch so the write itself is atomic; delivery stays eventual.
	if _, err := database.Notifications.BulkWrite(ctx, writes, options.BulkWrite().SetOrdered(false)); err != nil {
		log.Printf("notify: failed to write %s notifications: %v", ev.Kind, err)
		return
	}

	for _, uid := range recipients {
		SendPush(uid, title, body)
	}
}

func (d *Dispatcher) deliverAdmin(ctx context.Context, ev Event, title, body string) {
	doc := models.AdminNotification{
		ID:        primitive.NewObjectID(),
		Audience:  models.AudienceAllAdmins,
		AdminIDs:  ev.AdminIDs,
		Type:      string(ev.Kind),
		Title:     title,
		Body:      body,
		PostID:    ev.PostID,
		ReadBy:    []primitive.ObjectID{},
		DeletedBy: []primitive.ObjectID{},
		CreatedAt: time.Now().Unix(),
	}

	if _, err := database.AdminNotifications.InsertOne(ctx, doc); err != nil {
		log.Printf("notify: failed to write admin %s notification: %v", ev.Kind, err)
		return
	}

	for _, uid := range ev.AdminIDs {
		SendPush(uid, title, body)
	}
}

// filterRecipients dedupes and drops recipients who opted out of this
// category. A failed preference lookup never suppresses: on error the
// notification is delivered anyway.
func (d *Dispatcher) filterRecipients(ctx context.Context, k Kind, recipients []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(recipients))
	out := make([]primitive.ObjectID, 0, len(recipients))

	for _, uid := range recipients {
		if uid.IsZero() || seen[uid] {
			continue
		}
		seen[uid] = true

		var user models.User
		err := database.Users.FindOne(ctx, bson.M{"_id": uid},
			options.FindOne().SetProjection(bson.M{"notificationPrefs": 1})).Decode(&user)
		if err != nil && err != mongo.ErrNoDocuments {
			log.Printf("notify: preference lookup for %s failed: %v", uid.Hex(), err)
		}
		if err == nil && Suppressed(k, user.NotificationPrefs) {
			continue
		}

		out = append(out, uid)
	}
	return out
}
