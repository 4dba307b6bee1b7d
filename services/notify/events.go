package notify

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Kind string

const (
	KindNewPost           Kind = "new_post"
	KindStatusChange      Kind = "status_change"
	KindRequestAccepted   Kind = "request_accepted"
	KindRequestRejected   Kind = "request_rejected"
	KindRequestConfirmed  Kind = "request_confirmed"
	KindPostDeleted       Kind = "post_deleted"
	KindPostRestored      Kind = "post_restored"
	KindPostFlagged       Kind = "post_flagged"
	KindFlagApproved      Kind = "flag_approved"
	KindPostUnhidden      Kind = "post_unhidden"
	KindTurnoverConfirmed Kind = "turnover_confirmed"
)

// Params carries the values BuildTitleBody needs. PostTitle is required by
// every kind.
type Params struct {
	PostTitle   string
	ActorName   string
	NewStatus   string
	Reason      string
	RequestKind string // "handover" or "claim"
}

// Event is one domain event bound for recipients' mailboxes. Events carry
// everything the dispatcher needs so it never reads posts back.
type Event struct {
	Kind           Kind
	Recipients     []primitive.ObjectID
	PostID         primitive.ObjectID
	ConversationID primitive.ObjectID
	Params         Params

	// AdminBroadcast routes to the shared admin mailbox instead of
	// per-user documents. AdminIDs optionally narrows the audience.
	AdminBroadcast bool
	AdminIDs       []primitive.ObjectID
}

func BuildTitleBody(k Kind, p Params) (title, body string, err error) {
	if p.PostTitle == "" {
		return "", "", errors.New("missing PostTitle")
	}

	switch k {
	case KindNewPost:
		return "New item reported",
			fmt.Sprintf("%s reported %q.", p.ActorName, p.PostTitle), nil

	case KindStatusChange:
		if p.NewStatus == "" {
			return "", "", errors.New("missing NewStatus")
		}
		return "Post status updated",
			fmt.Sprintf("%q is now %s.", p.PostTitle, p.NewStatus), nil

	case KindRequestAccepted:
		return "Request accepted 🤝",
			fmt.Sprintf("Your %s request for %q was accepted.", p.RequestKind, p.PostTitle), nil

	case KindRequestRejected:
		body := fmt.Sprintf("Your %s request for %q was rejected.", p.RequestKind, p.PostTitle)
		if p.Reason != "" {
			body = fmt.Sprintf("Your %s request for %q was rejected: %s", p.RequestKind, p.PostTitle, p.Reason)
		}
		return "Request rejected", body, nil

	case KindRequestConfirmed:
		return "Item resolved 🎉",
			fmt.Sprintf("The %s for %q has been confirmed.", p.RequestKind, p.PostTitle), nil

	case KindPostDeleted:
		return "Post deleted",
			fmt.Sprintf("Your post %q has been deleted.", p.PostTitle), nil

	case KindPostRestored:
		return "Post restored",
			fmt.Sprintf("Your post %q has been restored and is pending again.", p.PostTitle), nil

	case KindPostFlagged:
		if p.Reason == "" {
			return "", "", errors.New("missing Reason")
		}
		return "Post flagged",
			fmt.Sprintf("%q was flagged: %s", p.PostTitle, p.Reason), nil

	case KindFlagApproved:
		return "Flag reviewed",
			fmt.Sprintf("The flag on %q was dismissed.", p.PostTitle), nil

	case KindPostUnhidden:
		return "Post visible again",
			fmt.Sprintf("Your post %q is visible again.", p.PostTitle), nil

	case KindTurnoverConfirmed:
		return "Turnover confirmed",
			fmt.Sprintf("Custody of %q has been confirmed by %s.", p.PostTitle, p.ActorName), nil
	}

	return "", "", fmt.Errorf("unknown notification kind: %s", k)
}

// Suppressed reports whether a recipient with the given preference map has
// opted out of k. Only acceptance-type notifications honor preferences;
// rejections are always delivered.
func Suppressed(k Kind, prefs map[string]bool) bool {
	switch k {
	case KindRequestAccepted, KindRequestConfirmed:
		if enabled, ok := prefs[string(k)]; ok && !enabled {
			return true
		}
	}
	return false
}
