package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Teardown markers. A conversation flagged pending was caught mid-teardown
// by a crash and can be found again by query.
const (
	TeardownNone    = ""
	TeardownPending = "pending"
)

// Conversation is a chat thread scoped to one post and exactly two
// participants: the post's current owner and a counterparty. Post fields
// are cached at creation time so request preconditions can be checked
// without re-fetching the post on every send.
type Conversation struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PostID        primitive.ObjectID `bson:"postId" json:"postId"`
	PostTitle     string             `bson:"postTitle" json:"postTitle"`
	PostType      string             `bson:"postType" json:"postType"`
	PostStatus    string             `bson:"postStatus" json:"postStatus"`
	PostCreatorID primitive.ObjectID `bson:"postCreatorId" json:"postCreatorId"`
	FoundAction   string             `bson:"foundAction,omitempty" json:"foundAction,omitempty"`

	// Keyed by participant id hex.
	Participants map[string]Participant `bson:"participants" json:"participants"`

	// At most one outstanding request of each kind per conversation.
	HandoverRequested bool `bson:"handoverRequested" json:"handoverRequested"`
	ClaimRequested    bool `bson:"claimRequested" json:"claimRequested"`

	LastMessage  *LastMessage   `bson:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	UnreadCounts map[string]int `bson:"unreadCounts" json:"unreadCounts"`

	TeardownStatus string `bson:"teardownStatus,omitempty" json:"teardownStatus,omitempty"`
	CreatedAt      int64  `bson:"createdAt" json:"createdAt"`
}

type Participant struct {
	Name           string `bson:"name" json:"name"`
	ProfilePicture string `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	JoinedAt       int64  `bson:"joinedAt" json:"joinedAt"`
}

// LastMessage is denormalized onto the conversation for list views.
type LastMessage struct {
	Text     string             `bson:"text" json:"text"`
	SenderID primitive.ObjectID `bson:"senderId" json:"senderId"`
	SentAt   int64              `bson:"sentAt" json:"sentAt"`
}
