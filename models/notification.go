package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// AudienceAllAdmins is the sentinel audience for a broadcast notification
// every admin subscribes to. Broadcasts stay a single document; read and
// delete state is tracked per admin on that document.
const AudienceAllAdmins = "all_admins"

type Notification struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID         primitive.ObjectID `bson:"userId" json:"userId"`
	Type           string             `bson:"type" json:"type"`
	Title          string             `bson:"title" json:"title"`
	Body           string             `bson:"body" json:"body"`
	PostID         primitive.ObjectID `bson:"postId,omitempty" json:"postId,omitempty"`
	ConversationID primitive.ObjectID `bson:"conversationId,omitempty" json:"conversationId,omitempty"`
	Read           bool               `bson:"read" json:"read"`
	CreatedAt      int64              `bson:"createdAt" json:"createdAt"`
}

type AdminNotification struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Audience  string               `bson:"audience" json:"audience"`
	AdminIDs  []primitive.ObjectID `bson:"adminIds,omitempty" json:"adminIds,omitempty"`
	Type      string               `bson:"type" json:"type"`
	Title     string               `bson:"title" json:"title"`
	Body      string               `bson:"body" json:"body"`
	PostID    primitive.ObjectID   `bson:"postId,omitempty" json:"postId,omitempty"`
	ReadBy    []primitive.ObjectID `bson:"readBy" json:"readBy"`
	DeletedBy []primitive.ObjectID `bson:"deletedBy" json:"deletedBy"`
	CreatedAt int64                `bson:"createdAt" json:"createdAt"`
}
