package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Post types.
const (
	PostTypeLost  = "lost"
	PostTypeFound = "found"
)

// Post statuses. Exactly one of pending-active, resolved/completed,
// unclaimed or soft-deleted holds at any time.
const (
	PostStatusPending   = "pending"
	PostStatusResolved  = "resolved"
	PostStatusCompleted = "completed"
	PostStatusUnclaimed = "unclaimed"
)

// Dispositions for a found item.
const (
	FoundActionKeep     = "keep"
	FoundActionTurnover = "turnover"
)

// Turnover sub-states.
const (
	TurnoverDeclared    = "declared"
	TurnoverConfirmed   = "confirmed"
	TurnoverTransferred = "transferred"
	TurnoverNotReceived = "not_received"
)

// Custodians an item can be turned over to.
const (
	TurnoverReceiverOSA      = "osa"
	TurnoverReceiverSecurity = "campus_security"
)

type Post struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type        string             `bson:"type" json:"type"`
	Category    string             `bson:"category" json:"category"`
	Location    string             `bson:"location" json:"location"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description" json:"description"`
	Photos      []string           `bson:"photos" json:"photos"`

	// FoundAction gates which request kind a conversation may carry.
	// Only set for found posts.
	FoundAction string `bson:"foundAction,omitempty" json:"foundAction,omitempty"`

	CreatorID primitive.ObjectID `bson:"creatorId" json:"creatorId"`
	User      UserSnapshot       `bson:"user" json:"user"`

	Status           string `bson:"status" json:"status"`
	StatusNotes      string `bson:"statusNotes,omitempty" json:"statusNotes,omitempty"`
	IsExpired        bool   `bson:"isExpired" json:"isExpired"`
	MovedToUnclaimed bool   `bson:"movedToUnclaimed" json:"movedToUnclaimed"`
	OriginalStatus   string `bson:"originalStatus,omitempty" json:"originalStatus,omitempty"`
	ExpiryDate       int64  `bson:"expiryDate" json:"expiryDate"`

	IsFlagged  bool               `bson:"isFlagged" json:"isFlagged"`
	FlagReason string             `bson:"flagReason,omitempty" json:"flagReason,omitempty"`
	FlaggedBy  primitive.ObjectID `bson:"flaggedBy,omitempty" json:"flaggedBy,omitempty"`
	IsHidden   bool               `bson:"isHidden" json:"isHidden"`

	TurnoverDetails *TurnoverDetails   `bson:"turnoverDetails,omitempty" json:"turnoverDetails,omitempty"`
	HandoverDetails *ResolutionDetails `bson:"handoverDetails,omitempty" json:"handoverDetails,omitempty"`
	ClaimDetails    *ResolutionDetails `bson:"claimDetails,omitempty" json:"claimDetails,omitempty"`

	CreatedAt int64 `bson:"createdAt" json:"createdAt"`
}

// TurnoverDetails records the alternate custody path for a found item
// handed to OSA or campus security instead of being kept by the finder.
type TurnoverDetails struct {
	ReceivedBy     string             `bson:"receivedBy" json:"receivedBy"`
	TurnoverStatus string             `bson:"turnoverStatus" json:"turnoverStatus"`
	OriginalFinder *UserSnapshot      `bson:"originalFinder,omitempty" json:"originalFinder,omitempty"`
	ConfirmedBy    primitive.ObjectID `bson:"confirmedBy,omitempty" json:"confirmedBy,omitempty"`
	ConfirmedAt    int64              `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
}

// ResolutionDetails is the durable audit record written to a post when a
// claim or handover request is confirmed. It embeds the accepted request's
// evidence and a snapshot of the conversation, captured before the
// conversation itself is deleted.
type ResolutionDetails struct {
	Status         string             `bson:"status" json:"status"`
	RequesterID    primitive.ObjectID `bson:"requesterId" json:"requesterId"`
	Requester      UserSnapshot       `bson:"requester" json:"requester"`
	OwnerID        primitive.ObjectID `bson:"ownerId" json:"ownerId"`
	Owner          UserSnapshot       `bson:"owner" json:"owner"`
	IDPhotoURL     string             `bson:"idPhotoUrl" json:"idPhotoUrl"`
	EvidencePhotos []string           `bson:"evidencePhotos" json:"evidencePhotos"`
	OwnerPhotoURL  string             `bson:"ownerPhotoUrl,omitempty" json:"ownerPhotoUrl,omitempty"`
	Messages       []MessageSnapshot  `bson:"messages" json:"messages"`
	ConfirmedAt    int64              `bson:"confirmedAt" json:"confirmedAt"`
}

// DeletedPost is a soft-deleted post parked in the deleted_posts
// collection, restorable until permanently removed.
type DeletedPost struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	OriginalID primitive.ObjectID `bson:"originalId" json:"originalId"`
	Post       Post               `bson:"post" json:"post"`
	DeletedAt  int64              `bson:"deletedAt" json:"deletedAt"`
	DeletedBy  primitive.ObjectID `bson:"deletedBy" json:"deletedBy"`
}
