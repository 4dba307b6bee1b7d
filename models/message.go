package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Message variants.
const (
	MessageTypeText            = "text"
	MessageTypeHandoverRequest = "handover_request"
	MessageTypeClaimRequest    = "claim_request"
)

// Request payload states. pending moves to accepted or rejected; an accept
// that carries an owner counter-photo passes through pending_confirmation
// first. rejected is terminal and destroys the request's photo evidence.
const (
	RequestPending             = "pending"
	RequestAccepted            = "accepted"
	RequestRejected            = "rejected"
	RequestPendingConfirmation = "pending_confirmation"
)

type Message struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ConversationID primitive.ObjectID `bson:"conversationId" json:"conversationId"`
	SenderID       primitive.ObjectID `bson:"senderId" json:"senderId"`
	SenderName     string             `bson:"senderName" json:"senderName"`
	Text           string             `bson:"text" json:"text"`
	MessageType    string             `bson:"messageType" json:"messageType"`

	HandoverData *RequestData `bson:"handoverData,omitempty" json:"handoverData,omitempty"`
	ClaimData    *RequestData `bson:"claimData,omitempty" json:"claimData,omitempty"`

	ReadBy    []primitive.ObjectID `bson:"readBy" json:"readBy"`
	CreatedAt int64                `bson:"createdAt" json:"createdAt"`
}

// RequestData is the embedded handover/claim state machine carried by a
// request message. The message is immutable except for these fields.
type RequestData struct {
	Status          string   `bson:"status" json:"status"`
	IDPhotoURL      *string  `bson:"idPhotoUrl" json:"idPhotoUrl"`
	EvidencePhotos  []string `bson:"evidencePhotos" json:"evidencePhotos"`
	OwnerPhotoURL   *string  `bson:"ownerPhotoUrl,omitempty" json:"ownerPhotoUrl,omitempty"`
	RejectionReason string   `bson:"rejectionReason,omitempty" json:"rejectionReason,omitempty"`
	RespondedAt     int64    `bson:"respondedAt,omitempty" json:"respondedAt,omitempty"`
}

// RequestPayload returns the embedded request data for either kind, or nil
// for plain text messages.
func (m *Message) RequestPayload() *RequestData {
	switch m.MessageType {
	case MessageTypeHandoverRequest:
		return m.HandoverData
	case MessageTypeClaimRequest:
		return m.ClaimData
	}
	return nil
}

// MessageSnapshot is the trimmed copy of a message preserved inside a
// post's resolution details after its conversation is deleted.
type MessageSnapshot struct {
	SenderID    primitive.ObjectID `bson:"senderId" json:"senderId"`
	SenderName  string             `bson:"senderName" json:"senderName"`
	Text        string             `bson:"text" json:"text"`
	MessageType string             `bson:"messageType" json:"messageType"`
	CreatedAt   int64              `bson:"createdAt" json:"createdAt"`
}
