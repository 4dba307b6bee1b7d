package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"foundhub/database"
	"foundhub/models"
	"foundhub/services/notify"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// requestField maps a request message type to the message document field
// holding its payload.
func requestField(messageType string) string {
	switch messageType {
	case models.MessageTypeHandoverRequest:
		return "handoverData"
	case models.MessageTypeClaimRequest:
		return "claimData"
	default:
		return ""
	}
}

// requestKindName is the human label used in notification copy.
func requestKindName(messageType string) string {
	if messageType == models.MessageTypeHandoverRequest {
		return "handover"
	}
	return "claim"
}

// guardField maps a request message type to the conversation flag that
// enforces one open request per conversation per kind.
func guardField(messageType string) string {
	if messageType == models.MessageTypeHandoverRequest {
		return "handoverRequested"
	}
	return "claimRequested"
}

// SubmitRequestInput carries the evidence attached to a handover or claim
// request. All URLs must point at the trusted photo host.
type SubmitRequestInput struct {
	Kind           string   `json:"kind" binding:"required"`
	IDPhotoURL     string   `json:"idPhotoUrl" binding:"required"`
	EvidencePhotos []string `json:"evidencePhotos"`
}

// SubmitRequest opens a handover or claim request inside a conversation.
// Handover requests apply to lost posts (the sender found the item); claim
// requests apply to found posts whose finder kept the item. At most one
// open request per kind per conversation: the conversation-level guard is
// claimed atomically, so two concurrent submitters cannot both win.
func SubmitRequest(ctx context.Context, convID primitive.ObjectID, sender *models.User, input SubmitRequestInput) (*models.Message, error) {
	var messageType string
	switch input.Kind {
	case "handover":
		messageType = models.MessageTypeHandoverRequest
	case "claim":
		messageType = models.MessageTypeClaimRequest
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrValidation, input.Kind)
	}

	conv, err := getConversationForParticipant(ctx, convID, sender.ID)
	if err != nil {
		return nil, err
	}
	if conv.PostCreatorID == sender.ID {
		return nil, fmt.Errorf("%w: post owner cannot request on their own post", ErrValidation)
	}
	if messageType == models.MessageTypeHandoverRequest && conv.PostType != models.PostTypeLost {
		return nil, fmt.Errorf("%w: handover requests apply to lost posts only", ErrValidation)
	}
	if messageType == models.MessageTypeClaimRequest {
		if conv.PostType != models.PostTypeFound || conv.FoundAction != models.FoundActionKeep {
			return nil, fmt.Errorf("%w: claim requests apply to found posts kept by the finder", ErrValidation)
		}
	}
	if err := validateEvidence(input.IDPhotoURL, input.EvidencePhotos); err != nil {
		return nil, err
	}

	// Claim the guard atomically. Losing the race means another request
	// of this kind is already open.
	guard := guardField(messageType)
	err = database.Conversations.FindOneAndUpdate(ctx,
		bson.M{"_id": convID, guard: false},
		bson.M{"$set": bson.M{guard: true}},
	).Err()
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: a %s request is already open on this conversation", ErrValidation, input.Kind)
	}
	if err != nil {
		return nil, err
	}

	idPhoto := input.IDPhotoURL
	message := models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: convID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		Text:           fmt.Sprintf("%s sent a %s request", sender.Name, requestKindName(messageType)),
		MessageType:    messageType,
		ReadBy:         []primitive.ObjectID{sender.ID},
		CreatedAt:      time.Now().Unix(),
	}
	payload := &models.RequestData{
		Status:         models.RequestPending,
		IDPhotoURL:     &idPhoto,
		EvidencePhotos: input.EvidencePhotos,
	}
	if messageType == models.MessageTypeHandoverRequest {
		message.HandoverData = payload
	} else {
		message.ClaimData = payload
	}

	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		// Release the guard so the conversation is not wedged.
		if _, rbErr := database.Conversations.UpdateOne(ctx,
			bson.M{"_id": convID}, bson.M{"$set": bson.M{guard: false}},
		); rbErr != nil {
			log.Printf("SubmitRequest: guard rollback for %s failed: %v", convID.Hex(), rbErr)
		}
		return nil, fmt.Errorf("inserting request message: %w", err)
	}

	if err := recordMessageSent(ctx, conv, &message); err != nil {
		log.Printf("SubmitRequest: updating conversation %s failed: %v", convID.Hex(), err)
	}
	if err := trimMessages(ctx, convID); err != nil {
		log.Printf("SubmitRequest: trimming conversation %s failed: %v", convID.Hex(), err)
	}

	return &message, nil
}

// RespondInput is the post owner's decision on a pending request.
type RespondInput struct {
	Accept          bool    `json:"accept"`
	RejectionReason string  `json:"rejectionReason"`
	OwnerPhotoURL   *string `json:"ownerPhotoUrl"`
}

// RespondToRequest lets the post owner accept or reject a pending request.
// Rejection destroys the attached evidence photos immediately and releases
// the conversation guard so the requester may try again with fresh
// evidence. Acceptance with an owner counter-photo moves the request to
// pending_confirmation; without one it is accepted outright.
func RespondToRequest(ctx context.Context, convID, messageID primitive.ObjectID, owner *models.User, input RespondInput) (*models.Message, error) {
	conv, err := getConversationForParticipant(ctx, convID, owner.ID)
	if err != nil {
		return nil, err
	}
	if conv.PostCreatorID != owner.ID {
		return nil, fmt.Errorf("%w: only the post owner can respond to requests", ErrValidation)
	}

	var message models.Message
	err = database.Messages.FindOne(ctx, bson.M{"_id": messageID, "conversationId": convID}).Decode(&message)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: request message %s", ErrNotFound, messageID.Hex())
	}
	if err != nil {
		return nil, err
	}

	payload := message.RequestPayload()
	if payload == nil {
		return nil, fmt.Errorf("%w: message %s is not a request", ErrValidation, messageID.Hex())
	}
	if payload.Status != models.RequestPending {
		return nil, fmt.Errorf("%w: request is %s, not pending", ErrValidation, payload.Status)
	}

	field := requestField(message.MessageType)
	now := time.Now().Unix()

	if !input.Accept {
		if input.RejectionReason == "" {
			return nil, fmt.Errorf("%w: a rejection reason is required", ErrValidation)
		}

		var photos []string
		if payload.IDPhotoURL != nil {
			photos = append(photos, *payload.IDPhotoURL)
		}
		photos = append(photos, payload.EvidencePhotos...)
		if result := DeletePhotos(ctx, photos); result.Failed > 0 {
			log.Printf("RespondToRequest: %d evidence photos not deleted for message %s", result.Failed, messageID.Hex())
		}

		_, err = database.Messages.UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{
			"$set": bson.M{
				field + ".status":          models.RequestRejected,
				field + ".idPhotoUrl":      nil,
				field + ".evidencePhotos":  []string{},
				field + ".rejectionReason": input.RejectionReason,
				field + ".respondedAt":     now,
			},
		})
		if err != nil {
			return nil, fmt.Errorf("rejecting request: %w", err)
		}

		// The requester may submit again with new evidence.
		if _, err := database.Conversations.UpdateOne(ctx,
			bson.M{"_id": convID},
			bson.M{"$set": bson.M{guardField(message.MessageType): false}},
		); err != nil {
			log.Printf("RespondToRequest: guard reset for %s failed: %v", convID.Hex(), err)
		}

		enqueue(notify.Event{
			Kind:           notify.KindRequestRejected,
			Recipients:     []primitive.ObjectID{message.SenderID},
			PostID:         conv.PostID,
			ConversationID: convID,
			Params: notify.Params{
				PostTitle:   conv.PostTitle,
				Reason:      input.RejectionReason,
				RequestKind: requestKindName(message.MessageType),
			},
		})
	} else {
		status := models.RequestAccepted
		set := bson.M{
			field + ".status":      status,
			field + ".respondedAt": now,
		}
		if input.OwnerPhotoURL != nil {
			if !TrustedPhotoURL(*input.OwnerPhotoURL) {
				return nil, fmt.Errorf("%w: owner photo must come from the upload host", ErrValidation)
			}
			status = models.RequestPendingConfirmation
			set[field+".status"] = status
			set[field+".ownerPhotoUrl"] = *input.OwnerPhotoURL
		}

		_, err = database.Messages.UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{"$set": set})
		if err != nil {
			return nil, fmt.Errorf("accepting request: %w", err)
		}

		enqueue(notify.Event{
			Kind:           notify.KindRequestAccepted,
			Recipients:     []primitive.ObjectID{message.SenderID},
			PostID:         conv.PostID,
			ConversationID: convID,
			Params: notify.Params{
				PostTitle:   conv.PostTitle,
				ActorName:   owner.Name,
				RequestKind: requestKindName(message.MessageType),
			},
		})
	}

	err = database.Messages.FindOne(ctx, bson.M{"_id": messageID}).Decode(&message)
	if err != nil {
		return nil, err
	}
	return &message, nil
}

// ConfirmIdentity is the requester's final acknowledgement. The request
// reaches its terminal accepted state, the full exchange is snapshotted
// into the post's resolution details, the post is resolved, and every
// conversation on the post is torn down. Photos referenced by the
// confirmed request survive teardown because they now live on the post.
func ConfirmIdentity(ctx context.Context, convID, messageID primitive.ObjectID, requester *models.User) (*models.Post, error) {
	conv, err := getConversationForParticipant(ctx, convID, requester.ID)
	if err != nil {
		return nil, err
	}

	var message models.Message
	err = database.Messages.FindOne(ctx, bson.M{"_id": messageID, "conversationId": convID}).Decode(&message)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: request message %s", ErrNotFound, messageID.Hex())
	}
	if err != nil {
		return nil, err
	}
	if message.SenderID != requester.ID {
		return nil, fmt.Errorf("%w: only the requester can confirm", ErrValidation)
	}

	payload := message.RequestPayload()
	if payload == nil {
		return nil, fmt.Errorf("%w: message %s is not a request", ErrValidation, messageID.Hex())
	}
	if payload.Status != models.RequestPendingConfirmation && payload.Status != models.RequestAccepted {
		return nil, fmt.Errorf("%w: request is %s, not awaiting confirmation", ErrValidation, payload.Status)
	}

	post, err := GetPost(ctx, conv.PostID)
	if err != nil {
		return nil, err
	}

	owner, err := GetUser(ctx, conv.PostCreatorID)
	if err != nil {
		return nil, fmt.Errorf("loading post owner: %w", err)
	}

	now := time.Now().Unix()
	field := requestField(message.MessageType)
	if _, err := database.Messages.UpdateOne(ctx, bson.M{"_id": messageID}, bson.M{
		"$set": bson.M{
			field + ".status":      models.RequestAccepted,
			field + ".respondedAt": now,
		},
	}); err != nil {
		return nil, fmt.Errorf("confirming request: %w", err)
	}

	// Snapshot the conversation before it is destroyed.
	history, err := ListMessages(ctx, convID, requester.ID)
	if err != nil {
		return nil, err
	}
	snapshots := make([]models.MessageSnapshot, 0, len(history))
	for _, m := range history {
		snapshots = append(snapshots, models.MessageSnapshot{
			SenderID:    m.SenderID,
			SenderName:  m.SenderName,
			Text:        m.Text,
			MessageType: m.MessageType,
			CreatedAt:   m.CreatedAt,
		})
	}

	details := models.ResolutionDetails{
		Status:         "confirmed",
		RequesterID:    requester.ID,
		Requester:      requester.Snapshot(),
		OwnerID:        owner.ID,
		Owner:          owner.Snapshot(),
		EvidencePhotos: payload.EvidencePhotos,
		Messages:       snapshots,
		ConfirmedAt:    now,
	}
	if payload.IDPhotoURL != nil {
		details.IDPhotoURL = *payload.IDPhotoURL
	}
	if payload.OwnerPhotoURL != nil {
		details.OwnerPhotoURL = *payload.OwnerPhotoURL
	}

	detailsField := "handoverDetails"
	if message.MessageType == models.MessageTypeClaimRequest {
		detailsField = "claimDetails"
	}
	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": post.ID}, bson.M{
		"$set": bson.M{
			"status":     models.PostStatusResolved,
			detailsField: details,
		},
	}); err != nil {
		return nil, fmt.Errorf("resolving post: %w", err)
	}

	// The confirmed evidence moved onto the post and must outlive teardown.
	keep := map[string]bool{}
	if payload.IDPhotoURL != nil {
		keep[*payload.IDPhotoURL] = true
	}
	for _, url := range payload.EvidencePhotos {
		keep[url] = true
	}
	if payload.OwnerPhotoURL != nil {
		keep[*payload.OwnerPhotoURL] = true
	}
	if err := TeardownConversationsForPost(ctx, post.ID, "item returned to its owner", keep); err != nil {
		log.Printf("ConfirmIdentity: teardown for post %s failed: %v", post.ID.Hex(), err)
	}

	enqueue(notify.Event{
		Kind:           notify.KindRequestConfirmed,
		Recipients:     []primitive.ObjectID{owner.ID},
		PostID:         post.ID,
		ConversationID: convID,
		Params: notify.Params{
			PostTitle:   conv.PostTitle,
			ActorName:   requester.Name,
			RequestKind: requestKindName(message.MessageType),
		},
	})

	return GetPost(ctx, post.ID)
}
