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
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRetentionCap is the per-conversation message limit. The log is
// pruned oldest-first after every send; a best-effort cap, not a hard
// guarantee under concurrent writers.
const MessageRetentionCap = 50

// GetOrCreateConversation opens the chat thread between user and the
// post's current owner. Conversations are unique per (post, participant
// pair): a duplicate request returns the existing thread.
func GetOrCreateConversation(ctx context.Context, postID primitive.ObjectID, user *models.User) (*models.Conversation, error) {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID == user.ID {
		return nil, fmt.Errorf("%w: cannot open a conversation on your own post", ErrValidation)
	}

	userKey := user.ID.Hex()
	ownerKey := post.CreatorID.Hex()

	var existing models.Conversation
	err = database.Conversations.FindOne(ctx, bson.M{
		"postId": postID,
		"participants." + userKey:  bson.M{"$exists": true},
		"participants." + ownerKey: bson.M{"$exists": true},
	}).Decode(&existing)
	if err == nil {
		return &existing, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, err
	}

	now := time.Now().Unix()
	conv := models.Conversation{
		ID:            primitive.NewObjectID(),
		PostID:        postID,
		PostTitle:     post.Title,
		PostType:      post.Type,
		PostStatus:    post.Status,
		PostCreatorID: post.CreatorID,
		FoundAction:   post.FoundAction,
		Participants: map[string]models.Participant{
			ownerKey: {Name: post.User.Name, ProfilePicture: post.User.ProfilePicture, JoinedAt: now},
			userKey:  {Name: user.Name, ProfilePicture: user.ProfilePicture, JoinedAt: now},
		},
		UnreadCounts: map[string]int{ownerKey: 0, userKey: 0},
		CreatedAt:    now,
	}

	if _, err := database.Conversations.InsertOne(ctx, conv); err != nil {
		return nil, fmt.Errorf("creating conversation: %w", err)
	}
	return &conv, nil
}

// getConversationForParticipant loads a conversation, requiring userID to
// be a participant.
func getConversationForParticipant(ctx context.Context, convID, userID primitive.ObjectID) (*models.Conversation, error) {
	var conv models.Conversation
	err := database.Conversations.FindOne(ctx, bson.M{
		"_id": convID,
		"participants." + userID.Hex(): bson.M{"$exists": true},
	}).Decode(&conv)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: conversation %s", ErrNotFound, convID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// ListConversations returns a user's threads, most recent activity first.
func ListConversations(ctx context.Context, userID primitive.ObjectID) ([]models.Conversation, error) {
	cursor, err := database.Conversations.Find(ctx,
		bson.M{"participants." + userID.Hex(): bson.M{"$exists": true}},
		options.Find().SetSort(bson.D{{Key: "lastMessage.sentAt", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// GetConversation returns one thread if userID participates in it.
func GetConversation(ctx context.Context, convID, userID primitive.ObjectID) (*models.Conversation, error) {
	return getConversationForParticipant(ctx, convID, userID)
}

// ListMessages returns a conversation's messages oldest first.
func ListMessages(ctx context.Context, convID, userID primitive.ObjectID) ([]models.Message, error) {
	if _, err := getConversationForParticipant(ctx, convID, userID); err != nil {
		return nil, err
	}

	cursor, err := database.Messages.Find(ctx,
		bson.M{"conversationId": convID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}),
	)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var messages []models.Message
	if err := cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// SendTextMessage appends a plain text message, updates the denormalized
// lastMessage, bumps the other participants' unread counters, and prunes
// the log to the retention cap.
func SendTextMessage(ctx context.Context, convID primitive.ObjectID, sender *models.User, text string) (*models.Message, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: message text is required", ErrValidation)
	}

	conv, err := getConversationForParticipant(ctx, convID, sender.ID)
	if err != nil {
		return nil, err
	}

	message := models.Message{
		ID:             primitive.NewObjectID(),
		ConversationID: convID,
		SenderID:       sender.ID,
		SenderName:     sender.Name,
		Text:           text,
		MessageType:    models.MessageTypeText,
		ReadBy:         []primitive.ObjectID{sender.ID},
		CreatedAt:      time.Now().Unix(),
	}
	if _, err := database.Messages.InsertOne(ctx, message); err != nil {
		return nil, fmt.Errorf("inserting message: %w", err)
	}

	if err := recordMessageSent(ctx, conv, &message); err != nil {
		log.Printf("SendTextMessage: updating conversation %s failed: %v", convID.Hex(), err)
	}
	if err := trimMessages(ctx, convID); err != nil {
		log.Printf("SendTextMessage: trimming conversation %s failed: %v", convID.Hex(), err)
	}

	return &message, nil
}

// recordMessageSent updates lastMessage and increments every other
// participant's unread count. Not critical: the message is already saved.
func recordMessageSent(ctx context.Context, conv *models.Conversation, message *models.Message) error {
	inc := bson.M{}
	for key := range conv.Participants {
		if key != message.SenderID.Hex() {
			inc["unreadCounts."+key] = 1
		}
	}

	update := bson.M{
		"$set": bson.M{
			"lastMessage": models.LastMessage{
				Text:     message.Text,
				SenderID: message.SenderID,
				SentAt:   message.CreatedAt,
			},
		},
	}
	if len(inc) > 0 {
		update["$inc"] = inc
	}

	_, err := database.Conversations.UpdateOne(ctx, bson.M{"_id": conv.ID}, update)
	return err
}

// trimMessages prunes a conversation's log to the retention cap, oldest
// deleted first.
func trimMessages(ctx context.Context, convID primitive.ObjectID) error {
	count, err := database.Messages.CountDocuments(ctx, bson.M{"conversationId": convID})
	if err != nil {
		return err
	}
	if count <= MessageRetentionCap {
		return nil
	}

	cursor, err := database.Messages.Find(ctx,
		bson.M{"conversationId": convID},
		options.Find().
			SetSort(bson.D{{Key: "createdAt", Value: 1}}).
			SetLimit(count-MessageRetentionCap).
			SetProjection(bson.M{"_id": 1}),
	)
	if err != nil {
		return err
	}
	defer cursor.Close(ctx)

	var stale []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &stale); err != nil {
		return err
	}

	ids := make([]primitive.ObjectID, len(stale))
	for i, doc := range stale {
		ids[i] = doc.ID
	}
	_, err = database.Messages.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	return err
}

// MarkConversationRead zeroes the caller's unread counter and adds them to
// readBy on every message they had not seen.
func MarkConversationRead(ctx context.Context, convID, userID primitive.ObjectID) error {
	if _, err := getConversationForParticipant(ctx, convID, userID); err != nil {
		return err
	}

	if _, err := database.Conversations.UpdateOne(ctx, bson.M{"_id": convID}, bson.M{
		"$set": bson.M{"unreadCounts." + userID.Hex(): 0},
	}); err != nil {
		return err
	}

	_, err := database.Messages.UpdateMany(ctx,
		bson.M{"conversationId": convID, "readBy": bson.M{"$ne": userID}},
		bson.M{"$addToSet": bson.M{"readBy": userID}},
	)
	return err
}

// TeardownConversationsForPost irrevocably removes every conversation for
// a post. Pending requests are auto-rejected with reason (their senders
// notified), every referenced photo is destroyed except those in keep,
// then messages and conversations are deleted in one batch and a re-query
// confirms nothing remains. Conversations are marked teardownStatus=pending
// before external cleanup so a crash mid-sequence is detectable by query
// rather than silently abandoned.
func TeardownConversationsForPost(ctx context.Context, postID primitive.ObjectID, reason string, keep map[string]bool) error {
	cursor, err := database.Conversations.Find(ctx, bson.M{"postId": postID})
	if err != nil {
		return fmt.Errorf("listing conversations: %w", err)
	}
	var convs []models.Conversation
	if err := cursor.All(ctx, &convs); err != nil {
		return fmt.Errorf("decoding conversations: %w", err)
	}
	if len(convs) == 0 {
		return nil
	}

	convIDs := make([]primitive.ObjectID, len(convs))
	for i, conv := range convs {
		convIDs[i] = conv.ID
	}

	if _, err := database.Conversations.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": convIDs}},
		bson.M{"$set": bson.M{"teardownStatus": models.TeardownPending}},
	); err != nil {
		return fmt.Errorf("marking teardown: %w", err)
	}

	msgCursor, err := database.Messages.Find(ctx, bson.M{"conversationId": bson.M{"$in": convIDs}})
	if err != nil {
		return fmt.Errorf("listing messages: %w", err)
	}
	var messages []models.Message
	if err := msgCursor.All(ctx, &messages); err != nil {
		return fmt.Errorf("decoding messages: %w", err)
	}

	var photoURLs []string
	for i := range messages {
		message := &messages[i]
		payload := message.RequestPayload()
		if payload == nil {
			continue
		}

		if payload.Status == models.RequestPending || payload.Status == models.RequestPendingConfirmation {
			if err := autoRejectRequest(ctx, message, reason); err != nil {
				log.Printf("Teardown: auto-reject of message %s failed: %v", message.ID.Hex(), err)
			}
		}

		if payload.IDPhotoURL != nil {
			photoURLs = append(photoURLs, *payload.IDPhotoURL)
		}
		photoURLs = append(photoURLs, payload.EvidencePhotos...)
		if payload.OwnerPhotoURL != nil {
			photoURLs = append(photoURLs, *payload.OwnerPhotoURL)
		}
	}

	var doomed []string
	for _, url := range photoURLs {
		if !keep[url] {
			doomed = append(doomed, url)
		}
	}
	if result := DeletePhotos(ctx, doomed); result.Failed > 0 {
		log.Printf("Teardown: %d of %d photos not deleted for post %s", result.Failed, len(doomed), postID.Hex())
	}

	// Records go in one batch: messages first, then the conversations.
	if _, err := database.Messages.DeleteMany(ctx, bson.M{"conversationId": bson.M{"$in": convIDs}}); err != nil {
		return fmt.Errorf("deleting messages: %w", err)
	}
	if _, err := database.Conversations.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": convIDs}}); err != nil {
		return fmt.Errorf("deleting conversations: %w", err)
	}

	remaining, err := database.Conversations.CountDocuments(ctx, bson.M{"postId": postID})
	if err != nil {
		return fmt.Errorf("verifying teardown: %w", err)
	}
	if remaining > 0 {
		return fmt.Errorf("teardown of post %s left %d conversations behind", postID.Hex(), remaining)
	}
	return nil
}

// autoRejectRequest marks a still-open request rejected during teardown
// and queues the bad news for its sender. Rejections are never suppressed.
func autoRejectRequest(ctx context.Context, message *models.Message, reason string) error {
	field := requestField(message.MessageType)
	if field == "" {
		return nil
	}

	_, err := database.Messages.UpdateOne(ctx, bson.M{"_id": message.ID}, bson.M{
		"$set": bson.M{
			field + ".status":          models.RequestRejected,
			field + ".rejectionReason": reason,
			field + ".respondedAt":     time.Now().Unix(),
		},
	})
	if err != nil {
		return err
	}

	var conv models.Conversation
	if err := database.Conversations.FindOne(ctx, bson.M{"_id": message.ConversationID}).Decode(&conv); err == nil {
		enqueue(notify.Event{
			Kind:           notify.KindRequestRejected,
			Recipients:     []primitive.ObjectID{message.SenderID},
			PostID:         conv.PostID,
			ConversationID: conv.ID,
			Params: notify.Params{
				PostTitle:   conv.PostTitle,
				Reason:      reason,
				RequestKind: requestKindName(message.MessageType),
			},
		})
	}
	return nil
}
