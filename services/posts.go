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

// PostActiveDays is the active window before a pending post expires.
const PostActiveDays = 30

// PostExpiry computes the expiry for a post created or reactivated at now.
func PostExpiry(now time.Time) int64 {
	return now.Add(PostActiveDays * 24 * time.Hour).Unix()
}

// ValidPostStatus reports membership in the post status set.
func ValidPostStatus(s string) bool {
	switch s {
	case models.PostStatusPending, models.PostStatusResolved,
		models.PostStatusCompleted, models.PostStatusUnclaimed:
		return true
	}
	return false
}

// statusEndsActivity reports whether a transition to s tears down the
// post's conversations.
func statusEndsActivity(s string) bool {
	switch s {
	case models.PostStatusUnclaimed, models.PostStatusCompleted, models.PostStatusResolved:
		return true
	}
	return false
}

type CreatePostInput struct {
	Type             string   `json:"type" binding:"required"`
	Category         string   `json:"category" binding:"required"`
	Location         string   `json:"location" binding:"required"`
	Title            string   `json:"title" binding:"required"`
	Description      string   `json:"description"`
	FoundAction      string   `json:"foundAction"`
	TurnoverReceiver string   `json:"turnoverReceiver"`
	Photos           []string `json:"photos"`
}

// CreatePost writes a new pending report with a 30-day expiry and notifies
// the admin mailbox. Photo upload happens before this call; a failed upload
// aborts creation, a failed notification never does.
func CreatePost(ctx context.Context, in CreatePostInput, creator *models.User) (*models.Post, error) {
	if in.Type != models.PostTypeLost && in.Type != models.PostTypeFound {
		return nil, fmt.Errorf("%w: post type must be lost or found", ErrValidation)
	}

	var turnover *models.TurnoverDetails
	if in.Type == models.PostTypeFound {
		switch in.FoundAction {
		case models.FoundActionKeep:
		case models.FoundActionTurnover:
			if in.TurnoverReceiver != models.TurnoverReceiverOSA && in.TurnoverReceiver != models.TurnoverReceiverSecurity {
				return nil, fmt.Errorf("%w: turnover receiver must be osa or campus_security", ErrValidation)
			}
			finder := creator.Snapshot()
			turnover = &models.TurnoverDetails{
				ReceivedBy:     in.TurnoverReceiver,
				TurnoverStatus: models.TurnoverDeclared,
				OriginalFinder: &finder,
			}
		default:
			return nil, fmt.Errorf("%w: found posts need a disposition of keep or turnover", ErrValidation)
		}
	}

	for _, url := range in.Photos {
		if !TrustedPhotoURL(url) {
			return nil, fmt.Errorf("%w: photos must be uploaded through the app", ErrValidation)
		}
	}

	now := time.Now()
	post := models.Post{
		ID:              primitive.NewObjectID(),
		Type:            in.Type,
		Category:        in.Category,
		Location:        in.Location,
		Title:           in.Title,
		Description:     in.Description,
		Photos:          in.Photos,
		FoundAction:     in.FoundAction,
		CreatorID:       creator.ID,
		User:            creator.Snapshot(),
		Status:          models.PostStatusPending,
		ExpiryDate:      PostExpiry(now),
		TurnoverDetails: turnover,
		CreatedAt:       now.Unix(),
	}
	if post.Photos == nil {
		post.Photos = []string{}
	}

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		return nil, fmt.Errorf("inserting post: %w", err)
	}

	enqueue(notify.Event{
		Kind:           notify.KindNewPost,
		AdminBroadcast: true,
		PostID:         post.ID,
		Params:         notify.Params{PostTitle: post.Title, ActorName: creator.Name},
	})

	return &post, nil
}

// GetPost loads one post from the primary collection.
func GetPost(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	var post models.Post
	err := database.Posts.FindOne(ctx, bson.M{"_id": postID}).Decode(&post)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: post %s", ErrNotFound, postID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &post, nil
}

type ListPostsOptions struct {
	Type          string
	Status        string
	Category      string
	IncludeHidden bool
}

func ListPosts(ctx context.Context, opts ListPostsOptions) ([]models.Post, error) {
	filter := bson.M{}
	if opts.Type != "" {
		filter["type"] = opts.Type
	}
	if opts.Status != "" {
		filter["status"] = opts.Status
	}
	if opts.Category != "" {
		filter["category"] = opts.Category
	}
	if !opts.IncludeHidden {
		filter["isHidden"] = false
	}

	cursor, err := database.Posts.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var posts []models.Post
	if err := cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePostStatus writes the new status. Transitions into unclaimed,
// completed or resolved tear down all of the post's conversations as a
// mandatory side effect; the write and the teardown are not atomic, and a
// failed teardown leaves the status in place with only a log line.
func UpdatePostStatus(ctx context.Context, postID primitive.ObjectID, newStatus, notes string) (*models.Post, error) {
	if !ValidPostStatus(newStatus) {
		return nil, fmt.Errorf("%w: unknown post status %q", ErrValidation, newStatus)
	}

	post, err := GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	update := bson.M{"status": newStatus}
	if notes != "" {
		update["statusNotes"] = notes
	}
	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": update}); err != nil {
		return nil, fmt.Errorf("updating post status: %w", err)
	}
	post.Status = newStatus

	if statusEndsActivity(newStatus) {
		if err := TeardownConversationsForPost(ctx, postID, "post status changed", nil); err != nil {
			log.Printf("UpdatePostStatus: teardown for post %s failed: %v", postID.Hex(), err)
		}
	}

	enqueue(notify.Event{
		Kind:       notify.KindStatusChange,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title, NewStatus: newStatus},
	})

	return post, nil
}

// postRecipients returns who to tell about a post-level event: the current
// owner, plus the original finder when custody was reassigned by a
// turnover confirmation.
func postRecipients(post *models.Post) []primitive.ObjectID {
	recipients := []primitive.ObjectID{post.CreatorID}
	if post.TurnoverDetails != nil && post.TurnoverDetails.OriginalFinder != nil {
		recipients = append(recipients, post.TurnoverDetails.OriginalFinder.ID)
	}
	return recipients
}

// MoveToUnclaimed parks a post whose active window elapsed, remembering the
// prior status for reactivation.
func MoveToUnclaimed(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.Status == models.PostStatusUnclaimed {
		return post, nil
	}

	update := bson.M{
		"status":           models.PostStatusUnclaimed,
		"originalStatus":   post.Status,
		"isExpired":        true,
		"movedToUnclaimed": true,
	}
	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": update}); err != nil {
		return nil, fmt.Errorf("moving post to unclaimed: %w", err)
	}

	if err := TeardownConversationsForPost(ctx, postID, "post status changed", nil); err != nil {
		log.Printf("MoveToUnclaimed: teardown for post %s failed: %v", postID.Hex(), err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindStatusChange,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title, NewStatus: models.PostStatusUnclaimed},
	})

	post.OriginalStatus = post.Status
	post.Status = models.PostStatusUnclaimed
	post.IsExpired = true
	post.MovedToUnclaimed = true
	return post, nil
}

// ActivatePost restores an unclaimed post to its pre-unclaimed status and
// always issues a fresh 30-day expiry, however much of the original window
// remained.
func ActivatePost(ctx context.Context, postID primitive.ObjectID) (*models.Post, error) {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}

	restored := post.OriginalStatus
	if restored == "" {
		restored = models.PostStatusPending
	}

	_, err = database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$set": bson.M{
			"status":           restored,
			"isExpired":        false,
			"movedToUnclaimed": false,
			"expiryDate":       PostExpiry(time.Now()),
		},
		"$unset": bson.M{"originalStatus": ""},
	})
	if err != nil {
		return nil, fmt.Errorf("activating post: %w", err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindStatusChange,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title, NewStatus: restored},
	})

	return GetPost(ctx, postID)
}

// FlagPost marks a post for moderation and alerts the admin mailbox.
func FlagPost(ctx context.Context, postID primitive.ObjectID, reason string, flaggedBy *models.User) error {
	if reason == "" {
		return fmt.Errorf("%w: a flag reason is required", ErrValidation)
	}

	post, err := GetPost(ctx, postID)
	if err != nil {
		return err
	}

	_, err = database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$set": bson.M{"isFlagged": true, "flagReason": reason, "flaggedBy": flaggedBy.ID},
	})
	if err != nil {
		return fmt.Errorf("flagging post: %w", err)
	}

	enqueue(notify.Event{
		Kind:           notify.KindPostFlagged,
		AdminBroadcast: true,
		PostID:         postID,
		Params:         notify.Params{PostTitle: post.Title, Reason: reason, ActorName: flaggedBy.Name},
	})
	return nil
}

// UnflagPost clears moderation state. Unflagging a post that is not
// flagged is a no-op. Unflagging a hidden post also unhides it, and the
// creator gets both notifications (flag approval and unhide).
func UnflagPost(ctx context.Context, postID primitive.ObjectID) error {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsFlagged {
		return nil
	}

	update := bson.M{"isFlagged": false}
	if post.IsHidden {
		update["isHidden"] = false
	}
	_, err = database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
		"$set":   update,
		"$unset": bson.M{"flagReason": "", "flaggedBy": ""},
	})
	if err != nil {
		return fmt.Errorf("unflagging post: %w", err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindFlagApproved,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title},
	})
	if post.IsHidden {
		enqueue(notify.Event{
			Kind:       notify.KindPostUnhidden,
			Recipients: postRecipients(post),
			PostID:     postID,
			Params:     notify.Params{PostTitle: post.Title},
		})
	}
	return nil
}

// HidePost removes a post from public listings without touching flag state.
func HidePost(ctx context.Context, postID primitive.ObjectID) error {
	result, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": bson.M{"isHidden": true}})
	if err != nil {
		return fmt.Errorf("hiding post: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: post %s", ErrNotFound, postID.Hex())
	}
	return nil
}

// UnhidePost restores visibility and tells the creator.
func UnhidePost(ctx context.Context, postID primitive.ObjectID) error {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return err
	}
	if !post.IsHidden {
		return nil
	}

	if _, err := database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$set": bson.M{"isHidden": false}}); err != nil {
		return fmt.Errorf("unhiding post: %w", err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindPostUnhidden,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title},
	})
	return nil
}

// SoftDeletePost moves a post into the deleted_posts collection. The post
// never exists in both collections: the copy is written first, then the
// original is removed, so a crash in between leaves a duplicate in trash
// rather than a lost post.
func SoftDeletePost(ctx context.Context, postID, deletedBy primitive.ObjectID) error {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return err
	}

	deleted := models.DeletedPost{
		ID:         primitive.NewObjectID(),
		OriginalID: post.ID,
		Post:       *post,
		DeletedAt:  time.Now().Unix(),
		DeletedBy:  deletedBy,
	}
	if _, err := database.DeletedPosts.InsertOne(ctx, deleted); err != nil {
		return fmt.Errorf("copying post to trash: %w", err)
	}
	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return fmt.Errorf("removing post: %w", err)
	}

	if err := TeardownConversationsForPost(ctx, postID, "post deleted", nil); err != nil {
		log.Printf("SoftDeletePost: teardown for post %s failed: %v", postID.Hex(), err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindPostDeleted,
		Recipients: postRecipients(post),
		PostID:     postID,
		Params:     notify.Params{PostTitle: post.Title},
	})
	return nil
}

// RestorePost moves a soft-deleted post back to the primary collection
// with status pending and a fresh expiry, whatever status it held before
// deletion.
func RestorePost(ctx context.Context, originalID primitive.ObjectID) (*models.Post, error) {
	var deleted models.DeletedPost
	err := database.DeletedPosts.FindOne(ctx, bson.M{"originalId": originalID}).Decode(&deleted)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: deleted post %s", ErrNotFound, originalID.Hex())
	}
	if err != nil {
		return nil, err
	}

	post := deleted.Post
	post.Status = models.PostStatusPending
	post.StatusNotes = ""
	post.IsExpired = false
	post.MovedToUnclaimed = false
	post.OriginalStatus = ""
	post.ExpiryDate = PostExpiry(time.Now())

	if _, err := database.Posts.InsertOne(ctx, post); err != nil {
		return nil, fmt.Errorf("restoring post: %w", err)
	}
	if _, err := database.DeletedPosts.DeleteOne(ctx, bson.M{"_id": deleted.ID}); err != nil {
		return nil, fmt.Errorf("clearing trash entry: %w", err)
	}

	enqueue(notify.Event{
		Kind:       notify.KindPostRestored,
		Recipients: postRecipients(&post),
		PostID:     post.ID,
		Params:     notify.Params{PostTitle: post.Title},
	})
	return &post, nil
}

// PermanentlyDeletePost erases a post for good: its photos (already-gone
// counts as success), its conversations, its notifications, and finally
// the document itself, wherever it lives (primary or trash).
func PermanentlyDeletePost(ctx context.Context, postID primitive.ObjectID) error {
	post, err := GetPost(ctx, postID)
	if err != nil {
		var deleted models.DeletedPost
		derr := database.DeletedPosts.FindOne(ctx, bson.M{"originalId": postID}).Decode(&deleted)
		if derr == mongo.ErrNoDocuments {
			return fmt.Errorf("%w: post %s", ErrNotFound, postID.Hex())
		}
		if derr != nil {
			return derr
		}
		post = &deleted.Post
	}

	urls := append([]string{}, post.Photos...)
	for _, details := range []*models.ResolutionDetails{post.HandoverDetails, post.ClaimDetails} {
		if details == nil {
			continue
		}
		if details.IDPhotoURL != "" {
			urls = append(urls, details.IDPhotoURL)
		}
		urls = append(urls, details.EvidencePhotos...)
		if details.OwnerPhotoURL != "" {
			urls = append(urls, details.OwnerPhotoURL)
		}
	}
	if result := DeletePhotos(ctx, urls); result.Failed > 0 {
		log.Printf("PermanentlyDeletePost: %d of %d photos not deleted for post %s",
			result.Failed, len(urls), postID.Hex())
	}

	if err := TeardownConversationsForPost(ctx, postID, "post deleted", nil); err != nil {
		log.Printf("PermanentlyDeletePost: teardown for post %s failed: %v", postID.Hex(), err)
	}

	if _, err := database.Notifications.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("PermanentlyDeletePost: clearing notifications for post %s failed: %v", postID.Hex(), err)
	}
	if _, err := database.AdminNotifications.DeleteMany(ctx, bson.M{"postId": postID}); err != nil {
		log.Printf("PermanentlyDeletePost: clearing admin notifications for post %s failed: %v", postID.Hex(), err)
	}

	if _, err := database.Posts.DeleteOne(ctx, bson.M{"_id": postID}); err != nil {
		return fmt.Errorf("deleting post: %w", err)
	}
	if _, err := database.DeletedPosts.DeleteMany(ctx, bson.M{"originalId": postID}); err != nil {
		return fmt.Errorf("deleting trash entry: %w", err)
	}
	return nil
}

// ConfirmTurnover advances the custody hand-off of a turned-over item.
// Confirming reassigns ownership to the confirming admin while preserving
// the true reporter under originalFinder, so their notifications keep
// flowing. not_received destroys the post outright.
func ConfirmTurnover(ctx context.Context, postID primitive.ObjectID, status string, confirmer *models.User) (*models.Post, error) {
	post, err := GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.TurnoverDetails == nil {
		return nil, fmt.Errorf("%w: post %s has no turnover declaration", ErrValidation, postID.Hex())
	}

	switch status {
	case models.TurnoverConfirmed:
		finder := post.TurnoverDetails.OriginalFinder
		if finder == nil {
			snapshot := post.User
			finder = &snapshot
		}

		_, err = database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
			"$set": bson.M{
				"creatorId":                      confirmer.ID,
				"user":                           confirmer.Snapshot(),
				"turnoverDetails.turnoverStatus": models.TurnoverConfirmed,
				"turnoverDetails.originalFinder": finder,
				"turnoverDetails.confirmedBy":    confirmer.ID,
				"turnoverDetails.confirmedAt":    time.Now().Unix(),
			},
		})
		if err != nil {
			return nil, fmt.Errorf("confirming turnover: %w", err)
		}

		enqueue(notify.Event{
			Kind:       notify.KindTurnoverConfirmed,
			Recipients: []primitive.ObjectID{finder.ID},
			PostID:     postID,
			Params:     notify.Params{PostTitle: post.Title, ActorName: confirmer.Name},
		})
		return GetPost(ctx, postID)

	case models.TurnoverTransferred:
		_, err = database.Posts.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{
			"$set": bson.M{"turnoverDetails.turnoverStatus": models.TurnoverTransferred},
		})
		if err != nil {
			return nil, fmt.Errorf("recording turnover transfer: %w", err)
		}
		return GetPost(ctx, postID)

	case models.TurnoverNotReceived:
		// Irreversible: the declared item never arrived.
		if err := PermanentlyDeletePost(ctx, postID); err != nil {
			return nil, err
		}
		return nil, nil
	}

	return nil, fmt.Errorf("%w: unknown turnover status %q", ErrValidation, status)
}

// ListDeletedPosts returns the trash, newest deletion first.
func ListDeletedPosts(ctx context.Context) ([]models.DeletedPost, error) {
	cursor, err := database.DeletedPosts.Find(ctx, bson.M{},
		options.Find().SetSort(bson.D{{Key: "deletedAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var deleted []models.DeletedPost
	if err := cursor.All(ctx, &deleted); err != nil {
		return nil, err
	}
	return deleted, nil
}

// SweepExpiredPosts marks pending posts whose active window elapsed.
// Moving them to unclaimed remains an explicit admin action.
func SweepExpiredPosts(ctx context.Context) (int64, error) {
	result, err := database.Posts.UpdateMany(ctx,
		bson.M{
			"status":     models.PostStatusPending,
			"isExpired":  false,
			"expiryDate": bson.M{"$lt": time.Now().Unix()},
		},
		bson.M{"$set": bson.M{"isExpired": true}},
	)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}
