//go:build mongo

// End-to-end service tests against a real MongoDB. Run with:
//
//	MONGODB_URI=mongodb://127.0.0.1:27017 go test -tags mongo ./services/
//
// Each test binds the collection handles to a throwaway database that is
// dropped on cleanup.
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"foundhub/database"
	"foundhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const trustedPhoto = "https://res.cloudinary.com/demo/image/upload/foundhub/posts/test.jpg"
const trustedEvidence = "https://res.cloudinary.com/demo/image/upload/foundhub/evidence/test.jpg"

func setupTestDB(t *testing.T) context.Context {
	t.Helper()

	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		t.Fatalf("mongo.Connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		t.Skipf("MongoDB not reachable at %s: %v", uri, err)
	}

	db := client.Database(fmt.Sprintf("foundhub_test_%d", time.Now().UnixNano()))
	database.UseDatabase(db)

	t.Cleanup(func() {
		cleanupCtx, cleanupCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cleanupCancel()
		_ = db.Drop(cleanupCtx)
		_ = client.Disconnect(cleanupCtx)
	})

	return ctx
}

func insertTestUser(t *testing.T, ctx context.Context, name, role string) *models.User {
	t.Helper()
	user := &models.User{
		Email:     name + "@test.local",
		Name:      name,
		Role:      role,
		Status:    models.UserStatusActive,
		CreatedAt: time.Now().Unix(),
	}
	result, err := database.Users.InsertOne(ctx, user)
	if err != nil {
		t.Fatalf("insert user: %v", err)
	}
	user.ID = result.InsertedID.(primitive.ObjectID)
	return user
}

func createTestPost(t *testing.T, ctx context.Context, creator *models.User, postType, foundAction string) *models.Post {
	t.Helper()
	post, err := CreatePost(ctx, CreatePostInput{
		Type:        postType,
		Category:    "electronics",
		Location:    "Library",
		Title:       "Black Headphones",
		FoundAction: foundAction,
		Photos:      []string{trustedPhoto},
	}, creator)
	if err != nil {
		t.Fatalf("CreatePost: %v", err)
	}
	return post
}

func TestFlagHideUnflagFlow(t *testing.T) {
	ctx := setupTestDB(t)
	creator := insertTestUser(t, ctx, "creator", models.RoleUser)
	reporter := insertTestUser(t, ctx, "reporter", models.RoleUser)
	post := createTestPost(t, ctx, creator, models.PostTypeLost, "")

	if err := FlagPost(ctx, post.ID, "looks like spam", reporter); err != nil {
		t.Fatalf("FlagPost: %v", err)
	}
	if err := HidePost(ctx, post.ID); err != nil {
		t.Fatalf("HidePost: %v", err)
	}

	got, err := GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost: %v", err)
	}
	if !got.IsFlagged || !got.IsHidden {
		t.Fatalf("post should be flagged and hidden, got flagged=%v hidden=%v", got.IsFlagged, got.IsHidden)
	}
	if got.FlagReason != "looks like spam" {
		t.Errorf("FlagReason = %q", got.FlagReason)
	}

	// Hidden posts vanish from default listings.
	visible, err := ListPosts(ctx, ListPostsOptions{})
	if err != nil {
		t.Fatalf("ListPosts: %v", err)
	}
	if len(visible) != 0 {
		t.Fatalf("hidden post appeared in listing, got %d posts", len(visible))
	}

	if err := UnflagPost(ctx, post.ID); err != nil {
		t.Fatalf("UnflagPost: %v", err)
	}
	got, err = GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("GetPost after unflag: %v", err)
	}
	if got.IsFlagged || got.IsHidden {
		t.Fatalf("unflag should clear flag and unhide, got flagged=%v hidden=%v", got.IsFlagged, got.IsHidden)
	}
	if got.FlagReason != "" {
		t.Errorf("FlagReason should be cleared, got %q", got.FlagReason)
	}

	// Unflagging again stays a no-op.
	if err := UnflagPost(ctx, post.ID); err != nil {
		t.Fatalf("UnflagPost repeat: %v", err)
	}
}

func TestSoftDeleteAndRestore(t *testing.T) {
	ctx := setupTestDB(t)
	creator := insertTestUser(t, ctx, "creator", models.RoleUser)
	post := createTestPost(t, ctx, creator, models.PostTypeLost, "")

	if err := SoftDeletePost(ctx, post.ID, creator.ID); err != nil {
		t.Fatalf("SoftDeletePost: %v", err)
	}

	if _, err := GetPost(ctx, post.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("deleted post should be gone, got err=%v", err)
	}

	trash, err := ListDeletedPosts(ctx)
	if err != nil {
		t.Fatalf("ListDeletedPosts: %v", err)
	}
	if len(trash) != 1 || trash[0].OriginalID != post.ID {
		t.Fatalf("trash should hold the deleted post, got %d entries", len(trash))
	}

	restored, err := RestorePost(ctx, post.ID)
	if err != nil {
		t.Fatalf("RestorePost: %v", err)
	}
	if restored.Status != models.PostStatusPending {
		t.Errorf("restored status = %q, want pending", restored.Status)
	}
	if restored.ExpiryDate <= time.Now().Unix() {
		t.Error("restored post should get a fresh expiry window")
	}

	trash, err = ListDeletedPosts(ctx)
	if err != nil {
		t.Fatalf("ListDeletedPosts after restore: %v", err)
	}
	if len(trash) != 0 {
		t.Fatalf("trash should be empty after restore, got %d entries", len(trash))
	}
}

func TestMoveToUnclaimedAndActivate(t *testing.T) {
	ctx := setupTestDB(t)
	creator := insertTestUser(t, ctx, "creator", models.RoleUser)
	post := createTestPost(t, ctx, creator, models.PostTypeFound, models.FoundActionKeep)

	moved, err := MoveToUnclaimed(ctx, post.ID)
	if err != nil {
		t.Fatalf("MoveToUnclaimed: %v", err)
	}
	if moved.Status != models.PostStatusUnclaimed {
		t.Fatalf("status = %q, want unclaimed", moved.Status)
	}
	if moved.OriginalStatus != models.PostStatusPending {
		t.Errorf("originalStatus = %q, want pending", moved.OriginalStatus)
	}
	if !moved.MovedToUnclaimed || !moved.IsExpired {
		t.Errorf("expected movedToUnclaimed and isExpired set")
	}

	// Moving again is a no-op.
	if _, err := MoveToUnclaimed(ctx, post.ID); err != nil {
		t.Fatalf("MoveToUnclaimed repeat: %v", err)
	}

	activated, err := ActivatePost(ctx, post.ID)
	if err != nil {
		t.Fatalf("ActivatePost: %v", err)
	}
	if activated.Status != models.PostStatusPending {
		t.Fatalf("activated status = %q, want pending", activated.Status)
	}
	if activated.IsExpired || activated.MovedToUnclaimed {
		t.Error("activation should reset expiry markers")
	}
	if activated.OriginalStatus != "" {
		t.Errorf("originalStatus should be cleared, got %q", activated.OriginalStatus)
	}
}

func TestRequestGuardAndRejection(t *testing.T) {
	ctx := setupTestDB(t)
	owner := insertTestUser(t, ctx, "owner", models.RoleUser)
	finder := insertTestUser(t, ctx, "finder", models.RoleUser)
	post := createTestPost(t, ctx, owner, models.PostTypeLost, "")

	conv, err := GetOrCreateConversation(ctx, post.ID, finder)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}

	input := SubmitRequestInput{
		Kind:           "handover",
		IDPhotoURL:     trustedPhoto,
		EvidencePhotos: []string{trustedEvidence},
	}
	message, err := SubmitRequest(ctx, conv.ID, finder, input)
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}
	if message.HandoverData == nil || message.HandoverData.Status != models.RequestPending {
		t.Fatal("request should start pending")
	}

	// Guard: a second open request of the same kind is refused.
	if _, err := SubmitRequest(ctx, conv.ID, finder, input); !errors.Is(err, ErrValidation) {
		t.Fatalf("second request should fail validation, got %v", err)
	}

	rejected, err := RespondToRequest(ctx, conv.ID, message.ID, owner, RespondInput{
		Accept:          false,
		RejectionReason: "photo does not match",
	})
	if err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	payload := rejected.RequestPayload()
	if payload.Status != models.RequestRejected {
		t.Fatalf("status = %q, want rejected", payload.Status)
	}
	if payload.IDPhotoURL != nil || len(payload.EvidencePhotos) != 0 {
		t.Error("rejection should clear evidence photo references")
	}
	if payload.RejectionReason != "photo does not match" {
		t.Errorf("RejectionReason = %q", payload.RejectionReason)
	}

	// Rejection releases the guard: the finder may try again.
	if _, err := SubmitRequest(ctx, conv.ID, finder, input); err != nil {
		t.Fatalf("resubmit after rejection: %v", err)
	}
}

func TestConfirmIdentityResolvesAndTearsDown(t *testing.T) {
	ctx := setupTestDB(t)
	owner := insertTestUser(t, ctx, "keeper", models.RoleUser)
	claimant := insertTestUser(t, ctx, "claimant", models.RoleUser)
	post := createTestPost(t, ctx, owner, models.PostTypeFound, models.FoundActionKeep)

	conv, err := GetOrCreateConversation(ctx, post.ID, claimant)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if _, err := SendTextMessage(ctx, conv.ID, claimant, "I think that's mine"); err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}

	message, err := SubmitRequest(ctx, conv.ID, claimant, SubmitRequestInput{
		Kind:           "claim",
		IDPhotoURL:     trustedPhoto,
		EvidencePhotos: []string{trustedEvidence},
	})
	if err != nil {
		t.Fatalf("SubmitRequest: %v", err)
	}

	guarded, err := GetConversation(ctx, conv.ID, claimant.ID)
	if err != nil {
		t.Fatalf("GetConversation: %v", err)
	}
	if !guarded.ClaimRequested {
		t.Fatal("claimRequested guard should be set after submit")
	}

	// An owner counter-photo routes through pending_confirmation.
	ownerPhoto := trustedPhoto
	accepted, err := RespondToRequest(ctx, conv.ID, message.ID, owner, RespondInput{
		Accept:        true,
		OwnerPhotoURL: &ownerPhoto,
	})
	if err != nil {
		t.Fatalf("RespondToRequest: %v", err)
	}
	if accepted.RequestPayload().Status != models.RequestPendingConfirmation {
		t.Fatalf("status = %q, want pending_confirmation", accepted.RequestPayload().Status)
	}

	resolved, err := ConfirmIdentity(ctx, conv.ID, message.ID, claimant)
	if err != nil {
		t.Fatalf("ConfirmIdentity: %v", err)
	}
	if resolved.Status != models.PostStatusResolved {
		t.Fatalf("post status = %q, want resolved", resolved.Status)
	}
	if resolved.ClaimDetails == nil {
		t.Fatal("resolved post should carry claim details")
	}
	if resolved.ClaimDetails.Status != "confirmed" {
		t.Errorf("claim details status = %q, want confirmed", resolved.ClaimDetails.Status)
	}
	if resolved.ClaimDetails.RequesterID != claimant.ID {
		t.Error("claim details should record the requester")
	}
	if resolved.ClaimDetails.OwnerPhotoURL != trustedPhoto {
		t.Error("claim details should carry the owner counter-photo")
	}
	if len(resolved.ClaimDetails.Messages) == 0 {
		t.Error("claim details should snapshot the conversation")
	}

	// Teardown leaves nothing behind.
	convCount, err := database.Conversations.CountDocuments(ctx, bson.M{"postId": post.ID})
	if err != nil {
		t.Fatalf("count conversations: %v", err)
	}
	if convCount != 0 {
		t.Fatalf("%d conversations survived teardown", convCount)
	}
	msgCount, err := database.Messages.CountDocuments(ctx, bson.M{"conversationId": conv.ID})
	if err != nil {
		t.Fatalf("count messages: %v", err)
	}
	if msgCount != 0 {
		t.Fatalf("%d messages survived teardown", msgCount)
	}
}

func TestStatusChangeTearsDownConversations(t *testing.T) {
	ctx := setupTestDB(t)
	owner := insertTestUser(t, ctx, "owner", models.RoleUser)
	other := insertTestUser(t, ctx, "other", models.RoleUser)
	post := createTestPost(t, ctx, owner, models.PostTypeLost, "")

	conv, err := GetOrCreateConversation(ctx, post.ID, other)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}
	if _, err := SendTextMessage(ctx, conv.ID, other, "any luck?"); err != nil {
		t.Fatalf("SendTextMessage: %v", err)
	}

	if _, err := UpdatePostStatus(ctx, post.ID, models.PostStatusCompleted, "found it myself"); err != nil {
		t.Fatalf("UpdatePostStatus: %v", err)
	}

	count, err := database.Conversations.CountDocuments(ctx, bson.M{"postId": post.ID})
	if err != nil {
		t.Fatalf("count conversations: %v", err)
	}
	if count != 0 {
		t.Fatalf("%d conversations survived status teardown", count)
	}
}

func TestMessageRetention(t *testing.T) {
	ctx := setupTestDB(t)
	owner := insertTestUser(t, ctx, "owner", models.RoleUser)
	other := insertTestUser(t, ctx, "other", models.RoleUser)
	post := createTestPost(t, ctx, owner, models.PostTypeLost, "")

	conv, err := GetOrCreateConversation(ctx, post.ID, other)
	if err != nil {
		t.Fatalf("GetOrCreateConversation: %v", err)
	}

	for i := 0; i < MessageRetentionCap+5; i++ {
		if _, err := SendTextMessage(ctx, conv.ID, other, fmt.Sprintf("msg %d", i)); err != nil {
			t.Fatalf("SendTextMessage %d: %v", i, err)
		}
	}

	messages, err := ListMessages(ctx, conv.ID, other.ID)
	if err != nil {
		t.Fatalf("ListMessages: %v", err)
	}
	if len(messages) > MessageRetentionCap {
		t.Fatalf("retention cap not enforced: %d messages", len(messages))
	}
}

func TestAccountStatusGate(t *testing.T) {
	ctx := setupTestDB(t)
	user := insertTestUser(t, ctx, "member", models.RoleUser)

	role, status, err := LookupUserStatus(ctx, user.ID)
	if err != nil {
		t.Fatalf("LookupUserStatus: %v", err)
	}
	if role != models.RoleUser || status != models.UserStatusActive {
		t.Fatalf("got (%q, %q)", role, status)
	}

	if err := SetUserAccountStatus(ctx, user.ID, models.UserStatusDeactivated); err != nil {
		t.Fatalf("SetUserAccountStatus: %v", err)
	}

	// Cache must be invalidated by the status write.
	_, status, err = LookupUserStatus(ctx, user.ID)
	if err != nil {
		t.Fatalf("LookupUserStatus after deactivate: %v", err)
	}
	if status != models.UserStatusDeactivated {
		t.Fatalf("status = %q, want deactivated (stale cache?)", status)
	}
}
