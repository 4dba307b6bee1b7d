package services

import (
	"context"
	"fmt"

	"foundhub/database"
	"foundhub/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// GetUser loads one user document.
func GetUser(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := database.Users.FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err == mongo.ErrNoDocuments {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, userID.Hex())
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// SetUserAccountStatus activates or deactivates an account and invalidates
// the cached status so the gate takes effect immediately, not after TTL.
func SetUserAccountStatus(ctx context.Context, userID primitive.ObjectID, status string) error {
	if status != models.UserStatusActive && status != models.UserStatusDeactivated {
		return fmt.Errorf("%w: unknown account status %q", ErrValidation, status)
	}

	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID.Hex())
	}

	InvalidateUserStatus(userID)
	return nil
}

// UpdateNotificationPrefs replaces a user's per-category opt-outs.
func UpdateNotificationPrefs(ctx context.Context, userID primitive.ObjectID, prefs map[string]bool) error {
	result, err := database.Users.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"notificationPrefs": prefs}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: user %s", ErrNotFound, userID.Hex())
	}
	return nil
}
