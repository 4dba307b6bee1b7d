package handlers

import (
	"net/http"

	"foundhub/database"
	"foundhub/models"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func ListNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	cursor, err := database.Notifications.Find(ctx,
		bson.M{"userId": user.ID},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	defer cursor.Close(ctx)

	var notifications []models.Notification
	if err := cursor.All(ctx, &notifications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

func MarkNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(c, "notificationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := database.Notifications.UpdateOne(ctx,
		bson.M{"_id": notifID, "userId": user.ID},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

func MarkAllNotificationsRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	_, err := database.Notifications.UpdateMany(ctx,
		bson.M{"userId": user.ID, "read": false},
		bson.M{"$set": bson.M{"read": true}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
}

func DeleteNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(c, "notificationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := database.Notifications.DeleteOne(ctx,
		bson.M{"_id": notifID, "userId": user.ID})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}
	if result.DeletedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}

// adminMailboxFilter selects broadcasts and direct admin notices the
// caller has not deleted.
func adminMailboxFilter(adminID interface{}) bson.M {
	return bson.M{
		"$or": []bson.M{
			{"audience": models.AudienceAllAdmins},
			{"adminIds": adminID},
		},
		"deletedBy": bson.M{"$ne": adminID},
	}
}

func ListAdminNotifications(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	cursor, err := database.AdminNotifications.Find(ctx,
		adminMailboxFilter(user.ID),
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}).SetLimit(100),
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	defer cursor.Close(ctx)

	var notifications []models.AdminNotification
	if err := cursor.All(ctx, &notifications); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load notifications"})
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkAdminNotificationRead adds the caller to the broadcast's readBy set.
// The shared document is never mutated beyond the per-admin sets.
func MarkAdminNotificationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(c, "notificationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := database.AdminNotifications.UpdateOne(ctx,
		bson.M{"_id": notifID},
		bson.M{"$addToSet": bson.M{"readBy": user.ID}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update notification"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification marked read"})
}

// DeleteAdminNotification hides the broadcast from the caller only.
func DeleteAdminNotification(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	notifID, ok := pathObjectID(c, "notificationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	result, err := database.AdminNotifications.UpdateOne(ctx,
		bson.M{"_id": notifID},
		bson.M{"$addToSet": bson.M{"deletedBy": user.ID}},
	)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete notification"})
		return
	}
	if result.MatchedCount == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Notification not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Notification deleted"})
}
