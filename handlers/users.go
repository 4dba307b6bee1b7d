package handlers

import (
	"net/http"

	"foundhub/services"

	"github.com/gin-gonic/gin"
)

func GetProfile(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, user)
}

type NotificationPrefsRequest struct {
	Prefs map[string]bool `json:"prefs" binding:"required"`
}

// UpdateNotificationPrefs stores per-category opt-outs. Only acceptance
// and confirmation notices honor them; rejections always deliver.
func UpdateNotificationPrefs(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req NotificationPrefsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.UpdateNotificationPrefs(ctx, user.ID, req.Prefs); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Preferences updated"})
}

type AccountStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetUserStatus lets an admin activate or deactivate an account.
func SetUserStatus(c *gin.Context) {
	userID, ok := pathObjectID(c, "userId")
	if !ok {
		return
	}

	var req AccountStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.SetUserAccountStatus(ctx, userID, req.Status); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account status updated"})
}
