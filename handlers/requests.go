package handlers

import (
	"net/http"

	"foundhub/services"

	"github.com/gin-gonic/gin"
)

// SubmitRequest opens a handover or claim request in a conversation.
func SubmitRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}

	var input services.SubmitRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	message, err := services.SubmitRequest(ctx, convID, user, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

// RespondToRequest is the post owner's accept/reject decision.
func RespondToRequest(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}
	messageID, ok := pathObjectID(c, "messageId")
	if !ok {
		return
	}

	var input services.RespondInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	message, err := services.RespondToRequest(ctx, convID, messageID, user, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, message)
}

// ConfirmIdentity finalizes an accepted request, resolving the post and
// tearing down its conversations.
func ConfirmIdentity(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}
	messageID, ok := pathObjectID(c, "messageId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.ConfirmIdentity(ctx, convID, messageID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}
