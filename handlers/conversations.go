package handlers

import (
	"net/http"

	"foundhub/services"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type StartConversationRequest struct {
	PostID string `json:"postId" binding:"required"`
}

func StartConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req StartConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	postID, err := primitive.ObjectIDFromHex(req.PostID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid postId"})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	conv, err := services.GetOrCreateConversation(ctx, postID, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func ListConversations(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	convs, err := services.ListConversations(ctx, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, convs)
}

func GetConversation(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	conv, err := services.GetConversation(ctx, convID, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func ListMessages(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	messages, err := services.ListMessages(ctx, convID, user.ID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messages)
}

type SendMessageRequest struct {
	Text string `json:"text" binding:"required"`
}

func SendMessage(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	message, err := services.SendTextMessage(ctx, convID, user, req.Text)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, message)
}

func MarkConversationRead(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	convID, ok := pathObjectID(c, "conversationId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.MarkConversationRead(ctx, convID, user.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Conversation marked read"})
}
