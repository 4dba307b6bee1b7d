package handlers

import (
	"net/http"

	"foundhub/models"
	"foundhub/services"

	"github.com/gin-gonic/gin"
)

func CreatePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var input services.CreatePostInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.CreatePost(ctx, input, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, post)
}

func ListPosts(c *gin.Context) {
	opts := services.ListPostsOptions{
		Type:     c.Query("type"),
		Status:   c.Query("status"),
		Category: c.Query("category"),
	}
	// Hidden posts show up for moderators only.
	role := c.GetString("userRole")
	if c.Query("includeHidden") == "true" && role == models.RoleAdmin {
		opts.IncludeHidden = true
	}

	ctx, cancel := requestContext()
	defer cancel()

	posts, err := services.ListPosts(ctx, opts)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, posts)
}

func GetPost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.GetPost(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type StatusUpdateRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

func UpdatePostStatus(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	var req StatusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.GetPost(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if post.CreatorID != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the post owner can update its status"})
		return
	}

	updated, err := services.UpdatePostStatus(ctx, postID, req.Status, req.Notes)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func MoveToUnclaimed(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.MoveToUnclaimed(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func ActivatePost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.ActivatePost(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

type FlagRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func FlagPost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	var req FlagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.FlagPost(ctx, postID, req.Reason, user); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post reported"})
}

func UnflagPost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.UnflagPost(ctx, postID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Flag cleared"})
}

func HidePost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.HidePost(ctx, postID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post hidden"})
}

func UnhidePost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.UnhidePost(ctx, postID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post visible"})
}

func SoftDeletePost(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.GetPost(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if post.CreatorID != user.ID && user.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Only the post owner can delete it"})
		return
	}

	if err := services.SoftDeletePost(ctx, postID, user.ID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post moved to trash"})
}

func RestorePost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.RestorePost(ctx, postID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, post)
}

func PermanentlyDeletePost(c *gin.Context) {
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	if err := services.PermanentlyDeletePost(ctx, postID); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Post permanently deleted"})
}

func ListDeletedPosts(c *gin.Context) {
	ctx, cancel := requestContext()
	defer cancel()

	deleted, err := services.ListDeletedPosts(ctx)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, deleted)
}

type TurnoverRequest struct {
	Status string `json:"status" binding:"required"`
}

// ConfirmTurnover records custody of a turned-over item. Staff only.
func ConfirmTurnover(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	postID, ok := pathObjectID(c, "postId")
	if !ok {
		return
	}

	var req TurnoverRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx, cancel := requestContext()
	defer cancel()

	post, err := services.ConfirmTurnover(ctx, postID, req.Status, user)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if post == nil {
		// not_received removes the post outright
		c.JSON(http.StatusOK, gin.H{"message": "Post removed"})
		return
	}
	c.JSON(http.StatusOK, post)
}
