package handlers

import (
	"net/http"

	"foundhub/services"

	"github.com/gin-gonic/gin"
)

// allowed upload folders, preventing writes outside the app's namespace
var uploadFolders = map[string]bool{
	"posts":    true,
	"evidence": true,
	"profiles": true,
}

// UploadPhoto accepts a multipart photo and returns its delivery URL.
// Clients upload first, then reference the returned URL in post or
// request payloads.
func UploadPhoto(c *gin.Context) {
	if _, ok := currentUser(c); !ok {
		return
	}

	folder := c.PostForm("folder")
	if folder == "" {
		folder = "posts"
	}
	if !uploadFolders[folder] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload folder"})
		return
	}

	file, _, err := c.Request.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No photo provided"})
		return
	}
	defer file.Close()

	ctx, cancel := requestContext()
	defer cancel()

	url, err := services.UploadPhoto(ctx, file, folder)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}
