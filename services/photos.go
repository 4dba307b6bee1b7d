package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
)

// trustedPhotoHost is the only origin accepted for request evidence. Photos
// are uploaded through UploadPhoto, so anything else is a forged URL.
const trustedPhotoHost = "https://res.cloudinary.com/"

// TrustedPhotoURL reports whether url points at the trusted image host.
func TrustedPhotoURL(url string) bool {
	return strings.HasPrefix(url, trustedPhotoHost)
}

// PublicIDFromURL recovers the cloudinary public ID from a delivery URL so
// the asset can be destroyed later. Returns "" if the URL does not look
// like an upload delivery URL.
//
// https://res.cloudinary.com/<cloud>/image/upload/v123/foundhub/posts/abc.jpg
// yields "foundhub/posts/abc".
func PublicIDFromURL(url string) string {
	if !TrustedPhotoURL(url) {
		return ""
	}

	idx := strings.Index(url, "/upload/")
	if idx < 0 {
		return ""
	}
	path := url[idx+len("/upload/"):]

	// Skip the version segment if present.
	if len(path) > 1 && path[0] == 'v' {
		if slash := strings.Index(path, "/"); slash > 0 {
			allDigits := true
			for _, r := range path[1:slash] {
				if r < '0' || r > '9' {
					allDigits = false
					break
				}
			}
			if allDigits {
				path = path[slash+1:]
			}
		}
	}

	// Strip the file extension.
	if dot := strings.LastIndex(path, "."); dot > strings.LastIndex(path, "/") {
		path = path[:dot]
	}
	if path == "" {
		return ""
	}
	return path
}

// UploadPhoto pushes one image to cloudinary under the given folder and
// returns its secure delivery URL. Upload failure aborts the caller's
// operation (propagated, not swallowed).
func UploadPhoto(ctx context.Context, file io.Reader, folder string) (string, error) {
	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		return "", fmt.Errorf("cloudinary configuration: %w", err)
	}

	uploadParams := uploader.UploadParams{
		Folder:         "foundhub/" + folder,
		PublicID:       uuid.NewString(),
		Transformation: "c_limit,w_1200,h_1200,q_auto",
	}

	result, err := cld.Upload.Upload(ctx, file, uploadParams)
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	return result.SecureURL, nil
}

// CleanupResult aggregates a best-effort photo purge. Partial failure is
// not an error; callers log a warning when Failed > 0 and proceed.
type CleanupResult struct {
	Deleted int
	Failed  int
}

// DeletePhotos destroys each URL's asset. Already-gone assets count as
// deleted (idempotent delete). URLs not on the trusted host are skipped.
func DeletePhotos(ctx context.Context, urls []string) CleanupResult {
	var result CleanupResult

	cld, err := cloudinary.NewFromURL(os.Getenv("CLOUDINARY_URL"))
	if err != nil {
		log.Printf("DeletePhotos: cloudinary configuration error: %v", err)
		result.Failed = len(urls)
		return result
	}

	for _, url := range urls {
		publicID := PublicIDFromURL(url)
		if publicID == "" {
			continue
		}

		resp, err := cld.Upload.Destroy(ctx, uploader.DestroyParams{PublicID: publicID})
		if err != nil {
			log.Printf("DeletePhotos: destroy %s: %v", publicID, err)
			result.Failed++
			continue
		}
		// "not found" means someone beat us to it; still a success.
		if resp.Result != "ok" && resp.Result != "not found" {
			log.Printf("DeletePhotos: destroy %s: unexpected result %q", publicID, resp.Result)
			result.Failed++
			continue
		}
		result.Deleted++
	}

	return result
}

// validateEvidence checks a request's photo set: one identity photo plus a
// non-empty evidence list, all on the trusted host.
func validateEvidence(idPhotoURL string, evidencePhotos []string) error {
	if idPhotoURL == "" {
		return fmt.Errorf("%w: an identity photo is required", ErrValidation)
	}
	if !TrustedPhotoURL(idPhotoURL) {
		return fmt.Errorf("%w: identity photo must be uploaded through the app", ErrValidation)
	}
	if len(evidencePhotos) == 0 {
		return fmt.Errorf("%w: at least one evidence photo is required", ErrValidation)
	}
	for _, url := range evidencePhotos {
		if !TrustedPhotoURL(url) {
			return fmt.Errorf("%w: evidence photos must be uploaded through the app", ErrValidation)
		}
	}
	return nil
}
