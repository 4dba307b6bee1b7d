package services

import (
	"errors"
	"testing"
)

func TestTrustedPhotoURL(t *testing.T) {
	cases := []struct {
		url  string
		want bool
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1/foundhub/posts/a.jpg", true},
		{"https://res.cloudinary.com/", true},
		{"http://res.cloudinary.com/demo/image/upload/a.jpg", false},
		{"https://evil.example.com/res.cloudinary.com/a.jpg", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := TrustedPhotoURL(tc.url); got != tc.want {
			t.Errorf("TrustedPhotoURL(%q) = %v, want %v", tc.url, got, tc.want)
		}
	}
}

func TestPublicIDFromURL(t *testing.T) {
	cases := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345/foundhub/posts/abc.jpg", "foundhub/posts/abc"},
		{"https://res.cloudinary.com/demo/image/upload/foundhub/evidence/xyz.png", "foundhub/evidence/xyz"},
		// Leading segment that only looks like a version must survive.
		{"https://res.cloudinary.com/demo/image/upload/vault/item.jpg", "vault/item"},
		{"https://res.cloudinary.com/demo/image/upload/noext", "noext"},
		{"https://res.cloudinary.com/demo/image/fetch/v1/foundhub/a.jpg", ""},
		{"https://example.com/image/upload/v1/a.jpg", ""},
	}
	for _, tc := range cases {
		if got := PublicIDFromURL(tc.url); got != tc.want {
			t.Errorf("PublicIDFromURL(%q) = %q, want %q", tc.url, got, tc.want)
		}
	}
}

func TestValidateEvidence(t *testing.T) {
	trusted := "https://res.cloudinary.com/demo/image/upload/foundhub/evidence/a.jpg"

	if err := validateEvidence(trusted, []string{trusted}); err != nil {
		t.Fatalf("validateEvidence: %v", err)
	}

	bad := []struct {
		name     string
		idPhoto  string
		evidence []string
	}{
		{"missing id photo", "", []string{trusted}},
		{"untrusted id photo", "https://example.com/a.jpg", []string{trusted}},
		{"no evidence", trusted, nil},
		{"untrusted evidence", trusted, []string{"https://example.com/b.jpg"}},
	}
	for _, tc := range bad {
		err := validateEvidence(tc.idPhoto, tc.evidence)
		if err == nil {
			t.Errorf("%s: expected error", tc.name)
			continue
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("%s: error is not ErrValidation: %v", tc.name, err)
		}
	}
}
