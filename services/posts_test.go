package services

import (
	"testing"
	"time"

	"foundhub/models"
)

func TestPostExpiry(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	want := now.AddDate(0, 0, PostActiveDays).Unix()
	if got := PostExpiry(now); got != want {
		t.Fatalf("PostExpiry = %d, want %d", got, want)
	}
}

func TestValidPostStatus(t *testing.T) {
	for _, s := range []string{
		models.PostStatusPending, models.PostStatusResolved,
		models.PostStatusCompleted, models.PostStatusUnclaimed,
	} {
		if !ValidPostStatus(s) {
			t.Errorf("ValidPostStatus(%q) = false", s)
		}
	}
	for _, s := range []string{"", "deleted", "open", "PENDING"} {
		if ValidPostStatus(s) {
			t.Errorf("ValidPostStatus(%q) = true", s)
		}
	}
}

func TestStatusEndsActivity(t *testing.T) {
	ending := map[string]bool{
		models.PostStatusUnclaimed: true,
		models.PostStatusCompleted: true,
		models.PostStatusResolved:  true,
		models.PostStatusPending:   false,
		"":                         false,
	}
	for s, want := range ending {
		if got := statusEndsActivity(s); got != want {
			t.Errorf("statusEndsActivity(%q) = %v, want %v", s, got, want)
		}
	}
}

func TestRequestFieldMapping(t *testing.T) {
	if got := requestField(models.MessageTypeHandoverRequest); got != "handoverData" {
		t.Errorf("requestField(handover) = %q", got)
	}
	if got := requestField(models.MessageTypeClaimRequest); got != "claimData" {
		t.Errorf("requestField(claim) = %q", got)
	}
	if got := requestField(models.MessageTypeText); got != "" {
		t.Errorf("requestField(text) = %q, want empty", got)
	}

	if got := guardField(models.MessageTypeHandoverRequest); got != "handoverRequested" {
		t.Errorf("guardField(handover) = %q", got)
	}
	if got := guardField(models.MessageTypeClaimRequest); got != "claimRequested" {
		t.Errorf("guardField(claim) = %q", got)
	}
}
