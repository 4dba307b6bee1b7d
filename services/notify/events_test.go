package notify

import (
	"strings"
	"testing"
)

func TestBuildTitleBody(t *testing.T) {
	cases := []struct {
		kind     Kind
		params   Params
		wantBody string
	}{
		{KindNewPost, Params{PostTitle: "Blue Umbrella", ActorName: "Ana"}, `Ana reported "Blue Umbrella".`},
		{KindStatusChange, Params{PostTitle: "Blue Umbrella", NewStatus: "completed"}, `"Blue Umbrella" is now completed.`},
		{KindRequestAccepted, Params{PostTitle: "Blue Umbrella", RequestKind: "claim"}, `Your claim request for "Blue Umbrella" was accepted.`},
		{KindRequestRejected, Params{PostTitle: "Blue Umbrella", RequestKind: "handover", Reason: "blurry photo"}, `Your handover request for "Blue Umbrella" was rejected: blurry photo`},
		{KindRequestRejected, Params{PostTitle: "Blue Umbrella", RequestKind: "handover"}, `Your handover request for "Blue Umbrella" was rejected.`},
		{KindRequestConfirmed, Params{PostTitle: "Blue Umbrella", RequestKind: "claim"}, `The claim for "Blue Umbrella" has been confirmed.`},
		{KindPostDeleted, Params{PostTitle: "Blue Umbrella"}, `Your post "Blue Umbrella" has been deleted.`},
		{KindPostFlagged, Params{PostTitle: "Blue Umbrella", Reason: "spam"}, `"Blue Umbrella" was flagged: spam`},
		{KindTurnoverConfirmed, Params{PostTitle: "Blue Umbrella", ActorName: "OSA Desk"}, `Custody of "Blue Umbrella" has been confirmed by OSA Desk.`},
	}
	for _, tc := range cases {
		title, body, err := BuildTitleBody(tc.kind, tc.params)
		if err != nil {
			t.Errorf("BuildTitleBody(%s): %v", tc.kind, err)
			continue
		}
		if title == "" {
			t.Errorf("BuildTitleBody(%s): empty title", tc.kind)
		}
		if body != tc.wantBody {
			t.Errorf("BuildTitleBody(%s) body = %q, want %q", tc.kind, body, tc.wantBody)
		}
	}
}

func TestBuildTitleBodyMissingParams(t *testing.T) {
	cases := []struct {
		kind    Kind
		params  Params
		missing string
	}{
		{KindNewPost, Params{}, "PostTitle"},
		{KindStatusChange, Params{PostTitle: "x"}, "NewStatus"},
		{KindPostFlagged, Params{PostTitle: "x"}, "Reason"},
		{Kind("bogus"), Params{PostTitle: "x"}, "unknown"},
	}
	for _, tc := range cases {
		_, _, err := BuildTitleBody(tc.kind, tc.params)
		if err == nil {
			t.Errorf("BuildTitleBody(%s): expected error", tc.kind)
			continue
		}
		if !strings.Contains(err.Error(), tc.missing) {
			t.Errorf("BuildTitleBody(%s) error %q does not mention %q", tc.kind, err, tc.missing)
		}
	}
}

func TestSuppressed(t *testing.T) {
	optedOut := map[string]bool{
		string(KindRequestAccepted):  false,
		string(KindRequestRejected):  false,
		string(KindRequestConfirmed): false,
	}

	if !Suppressed(KindRequestAccepted, optedOut) {
		t.Error("accepted should be suppressed when opted out")
	}
	if !Suppressed(KindRequestConfirmed, optedOut) {
		t.Error("confirmed should be suppressed when opted out")
	}
	// Rejections deliver regardless of preference.
	if Suppressed(KindRequestRejected, optedOut) {
		t.Error("rejected must never be suppressed")
	}

	if Suppressed(KindRequestAccepted, nil) {
		t.Error("absent prefs must not suppress")
	}
	if Suppressed(KindRequestAccepted, map[string]bool{string(KindRequestAccepted): true}) {
		t.Error("explicitly enabled pref must not suppress")
	}
}
