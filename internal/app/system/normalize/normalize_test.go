package normalize_test

import (
	"testing"

	"github.com/unionhubhq/unionhub/internal/app/system/normalize"
)

func TestInviteCode(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Local 417", "local-417"},
		{"  LOCAL   417  ", "local-417"},
		{"north-end", "north-end"},
		{"Mixed Case\tTabs", "mixed-case-tabs"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalize.InviteCode(tc.in); got != tc.want {
			t.Errorf("InviteCode(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestQueryParam(t *testing.T) {
	if got := normalize.QueryParam("  urgent "); got != "urgent" {
		t.Errorf("QueryParam = %q", got)
	}
}

func TestAuthError(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"auth: invalid state.", "Invalid state"},
		{"auth/session expired", "Session expired"},
		{"wrong password", "Wrong password"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := normalize.AuthError(tc.in); got != tc.want {
			t.Errorf("AuthError(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
