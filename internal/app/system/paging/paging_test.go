// internal/app/system/paging/paging_test.go
package paging_test

import (
	"net/http/httptest"
	"testing"

	"github.com/unionhubhq/unionhub/internal/app/system/paging"
)

func TestParsePage(t *testing.T) {
	cases := []struct {
		url  string
		want int
	}{
		{"/members", 1},
		{"/members?page=3", 3},
		{"/members?page=0", 1},
		{"/members?page=-2", 1},
		{"/members?page=junk", 1},
	}
	for _, c := range cases {
		r := httptest.NewRequest("GET", c.url, nil)
		if got := paging.ParsePage(r); got != c.want {
			t.Errorf("ParsePage(%q) = %d, want %d", c.url, got, c.want)
		}
	}
}

func TestSkip(t *testing.T) {
	if got := paging.Skip(1); got != 0 {
		t.Errorf("Skip(1) = %d, want 0", got)
	}
	if got := paging.Skip(3); got != int64(2*paging.PageSize) {
		t.Errorf("Skip(3) = %d, want %d", got, 2*paging.PageSize)
	}
}

func TestTrim(t *testing.T) {
	full := make([]int, paging.PageSize+1)
	if !paging.Trim(&full) {
		t.Error("expected a next page when one extra row came back")
	}
	if len(full) != paging.PageSize {
		t.Errorf("trimmed length = %d, want %d", len(full), paging.PageSize)
	}

	partial := make([]int, 7)
	if paging.Trim(&partial) {
		t.Error("did not expect a next page for a short result")
	}
	if len(partial) != 7 {
		t.Errorf("short result resized to %d", len(partial))
	}
}
