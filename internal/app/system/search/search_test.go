// internal/app/system/search/search_test.go
package search_test

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/unionhubhq/unionhub/internal/app/system/search"
)

func TestFoldedOr_EmptyQueryMatchesAll(t *testing.T) {
	filter := search.FoldedOr("", "display_name_ci", "email_ci")
	if len(filter) != 0 {
		t.Errorf("empty query should build an empty filter, got %v", filter)
	}
}

func TestFoldedOr_OneClausePerField(t *testing.T) {
	filter := search.FoldedOr("Smith", "display_name_ci", "email_ci")
	or, ok := filter["$or"].(bson.A)
	if !ok {
		t.Fatalf("expected $or clause, got %v", filter)
	}
	if len(or) != 2 {
		t.Fatalf("expected 2 clauses, got %d", len(or))
	}
	first, ok := or[0].(bson.M)
	if !ok {
		t.Fatalf("unexpected clause shape %T", or[0])
	}
	re, ok := first["display_name_ci"].(bson.M)
	if !ok {
		t.Fatalf("first clause should target display_name_ci, got %v", first)
	}
	if re["$regex"] != "smith" {
		t.Errorf("query should be folded, got %v", re["$regex"])
	}
}

func TestFoldedOr_EscapesRegexMetacharacters(t *testing.T) {
	filter := search.FoldedOr("a.b+c", "email_ci")
	or := filter["$or"].(bson.A)
	re := or[0].(bson.M)["email_ci"].(bson.M)["$regex"].(string)
	if re != `a\.b\+c` {
		t.Errorf("metacharacters should be escaped, got %q", re)
	}
}
