// internal/app/system/search/search.go
package search

import (
	"regexp"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
)

// FoldedOr builds a Mongo filter matching the folded query as a
// substring of any of the given case-folded (_ci) fields. Regex
// metacharacters in the query are escaped so user input can't change
// the match semantics. An empty query returns an empty filter.
func FoldedOr(query string, fields ...string) bson.M {
	if query == "" {
		return bson.M{}
	}
	pattern := regexp.QuoteMeta(text.Fold(query))
	clauses := make(bson.A, 0, len(fields))
	for _, f := range fields {
		clauses = append(clauses, bson.M{f: bson.M{"$regex": pattern}})
	}
	return bson.M{"$or": clauses}
}
