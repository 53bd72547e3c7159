// Package unionctx resolves which union a signed-in user is acting in.
//
// A user can belong to several unions but the UI always operates on
// exactly one "active" union. The choice is persisted in the session
// as a preference; the resolver re-validates it on every request so a
// stale preference (union deleted, user removed) silently falls back
// instead of breaking navigation.
package unionctx

import (
	"context"

	"github.com/unionhubhq/unionhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Lister is the slice of the union store the resolver needs.
type Lister interface {
	ListByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Union, error)
}

// Selection is the outcome of resolving a user's active union.
type Selection struct {
	Union models.Union
	// Unions is the full membership set, in query order.
	Unions []models.Union
	// None is true when the user belongs to no union at all; the
	// caller should route them to onboarding.
	None bool
	// Corrected is true when the persisted preference was absent from
	// the membership set and the resolver fell back to the first
	// result. Callers should overwrite the stored preference.
	Corrected bool
}

// Resolver picks the active union for a user.
type Resolver struct {
	unions Lister
	log    *zap.Logger
}

func New(unions Lister, logger *zap.Logger) *Resolver {
	return &Resolver{unions: unions, log: logger}
}

// Resolve fetches the user's unions and applies the selection policy:
// the persisted preference wins when it is still in the set, otherwise
// the first result in query order. A fetch error is logged and reported
// as "no union selected" — never a panic, never a nil selection while
// memberships exist.
func (r *Resolver) Resolve(ctx context.Context, userID primitive.ObjectID, preferred string) Selection {
	unions, err := r.unions.ListByMember(ctx, userID)
	if err != nil {
		r.log.Error("union membership fetch failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return Selection{None: true}
	}
	if len(unions) == 0 {
		return Selection{None: true}
	}

	if preferred != "" {
		for _, u := range unions {
			if u.Code == preferred {
				return Selection{Union: u, Unions: unions}
			}
		}
	}
	return Selection{
		Union:     unions[0],
		Unions:    unions,
		Corrected: preferred != "" && preferred != unions[0].Code,
	}
}

// Validate reports whether target is one of the user's unions and
// returns it. Used by the explicit switch operation.
func (r *Resolver) Validate(ctx context.Context, userID primitive.ObjectID, target string) (models.Union, bool) {
	unions, err := r.unions.ListByMember(ctx, userID)
	if err != nil {
		r.log.Error("union membership fetch failed",
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return models.Union{}, false
	}
	for _, u := range unions {
		if u.Code == target {
			return u, true
		}
	}
	return models.Union{}, false
}
