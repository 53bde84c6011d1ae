// Package auth holds the authentication primitives of the board: password
// hashing, the signed session cookie, and the tier check used by every route.
package auth

import "github.com/dmitrijs2005/clubhouse/internal/server/models"

// Tier is the minimum privilege a route requires.
type Tier int

const (
	TierAnonymous Tier = iota
	TierAuthenticated
	TierAdmin
)

func (t Tier) String() string {
	switch t {
	case TierAnonymous:
		return "anonymous"
	case TierAuthenticated:
		return "authenticated"
	case TierAdmin:
		return "admin"
	default:
		return "unknown"
	}
}

// TierOf returns the highest tier the principal holds. A nil principal is
// anonymous. Membership does not raise the tier.
func TierOf(principal *models.Account) Tier {
	switch {
	case principal == nil:
		return TierAnonymous
	case principal.IsAdmin:
		return TierAdmin
	default:
		return TierAuthenticated
	}
}

// Allows reports whether principal may access a route requiring tier.
func Allows(principal *models.Account, required Tier) bool {
	return TierOf(principal) >= required
}
