package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// AccessTokenClaims carries the identity the national gateway embeds in
// access tokens: who the actor is, their role, the registration office they
// act from and the scopes granted to them.
type AccessTokenClaims struct {
	UserID   uuid.UUID `json:"user_id"`
	Role     string    `json:"role"`
	OfficeID string    `json:"office_id"`
	Scopes   []string  `json:"scopes"`
	jwt.RegisteredClaims
}

// HasScope reports whether the token grants the given scope.
func (c *AccessTokenClaims) HasScope(scope Scope) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Scopes {
		if granted == string(scope) {
			return true
		}
	}
	return false
}
