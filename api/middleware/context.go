package middleware

import (
	"context"

	"github.com/angelmondragon/civreg-backend/pkg/auth"
)

type contextKey string

const ctxClaims contextKey = "claims"

// ClaimsFromContext returns the authenticated caller's claims, or nil when
// the request went through no auth middleware.
func ClaimsFromContext(ctx context.Context) *auth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if claims, ok := ctx.Value(ctxClaims).(*auth.AccessTokenClaims); ok {
		return claims
	}
	return nil
}

// WithClaims injects claims into the context. Used by tests and the auth
// middleware.
func WithClaims(ctx context.Context, claims *auth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxClaims, claims)
}
