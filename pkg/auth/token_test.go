package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/civreg-backend/pkg/config"
)

func TestMintAndParseAccessToken(t *testing.T) {
	cfg := config.JWTConfig{
		Secret: "secret",
		Issuer: "civreg",
	}
	now := time.Now().UTC()
	userID := uuid.New()

	claims := AccessTokenClaims{
		UserID:   userID,
		Role:     "registrar",
		OfficeID: "nairobi-central",
		Scopes:   []string{string(ScopeRecordDeclare), string(ScopeRecordValidate)},
	}

	token, err := MintAccessToken(cfg, now, claims, 30*time.Minute)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	parsed, err := ParseAccessToken(cfg, token)
	if err != nil {
		t.Fatalf("parse access token: %v", err)
	}

	if parsed.UserID != userID {
		t.Fatalf("expected user_id %s, got %s", userID, parsed.UserID)
	}
	if parsed.Role != "registrar" {
		t.Fatalf("unexpected role %s", parsed.Role)
	}
	if parsed.OfficeID != "nairobi-central" {
		t.Fatalf("unexpected office %s", parsed.OfficeID)
	}
	if !parsed.HasScope(ScopeRecordDeclare) {
		t.Fatalf("declare scope not preserved")
	}
	if parsed.HasScope(ScopeRecordAssign) {
		t.Fatalf("unexpected assign scope grant")
	}

	// RegisteredClaims is embedded, so access fields directly.
	if parsed.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %q, got %q", cfg.Issuer, parsed.Issuer)
	}
}

func TestParseAccessTokenRejectsWrongIssuer(t *testing.T) {
	minted := config.JWTConfig{Secret: "secret", Issuer: "somewhere-else"}
	token, err := MintAccessToken(minted, time.Now().UTC(), AccessTokenClaims{UserID: uuid.New()}, time.Minute)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(config.JWTConfig{Secret: "secret", Issuer: "civreg"}, token)
	if err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
	if !strings.Contains(err.Error(), "iss") {
		t.Fatalf("expected issuer error, got %v", err)
	}
}

func TestParseAccessTokenRejectsTamperedSignature(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "civreg"}
	token, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenClaims{UserID: uuid.New()}, time.Minute)
	if err != nil {
		t.Fatalf("mint access token: %v", err)
	}

	_, err = ParseAccessToken(config.JWTConfig{Secret: "other", Issuer: "civreg"}, token)
	if err == nil {
		t.Fatal("expected signature validation to fail")
	}
}

func TestMintAccessTokenRequiresUser(t *testing.T) {
	cfg := config.JWTConfig{Secret: "secret", Issuer: "civreg"}
	if _, err := MintAccessToken(cfg, time.Now().UTC(), AccessTokenClaims{}, time.Minute); err == nil {
		t.Fatal("expected missing user id to fail")
	}
}
