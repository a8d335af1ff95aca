package auth

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/golang-jwt/jwt/v5"
)

func identityConfig() config.IdentityConfig {
	return config.IdentityConfig{
		AssertionSecret: "identity-secret",
		Issuer:          "https://identity.ic0.app",
		Audience:        "influence-market",
	}
}

func backendConfig() config.BackendConfig {
	return config.BackendConfig{
		CanisterID:       "rrkah-fqaaa-aaaaa-aaaaq-cai",
		DelegationSecret: "delegation-secret",
		DelegationTTL:    5 * time.Minute,
	}
}

func TestMintAndParseIdentityAssertion(t *testing.T) {
	cfg := identityConfig()
	now := time.Now().UTC()

	token, err := MintIdentityAssertion(cfg, now, "2vxsx-fae", time.Minute)
	if err != nil {
		t.Fatalf("mint assertion: %v", err)
	}

	claims, err := ParseIdentityAssertion(cfg, token)
	if err != nil {
		t.Fatalf("parse assertion: %v", err)
	}
	if claims.Principal != "2vxsx-fae" {
		t.Fatalf("expected principal preserved, got %q", claims.Principal)
	}
	if claims.Issuer != cfg.Issuer {
		t.Fatalf("expected issuer %s, got %s", cfg.Issuer, claims.Issuer)
	}
}

func TestParseIdentityAssertionRejectsWrongIssuer(t *testing.T) {
	cfg := identityConfig()
	other := cfg
	other.Issuer = "https://evil.example"

	token, err := MintIdentityAssertion(other, time.Now(), "2vxsx-fae", time.Minute)
	if err != nil {
		t.Fatalf("mint assertion: %v", err)
	}
	if _, err := ParseIdentityAssertion(cfg, token); err == nil {
		t.Fatal("expected issuer mismatch to fail")
	}
}

func TestParseIdentityAssertionExpired(t *testing.T) {
	cfg := identityConfig()
	token, err := MintIdentityAssertion(cfg, time.Now().Add(-time.Hour), "2vxsx-fae", time.Minute)
	if err != nil {
		t.Fatalf("mint assertion: %v", err)
	}
	_, err = ParseIdentityAssertion(cfg, token)
	if err == nil {
		t.Fatal("expected expiration error")
	}
	if !strings.Contains(err.Error(), "expired") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseIdentityAssertionInvalidSignature(t *testing.T) {
	cfg := identityConfig()
	token, err := MintIdentityAssertion(cfg, time.Now(), "2vxsx-fae", time.Minute)
	if err != nil {
		t.Fatalf("mint assertion: %v", err)
	}
	if _, err := ParseIdentityAssertion(cfg, token+"x"); err == nil {
		t.Fatal("expected invalid signature error")
	}
}

func TestParseIdentityAssertionFallsBackToSubject(t *testing.T) {
	cfg := identityConfig()
	claims := IdentityClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   "subject-only",
			Audience:  jwt.ClaimStrings{cfg.Audience},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	}
	token, err := sign(claims, cfg.AssertionSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	parsed, err := ParseIdentityAssertion(cfg, token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Principal != "subject-only" {
		t.Fatalf("expected subject fallback, got %q", parsed.Principal)
	}
}

func TestMintIdentityAssertionRequiresPrincipal(t *testing.T) {
	if _, err := MintIdentityAssertion(identityConfig(), time.Now(), " ", time.Minute); !errors.Is(err, ErrMissingPrincipal) {
		t.Fatalf("expected ErrMissingPrincipal, got %v", err)
	}
}

func TestMintAndParseDelegation(t *testing.T) {
	cfg := backendConfig()
	token, err := MintDelegation(cfg, time.Now(), "2vxsx-fae")
	if err != nil {
		t.Fatalf("mint delegation: %v", err)
	}
	claims, err := ParseDelegation(cfg, token)
	if err != nil {
		t.Fatalf("parse delegation: %v", err)
	}
	if claims.Principal != "2vxsx-fae" || claims.Canister != cfg.CanisterID {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if claims.ID == "" {
		t.Fatal("expected jti to be set")
	}

	other := cfg
	other.CanisterID = "another-canister"
	if _, err := ParseDelegation(other, token); err == nil {
		t.Fatal("expected audience mismatch to fail")
	}
}
