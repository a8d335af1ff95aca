package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// ErrMissingPrincipal is returned when an otherwise valid token names no principal.
var ErrMissingPrincipal = errors.New("token carries no principal")

// ParseIdentityAssertion validates an identity provider assertion and returns its claims.
func ParseIdentityAssertion(cfg config.IdentityConfig, raw string) (*IdentityClaims, error) {
	if cfg.AssertionSecret == "" {
		return nil, fmt.Errorf("identity assertion secret is required")
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	claims := &IdentityClaims{}
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(raw),
		claims,
		keyFunc(cfg.AssertionSecret),
		opts...,
	)
	if err != nil {
		return nil, err
	}
	if claims.Principal == "" {
		claims.Principal = claims.Subject
	}
	if strings.TrimSpace(claims.Principal) == "" {
		return nil, ErrMissingPrincipal
	}
	return claims, nil
}

// MintIdentityAssertion signs an assertion the way the identity provider does. The dev
// login surface and tests use it; production assertions come from the provider.
func MintIdentityAssertion(cfg config.IdentityConfig, now time.Time, principal string, ttl time.Duration) (string, error) {
	if cfg.AssertionSecret == "" {
		return "", fmt.Errorf("identity assertion secret is required")
	}
	if strings.TrimSpace(principal) == "" {
		return "", ErrMissingPrincipal
	}
	if ttl <= 0 {
		return "", fmt.Errorf("assertion ttl must be positive")
	}
	claims := IdentityClaims{
		Principal: principal,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			Subject:   principal,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}
	if cfg.Audience != "" {
		claims.Audience = jwt.ClaimStrings{cfg.Audience}
	}
	return sign(claims, cfg.AssertionSecret)
}

// MintDelegation issues the short-lived token an identity-bound backend client attaches
// to every call.
func MintDelegation(cfg config.BackendConfig, now time.Time, principal string) (string, error) {
	if cfg.DelegationSecret == "" {
		return "", fmt.Errorf("delegation secret is required")
	}
	if strings.TrimSpace(principal) == "" {
		return "", ErrMissingPrincipal
	}
	if cfg.DelegationTTL <= 0 {
		return "", fmt.Errorf("delegation ttl must be positive")
	}
	claims := DelegationClaims{
		Principal: principal,
		Canister:  cfg.CanisterID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   principal,
			Audience:  jwt.ClaimStrings{cfg.CanisterID},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.DelegationTTL)),
			ID:        uuid.NewString(),
		},
	}
	return sign(claims, cfg.DelegationSecret)
}

// ParseDelegation validates a delegation token against the configured canister.
func ParseDelegation(cfg config.BackendConfig, raw string) (*DelegationClaims, error) {
	if cfg.DelegationSecret == "" {
		return nil, fmt.Errorf("delegation secret is required")
	}
	claims := &DelegationClaims{}
	_, err := jwt.ParseWithClaims(
		strings.TrimSpace(raw),
		claims,
		keyFunc(cfg.DelegationSecret),
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
		jwt.WithAudience(cfg.CanisterID),
	)
	if err != nil {
		return nil, err
	}
	if claims.Principal == "" {
		return nil, ErrMissingPrincipal
	}
	return claims, nil
}

func sign(claims jwt.Claims, secret string) (string, error) {
	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

func keyFunc(secret string) jwt.Keyfunc {
	return func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtSigningMethod {
			return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
		}
		return []byte(secret), nil
	}
}
