package auth

import (
	"github.com/golang-jwt/jwt/v5"
)

// IdentityClaims is the signed assertion the identity provider hands back after the
// browser completes its handshake. Only the subject principal is trusted.
type IdentityClaims struct {
	Principal string `json:"principal"`
	jwt.RegisteredClaims
}

// DelegationClaims binds backend calls to the identity they are made for.
type DelegationClaims struct {
	Principal string `json:"principal"`
	Canister  string `json:"canister"`
	jwt.RegisteredClaims
}
