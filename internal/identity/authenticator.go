package identity

import (
	"context"
	"strings"
	"time"

	"github.com/angelmondragon/influence-market/pkg/auth"
	"github.com/angelmondragon/influence-market/pkg/config"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

// AssertionAuthenticator accepts signed assertions issued by the identity provider
// after its redirect/popup handshake.
type AssertionAuthenticator struct {
	cfg config.IdentityConfig
	now func() time.Time
}

// NewAssertionAuthenticator builds an authenticator for the configured provider.
func NewAssertionAuthenticator(cfg config.IdentityConfig) *AssertionAuthenticator {
	return &AssertionAuthenticator{cfg: cfg, now: time.Now}
}

func (a *AssertionAuthenticator) Authenticate(ctx context.Context, assertion string) (*Identity, error) {
	assertion = strings.TrimSpace(assertion)
	if assertion == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "identity assertion is required")
	}
	claims, err := auth.ParseIdentityAssertion(a.cfg, assertion)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "identity assertion rejected")
	}
	provider := a.cfg.Provider
	if provider == "" {
		provider = claims.Issuer
	}
	return &Identity{
		Principal:       claims.Principal,
		Provider:        provider,
		AuthenticatedAt: a.now().UTC(),
	}, nil
}
