package identity

import (
	"context"
	"time"
)

// Identity is the authenticated subject returned by the identity provider.
type Identity struct {
	Principal       string    `json:"principal"`
	Provider        string    `json:"provider"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// State is the provider snapshot observed by the rest of the client.
type State struct {
	Identity        *Identity
	IsAuthenticated bool
	IsInitialized   bool
	// InitErr is set when restoring the session failed; the provider stays anonymous.
	InitErr error
	// LoginErr holds the last failed handshake until the next login or logout.
	LoginErr error
}

// Principal returns the current principal or an empty string when anonymous.
func (s State) Principal() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.Principal
}

// Authenticator completes the external handshake and reports who the caller is.
type Authenticator interface {
	Authenticate(ctx context.Context, assertion string) (*Identity, error)
}

// SessionStore keeps the browser session -> identity mapping across reloads.
type SessionStore interface {
	Load(ctx context.Context, sessionID string) (*Identity, error)
	Save(ctx context.Context, sessionID string, id Identity) error
	Delete(ctx context.Context, sessionID string) error
}
