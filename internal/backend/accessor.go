package backend

import (
	"context"
	"sync"

	"github.com/angelmondragon/influence-market/internal/identity"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// ErrUnavailable is returned by callers that found no bound client.
var ErrUnavailable = pkgerrors.New(pkgerrors.CodeBackendUnavailable, "backend client is not ready")

// ClientFactory builds a client bound to principal; an empty principal means anonymous.
type ClientFactory func(principal string) (Client, error)

// Accessor holds the client bound to the current identity of one browser session.
// A nil Client means "operation unavailable", never an error state.
type Accessor struct {
	factory ClientFactory
	logg    *logger.Logger

	mu     sync.RWMutex
	client Client
	seq    uint64
}

func NewAccessor(factory ClientFactory, logg *logger.Logger) *Accessor {
	return &Accessor{factory: factory, logg: logg}
}

// Bind drops the current client and creates one for id. The handle reads nil while
// rebinding and stays nil if the factory fails.
func (a *Accessor) Bind(ctx context.Context, id *identity.Identity) Client {
	a.mu.Lock()
	a.client = nil
	a.seq++
	seq := a.seq
	a.mu.Unlock()

	if a.factory == nil {
		return nil
	}
	principal := ""
	if id != nil {
		principal = id.Principal
	}
	client, err := a.factory(principal)
	if err != nil {
		if a.logg != nil {
			a.logg.Error(a.logg.WithPrincipal(ctx, principal), "backend.bind_failed", err)
		}
		return nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if seq != a.seq {
		// a newer Bind won
		return a.client
	}
	a.client = client
	return client
}

// Client returns the bound client or nil.
func (a *Accessor) Client() Client {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.client
}

// Require returns the bound client or ErrUnavailable.
func (a *Accessor) Require() (Client, error) {
	if client := a.Client(); client != nil {
		return client, nil
	}
	return nil, ErrUnavailable
}
