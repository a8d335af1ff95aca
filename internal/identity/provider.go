package identity

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/angelmondragon/influence-market/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// Listener observes provider transitions.
type Listener func(State)

// Provider owns the identity of a single browser session.
type Provider struct {
	sessionID   string
	fingerprint string
	auth        Authenticator
	store       SessionStore
	logg        *logger.Logger

	// notifyMu is taken before mu. It serializes transitions from the store write through
	// listener delivery.
	notifyMu sync.Mutex
	restored atomic.Bool

	mu        sync.Mutex
	state     State
	listeners []subscription
	nextSub   int
}

type subscription struct {
	id int
	fn Listener
}

// ProviderParams bundles the dependencies of a Provider.
type ProviderParams struct {
	SessionID     string
	Authenticator Authenticator
	Store         SessionStore
	Logger        *logger.Logger
}

// NewProvider constructs an uninitialized provider for the browser session.
func NewProvider(params ProviderParams) (*Provider, error) {
	if strings.TrimSpace(params.SessionID) == "" {
		return nil, fmt.Errorf("session id is required")
	}
	if params.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	return &Provider{
		sessionID:   params.SessionID,
		fingerprint: session.Fingerprint(params.SessionID),
		auth:        params.Authenticator,
		store:       params.Store,
		logg:        params.Logger,
	}, nil
}

// State returns the current snapshot.
func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Subscribe registers fn for every subsequent transition and returns a func that removes it.
// Listeners run on the goroutine that caused the transition, in registration order, and
// must not call Init, Login or Logout.
func (p *Provider) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	p.mu.Lock()
	p.nextSub++
	id := p.nextSub
	p.listeners = append(p.listeners, subscription{id: id, fn: fn})
	p.mu.Unlock()

	return func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		for i, sub := range p.listeners {
			if sub.id == id {
				p.listeners = append(p.listeners[:i:i], p.listeners[i+1:]...)
				return
			}
		}
	}
}

// Init restores the identity bound to the browser session. Once a restore succeeds later
// calls return immediately; a failed restore is recorded in State.InitErr and the next call
// tries again.
func (p *Provider) Init(ctx context.Context) {
	if p.restored.Load() {
		return
	}
	p.notifyMu.Lock()
	if p.restored.Load() {
		p.notifyMu.Unlock()
		return
	}
	saved, err := p.store.Load(ctx, p.sessionID)

	p.mu.Lock()
	p.state.IsInitialized = true
	p.state.InitErr = err
	if err == nil {
		p.restored.Store(true)
		if saved != nil && saved.Principal != "" {
			p.state.Identity = saved
			p.state.IsAuthenticated = true
		}
	}
	next := p.state
	p.mu.Unlock()

	if err != nil {
		p.logError(ctx, "identity.init_failed", err)
	} else if next.IsAuthenticated {
		p.logInfo(p.withPrincipal(ctx, next.Principal()), "identity.restored")
	}
	p.publish(next)
}

// Login runs the identity handshake and, on success, makes the returned identity current.
// A failed handshake is not retried; it is returned and kept in State.LoginErr.
func (p *Provider) Login(ctx context.Context, assertion string) (*Identity, error) {
	p.Init(ctx)

	id, err := p.auth.Authenticate(ctx, assertion)
	if err == nil && (id == nil || id.Principal == "") {
		err = pkgerrors.New(pkgerrors.CodeUnauthorized, "identity provider returned no principal")
	}

	p.notifyMu.Lock()
	if err != nil {
		p.mu.Lock()
		p.state.LoginErr = err
		next := p.state
		p.mu.Unlock()
		p.logWarn(ctx, "identity.login_failed", err)
		p.publish(next)
		return nil, err
	}

	if err := p.store.Save(ctx, p.sessionID, *id); err != nil {
		p.notifyMu.Unlock()
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist session")
	}

	p.mu.Lock()
	p.restored.Store(true)
	p.state.IsInitialized = true
	p.state.InitErr = nil
	p.state.Identity = id
	p.state.IsAuthenticated = true
	p.state.LoginErr = nil
	next := p.state
	p.mu.Unlock()

	p.logInfo(p.withPrincipal(ctx, id.Principal), "identity.login")
	p.publish(next)
	return id, nil
}

// Logout clears the identity. Listeners are notified before Logout returns so dependent
// state is invalidated eagerly.
func (p *Provider) Logout(ctx context.Context) error {
	p.Init(ctx)

	p.notifyMu.Lock()
	storeErr := p.store.Delete(ctx, p.sessionID)

	p.mu.Lock()
	previous := p.state.Principal()
	p.state.Identity = nil
	p.state.IsAuthenticated = false
	p.state.LoginErr = nil
	if storeErr == nil {
		p.restored.Store(true)
		p.state.IsInitialized = true
		p.state.InitErr = nil
	}
	next := p.state
	p.mu.Unlock()

	p.logInfo(p.withPrincipal(ctx, previous), "identity.logout")
	p.publish(next)

	if storeErr != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, storeErr, "delete session")
	}
	return nil
}

// publish is entered holding notifyMu and releases it after delivering state, so concurrent
// transitions reach listeners in the order they were applied.
func (p *Provider) publish(state State) {
	defer p.notifyMu.Unlock()

	p.mu.Lock()
	listeners := make([]subscription, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, sub := range listeners {
		sub.fn(state)
	}
}

func (p *Provider) withPrincipal(ctx context.Context, principal string) context.Context {
	if p.logg == nil {
		return ctx
	}
	ctx = p.logg.WithSessionID(ctx, p.fingerprint)
	if principal == "" {
		return ctx
	}
	return p.logg.WithPrincipal(ctx, principal)
}

func (p *Provider) logInfo(ctx context.Context, msg string) {
	if p.logg != nil {
		p.logg.Info(ctx, msg)
	}
}

func (p *Provider) logWarn(ctx context.Context, msg string, err error) {
	if p.logg != nil {
		p.logg.Warn(p.logg.WithField(p.withPrincipal(ctx, ""), "error", err.Error()), msg)
	}
}

func (p *Provider) logError(ctx context.Context, msg string, err error) {
	if p.logg != nil {
		p.logg.Error(p.withPrincipal(ctx, ""), msg, err)
	}
}
