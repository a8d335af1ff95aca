package clientsession

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/internal/identity"
	"github.com/angelmondragon/influence-market/pkg/logger"
	"github.com/angelmondragon/influence-market/pkg/metrics"
)

// Hub owns the live sessions of this process, keyed by browser session id.
type Hub struct {
	auth      identity.Authenticator
	store     identity.SessionStore
	factory   backend.ClientFactory
	metrics   *metrics.ResolutionMetrics
	logg      *logger.Logger
	idleEvict time.Duration
	maxLive   int
	now       func() time.Time

	mu       sync.Mutex
	sessions map[string]*Session
}

// HubParams bundles the dependencies of a Hub.
type HubParams struct {
	Authenticator identity.Authenticator
	Store         identity.SessionStore
	ClientFactory backend.ClientFactory
	Metrics       *metrics.ResolutionMetrics
	Logger        *logger.Logger
	IdleEvict     time.Duration
	// MaxSessions caps the live sessions; the least recently seen one is dropped to make
	// room. Zero means no cap.
	MaxSessions   int
}

func NewHub(params HubParams) (*Hub, error) {
	if params.Authenticator == nil {
		return nil, fmt.Errorf("authenticator is required")
	}
	if params.Store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if params.ClientFactory == nil {
		return nil, fmt.Errorf("client factory is required")
	}
	return &Hub{
		auth:      params.Authenticator,
		store:     params.Store,
		factory:   params.ClientFactory,
		metrics:   params.Metrics,
		logg:      params.Logger,
		idleEvict: params.IdleEvict,
		maxLive:   params.MaxSessions,
		now:       time.Now,
		sessions:  make(map[string]*Session),
	}, nil
}

// Get returns the session for id, building and initializing it on first use.
func (h *Hub) Get(ctx context.Context, id string) (*Session, error) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	var dropped *Session
	if !ok {
		var err error
		sess, err = h.build(ctx, id)
		if err != nil {
			h.mu.Unlock()
			return nil, err
		}
		if h.maxLive > 0 && len(h.sessions) >= h.maxLive {
			dropped = h.dropOldestLocked()
		}
		h.sessions[id] = sess
	}
	h.mu.Unlock()

	if dropped != nil {
		dropped.Close()
	}
	sess.touch(h.now())
	// Init is a no-op once a restore succeeded and retries after a failed one; concurrent
	// callers wait for it to finish.
	sess.Provider.Init(ctx)
	return sess, nil
}

func (h *Hub) dropOldestLocked() *Session {
	var (
		oldestID string
		oldest   *Session
		idle     time.Duration
	)
	now := h.now()
	for id, sess := range h.sessions {
		if d := sess.idleSince(now); oldest == nil || d > idle {
			oldestID, oldest, idle = id, sess, d
		}
	}
	if oldest != nil {
		delete(h.sessions, oldestID)
	}
	return oldest
}

func (h *Hub) build(ctx context.Context, id string) (*Session, error) {
	provider, err := identity.NewProvider(identity.ProviderParams{
		SessionID:     id,
		Authenticator: h.auth,
		Store:         h.store,
		Logger:        h.logg,
	})
	if err != nil {
		return nil, err
	}
	sess := &Session{
		ID:       id,
		Provider: provider,
		Accessor: backend.NewAccessor(h.factory, h.logg),
		Resolver: accounts.NewResolver(accounts.ResolverParams{Logger: h.logg, Metrics: h.metrics}),
		Machine:  gate.NewMachine(h.logg),
	}
	// Provider transitions outlive the request that caused them.
	bindCtx := context.WithoutCancel(ctx)
	sess.unsubscribe = provider.Subscribe(func(st identity.State) {
		sess.rebind(bindCtx, st)
	})
	return sess, nil
}

// Remove closes and forgets the session.
func (h *Hub) Remove(id string) {
	h.mu.Lock()
	sess, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if ok {
		sess.Close()
	}
}

// Len reports the number of live sessions.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

// Evict closes sessions idle for longer than the configured threshold and returns how many
// were dropped. Their identity survives in the session store.
func (h *Hub) Evict() int {
	if h.idleEvict <= 0 {
		return 0
	}
	now := h.now()
	h.mu.Lock()
	var stale []*Session
	for id, sess := range h.sessions {
		if sess.idleSince(now) > h.idleEvict {
			stale = append(stale, sess)
			delete(h.sessions, id)
		}
	}
	h.mu.Unlock()

	for _, sess := range stale {
		sess.Close()
	}
	return len(stale)
}

// Run evicts idle sessions until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	if h.idleEvict <= 0 {
		return
	}
	interval := h.idleEvict / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := h.Evict(); n > 0 && h.logg != nil {
				h.logg.Debug(h.logg.WithField(ctx, "evicted", n), "clientsession.evicted")
			}
		}
	}
}

// Close drops every live session.
func (h *Hub) Close() {
	h.mu.Lock()
	sessions := h.sessions
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()
	for _, sess := range sessions {
		sess.Close()
	}
}
