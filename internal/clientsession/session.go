package clientsession

import (
	"context"
	"sync"
	"time"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/internal/identity"
)

// Session is the client state of one browser: identity, backend handle and account
// cache, built once and passed explicitly to every view.
type Session struct {
	ID       string
	Provider *identity.Provider
	Accessor *backend.Accessor
	Resolver *accounts.Resolver
	Machine  *gate.Machine

	unsubscribe func()

	mu       sync.Mutex
	lastSeen time.Time
}

// Snapshot is a consistent read of the session used to make one routing decision.
type Snapshot struct {
	Identity   identity.State
	Resolution accounts.State
	State      gate.State
}

// Account returns the resolved account or nil.
func (s Snapshot) Account() *accounts.Account {
	return s.Resolution.Account
}

// Err returns the error shown by the failure states.
func (s Snapshot) Err() error {
	switch s.State {
	case gate.InitializationFailed:
		return s.Identity.InitErr
	case gate.ResolutionFailed:
		return s.Resolution.Err
	default:
		return nil
	}
}

// View renders the router view for the snapshot.
func (s Snapshot) View() gate.View {
	return gate.Render(s.State, s.Account(), s.Err())
}

// rebind runs on every provider transition: the backend handle is recreated for the new
// identity and the resolver restarts before the transition returns.
func (s *Session) rebind(ctx context.Context, st identity.State) {
	client := s.Accessor.Bind(ctx, st.Identity)
	var resolverClient accounts.Client
	if client != nil {
		resolverClient = client
	}
	if !st.IsInitialized || !st.IsAuthenticated {
		s.Resolver.Update(nil, resolverClient)
		return
	}
	s.Resolver.Update(st.Identity, resolverClient)
}

// Snapshot decides the router state from the current provider and resolver state.
func (s *Session) Snapshot(ctx context.Context) Snapshot {
	idState := s.Provider.State()
	resolution := s.Resolver.Snapshot()
	decided := gate.Decide(gate.Inputs{
		IsInitialized:   idState.IsInitialized,
		InitErr:         idState.InitErr,
		IsAuthenticated: idState.IsAuthenticated,
		AccountLoading:  resolution.Loading,
		AccountErr:      resolution.Err,
		HasAccount:      resolution.Account != nil,
	})
	state, _ := s.Machine.Advance(ctx, decided)
	return Snapshot{Identity: idState, Resolution: resolution, State: state}
}

// Settle waits for the current resolution cycle (bounded by ctx) and then decides.
// When ctx ends first the loading snapshot is returned.
func (s *Session) Settle(ctx context.Context) Snapshot {
	_, _ = s.Resolver.Wait(ctx)
	return s.Snapshot(ctx)
}

// Refresh re-resolves the account after a mutation and waits for the result.
func (s *Session) Refresh(ctx context.Context) Snapshot {
	s.Resolver.Refresh()
	return s.Settle(ctx)
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// Close detaches the session and drops any in-flight resolution.
func (s *Session) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.Resolver.Close()
}
