package accounts

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/angelmondragon/influence-market/internal/identity"
	"github.com/angelmondragon/influence-market/pkg/logger"
	"github.com/angelmondragon/influence-market/pkg/metrics"
)

// Client is the part of the backend the resolver needs.
type Client interface {
	IsUserRegistered(ctx context.Context, principal string) (bool, error)
	GetMyAccount(ctx context.Context) (*Account, error)
}

// State is the resolution tuple. Account is set only when the cycle settled successfully.
type State struct {
	Loading    bool
	Err        error
	Account    *Account
	Registered bool
	// Generation identifies the cycle that produced the state.
	Generation uint64
}

// Settled reports whether the cycle finished.
func (s State) Settled() bool {
	return !s.Loading
}

// Listener observes every committed resolver state, in commit order.
type Listener func(State)

// Resolver owns the cached account of one browser session. It is the only writer of that
// cache; every identity change or Refresh replaces it wholesale.
type Resolver struct {
	logg    *logger.Logger
	metrics *metrics.ResolutionMetrics
	now     func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State
	generation uint64
	identity   *identity.Identity
	client     Client
	settled    chan struct{}
	listeners  []subscription
	nextSub    int

	// notifyMu is taken before mu and keeps listener delivery in commit order.
	notifyMu sync.Mutex
}

type subscription struct {
	id int
	fn Listener
}

// ResolverParams bundles the optional dependencies of a Resolver.
type ResolverParams struct {
	Logger  *logger.Logger
	Metrics *metrics.ResolutionMetrics
}

// NewResolver returns a resolver with no identity, settled in the anonymous state.
func NewResolver(params ResolverParams) *Resolver {
	ctx, cancel := context.WithCancel(context.Background())
	settled := make(chan struct{})
	close(settled)
	return &Resolver{
		logg:    params.Logger,
		metrics: params.Metrics,
		now:     time.Now,
		ctx:     ctx,
		cancel:  cancel,
		settled: settled,
	}
}

// Snapshot returns the current state.
func (r *Resolver) Snapshot() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Subscribe registers fn and returns a func that removes it. Listeners must not call
// Update or Refresh synchronously.
func (r *Resolver) Subscribe(fn Listener) func() {
	if fn == nil {
		return func() {}
	}
	r.mu.Lock()
	r.nextSub++
	id := r.nextSub
	r.listeners = append(r.listeners, subscription{id: id, fn: fn})
	r.mu.Unlock()

	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		for i, sub := range r.listeners {
			if sub.id == id {
				r.listeners = append(r.listeners[:i:i], r.listeners[i+1:]...)
				return
			}
		}
	}
}

// Update rebinds the resolver to a new identity and client and starts a cycle.
// The loading reset is committed before Update returns.
func (r *Resolver) Update(id *identity.Identity, client Client) uint64 {
	return r.start(func() {
		r.identity = id
		r.client = client
	})
}

// Refresh re-runs the cycle for the current identity and client.
func (r *Resolver) Refresh() uint64 {
	return r.start(nil)
}

// Wait blocks until the current cycle settles or ctx is done.
func (r *Resolver) Wait(ctx context.Context) (State, error) {
	for {
		r.mu.Lock()
		state := r.state
		settled := r.settled
		r.mu.Unlock()

		if !state.Loading {
			return state, nil
		}
		select {
		case <-settled:
		case <-ctx.Done():
			return state, ctx.Err()
		}
	}
}

// Close aborts in-flight backend calls and discards any result they produce.
func (r *Resolver) Close() {
	r.mu.Lock()
	r.generation++
	r.state = State{Generation: r.generation}
	r.identity = nil
	r.client = nil
	r.signalSettled()
	r.mu.Unlock()
	r.cancel()
}

func (r *Resolver) start(rebind func()) uint64 {
	r.notifyMu.Lock()
	r.mu.Lock()
	if rebind != nil {
		rebind()
	}
	r.generation++
	gen := r.generation
	r.signalSettled()
	r.settled = make(chan struct{})
	r.state = State{Loading: true, Generation: gen}
	id, client := r.identity, r.client
	r.publish()

	if id == nil || client == nil {
		r.commit(gen, State{}, metrics.OutcomeAnonymous, r.now())
		return gen
	}
	go r.run(gen, id, client)
	return gen
}

func (r *Resolver) run(gen uint64, id *identity.Identity, client Client) {
	start := r.now()
	next, outcome := r.resolve(r.ctx, id.Principal, client)
	r.commit(gen, next, outcome, start)
}

func (r *Resolver) resolve(ctx context.Context, principal string, client Client) (next State, outcome string) {
	defer func() {
		if rec := recover(); rec != nil {
			next = State{Err: fmt.Errorf("account resolution panicked: %v", rec)}
			outcome = metrics.OutcomeError
		}
	}()

	registered, err := client.IsUserRegistered(ctx, principal)
	if err != nil {
		return State{Err: fmt.Errorf("checking registration: %w", err)}, metrics.OutcomeError
	}
	if !registered {
		return State{}, metrics.OutcomeUnregistered
	}

	account, err := client.GetMyAccount(ctx)
	if err != nil {
		return State{Registered: true, Err: fmt.Errorf("fetching account: %w", err)}, metrics.OutcomeError
	}
	if account == nil {
		return State{Registered: true, Err: errors.New("fetching account: backend returned no account")}, metrics.OutcomeError
	}
	if err := account.Validate(); err != nil {
		return State{Registered: true, Err: fmt.Errorf("fetching account: %w", err)}, metrics.OutcomeError
	}
	return State{Registered: true, Account: account}, metrics.OutcomeRegistered
}

// commit stores next if gen is still the current cycle; stale results are dropped.
func (r *Resolver) commit(gen uint64, next State, outcome string, start time.Time) {
	r.notifyMu.Lock()
	r.mu.Lock()
	if gen != r.generation {
		r.mu.Unlock()
		r.notifyMu.Unlock()
		r.metrics.Observe(metrics.OutcomeStale, r.now().Sub(start))
		r.logDebug("account.resolution_stale", gen)
		return
	}
	next.Loading = false
	next.Generation = gen
	r.state = next
	r.signalSettled()
	r.publish()

	r.metrics.Observe(outcome, r.now().Sub(start))
	if next.Err != nil {
		r.logWarn("account.resolution_failed", gen, next.Err)
	} else {
		r.logDebug("account.resolution_"+outcome, gen)
	}
}

// publish is entered holding notifyMu and mu. It releases both after delivering the
// current state, so listeners may read the resolver but observe states in commit order.
func (r *Resolver) publish() {
	state := r.state
	listeners := make([]subscription, len(r.listeners))
	copy(listeners, r.listeners)
	r.mu.Unlock()
	defer r.notifyMu.Unlock()

	for _, sub := range listeners {
		sub.fn(state)
	}
}

func (r *Resolver) signalSettled() {
	select {
	case <-r.settled:
	default:
		close(r.settled)
	}
}

func (r *Resolver) logDebug(msg string, gen uint64) {
	if r.logg == nil {
		return
	}
	r.logg.Debug(r.logg.WithField(context.Background(), "generation", gen), msg)
}

func (r *Resolver) logWarn(msg string, gen uint64, err error) {
	if r.logg == nil {
		return
	}
	ctx := r.logg.WithFields(context.Background(), map[string]any{
		"generation": gen,
		"error":      err.Error(),
	})
	r.logg.Warn(ctx, msg)
}
