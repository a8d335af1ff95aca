package gate

import (
	"context"
	"sync"

	"github.com/angelmondragon/influence-market/pkg/logger"
)

// State is the view tree the router mounts.
type State string

const (
	Initializing         State = "initializing"
	Unauthenticated      State = "unauthenticated"
	CheckingRegistration State = "checking_registration"
	Unregistered         State = "unregistered"
	Registered           State = "registered"
	InitializationFailed State = "initialization_failed"
	ResolutionFailed     State = "resolution_failed"
)

// Loading reports whether the state renders only a loading indicator.
func (s State) Loading() bool {
	return s == Initializing || s == CheckingRegistration
}

// Inputs is everything the router decides on.
type Inputs struct {
	IsInitialized   bool
	InitErr         error
	IsAuthenticated bool
	AccountLoading  bool
	AccountErr      error
	HasAccount      bool
}

// Decide maps session and resolver state to a router state. A resolution error never
// falls through to Unregistered.
func Decide(in Inputs) State {
	switch {
	case !in.IsInitialized:
		return Initializing
	case in.InitErr != nil:
		return InitializationFailed
	case !in.IsAuthenticated:
		return Unauthenticated
	case in.AccountLoading:
		return CheckingRegistration
	case in.AccountErr != nil:
		return ResolutionFailed
	case in.HasAccount:
		return Registered
	default:
		return Unregistered
	}
}

var transitions = map[State][]State{
	Initializing:         {Unauthenticated, CheckingRegistration, InitializationFailed},
	Unauthenticated:      {CheckingRegistration},
	CheckingRegistration: {Unregistered, Registered, ResolutionFailed},
	Unregistered:         {CheckingRegistration},
	Registered:           {CheckingRegistration},
	ResolutionFailed:     {CheckingRegistration},
	// A reload retries the restore; a login replaces it.
	InitializationFailed: {CheckingRegistration},
}

// Allowed reports whether from -> to is a legal transition. Staying put and logging out
// are always allowed.
func Allowed(from, to State) bool {
	if from == to || to == Unauthenticated {
		return true
	}
	for _, candidate := range transitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// Reachable reports whether to can follow from through legal transitions. The machine
// samples state per request, so intermediate states may go unobserved.
func Reachable(from, to State) bool {
	if Allowed(from, to) {
		return true
	}
	seen := map[State]bool{from: true}
	queue := []State{from}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		for _, candidate := range transitions[next] {
			if candidate == to {
				return true
			}
			if !seen[candidate] {
				seen[candidate] = true
				queue = append(queue, candidate)
			}
		}
	}
	return false
}

// Machine remembers the last decided state of one browser session.
type Machine struct {
	logg *logger.Logger

	mu      sync.Mutex
	current State
}

func NewMachine(logg *logger.Logger) *Machine {
	return &Machine{logg: logg, current: Initializing}
}

// Current returns the last state passed to Advance.
func (m *Machine) Current() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Advance moves to next and reports whether next is reachable from the previous state.
// The decided state always wins; an illegal move is only logged.
func (m *Machine) Advance(ctx context.Context, next State) (State, bool) {
	m.mu.Lock()
	prev := m.current
	m.current = next
	m.mu.Unlock()

	ok := Reachable(prev, next)
	if !ok && m.logg != nil {
		ctx = m.logg.WithFields(ctx, map[string]any{
			"from": string(prev),
			"to":   string(next),
		})
		m.logg.Warn(ctx, "gate.unexpected_transition")
	}
	return next, ok
}
