package middleware

import (
	"context"

	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/gate"
)

type contextKey string

const (
	ctxSession  contextKey = "client_session"
	ctxSnapshot contextKey = "gate_snapshot"
)

// SessionFromContext returns the browser session bound by ClientSession.
func SessionFromContext(ctx context.Context) *clientsession.Session {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxSession).(*clientsession.Session); ok {
		return v
	}
	return nil
}

// WithSession injects the browser session into the context.
func WithSession(ctx context.Context, sess *clientsession.Session) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSession, sess)
}

// SnapshotFromContext returns the snapshot RequireState decided on, if any.
func SnapshotFromContext(ctx context.Context) (clientsession.Snapshot, bool) {
	if ctx == nil {
		return clientsession.Snapshot{}, false
	}
	v, ok := ctx.Value(ctxSnapshot).(clientsession.Snapshot)
	return v, ok
}

func withSnapshot(ctx context.Context, snap clientsession.Snapshot) context.Context {
	return context.WithValue(ctx, ctxSnapshot, snap)
}

// PrincipalFromContext returns the principal of the decided snapshot or "".
func PrincipalFromContext(ctx context.Context) string {
	if snap, ok := SnapshotFromContext(ctx); ok {
		return snap.Identity.Principal()
	}
	if sess := SessionFromContext(ctx); sess != nil {
		return sess.Provider.State().Principal()
	}
	return ""
}

// StateFromContext returns the decided router state, or Initializing when none was decided.
func StateFromContext(ctx context.Context) gate.State {
	if snap, ok := SnapshotFromContext(ctx); ok {
		return snap.State
	}
	return gate.Initializing
}
