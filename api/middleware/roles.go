package middleware

import (
	"net/http"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/gate"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// RequireState serves next only when the decided router state is one of states. It waits for
// account resolution to settle, bounded by the request context, so no route content is served
// while loading.
func RequireState(logg *logger.Logger, states ...gate.State) func(http.Handler) http.Handler {
	allowed := make(map[gate.State]bool, len(states))
	for _, s := range states {
		allowed[s] = true
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess := SessionFromContext(ctx)
			if sess == nil {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "client session missing"))
				return
			}

			snap := sess.Settle(ctx)
			if !allowed[snap.State] {
				responses.WriteError(ctx, logg, w, stateError(snap))
				return
			}
			if logg != nil {
				if acct := snap.Account(); acct != nil {
					ctx = logg.WithRole(ctx, string(acct.Role))
				}
			}
			next.ServeHTTP(w, r.WithContext(withSnapshot(ctx, snap)))
		})
	}
}

func stateError(snap clientsession.Snapshot) error {
	switch snap.State {
	case gate.Unauthenticated:
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required")
	case gate.Unregistered:
		return pkgerrors.New(pkgerrors.CodeAccountNotFound, "registration required")
	case gate.Registered:
		return pkgerrors.New(pkgerrors.CodeConflict, "account already registered")
	case gate.InitializationFailed:
		return pkgerrors.Wrap(pkgerrors.CodeDependency, snap.Err(), "session initialization failed")
	case gate.ResolutionFailed:
		if typed := pkgerrors.As(snap.Err()); typed != nil {
			return typed
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, snap.Err(), "account resolution failed")
	default:
		return pkgerrors.New(pkgerrors.CodeBackendUnavailable, "account is still loading")
	}
}

// RequireCapability rejects requests whose account may not perform action. It must run
// after RequireState so the decided account is on the context.
func RequireCapability(action capabilities.Action, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			snap, _ := SnapshotFromContext(r.Context())
			if err := capabilities.Check(snap.Account(), action); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
