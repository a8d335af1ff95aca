package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// SessionHub resolves a browser session id to its live client session.
type SessionHub interface {
	Get(ctx context.Context, id string) (*clientsession.Session, error)
}

// SessionToucher extends the server-side lifetime of an authenticated browser session.
type SessionToucher interface {
	Touch(ctx context.Context, sessionID string) error
}

// ClientSessionOptions configures the session cookie.
type ClientSessionOptions struct {
	Cookie  session.CookieOptions
	TTL     time.Duration
	Toucher SessionToucher
}

// ClientSession binds the browser cookie to its client session, issuing a fresh id when the
// cookie is missing or malformed, and seeds the context with the session.
func ClientSession(hub SessionHub, opts ClientSessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			id, ok := session.ReadCookie(r, opts.Cookie)
			if !ok {
				fresh, err := session.NewID()
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "issue session"))
					return
				}
				id = fresh
			}
			if opts.TTL > 0 {
				session.SetCookie(w, id, time.Now().Add(opts.TTL), opts.Cookie)
			}

			if logg != nil {
				ctx = logg.WithSessionID(ctx, session.Fingerprint(id))
			}

			sess, err := hub.Get(ctx, id)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load session"))
				return
			}

			state := sess.Provider.State()
			if state.IsAuthenticated {
				if logg != nil {
					ctx = logg.WithPrincipal(ctx, state.Principal())
				}
				if opts.Toucher != nil && ok {
					if err := opts.Toucher.Touch(ctx, id); err != nil && logg != nil {
						logg.Warn(logg.WithField(ctx, "error", err.Error()), "session.touch_failed")
					}
				}
			}

			next.ServeHTTP(w, r.WithContext(WithSession(ctx, sess)))
		})
	}
}
