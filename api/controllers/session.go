package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/influence-market/api/middleware"
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/gate"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

func sessionFrom(r *http.Request) (*clientsession.Session, error) {
	sess := middleware.SessionFromContext(r.Context())
	if sess == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "client session missing")
	}
	return sess, nil
}

// requestAccount returns the account resolved when the request was admitted.
func requestAccount(r *http.Request) *accounts.Account {
	snap, _ := middleware.SnapshotFromContext(r.Context())
	return snap.Account()
}

// backendClient returns the client bound to the caller's current identity.
func backendClient(r *http.Request) (*clientsession.Session, backend.Client, error) {
	sess, err := sessionFrom(r)
	if err != nil {
		return nil, nil, err
	}
	client, err := sess.Accessor.Require()
	if err != nil {
		return nil, nil, err
	}
	return sess, client, nil
}

// refreshAccount re-resolves the account after a successful mutation. A failed refresh does
// not undo the mutation; the shell shows the resolution failure on its next read.
func refreshAccount(ctx context.Context, logg *logger.Logger, sess *clientsession.Session) clientsession.Snapshot {
	snap := sess.Refresh(ctx)
	if snap.State == gate.ResolutionFailed && logg != nil {
		logg.Warn(logg.WithField(ctx, "error", errString(snap.Err())), "account.refresh_failed")
	}
	return snap
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
