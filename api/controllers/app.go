package controllers

import (
	"net/http"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

type appResponse struct {
	View         gate.View             `json:"view"`
	Principal    string                `json:"principal,omitempty"`
	Account      *accounts.Account     `json:"account,omitempty"`
	Capabilities *capabilities.Summary `json:"capabilities,omitempty"`
	LoginError   string                `json:"login_error,omitempty"`
}

func newAppResponse(snap clientsession.Snapshot) appResponse {
	resp := appResponse{
		View:      snap.View(),
		Principal: snap.Identity.Principal(),
	}
	if snap.State == gate.Registered {
		acct := snap.Account()
		summary := capabilities.Summarize(acct, acct.Staked)
		resp.Account = acct
		resp.Capabilities = &summary
	}
	if snap.Identity.LoginErr != nil {
		resp.LoginError = publicMessage(snap.Identity.LoginErr)
	}
	return resp
}

// AppView returns the router view for the browser session. With wait=true it blocks until
// account resolution settles or the request is cancelled; otherwise loading states are
// returned as-is for the browser to poll.
func AppView(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		wait, err := validators.ParseQueryBool(r, "wait", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var snap clientsession.Snapshot
		if wait {
			snap = sess.Settle(r.Context())
		} else {
			snap = sess.Snapshot(r.Context())
		}
		responses.WriteSuccess(w, newAppResponse(snap))
	}
}

// AppRefresh re-runs account resolution, the retry action of the resolution failure view.
func AppRefresh(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newAppResponse(refreshAccount(r.Context(), logg, sess)))
	}
}
