package controllers

import (
	"net/http"

	"github.com/angelmondragon/influence-market/api/middleware"
	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// Me returns the resolved account and its capabilities.
func Me(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, ok := middleware.SnapshotFromContext(r.Context())
		if !ok {
			sess, err := sessionFrom(r)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			snap = sess.Settle(r.Context())
		}
		responses.WriteSuccess(w, newAppResponse(snap))
	}
}

// UpdateProfile replaces the public profile of the caller's account.
func UpdateProfile(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body accounts.Profile
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Username = validators.SanitizeString(body.Username, 32)
		body.Bio = validators.SanitizeString(body.Bio, 500)

		if _, err := client.UpdateProfile(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAppResponse(refreshAccount(r.Context(), logg, sess)))
	}
}
