package controllers

import (
	"net/http"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

// Register creates the account for an authenticated but unregistered principal and moves the
// session into the shell once the new account resolves.
func Register(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body backend.RegisterUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if body.BrandInfo != nil {
			body.BrandInfo.CompanyName = validators.SanitizeString(body.BrandInfo.CompanyName, 120)
			body.BrandInfo.Industry = validators.SanitizeString(body.BrandInfo.Industry, 80)
		}
		if body.InfluencerInfo != nil {
			body.InfluencerInfo.Categories = validators.SanitizeList(body.InfluencerInfo.Categories, 40)
		}

		if _, err := client.RegisterUser(r.Context(), body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		snap := refreshAccount(r.Context(), logg, sess)
		if logg != nil {
			logg.Info(logg.WithRole(r.Context(), string(body.Role)), "account.registered")
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newAppResponse(snap))
	}
}
