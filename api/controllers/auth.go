package controllers

import (
	"net/http"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

type loginRequest struct {
	// Assertion is the signed token the identity provider handed to the browser.
	Assertion string `json:"assertion" validate:"required,max=8192"`
}

// AuthLogin completes the identity handshake for the browser session, then returns the
// router view once the account for the new principal is resolved.
func AuthLogin(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body loginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := sess.Provider.Login(r.Context(), body.Assertion); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, newAppResponse(sess.Settle(r.Context())))
	}
}

// AuthLogout clears the identity of the browser session. The cookie stays so the browser
// keeps its anonymous session.
func AuthLogout(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := sessionFrom(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := sess.Provider.Logout(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign out"))
			return
		}

		responses.WriteSuccess(w, newAppResponse(sess.Settle(r.Context())))
	}
}

// publicMessage is the text shown next to a failed action.
func publicMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return pkgerrors.MetadataFor(pkgerrors.CodeInternal).PublicMessage
	}
	if msg := typed.Message(); msg != "" {
		return msg
	}
	return pkgerrors.MetadataFor(typed.Code()).PublicMessage
}
