package controllers

import (
	"context"
	"net/http"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

func EscrowBalance(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := client.GetEscrowBalance(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balance)
	}
}

type escrowCall func(backend.Client, context.Context, backend.EscrowRequest) (*backend.EscrowBalance, error)

func escrowMutation(logg *logger.Logger, call escrowCall) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body backend.EscrowRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		balance, err := call(client, r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		refreshAccount(r.Context(), logg, sess)
		responses.WriteSuccess(w, balance)
	}
}

// DepositEscrow funds the calling brand's escrow.
func DepositEscrow(logg *logger.Logger) http.HandlerFunc {
	return escrowMutation(logg, backend.Client.DepositEscrow)
}

// WithdrawEscrow pays out the calling influencer's released earnings.
func WithdrawEscrow(logg *logger.Logger) http.HandlerFunc {
	return escrowMutation(logg, backend.Client.WithdrawEscrow)
}
