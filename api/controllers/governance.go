package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

type voteRequest struct {
	Choice enums.VoteChoice `json:"choice" validate:"required,oneof=yes no abstain"`
}

func ListProposals(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filter backend.ProposalFilter
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseProposalStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"}))
				return
			}
			filter.Status = status
		}
		if filter.Limit, err = validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if filter.Offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 10000); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proposals, err := client.ListProposals(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proposals)
	}
}

func CreateProposal(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body backend.CreateProposalRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Title = validators.SanitizeString(body.Title, 160)

		proposal, err := client.CreateProposal(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, proposal)
	}
}

// Vote casts the caller's ballot. Voting power is computed by the backend.
func Vote(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		proposalID, err := pathParam(r, "proposalId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body voteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		proposal, err := client.Vote(r.Context(), backend.VoteRequest{ProposalID: proposalID, Choice: body.Choice})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, proposal)
	}
}
