package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func campaignFilterFromQuery(r *http.Request) (backend.CampaignFilter, error) {
	var filter backend.CampaignFilter
	q := r.URL.Query()

	if raw := strings.TrimSpace(q.Get("status")); raw != "" {
		status, err := enums.ParseCampaignStatus(raw)
		if err != nil {
			return filter, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status").WithDetails(map[string]any{"field": "status"})
		}
		filter.Status = status
	}
	filter.Category = validators.SanitizeString(q.Get("category"), 40)
	filter.Brand = validators.SanitizeString(q.Get("brand"), 128)

	mine, err := validators.ParseQueryBool(r, "mine", false)
	if err != nil {
		return filter, err
	}
	filter.Mine = mine
	if filter.Limit, err = validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize); err != nil {
		return filter, err
	}
	if filter.Offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 10000); err != nil {
		return filter, err
	}
	return filter, nil
}

func pathParam(r *http.Request, name string) (string, error) {
	value := strings.TrimSpace(chi.URLParam(r, name))
	if value == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
	}
	return value, nil
}

// ListCampaigns returns the campaign listing for the shell.
func ListCampaigns(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := campaignFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaigns, err := client.ListCampaigns(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaigns)
	}
}

// PublicCampaigns is the marketing listing. It uses whichever client is bound, anonymous or
// not, and only ever shows active campaigns.
func PublicCampaigns(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter, err := campaignFilterFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		filter.Status = enums.CampaignStatusActive
		filter.Mine = false
		campaigns, err := client.ListCampaigns(r.Context(), filter)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaigns)
	}
}

func GetCampaign(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaignID, err := pathParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaign, err := client.GetCampaign(r.Context(), campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, campaign)
	}
}

// CreateCampaign publishes a campaign for the calling brand.
func CreateCampaign(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body backend.CreateCampaignRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		body.Title = validators.SanitizeString(body.Title, 120)
		body.Categories = validators.SanitizeList(body.Categories, 40)

		campaign, err := client.CreateCampaign(r.Context(), body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, campaign)
	}
}

// ApplyToCampaign submits the calling influencer's application.
func ApplyToCampaign(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaignID, err := pathParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body backend.ApplyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := client.ApplyToCampaign(r.Context(), campaignID, body)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, application)
	}
}

func ListApplicants(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaignID, err := pathParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		applicants, err := client.ListApplicants(r.Context(), campaignID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, applicants)
	}
}

func ApproveApplication(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		campaignID, err := pathParam(r, "campaignId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		applicationID, err := pathParam(r, "applicationId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		application, err := client.ApproveApplication(r.Context(), campaignID, applicationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, application)
	}
}
