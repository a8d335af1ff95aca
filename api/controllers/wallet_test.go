package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/backend/backendtest"
	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/angelmondragon/influence-market/pkg/enums"
)

type stakingPayload struct {
	Stake struct {
		Amount string `json:"amount"`
	} `json:"stake"`
	MinimumStake          string `json:"minimum_stake"`
	VotingPowerMultiplier string `json:"voting_power_multiplier"`
	EstimatedVotingPower  string `json:"estimated_voting_power"`
	MeetsMinimum          bool   `json:"meets_minimum"`
	TotalStaked           string `json:"total_staked"`
}

func TestStakingOverviewUsesRoleValues(t *testing.T) {
	fake := &backendtest.Fake{
		Registered: true,
		Account:    brandAccount(),
		StakeInfo:  &backend.StakeInfo{Principal: "brand-principal", Amount: decimal.NewFromInt(400)},
	}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/staking", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got stakingPayload
	decodeData(t, rec, &got)
	if got.MinimumStake != "500" {
		t.Fatalf("expected brand minimum 500, got %s", got.MinimumStake)
	}
	if got.VotingPowerMultiplier != "1.5" {
		t.Fatalf("expected brand multiplier 1.5, got %s", got.VotingPowerMultiplier)
	}
	if got.EstimatedVotingPower != "600" {
		t.Fatalf("expected estimated power 600, got %s", got.EstimatedVotingPower)
	}
	if got.MeetsMinimum {
		t.Fatal("400 does not meet the brand minimum")
	}
}

func TestStakeRefreshesAccount(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: influencerAccount()}
	h := newHarness(t, "creator-principal", fake, mountShell)

	rec := h.do(http.MethodPost, "/staking", `{"amount":"150"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got stakingPayload
	decodeData(t, rec, &got)
	if got.Stake.Amount != "150" || !got.MeetsMinimum {
		t.Fatalf("unexpected staking view %+v", got)
	}
	if got.TotalStaked != "150" {
		t.Fatalf("expected the view to use the re-read account, got total %q", got.TotalStaked)
	}

	accountReads := 0
	for _, call := range fake.Last().Calls() {
		if call == "get_my_account" {
			accountReads++
		}
	}
	if accountReads < 2 {
		t.Fatalf("expected the account to be re-read after staking, got %d reads", accountReads)
	}
}

func TestStakeBelowMinimumIsAdvisory(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: brandAccount()}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodPost, "/staking", `{"amount":"10"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected the backend to decide, got %d", rec.Code)
	}
	var got stakingPayload
	decodeData(t, rec, &got)
	if got.MeetsMinimum {
		t.Fatal("10 does not meet the brand minimum")
	}

	rec = h.do(http.MethodPost, "/staking", `{"amount":"-5"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a negative stake, got %d", rec.Code)
	}
}

func TestGovernanceFlow(t *testing.T) {
	fake := &backendtest.Fake{
		Registered: true,
		Account:    influencerAccount(),
		Proposals:  []backend.Proposal{{ID: "p-1", Title: "Lower fees", Status: enums.ProposalStatusOpen}},
	}
	h := newHarness(t, "creator-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/governance/proposals?status=open", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var proposals []backend.Proposal
	decodeData(t, rec, &proposals)
	if len(proposals) != 1 {
		t.Fatalf("expected one proposal, got %d", len(proposals))
	}

	rec = h.do(http.MethodPost, "/governance/proposals", `{"title":"Raise creator share","description":"Move to 85/15","duration_hours":72}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = h.do(http.MethodPost, "/governance/proposals/p-1/vote", `{"choice":"yes"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var voted backend.Proposal
	decodeData(t, rec, &voted)
	if voted.ID != "p-1" {
		t.Fatalf("expected vote on p-1, got %q", voted.ID)
	}

	rec = h.do(http.MethodPost, "/governance/proposals/p-1/vote", `{"choice":"maybe"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown choice, got %d", rec.Code)
	}
}

func TestEscrowIsRoleGated(t *testing.T) {
	brand := &backendtest.Fake{Registered: true, Account: brandAccount()}
	h := newHarness(t, "brand-principal", brand, mountShell)

	rec := h.do(http.MethodPost, "/escrow/deposit", `{"amount":"250","campaign_id":"c-1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var balance backend.EscrowBalance
	decodeData(t, rec, &balance)
	if !balance.Available.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected balance %+v", balance)
	}

	rec = h.do(http.MethodPost, "/escrow/withdraw", `{"amount":"250"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("brands cannot withdraw, got %d", rec.Code)
	}

	influencer := &backendtest.Fake{Registered: true, Account: influencerAccount()}
	h = newHarness(t, "creator-principal", influencer, mountShell)

	rec = h.do(http.MethodPost, "/escrow/withdraw", `{"amount":"50"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	rec = h.do(http.MethodPost, "/escrow/deposit", `{"amount":"50"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("influencers cannot deposit, got %d", rec.Code)
	}
}

func TestDashboardLoadsRoleData(t *testing.T) {
	fake := &backendtest.Fake{
		Registered: true,
		Account:    brandAccount(),
		Campaigns:  seededCampaigns(),
		Escrow:     &backend.EscrowBalance{Principal: "brand-principal", Available: decimal.NewFromInt(900)},
	}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/dashboard", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got struct {
		App       appPayload             `json:"app"`
		Campaigns []backend.Campaign     `json:"campaigns"`
		Staking   stakingPayload         `json:"staking"`
		Escrow    *backend.EscrowBalance `json:"escrow"`
	}
	decodeData(t, rec, &got)
	if len(got.Campaigns) != 2 {
		t.Fatalf("expected campaigns on the dashboard, got %d", len(got.Campaigns))
	}
	if got.Escrow == nil || !got.Escrow.Available.Equal(decimal.NewFromInt(900)) {
		t.Fatalf("expected escrow balance for a brand, got %+v", got.Escrow)
	}
	if got.Staking.MinimumStake != "500" {
		t.Fatalf("unexpected staking view %+v", got.Staking)
	}
}

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "test"}}

	healthy := HealthReady(cfg, nil, map[string]Pinger{"redis": pingFunc(func(context.Context) error { return nil })})
	rec := httptest.NewRecorder()
	healthy(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("X-Influence-Env") != "test" {
		t.Fatalf("expected env header, got %q", rec.Header().Get("X-Influence-Env"))
	}

	failing := HealthReady(cfg, nil, map[string]Pinger{"redis": pingFunc(func(context.Context) error { return errors.New("connection refused") })})
	rec = httptest.NewRecorder()
	failing(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Details["dependency"] != "redis" {
		t.Fatalf("expected dependency detail, got %v", got.Details)
	}
}

func TestHealthLive(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthLive(&config.Config{App: config.AppConfig{Env: "dev"}})(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
