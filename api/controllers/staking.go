package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/api/validators"
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

type stakingView struct {
	Stake                 *backend.StakeInfo `json:"stake"`
	MinimumStake          decimal.Decimal    `json:"minimum_stake"`
	VotingPowerMultiplier decimal.Decimal    `json:"voting_power_multiplier"`
	EstimatedVotingPower  decimal.Decimal    `json:"estimated_voting_power"`
	MeetsMinimum          bool               `json:"meets_minimum"`
	TotalStaked           decimal.Decimal    `json:"total_staked"`
}

func newStakingView(acct *accounts.Account, stake *backend.StakeInfo) stakingView {
	amount := decimal.Zero
	if stake != nil {
		amount = stake.Amount
	}
	minimum := capabilities.MinimumStakeRequirement(acct)
	total := decimal.Zero
	if acct != nil {
		total = acct.Staked
	}
	return stakingView{
		Stake:                 stake,
		MinimumStake:          minimum,
		VotingPowerMultiplier: capabilities.VotingPowerMultiplier(acct),
		EstimatedVotingPower:  capabilities.EstimatedVotingPower(acct, amount),
		MeetsMinimum:          amount.GreaterThanOrEqual(minimum),
		TotalStaked:           total,
	}
}

// StakingOverview shows the caller's stake with the role-based display values.
func StakingOverview(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stake, err := client.GetStake(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, newStakingView(requestAccount(r), stake))
	}
}

// Stake adds to the caller's stake. The minimum is advisory; the backend decides.
func Stake(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var body backend.StakeRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stake, err := client.Stake(r.Context(), body.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		acct := refreshAccount(r.Context(), logg, sess).Account()
		if acct == nil {
			acct = requestAccount(r)
		}
		responses.WriteSuccess(w, newStakingView(acct, stake))
	}
}
