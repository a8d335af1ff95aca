package capabilities

import (
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/enums"
)

// Actions lists every gated action in display order.
var Actions = []Action{
	ActionCreateCampaign,
	ActionApplyToCampaign,
	ActionViewApplicants,
	ActionApproveCampaign,
	ActionDepositEscrow,
	ActionWithdrawEscrow,
	ActionStake,
	ActionVote,
	ActionPropose,
}

// Summary is the capability view of an account used by the shell.
type Summary struct {
	Role                  enums.Role               `json:"role,omitempty"`
	RoleName              string                   `json:"role_name"`
	Verification          enums.VerificationStatus `json:"verification_status,omitempty"`
	MinimumStake          decimal.Decimal          `json:"minimum_stake"`
	VotingPowerMultiplier decimal.Decimal          `json:"voting_power_multiplier"`
	EstimatedVotingPower  decimal.Decimal          `json:"estimated_voting_power"`
	Allowed               map[Action]bool          `json:"allowed"`
}

// Summarize evaluates every predicate for account. stake feeds the voting power estimate.
func Summarize(account *accounts.Account, stake decimal.Decimal) Summary {
	allowed := make(map[Action]bool, len(Actions))
	for _, action := range Actions {
		allowed[action] = Allowed(account, action)
	}
	return Summary{
		Role:                  role(account),
		RoleName:              RoleName(account),
		Verification:          VerificationStatus(account),
		MinimumStake:          MinimumStakeRequirement(account),
		VotingPowerMultiplier: VotingPowerMultiplier(account),
		EstimatedVotingPower:  EstimatedVotingPower(account, stake),
		Allowed:               allowed,
	}
}
