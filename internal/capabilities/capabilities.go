// Package capabilities answers what the resolved account may do. Every function is total:
// a nil account is the anonymous/unregistered caller and never panics.
//
// The answers are display and pre-check values only. The backend remains the enforcement
// point and its rejection wins even when a predicate allowed the action.
package capabilities

import (
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/enums"
	"github.com/shopspring/decimal"
)

var (
	brandMinimumStake      = decimal.NewFromInt(500)
	influencerMinimumStake = decimal.NewFromInt(100)
	defaultMinimumStake    = decimal.NewFromInt(50)

	brandVotingMultiplier      = decimal.RequireFromString("1.5")
	influencerVotingMultiplier = decimal.RequireFromString("1.2")
	defaultVotingMultiplier    = decimal.NewFromInt(1)
)

func role(account *accounts.Account) enums.Role {
	if account == nil {
		return ""
	}
	return account.Role
}

func IsBrand(account *accounts.Account) bool {
	return role(account) == enums.RoleBrand
}

func IsInfluencer(account *accounts.Account) bool {
	return role(account) == enums.RoleInfluencer
}

// IsRegistered reports whether the caller has any account at all.
func IsRegistered(account *accounts.Account) bool {
	return IsBrand(account) || IsInfluencer(account)
}

func CanCreateCampaign(account *accounts.Account) bool { return IsBrand(account) }

func CanApplyToCampaign(account *accounts.Account) bool { return IsInfluencer(account) }

func CanViewApplicants(account *accounts.Account) bool { return IsBrand(account) }

// CanApproveCampaign covers approving applicants on the brand's own campaigns.
func CanApproveCampaign(account *accounts.Account) bool { return IsBrand(account) }

func CanDepositEscrow(account *accounts.Account) bool { return IsBrand(account) }

func CanWithdrawEscrow(account *accounts.Account) bool { return IsInfluencer(account) }

func CanStake(account *accounts.Account) bool { return IsRegistered(account) }

func CanVote(account *accounts.Account) bool { return IsRegistered(account) }

func CanPropose(account *accounts.Account) bool { return IsRegistered(account) }

// MinimumStakeRequirement returns the smallest stake the client suggests for the role.
func MinimumStakeRequirement(account *accounts.Account) decimal.Decimal {
	switch role(account) {
	case enums.RoleBrand:
		return brandMinimumStake
	case enums.RoleInfluencer:
		return influencerMinimumStake
	default:
		return defaultMinimumStake
	}
}

// VotingPowerMultiplier is the role weight used for voting power estimates.
func VotingPowerMultiplier(account *accounts.Account) decimal.Decimal {
	switch role(account) {
	case enums.RoleBrand:
		return brandVotingMultiplier
	case enums.RoleInfluencer:
		return influencerVotingMultiplier
	default:
		return defaultVotingMultiplier
	}
}

// EstimatedVotingPower is stake times the role multiplier. Negative stakes count as zero.
func EstimatedVotingPower(account *accounts.Account, stake decimal.Decimal) decimal.Decimal {
	if stake.IsNegative() {
		stake = decimal.Zero
	}
	return stake.Mul(VotingPowerMultiplier(account))
}

// RoleName is the display label for the caller's role.
func RoleName(account *accounts.Account) string {
	return role(account).Label()
}

// VerificationStatus returns the verification tag of whichever role section is present.
func VerificationStatus(account *accounts.Account) enums.VerificationStatus {
	switch role(account) {
	case enums.RoleBrand:
		return account.BrandInfoOrZero().Verification
	case enums.RoleInfluencer:
		return account.InfluencerInfoOrZero().Verification
	default:
		return ""
	}
}
