package backend

import (
	"time"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/enums"
	"github.com/shopspring/decimal"
)

// RegisterUserRequest carries exactly one role section matching Role.
type RegisterUserRequest struct {
	Role           enums.Role               `json:"role" validate:"required,oneof=brand influencer"`
	BrandInfo      *accounts.BrandInfo      `json:"brand_info,omitempty" validate:"required_if=Role brand,excluded_unless=Role brand"`
	InfluencerInfo *accounts.InfluencerInfo `json:"influencer_info,omitempty" validate:"required_if=Role influencer,excluded_unless=Role influencer"`
	Profile        *accounts.Profile        `json:"profile,omitempty"`
}

type Campaign struct {
	ID             string               `json:"id"`
	BrandPrincipal string               `json:"brand_principal"`
	Title          string               `json:"title"`
	Description    string               `json:"description"`
	Budget         decimal.Decimal      `json:"budget"`
	Categories     []string             `json:"categories,omitempty"`
	Status         enums.CampaignStatus `json:"status"`
	Deadline       *time.Time           `json:"deadline,omitempty"`
	Applicants     int                  `json:"applicants"`
	CreatedAt      time.Time            `json:"created_at"`
}

// CampaignFilter is encoded onto the list_campaigns query string.
type CampaignFilter struct {
	Status   enums.CampaignStatus `url:"status,omitempty"`
	Category string               `url:"category,omitempty"`
	Brand    string               `url:"brand,omitempty"`
	Mine     bool                 `url:"mine,omitempty"`
	Limit    int                  `url:"limit,omitempty"`
	Offset   int                  `url:"offset,omitempty"`
}

type CreateCampaignRequest struct {
	Title       string          `json:"title" validate:"required,min=3,max=120"`
	Description string          `json:"description" validate:"required,max=4000"`
	Budget      decimal.Decimal `json:"budget" validate:"gt=0"`
	Categories  []string        `json:"categories,omitempty" validate:"max=10,dive,required,max=40"`
	Deadline    *time.Time      `json:"deadline,omitempty"`
}

type Application struct {
	ID                  string                  `json:"id"`
	CampaignID          string                  `json:"campaign_id"`
	InfluencerPrincipal string                  `json:"influencer_principal"`
	Pitch               string                  `json:"pitch"`
	ProposedRate        decimal.Decimal         `json:"proposed_rate"`
	Status              enums.ApplicationStatus `json:"status"`
	CreatedAt           time.Time               `json:"created_at"`
}

type ApplyRequest struct {
	Pitch        string          `json:"pitch" validate:"required,min=10,max=2000"`
	ProposedRate decimal.Decimal `json:"proposed_rate" validate:"gte=0"`
}

type StakeInfo struct {
	Principal   string          `json:"principal"`
	Amount      decimal.Decimal `json:"amount"`
	VotingPower decimal.Decimal `json:"voting_power"`
	LockedUntil *time.Time      `json:"locked_until,omitempty"`
}

type StakeRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
}

type Proposal struct {
	ID          string               `json:"id"`
	Proposer    string               `json:"proposer"`
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Status      enums.ProposalStatus `json:"status"`
	YesVotes    decimal.Decimal      `json:"yes_votes"`
	NoVotes     decimal.Decimal      `json:"no_votes"`
	EndsAt      time.Time            `json:"ends_at"`
}

// ProposalFilter is encoded onto the list_proposals query string.
type ProposalFilter struct {
	Status enums.ProposalStatus `url:"status,omitempty"`
	Limit  int                  `url:"limit,omitempty"`
	Offset int                  `url:"offset,omitempty"`
}

type CreateProposalRequest struct {
	Title         string `json:"title" validate:"required,min=5,max=160"`
	Description   string `json:"description" validate:"required,max=8000"`
	DurationHours int    `json:"duration_hours" validate:"required,min=1,max=720"`
}

type VoteRequest struct {
	ProposalID string           `json:"proposal_id"`
	Choice     enums.VoteChoice `json:"choice" validate:"required,oneof=yes no abstain"`
}

type EscrowBalance struct {
	Principal string          `json:"principal"`
	Available decimal.Decimal `json:"available"`
	Locked    decimal.Decimal `json:"locked"`
}

type EscrowRequest struct {
	Amount     decimal.Decimal `json:"amount" validate:"gt=0"`
	CampaignID string          `json:"campaign_id,omitempty" validate:"omitempty,max=64"`
}
