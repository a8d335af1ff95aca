package accounts

import (
	"fmt"

	"github.com/angelmondragon/influence-market/pkg/enums"
	"github.com/shopspring/decimal"
)

// Account is the backend-held registration record for a principal.
// Optional sections are nil when absent; read them through the OrZero accessors.
type Account struct {
	Principal  string          `json:"principal"`
	Role       enums.Role      `json:"role"`
	Brand      *BrandInfo      `json:"brand_info,omitempty"`
	Influencer *InfluencerInfo `json:"influencer_info,omitempty"`
	Profile    *Profile        `json:"profile,omitempty"`
	Staked     decimal.Decimal `json:"staked"`
}

type BrandInfo struct {
	CompanyName  string                   `json:"company_name" validate:"required,max=120"`
	Industry     string                   `json:"industry" validate:"required,max=80"`
	Website      string                   `json:"website,omitempty" validate:"omitempty,url"`
	Verification enums.VerificationStatus `json:"verification_status,omitempty"`
}

type InfluencerInfo struct {
	FollowerCount  uint64                   `json:"follower_count"`
	EngagementRate decimal.Decimal          `json:"engagement_rate"`
	Categories     []string                 `json:"categories" validate:"max=10,dive,required,max=40"`
	PortfolioLinks []string                 `json:"portfolio_links,omitempty" validate:"max=10,dive,url"`
	Verification   enums.VerificationStatus `json:"verification_status,omitempty"`
}

type Profile struct {
	Username           string            `json:"username" validate:"required,min=3,max=32"`
	Bio                string            `json:"bio,omitempty" validate:"max=500"`
	SocialLinks        map[string]string `json:"social_links,omitempty" validate:"max=10"`
	CompletedCampaigns []string          `json:"completed_campaigns,omitempty"`
}

// BrandInfoOrZero returns the brand section or its zero value.
func (a *Account) BrandInfoOrZero() BrandInfo {
	if a == nil || a.Brand == nil {
		return BrandInfo{}
	}
	return *a.Brand
}

// InfluencerInfoOrZero returns the influencer section or its zero value.
func (a *Account) InfluencerInfoOrZero() InfluencerInfo {
	if a == nil || a.Influencer == nil {
		return InfluencerInfo{}
	}
	return *a.Influencer
}

// ProfileOrZero returns the profile section or its zero value.
func (a *Account) ProfileOrZero() Profile {
	if a == nil || a.Profile == nil {
		return Profile{}
	}
	return *a.Profile
}

// Validate checks that exactly one role section is present and that it matches Role.
func (a *Account) Validate() error {
	if a == nil {
		return fmt.Errorf("account is nil")
	}
	switch a.Role {
	case enums.RoleBrand:
		if a.Brand == nil || a.Influencer != nil {
			return fmt.Errorf("brand account must carry brand info only")
		}
	case enums.RoleInfluencer:
		if a.Influencer == nil || a.Brand != nil {
			return fmt.Errorf("influencer account must carry influencer info only")
		}
	default:
		return fmt.Errorf("unknown role %q", a.Role)
	}
	return nil
}
