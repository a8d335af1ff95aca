// Package backendtest provides an in-memory backend.Client for handler and session tests.
package backendtest

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend"
)

// Fake answers every call from its fields. Unset hooks return zero values.
type Fake struct {
	PrincipalID string

	Registered  bool
	RegisterErr error
	Account     *accounts.Account
	AccountErr  error

	Campaigns    []backend.Campaign
	Applications []backend.Application
	StakeInfo    *backend.StakeInfo
	Proposals    []backend.Proposal
	Escrow       *backend.EscrowBalance

	// Err, when set, is returned by every mutation.
	Err error

	mu    sync.Mutex
	calls []string
	bound []*Fake
}

var _ backend.Client = (*Fake)(nil)

// Factory returns a backend.ClientFactory that hands out copies bound to the requested principal.
func Factory(template *Fake) backend.ClientFactory {
	return func(principal string) (backend.Client, error) {
		return template.bind(principal), nil
	}
}

func (f *Fake) bind(principal string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := &Fake{
		PrincipalID:  principal,
		Registered:   f.Registered,
		RegisterErr:  f.RegisterErr,
		Account:      f.Account,
		AccountErr:   f.AccountErr,
		Campaigns:    f.Campaigns,
		Applications: f.Applications,
		StakeInfo:    f.StakeInfo,
		Proposals:    f.Proposals,
		Escrow:       f.Escrow,
		Err:          f.Err,
	}
	f.bound = append(f.bound, clone)
	return clone
}

// Last returns the most recent client handed out by Factory, or nil.
func (f *Fake) Last() *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.bound) == 0 {
		return nil
	}
	return f.bound[len(f.bound)-1]
}

// Bound reports how many clients Factory has handed out.
func (f *Fake) Bound() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.bound)
}

// Calls lists the methods invoked so far, in order.
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Fake) record(method string) {
	f.mu.Lock()
	f.calls = append(f.calls, method)
	f.mu.Unlock()
}

func (f *Fake) Principal() string { return f.PrincipalID }

func (f *Fake) IsUserRegistered(ctx context.Context, principal string) (bool, error) {
	f.record("is_user_registered")
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.Registered, f.RegisterErr
}

func (f *Fake) GetMyAccount(ctx context.Context) (*accounts.Account, error) {
	f.record("get_my_account")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.AccountErr != nil {
		return nil, f.AccountErr
	}
	if f.Account == nil {
		return nil, nil
	}
	acct := *f.Account
	if acct.Principal == "" {
		acct.Principal = f.PrincipalID
	}
	return &acct, nil
}

// RegisterUser records the account so later reads see the principal as registered.
func (f *Fake) RegisterUser(ctx context.Context, req backend.RegisterUserRequest) (*accounts.Account, error) {
	f.record("register_user")
	if f.Err != nil {
		return nil, f.Err
	}
	acct := &accounts.Account{Principal: f.PrincipalID, Role: req.Role, Brand: req.BrandInfo, Influencer: req.InfluencerInfo, Profile: req.Profile}
	f.mu.Lock()
	f.Registered = true
	f.Account = acct
	f.mu.Unlock()
	return acct, nil
}

func (f *Fake) UpdateProfile(ctx context.Context, profile accounts.Profile) (*accounts.Account, error) {
	f.record("update_profile")
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	acct := accounts.Account{Principal: f.PrincipalID}
	if f.Account != nil {
		acct = *f.Account
	}
	acct.Profile = &profile
	f.Account = &acct
	return &acct, nil
}

func (f *Fake) ListCampaigns(ctx context.Context, filter backend.CampaignFilter) ([]backend.Campaign, error) {
	f.record("list_campaigns")
	return f.Campaigns, nil
}

func (f *Fake) GetCampaign(ctx context.Context, campaignID string) (*backend.Campaign, error) {
	f.record("get_campaign")
	for i := range f.Campaigns {
		if f.Campaigns[i].ID == campaignID {
			c := f.Campaigns[i]
			return &c, nil
		}
	}
	return nil, &backend.Error{Method: "get_campaign", Kind: backend.KindNotFound, Reason: campaignID}
}

func (f *Fake) CreateCampaign(ctx context.Context, req backend.CreateCampaignRequest) (*backend.Campaign, error) {
	f.record("create_campaign")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.Campaign{ID: "campaign-new", BrandPrincipal: f.PrincipalID, Title: req.Title, Description: req.Description, Budget: req.Budget, Categories: req.Categories}, nil
}

func (f *Fake) ApplyToCampaign(ctx context.Context, campaignID string, req backend.ApplyRequest) (*backend.Application, error) {
	f.record("apply_to_campaign")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.Application{ID: "application-new", CampaignID: campaignID, InfluencerPrincipal: f.PrincipalID, Pitch: req.Pitch, ProposedRate: req.ProposedRate}, nil
}

func (f *Fake) ListApplicants(ctx context.Context, campaignID string) ([]backend.Application, error) {
	f.record("list_applicants")
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Applications, nil
}

func (f *Fake) ApproveApplication(ctx context.Context, campaignID, applicationID string) (*backend.Application, error) {
	f.record("approve_application")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.Application{ID: applicationID, CampaignID: campaignID}, nil
}

func (f *Fake) Stake(ctx context.Context, amount decimal.Decimal) (*backend.StakeInfo, error) {
	f.record("stake")
	if f.Err != nil {
		return nil, f.Err
	}
	f.mu.Lock()
	if f.Account != nil {
		acct := *f.Account
		acct.Staked = acct.Staked.Add(amount)
		f.Account = &acct
	}
	f.mu.Unlock()
	return &backend.StakeInfo{Principal: f.PrincipalID, Amount: amount}, nil
}

func (f *Fake) GetStake(ctx context.Context) (*backend.StakeInfo, error) {
	f.record("get_stake")
	if f.StakeInfo == nil {
		return &backend.StakeInfo{Principal: f.PrincipalID}, nil
	}
	return f.StakeInfo, nil
}

func (f *Fake) ListProposals(ctx context.Context, filter backend.ProposalFilter) ([]backend.Proposal, error) {
	f.record("list_proposals")
	return f.Proposals, nil
}

func (f *Fake) CreateProposal(ctx context.Context, req backend.CreateProposalRequest) (*backend.Proposal, error) {
	f.record("create_proposal")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.Proposal{ID: "proposal-new", Proposer: f.PrincipalID, Title: req.Title, Description: req.Description}, nil
}

func (f *Fake) Vote(ctx context.Context, req backend.VoteRequest) (*backend.Proposal, error) {
	f.record("vote")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.Proposal{ID: req.ProposalID}, nil
}

func (f *Fake) GetEscrowBalance(ctx context.Context) (*backend.EscrowBalance, error) {
	f.record("get_escrow_balance")
	if f.Escrow == nil {
		return &backend.EscrowBalance{Principal: f.PrincipalID}, nil
	}
	return f.Escrow, nil
}

func (f *Fake) DepositEscrow(ctx context.Context, req backend.EscrowRequest) (*backend.EscrowBalance, error) {
	f.record("deposit_escrow")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.EscrowBalance{Principal: f.PrincipalID, Available: req.Amount}, nil
}

func (f *Fake) WithdrawEscrow(ctx context.Context, req backend.EscrowRequest) (*backend.EscrowBalance, error) {
	f.record("withdraw_escrow")
	if f.Err != nil {
		return nil, f.Err
	}
	return &backend.EscrowBalance{Principal: f.PrincipalID}, nil
}
