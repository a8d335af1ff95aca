package controllers

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/angelmondragon/influence-market/api/middleware"
	"github.com/angelmondragon/influence-market/api/responses"
	"github.com/angelmondragon/influence-market/internal/backend"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/pkg/enums"
	"github.com/angelmondragon/influence-market/pkg/logger"
)

const dashboardCampaigns = 5

type dashboardView struct {
	App       appResponse            `json:"app"`
	Campaigns []backend.Campaign     `json:"campaigns"`
	Staking   stakingView            `json:"staking"`
	Escrow    *backend.EscrowBalance `json:"escrow,omitempty"`
	Proposals []backend.Proposal     `json:"proposals"`
}

// Dashboard loads the shell landing data in parallel. Any failed read fails the view.
func Dashboard(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, client, err := backendClient(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		snap, _ := middleware.SnapshotFromContext(r.Context())
		acct := snap.Account()

		var (
			campaigns []backend.Campaign
			stake     *backend.StakeInfo
			escrow    *backend.EscrowBalance
			proposals []backend.Proposal
		)
		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error {
			var err error
			campaigns, err = client.ListCampaigns(ctx, backend.CampaignFilter{Mine: true, Limit: dashboardCampaigns})
			return err
		})
		g.Go(func() error {
			var err error
			stake, err = client.GetStake(ctx)
			return err
		})
		g.Go(func() error {
			var err error
			proposals, err = client.ListProposals(ctx, backend.ProposalFilter{Status: enums.ProposalStatusOpen, Limit: dashboardCampaigns})
			return err
		})
		if capabilities.CanDepositEscrow(acct) || capabilities.CanWithdrawEscrow(acct) {
			g.Go(func() error {
				var err error
				escrow, err = client.GetEscrowBalance(ctx)
				return err
			})
		}
		if err := g.Wait(); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, dashboardView{
			App:       newAppResponse(snap),
			Campaigns: campaigns,
			Staking:   newStakingView(acct, stake),
			Escrow:    escrow,
			Proposals: proposals,
		})
	}
}
