package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/influence-market/api/controllers"
	"github.com/angelmondragon/influence-market/api/middleware"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/pkg/auth/session"
	"github.com/angelmondragon/influence-market/pkg/config"
	"github.com/angelmondragon/influence-market/pkg/logger"
	pkgredis "github.com/angelmondragon/influence-market/pkg/redis"
)

// Store is the redis surface the router needs: login throttling, idempotent replays and the
// readiness ping.
type Store interface {
	pkgredis.IdempotencyStore
	IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	Ping(context.Context) error
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	hub middleware.SessionHub,
	sessions middleware.SessionToucher,
	store Store,
	gatherer prometheus.Gatherer,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginSessionLimit,
	)

	readiness := map[string]controllers.Pinger{}
	var idempotencyStore pkgredis.IdempotencyStore
	var rateLimitStore interface {
		IncrWithTTL(context.Context, string, time.Duration) (int64, error)
	}
	if store != nil {
		readiness["redis"] = store
		idempotencyStore = store
		rateLimitStore = store
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readiness))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	sessionOpts := middleware.ClientSessionOptions{
		Cookie: session.CookieOptions{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.CookieSecure,
		},
		TTL:     cfg.Session.TTL,
		Toucher: sessions,
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.ClientSession(hub, sessionOpts, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/app", controllers.AppView(logg))
		r.Post("/app/refresh", controllers.AppRefresh(logg))
		r.Get("/public/campaigns", controllers.PublicCampaigns(logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(middleware.AuthRateLimit(loginPolicy, rateLimitStore, logg)).Post("/login", controllers.AuthLogin(logg))
			r.Post("/logout", controllers.AuthLogout(logg))
		})

		r.With(middleware.RequireState(logg, gate.Unregistered)).Post("/register", controllers.Register(logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireState(logg, gate.Registered))

			r.Get("/me", controllers.Me(logg))
			r.Put("/me/profile", controllers.UpdateProfile(logg))
			r.Get("/dashboard", controllers.Dashboard(logg))

			r.Route("/campaigns", func(r chi.Router) {
				r.Get("/", controllers.ListCampaigns(logg))
				r.With(middleware.RequireCapability(capabilities.ActionCreateCampaign, logg)).Post("/", controllers.CreateCampaign(logg))
				r.Route("/{campaignId}", func(r chi.Router) {
					r.Get("/", controllers.GetCampaign(logg))
					r.With(middleware.RequireCapability(capabilities.ActionApplyToCampaign, logg)).Post("/apply", controllers.ApplyToCampaign(logg))
					r.With(middleware.RequireCapability(capabilities.ActionViewApplicants, logg)).Get("/applicants", controllers.ListApplicants(logg))
					r.With(middleware.RequireCapability(capabilities.ActionApproveCampaign, logg)).Post("/applicants/{applicationId}/approve", controllers.ApproveApplication(logg))
				})
			})

			r.Route("/staking", func(r chi.Router) {
				r.Get("/", controllers.StakingOverview(logg))
				r.With(middleware.RequireCapability(capabilities.ActionStake, logg)).Post("/", controllers.Stake(logg))
			})

			r.Route("/governance/proposals", func(r chi.Router) {
				r.Get("/", controllers.ListProposals(logg))
				r.With(middleware.RequireCapability(capabilities.ActionPropose, logg)).Post("/", controllers.CreateProposal(logg))
				r.With(middleware.RequireCapability(capabilities.ActionVote, logg)).Post("/{proposalId}/vote", controllers.Vote(logg))
			})

			r.Route("/escrow", func(r chi.Router) {
				r.Get("/", controllers.EscrowBalance(logg))
				r.With(middleware.RequireCapability(capabilities.ActionDepositEscrow, logg)).Post("/deposit", controllers.DepositEscrow(logg))
				r.With(middleware.RequireCapability(capabilities.ActionWithdrawEscrow, logg)).Post("/withdraw", controllers.WithdrawEscrow(logg))
			})
		})
	})

	return r
}
