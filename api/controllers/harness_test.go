package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/angelmondragon/influence-market/api/middleware"
	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/internal/backend/backendtest"
	"github.com/angelmondragon/influence-market/internal/capabilities"
	"github.com/angelmondragon/influence-market/internal/clientsession"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/internal/identity"
	"github.com/angelmondragon/influence-market/pkg/auth/session"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
	"github.com/angelmondragon/influence-market/pkg/enums"
)

const testSessionID = "Y29udHJvbGxlci1zZXNzaW9uLWlkZW50aWZpZXItMDE"

type stubAuthenticator struct{}

func (stubAuthenticator) Authenticate(ctx context.Context, assertion string) (*identity.Identity, error) {
	if assertion == "rejected" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "identity assertion rejected")
	}
	return &identity.Identity{Principal: assertion, Provider: "test", AuthenticatedAt: time.Now()}, nil
}

type memoryStore struct {
	mu   sync.Mutex
	data map[string]identity.Identity
}

func (m *memoryStore) Load(ctx context.Context, id string) (*identity.Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[id]; ok {
		return &v, nil
	}
	return nil, nil
}

func (m *memoryStore) Save(ctx context.Context, id string, v identity.Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[id] = v
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type harness struct {
	t      *testing.T
	fake   *backendtest.Fake
	store  *memoryStore
	router chi.Router
}

// newHarness serves the routes added by mount behind ClientSession. principal, when set, is
// restored from the session store as if the browser had signed in earlier.
func newHarness(t *testing.T, principal string, fake *backendtest.Fake, mount func(chi.Router)) *harness {
	t.Helper()
	store := &memoryStore{data: map[string]identity.Identity{}}
	if principal != "" {
		store.data[testSessionID] = identity.Identity{Principal: principal, Provider: "test"}
	}
	hub, err := clientsession.NewHub(clientsession.HubParams{
		Authenticator: stubAuthenticator{},
		Store:         store,
		ClientFactory: backendtest.Factory(fake),
	})
	if err != nil {
		t.Fatalf("new hub: %v", err)
	}
	t.Cleanup(hub.Close)

	r := chi.NewRouter()
	r.Use(middleware.ClientSession(hub, middleware.ClientSessionOptions{}, nil))
	mount(r)
	return &harness{t: t, fake: fake, store: store, router: r}
}

func (h *harness) do(method, target, body string) *httptest.ResponseRecorder {
	h.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testSessionID})
	ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
	defer cancel()
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, rec.Body.String())
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, string(envelope.Data))
	}
}

type apiError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) apiError {
	t.Helper()
	var envelope struct {
		Error apiError `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error
}

func brandAccount() *accounts.Account {
	return &accounts.Account{
		Role:  enums.RoleBrand,
		Brand: &accounts.BrandInfo{CompanyName: "Acme", Industry: "retail", Verification: enums.VerificationVerified},
	}
}

func influencerAccount() *accounts.Account {
	return &accounts.Account{
		Role:       enums.RoleInfluencer,
		Influencer: &accounts.InfluencerInfo{FollowerCount: 12000, Categories: []string{"fitness"}},
	}
}

var errGateway = errors.New("gateway timeout")

// mountShell wires the handlers the way the router does, without idempotency or rate limits.
func mountShell(r chi.Router) {
	r.Get("/app", AppView(nil))
	r.Post("/app/refresh", AppRefresh(nil))
	r.Post("/auth/login", AuthLogin(nil))
	r.Post("/auth/logout", AuthLogout(nil))
	r.Get("/public/campaigns", PublicCampaigns(nil))

	r.With(middleware.RequireState(nil, gate.Unregistered)).Post("/register", Register(nil))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireState(nil, gate.Registered))
		r.Get("/me", Me(nil))
		r.Put("/me/profile", UpdateProfile(nil))
		r.Get("/dashboard", Dashboard(nil))
		r.Get("/campaigns", ListCampaigns(nil))
		r.With(middleware.RequireCapability(capabilities.ActionCreateCampaign, nil)).Post("/campaigns", CreateCampaign(nil))
		r.Get("/campaigns/{campaignId}", GetCampaign(nil))
		r.With(middleware.RequireCapability(capabilities.ActionApplyToCampaign, nil)).Post("/campaigns/{campaignId}/apply", ApplyToCampaign(nil))
		r.With(middleware.RequireCapability(capabilities.ActionViewApplicants, nil)).Get("/campaigns/{campaignId}/applicants", ListApplicants(nil))
		r.With(middleware.RequireCapability(capabilities.ActionApproveCampaign, nil)).Post("/campaigns/{campaignId}/applicants/{applicationId}/approve", ApproveApplication(nil))
		r.Get("/staking", StakingOverview(nil))
		r.With(middleware.RequireCapability(capabilities.ActionStake, nil)).Post("/staking", Stake(nil))
		r.Get("/governance/proposals", ListProposals(nil))
		r.With(middleware.RequireCapability(capabilities.ActionPropose, nil)).Post("/governance/proposals", CreateProposal(nil))
		r.With(middleware.RequireCapability(capabilities.ActionVote, nil)).Post("/governance/proposals/{proposalId}/vote", Vote(nil))
		r.Get("/escrow", EscrowBalance(nil))
		r.With(middleware.RequireCapability(capabilities.ActionDepositEscrow, nil)).Post("/escrow/deposit", DepositEscrow(nil))
		r.With(middleware.RequireCapability(capabilities.ActionWithdrawEscrow, nil)).Post("/escrow/withdraw", WithdrawEscrow(nil))
	})
}
