package controllers

import (
	"context"
	"net/http"
	"testing"

	"github.com/angelmondragon/influence-market/internal/backend/backendtest"
	"github.com/angelmondragon/influence-market/internal/gate"
	"github.com/angelmondragon/influence-market/pkg/enums"
)

type appPayload struct {
	View struct {
		State   gate.State `json:"state"`
		Loading bool       `json:"loading"`
		Error   *struct {
			Code     string `json:"code"`
			Blocking bool   `json:"blocking"`
		} `json:"error"`
	} `json:"view"`
	Principal string `json:"principal"`
	Account   *struct {
		Role enums.Role `json:"role"`
	} `json:"account"`
	Capabilities *struct {
		RoleName     string          `json:"role_name"`
		MinimumStake string          `json:"minimum_stake"`
		Allowed      map[string]bool `json:"allowed"`
	} `json:"capabilities"`
	LoginError string `json:"login_error"`
}

func TestAppViewAnonymous(t *testing.T) {
	h := newHarness(t, "", &backendtest.Fake{}, mountShell)

	rec := h.do(http.MethodGet, "/app?wait=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got appPayload
	decodeData(t, rec, &got)
	if got.View.State != gate.Unauthenticated {
		t.Fatalf("expected unauthenticated view, got %s", got.View.State)
	}
	if got.Account != nil || got.Capabilities != nil {
		t.Fatalf("anonymous view must not carry an account: %+v", got)
	}
	if cookies := rec.Result().Cookies(); len(cookies) != 0 {
		t.Fatalf("no cookie expected without a ttl, got %v", cookies)
	}
}

func TestAppViewRegisteredBrand(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: brandAccount()}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/app?wait=true", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got appPayload
	decodeData(t, rec, &got)
	if got.View.State != gate.Registered {
		t.Fatalf("expected registered view, got %s", got.View.State)
	}
	if got.Principal != "brand-principal" {
		t.Fatalf("unexpected principal %q", got.Principal)
	}
	if got.Account == nil || got.Account.Role != enums.RoleBrand {
		t.Fatalf("expected brand account, got %+v", got.Account)
	}
	if got.Capabilities == nil {
		t.Fatal("expected capabilities summary")
	}
	if got.Capabilities.MinimumStake != "500" {
		t.Fatalf("expected brand minimum stake 500, got %s", got.Capabilities.MinimumStake)
	}
	if !got.Capabilities.Allowed["create_campaign"] || got.Capabilities.Allowed["apply_to_campaign"] {
		t.Fatalf("unexpected brand capabilities %v", got.Capabilities.Allowed)
	}
}

func TestAppViewResolutionFailureIsRetryable(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, AccountErr: errGateway}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/app?wait=true", "")
	var got appPayload
	decodeData(t, rec, &got)
	if got.View.State != gate.ResolutionFailed {
		t.Fatalf("expected resolution_failed, got %s", got.View.State)
	}
	if got.View.Error == nil || got.View.Error.Blocking {
		t.Fatalf("expected a non-blocking error view, got %+v", got.View.Error)
	}

	bound := fake.Last()
	before := len(bound.Calls())
	rec = h.do(http.MethodPost, "/app/refresh", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if after := len(bound.Calls()); after <= before {
		t.Fatalf("refresh did not call the backend again (%d -> %d)", before, after)
	}
}

func TestAppViewRejectsBadWaitFlag(t *testing.T) {
	h := newHarness(t, "", &backendtest.Fake{}, mountShell)

	rec := h.do(http.MethodGet, "/app?wait=sometimes", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeError(t, rec); got.Code != "VALIDATION_ERROR" {
		t.Fatalf("expected VALIDATION_ERROR, got %s", got.Code)
	}
}

func TestMeReturnsAccount(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: influencerAccount()}
	h := newHarness(t, "creator-principal", fake, mountShell)

	rec := h.do(http.MethodGet, "/me", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var got appPayload
	decodeData(t, rec, &got)
	if got.Account == nil || got.Account.Role != enums.RoleInfluencer {
		t.Fatalf("expected influencer account, got %+v", got.Account)
	}
	if got.Capabilities.MinimumStake != "100" {
		t.Fatalf("expected influencer minimum stake 100, got %s", got.Capabilities.MinimumStake)
	}
}

func TestMeRequiresSignIn(t *testing.T) {
	h := newHarness(t, "", &backendtest.Fake{}, mountShell)

	rec := h.do(http.MethodGet, "/me", "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestUpdateProfileRefreshesAccount(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: brandAccount()}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodPut, "/me/profile", `{"username":"  acme_official  ","bio":"We make things"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	bound := fake.Last()
	acct, err := bound.GetMyAccount(context.Background())
	if err != nil {
		t.Fatalf("get account: %v", err)
	}
	if acct.Profile == nil || acct.Profile.Username != "acme_official" {
		t.Fatalf("expected sanitized username stored, got %+v", acct.Profile)
	}
}

func TestUpdateProfileValidatesBody(t *testing.T) {
	fake := &backendtest.Fake{Registered: true, Account: brandAccount()}
	h := newHarness(t, "brand-principal", fake, mountShell)

	rec := h.do(http.MethodPut, "/me/profile", `{"username":"ab"}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
