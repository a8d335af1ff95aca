package gate

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/angelmondragon/influence-market/internal/accounts"
	"github.com/angelmondragon/influence-market/pkg/enums"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name string
		in   Inputs
		want State
	}{
		{"not initialized", Inputs{}, Initializing},
		{"not initialized wins over everything", Inputs{IsAuthenticated: true, HasAccount: true}, Initializing},
		{"init failed", Inputs{IsInitialized: true, InitErr: errors.New("idp down")}, InitializationFailed},
		{"anonymous", Inputs{IsInitialized: true}, Unauthenticated},
		{"checking", Inputs{IsInitialized: true, IsAuthenticated: true, AccountLoading: true}, CheckingRegistration},
		{"unregistered", Inputs{IsInitialized: true, IsAuthenticated: true}, Unregistered},
		{"registered", Inputs{IsInitialized: true, IsAuthenticated: true, HasAccount: true}, Registered},
		{"resolution failed", Inputs{IsInitialized: true, IsAuthenticated: true, AccountErr: errors.New("AccountNotFound")}, ResolutionFailed},
	}
	for _, tt := range tests {
		if got := Decide(tt.in); got != tt.want {
			t.Fatalf("%s: expected %s, got %s", tt.name, tt.want, got)
		}
	}
}

func TestTransitions(t *testing.T) {
	legal := [][2]State{
		{Initializing, Unauthenticated},
		{Initializing, CheckingRegistration},
		{CheckingRegistration, Unregistered},
		{CheckingRegistration, Registered},
		{Registered, CheckingRegistration},
		{Registered, Unauthenticated},
		{Unregistered, Unauthenticated},
		{ResolutionFailed, CheckingRegistration},
	}
	for _, pair := range legal {
		if !Allowed(pair[0], pair[1]) {
			t.Fatalf("expected %s -> %s to be allowed", pair[0], pair[1])
		}
	}

	if Allowed(Unregistered, Registered) {
		t.Fatal("unregistered cannot jump to registered without a resolution")
	}
	if !Reachable(Unregistered, Registered) {
		t.Fatal("unregistered reaches registered through checking")
	}
	if Reachable(Registered, Initializing) {
		t.Fatal("nothing returns to initializing")
	}
	if !Reachable(InitializationFailed, Registered) {
		t.Fatal("a reload or login leaves initialization failure")
	}
	if Reachable(Registered, InitializationFailed) {
		t.Fatal("a restored session cannot fail initialization again")
	}
}

func TestMachineAdvance(t *testing.T) {
	m := NewMachine(nil)
	if m.Current() != Initializing {
		t.Fatalf("machine starts initializing, got %s", m.Current())
	}
	ctx := context.Background()

	steps := []struct {
		next State
		ok   bool
	}{
		{CheckingRegistration, true},
		{Registered, true},
		{CheckingRegistration, true},
		{Registered, true},
		{Unauthenticated, true},
		{Initializing, false},
	}
	for _, step := range steps {
		got, ok := m.Advance(ctx, step.next)
		if got != step.next || ok != step.ok {
			t.Fatalf("advance to %s: got %s ok=%v", step.next, got, ok)
		}
	}
	if m.Current() != Initializing {
		t.Fatal("decided state wins even when the move is unexpected")
	}
}

func TestRenderLoadingStatesCarryNoRoutes(t *testing.T) {
	for _, state := range []State{Initializing, CheckingRegistration} {
		view := Render(state, nil, nil)
		if !view.Loading || len(view.Routes) != 0 || len(view.Navigation) != 0 {
			t.Fatalf("%s: expected bare loading view, got %+v", state, view)
		}
	}
}

func TestRenderUnauthenticatedAndUnregistered(t *testing.T) {
	view := Render(Unauthenticated, nil, nil)
	names := map[string]bool{}
	for _, r := range view.Routes {
		names[r.Name] = true
	}
	if !names["login"] || !names["register"] || !names["explore"] {
		t.Fatalf("expected public routes with entry points, got %+v", view.Routes)
	}

	view = Render(Unregistered, nil, nil)
	if len(view.Routes) != 1 || view.Routes[0].Path != "/register" {
		t.Fatalf("unregistered renders registration only, got %+v", view.Routes)
	}
}

func TestRenderRegisteredNavigationByRole(t *testing.T) {
	brand := &accounts.Account{Role: enums.RoleBrand, Brand: &accounts.BrandInfo{}}
	influencer := &accounts.Account{Role: enums.RoleInfluencer, Influencer: &accounts.InfluencerInfo{}}

	labels := func(items []NavItem) map[string]bool {
		out := map[string]bool{}
		for _, item := range items {
			out[item.Label] = true
		}
		return out
	}

	brandNav := labels(Render(Registered, brand, nil).Navigation)
	if !brandNav["My Campaigns"] || !brandNav["Create Campaign"] || !brandNav["Escrow"] || brandNav["Earnings"] {
		t.Fatalf("unexpected brand navigation %v", brandNav)
	}

	influencerNav := labels(Render(Registered, influencer, nil).Navigation)
	if !influencerNav["Campaigns"] || influencerNav["Create Campaign"] || !influencerNav["Earnings"] || influencerNav["Escrow"] {
		t.Fatalf("unexpected influencer navigation %v", influencerNav)
	}
}

func TestRenderErrors(t *testing.T) {
	view := Render(InitializationFailed, nil, errors.New("idp"))
	if view.Error == nil || !view.Error.Blocking || view.Error.Code != InitializationFailedCode {
		t.Fatalf("unexpected init failure view %+v", view.Error)
	}

	notFound := fmt.Errorf("fetching account: %w", pkgerrors.New(pkgerrors.CodeAccountNotFound, "account not found"))
	view = Render(ResolutionFailed, nil, notFound)
	if view.Error == nil || view.Error.Blocking || view.Error.Code != string(pkgerrors.CodeAccountNotFound) {
		t.Fatalf("unexpected resolution failure view %+v", view.Error)
	}
	if view.Error.Retry != "refresh" || len(view.Routes) != 0 {
		t.Fatalf("resolution failure offers refresh and no routes, got %+v", view)
	}

	view = Render(ResolutionFailed, nil, errors.New("network down"))
	if view.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("untyped failures render as dependency errors, got %s", view.Error.Code)
	}
}
