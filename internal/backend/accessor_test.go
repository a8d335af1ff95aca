package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/angelmondragon/influence-market/internal/identity"
	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

type namedClient struct {
	Client
	principal string
}

func (c namedClient) Principal() string { return c.principal }

func TestAccessorBindsPerIdentity(t *testing.T) {
	var requested []string
	accessor := NewAccessor(func(principal string) (Client, error) {
		requested = append(requested, principal)
		return namedClient{principal: principal}, nil
	}, nil)

	if accessor.Client() != nil {
		t.Fatal("unbound accessor must return nil")
	}
	if _, err := accessor.Require(); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if pkgerrors.CodeOf(ErrUnavailable) != pkgerrors.CodeBackendUnavailable {
		t.Fatal("unavailable maps to backend unavailable")
	}

	accessor.Bind(context.Background(), nil)
	if got := accessor.Client(); got == nil || got.Principal() != "" {
		t.Fatalf("expected anonymous client, got %v", got)
	}

	accessor.Bind(context.Background(), &identity.Identity{Principal: "p1"})
	if got := accessor.Client(); got == nil || got.Principal() != "p1" {
		t.Fatalf("expected client for p1, got %v", got)
	}

	if len(requested) != 2 || requested[0] != "" || requested[1] != "p1" {
		t.Fatalf("unexpected factory calls %v", requested)
	}
}

func TestAccessorFactoryFailureLeavesHandleNil(t *testing.T) {
	fail := false
	accessor := NewAccessor(func(principal string) (Client, error) {
		if fail {
			return nil, errors.New("no gateway")
		}
		return namedClient{principal: principal}, nil
	}, nil)

	accessor.Bind(context.Background(), &identity.Identity{Principal: "p1"})
	fail = true
	if got := accessor.Bind(context.Background(), &identity.Identity{Principal: "p2"}); got != nil {
		t.Fatal("failed bind returns nil")
	}
	if accessor.Client() != nil {
		t.Fatal("the previous identity's client must not survive a rebind")
	}
}
