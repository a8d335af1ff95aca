package identity

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/angelmondragon/influence-market/pkg/errors"
)

type stubAuthenticator struct {
	id  *Identity
	err error
}

func (s stubAuthenticator) Authenticate(ctx context.Context, assertion string) (*Identity, error) {
	return s.id, s.err
}

type memoryStore struct {
	mu      sync.Mutex
	data    map[string]Identity
	loadErr error
	loads   int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Identity)}
}

func (m *memoryStore) Load(ctx context.Context, sessionID string) (*Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loads++
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	id, ok := m.data[sessionID]
	if !ok {
		return nil, nil
	}
	return &id, nil
}

func (m *memoryStore) Save(ctx context.Context, sessionID string, id Identity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[sessionID] = id
	return nil
}

func (m *memoryStore) Delete(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, sessionID)
	return nil
}

func newTestProvider(t *testing.T, auth Authenticator, store SessionStore) *Provider {
	t.Helper()
	p, err := NewProvider(ProviderParams{SessionID: "sid-1", Authenticator: auth, Store: store})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p
}

func TestProviderInitAnonymous(t *testing.T) {
	store := newMemoryStore()
	p := newTestProvider(t, stubAuthenticator{}, store)

	if p.State().IsInitialized {
		t.Fatal("provider must start uninitialized")
	}

	var seen []State
	p.Subscribe(func(s State) { seen = append(seen, s) })

	p.Init(context.Background())
	p.Init(context.Background())

	state := p.State()
	if !state.IsInitialized || state.IsAuthenticated || state.Identity != nil {
		t.Fatalf("unexpected state %+v", state)
	}
	if store.loads != 1 {
		t.Fatalf("expected a single restore attempt, got %d", store.loads)
	}
	if len(seen) != 1 {
		t.Fatalf("expected one notification, got %d", len(seen))
	}
}

func TestProviderInitRestoresIdentity(t *testing.T) {
	store := newMemoryStore()
	store.data["sid-1"] = Identity{Principal: "aaaaa-aa", Provider: "internet-identity"}
	p := newTestProvider(t, stubAuthenticator{}, store)

	p.Init(context.Background())

	state := p.State()
	if !state.IsAuthenticated || state.Principal() != "aaaaa-aa" {
		t.Fatalf("expected restored identity, got %+v", state)
	}
}

func TestProviderInitFailureIsRecorded(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("redis down")
	p := newTestProvider(t, stubAuthenticator{}, store)

	p.Init(context.Background())

	state := p.State()
	if !state.IsInitialized {
		t.Fatal("a failed restore still completes initialization")
	}
	if state.InitErr == nil || state.IsAuthenticated {
		t.Fatalf("expected init error and anonymous state, got %+v", state)
	}
}

func TestProviderInitRetriesAfterFailedRestore(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("redis down")
	store.data["sid-1"] = Identity{Principal: "aaaaa-aa"}
	p := newTestProvider(t, stubAuthenticator{}, store)

	p.Init(context.Background())
	if p.State().InitErr == nil {
		t.Fatal("expected init error while the store is down")
	}

	store.mu.Lock()
	store.loadErr = nil
	store.mu.Unlock()

	p.Init(context.Background())
	state := p.State()
	if state.InitErr != nil {
		t.Fatalf("expected recovered restore, got %v", state.InitErr)
	}
	if !state.IsAuthenticated || state.Principal() != "aaaaa-aa" {
		t.Fatalf("expected restored identity, got %+v", state)
	}

	p.Init(context.Background())
	if store.loads != 2 {
		t.Fatalf("expected no restore after a successful one, got %d loads", store.loads)
	}
}

func TestProviderLoginClearsInitError(t *testing.T) {
	store := newMemoryStore()
	store.loadErr = errors.New("redis down")
	p := newTestProvider(t, stubAuthenticator{id: &Identity{Principal: "2vxsx-fae"}}, store)

	p.Init(context.Background())
	if _, err := p.Login(context.Background(), "assertion"); err != nil {
		t.Fatalf("login: %v", err)
	}
	state := p.State()
	if state.InitErr != nil || !state.IsAuthenticated {
		t.Fatalf("expected login to replace the failed restore, got %+v", state)
	}

	store.mu.Lock()
	loads := store.loads
	store.mu.Unlock()
	p.Init(context.Background())
	if store.loads != loads {
		t.Fatal("a logged in provider must not restore again")
	}
}

// gatedAuthenticator reports when the handshake starts.
type gatedAuthenticator struct {
	id      *Identity
	started chan struct{}
}

func (g gatedAuthenticator) Authenticate(ctx context.Context, assertion string) (*Identity, error) {
	close(g.started)
	return g.id, nil
}

func TestProviderDeliversConcurrentTransitionsInOrder(t *testing.T) {
	store := newMemoryStore()
	auth := gatedAuthenticator{id: &Identity{Principal: "brand-principal"}, started: make(chan struct{})}
	store.data["sid-1"] = Identity{Principal: "old-principal"}
	p := newTestProvider(t, auth, store)
	p.Init(context.Background())

	blocked := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p.Subscribe(func(s State) {
		if !s.IsAuthenticated {
			once.Do(func() {
				close(blocked)
				<-release
			})
		}
	})

	var mu sync.Mutex
	var delivered []string
	p.Subscribe(func(s State) {
		mu.Lock()
		delivered = append(delivered, s.Principal())
		mu.Unlock()
	})

	logoutDone := make(chan error, 1)
	go func() { logoutDone <- p.Logout(context.Background()) }()
	<-blocked

	loginDone := make(chan error, 1)
	go func() {
		_, err := p.Login(context.Background(), "assertion")
		loginDone <- err
	}()
	<-auth.started

	select {
	case <-loginDone:
		t.Fatal("login must wait for the logout notification to be delivered")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)

	if err := <-logoutDone; err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := <-loginDone; err != nil {
		t.Fatalf("login: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"", "brand-principal"}
	if len(delivered) != len(want) || delivered[0] != want[0] || delivered[1] != want[1] {
		t.Fatalf("expected deliveries %v, got %v", want, delivered)
	}
	if got := p.State().Principal(); got != delivered[len(delivered)-1] {
		t.Fatalf("last delivery %q does not match provider state %q", delivered[len(delivered)-1], got)
	}
}

func TestProviderLoginAndLogout(t *testing.T) {
	store := newMemoryStore()
	id := &Identity{Principal: "2vxsx-fae", Provider: "internet-identity", AuthenticatedAt: time.Now()}
	p := newTestProvider(t, stubAuthenticator{id: id}, store)

	var principals []string
	p.Subscribe(func(s State) { principals = append(principals, s.Principal()) })

	got, err := p.Login(context.Background(), "assertion")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if got.Principal != "2vxsx-fae" {
		t.Fatalf("unexpected identity %+v", got)
	}
	if _, ok := store.data["sid-1"]; !ok {
		t.Fatal("login must persist the session")
	}

	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	state := p.State()
	if state.IsAuthenticated || state.Identity != nil {
		t.Fatalf("expected anonymous after logout, got %+v", state)
	}
	if _, ok := store.data["sid-1"]; ok {
		t.Fatal("logout must delete the session")
	}

	want := []string{"", "2vxsx-fae", ""}
	if len(principals) != len(want) {
		t.Fatalf("expected notifications %v, got %v", want, principals)
	}
	for i := range want {
		if principals[i] != want[i] {
			t.Fatalf("expected notifications %v, got %v", want, principals)
		}
	}
}

func TestProviderLoginFailureIsTransient(t *testing.T) {
	store := newMemoryStore()
	p := newTestProvider(t, stubAuthenticator{err: pkgerrors.New(pkgerrors.CodeUnauthorized, "bad assertion")}, store)

	if _, err := p.Login(context.Background(), "assertion"); err == nil {
		t.Fatal("expected login error")
	}
	state := p.State()
	if state.LoginErr == nil || state.IsAuthenticated {
		t.Fatalf("expected recorded login error, got %+v", state)
	}
	if pkgerrors.CodeOf(state.LoginErr) != pkgerrors.CodeUnauthorized {
		t.Fatalf("unexpected login error code %s", pkgerrors.CodeOf(state.LoginErr))
	}

	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if p.State().LoginErr != nil {
		t.Fatal("logout clears the transient login error")
	}
}

func TestProviderRejectsEmptyPrincipal(t *testing.T) {
	p := newTestProvider(t, stubAuthenticator{id: &Identity{}}, newMemoryStore())
	if _, err := p.Login(context.Background(), "assertion"); err == nil {
		t.Fatal("expected empty principal to be rejected")
	}
}

func TestProviderUnsubscribe(t *testing.T) {
	p := newTestProvider(t, stubAuthenticator{id: &Identity{Principal: "p"}}, newMemoryStore())
	calls := 0
	cancel := p.Subscribe(func(State) { calls++ })
	cancel()
	p.Init(context.Background())
	if calls != 0 {
		t.Fatalf("expected no calls after unsubscribe, got %d", calls)
	}
}

func TestNewProviderValidatesParams(t *testing.T) {
	if _, err := NewProvider(ProviderParams{Authenticator: stubAuthenticator{}, Store: newMemoryStore()}); err == nil {
		t.Fatal("expected session id requirement")
	}
	if _, err := NewProvider(ProviderParams{SessionID: "s", Store: newMemoryStore()}); err == nil {
		t.Fatal("expected authenticator requirement")
	}
	if _, err := NewProvider(ProviderParams{SessionID: "s", Authenticator: stubAuthenticator{}}); err == nil {
		t.Fatal("expected store requirement")
	}
}
