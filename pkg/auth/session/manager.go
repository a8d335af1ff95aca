package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/influence-market/pkg/config"
	redisclient "github.com/angelmondragon/influence-market/pkg/redis"
	redislib "github.com/redis/go-redis/v9"
)

const sessionIDBytes = 32

// ErrInvalidSessionID is returned for blank or malformed browser session identifiers.
var ErrInvalidSessionID = errors.New("invalid session id")

type sessionStore interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	Touch(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type sessionKeyer interface {
	ClientSessionKey(sessionID string) string
}

// Record is what survives a page reload: the identity a browser session authenticated as.
// It stores identity pointers only; account data is always re-fetched from the backend.
type Record struct {
	Principal       string    `json:"principal"`
	Provider        string    `json:"provider"`
	AuthenticatedAt time.Time `json:"authenticated_at"`
}

// Manager persists browser session -> identity mappings in Redis.
type Manager struct {
	store sessionStore
	keyer sessionKeyer
	ttl   time.Duration
}

// NewManager constructs a session manager backed by Redis.
func NewManager(client *redisclient.Client, cfg config.SessionConfig) (*Manager, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	if cfg.TTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Manager{
		store: client,
		keyer: client,
		ttl:   cfg.TTL,
	}, nil
}

// TTL reports how long an idle session survives.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// Save stores the identity record for the browser session, replacing any previous one.
func (m *Manager) Save(ctx context.Context, sessionID string, record Record) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	if strings.TrimSpace(record.Principal) == "" {
		return fmt.Errorf("principal is required")
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	return m.store.Set(ctx, m.keyer.ClientSessionKey(sessionID), string(payload), m.ttl)
}

// Load returns the stored record, or nil when the session has none (anonymous or expired).
func (m *Manager) Load(ctx context.Context, sessionID string) (*Record, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, ErrInvalidSessionID
	}
	raw, err := m.store.Get(ctx, m.keyer.ClientSessionKey(sessionID))
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record Record
	if err := json.Unmarshal([]byte(raw), &record); err != nil {
		return nil, fmt.Errorf("unmarshal session record: %w", err)
	}
	return &record, nil
}

// Touch slides the expiry of an authenticated session forward.
func (m *Manager) Touch(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	_, err := m.store.Touch(ctx, m.keyer.ClientSessionKey(sessionID), m.ttl)
	return err
}

// Delete forgets the identity bound to the browser session.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	if strings.TrimSpace(sessionID) == "" {
		return ErrInvalidSessionID
	}
	return m.store.Del(ctx, m.keyer.ClientSessionKey(sessionID))
}

// NewID generates a browser session identifier with 256 bits of entropy.
func NewID() (string, error) {
	bytes := make([]byte, sessionIDBytes)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generating session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// ValidID reports whether raw looks like an identifier produced by NewID.
func ValidID(raw string) bool {
	decoded, err := base64.RawURLEncoding.DecodeString(raw)
	return err == nil && len(decoded) == sessionIDBytes
}

// Fingerprint returns a short stable label for a session id that is safe to log.
func Fingerprint(sessionID string) string {
	if sessionID == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(sessionID))
	return hex.EncodeToString(sum[:6])
}
