package identity

import (
	"context"

	"github.com/angelmondragon/influence-market/pkg/auth/session"
)

type recordManager interface {
	Save(ctx context.Context, sessionID string, record session.Record) error
	Load(ctx context.Context, sessionID string) (*session.Record, error)
	Delete(ctx context.Context, sessionID string) error
}

type redisSessionStore struct {
	manager recordManager
}

// NewSessionStore adapts the browser session manager to the provider's SessionStore.
func NewSessionStore(manager recordManager) SessionStore {
	return &redisSessionStore{manager: manager}
}

func (s *redisSessionStore) Load(ctx context.Context, sessionID string) (*Identity, error) {
	record, err := s.manager.Load(ctx, sessionID)
	if err != nil || record == nil {
		return nil, err
	}
	return &Identity{
		Principal:       record.Principal,
		Provider:        record.Provider,
		AuthenticatedAt: record.AuthenticatedAt,
	}, nil
}

func (s *redisSessionStore) Save(ctx context.Context, sessionID string, id Identity) error {
	return s.manager.Save(ctx, sessionID, session.Record{
		Principal:       id.Principal,
		Provider:        id.Provider,
		AuthenticatedAt: id.AuthenticatedAt,
	})
}

func (s *redisSessionStore) Delete(ctx context.Context, sessionID string) error {
	return s.manager.Delete(ctx, sessionID)
}
