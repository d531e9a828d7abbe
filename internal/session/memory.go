package session

import (
	"context"
	"sync"

	"github.com/Jackrayallday/uniproj/internal/model"
)

// MemoryStore keeps sessions in process memory. sync.Map keeps lookups for
// unrelated tokens from contending on one lock.
type MemoryStore struct {
	sessions sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Put(ctx context.Context, sess model.Session) error {
	s.sessions.Store(sess.TokenHash, sess)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, tokenHash string) (model.Session, error) {
	value, ok := s.sessions.Load(tokenHash)
	if !ok {
		return model.Session{}, ErrNoSession
	}
	return value.(model.Session), nil
}

func (s *MemoryStore) Delete(ctx context.Context, tokenHash string) error {
	s.sessions.Delete(tokenHash)
	return nil
}
