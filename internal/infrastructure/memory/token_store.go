package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
)

// TokenStore keeps access tokens in process memory. Expired entries are
// dropped on read.
type TokenStore struct {
	mu     sync.RWMutex
	tokens map[string]gateway.AccessToken
	now    func() time.Time
}

func NewTokenStore() *TokenStore {
	return &TokenStore{
		tokens: make(map[string]gateway.AccessToken),
		now:    time.Now,
	}
}

func (s *TokenStore) Load(ctx context.Context, key string) (gateway.AccessToken, bool, error) {
	_ = ctx
	s.mu.RLock()
	tok, ok := s.tokens[key]
	s.mu.RUnlock()
	if !ok {
		return gateway.AccessToken{}, false, nil
	}
	if !tok.ValidAt(s.now(), 0) {
		s.mu.Lock()
		if cur, still := s.tokens[key]; still && cur == tok {
			delete(s.tokens, key)
		}
		s.mu.Unlock()
		return gateway.AccessToken{}, false, nil
	}
	return tok, true, nil
}

func (s *TokenStore) Save(ctx context.Context, key string, token gateway.AccessToken) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[key] = token
	return nil
}
