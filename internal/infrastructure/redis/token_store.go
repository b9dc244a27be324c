package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	goredis "github.com/redis/go-redis/v9"
)

// TokenStore shares access tokens between instances through Redis. Entries
// carry a TTL equal to the token's remaining lifetime.
type TokenStore struct {
	client      goredis.UniversalClient
	serviceName string
	now         func() time.Time
}

func NewClient(addr string) *goredis.Client {
	return goredis.NewClient(&goredis.Options{Addr: addr})
}

func NewTokenStore(client goredis.UniversalClient, serviceName string) *TokenStore {
	return &TokenStore{client: client, serviceName: serviceName, now: time.Now}
}

type storedToken struct {
	Value     string    `json:"value"`
	Obtained  time.Time `json:"obtained"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Key namespaces a token key by service, e.g. "minishop-checkout:paypal_token:<client id>".
func (s *TokenStore) Key(key string) string {
	return fmt.Sprintf("%s:%s:%s", s.serviceName, "paypal_token", key)
}

func (s *TokenStore) Load(ctx context.Context, key string) (gateway.AccessToken, bool, error) {
	raw, err := s.client.Get(ctx, s.Key(key)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return gateway.AccessToken{}, false, nil
	}
	if err != nil {
		return gateway.AccessToken{}, false, fmt.Errorf("redis token store: get: %w", err)
	}

	var st storedToken
	if err := json.Unmarshal(raw, &st); err != nil {
		return gateway.AccessToken{}, false, fmt.Errorf("redis token store: decode: %w", err)
	}
	return gateway.AccessToken{Value: st.Value, Obtained: st.Obtained, ExpiresAt: st.ExpiresAt}, true, nil
}

func (s *TokenStore) Save(ctx context.Context, key string, token gateway.AccessToken) error {
	ttl := token.ExpiresAt.Sub(s.now())
	if token.ExpiresAt.IsZero() || ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(storedToken{Value: token.Value, Obtained: token.Obtained, ExpiresAt: token.ExpiresAt})
	if err != nil {
		return fmt.Errorf("redis token store: encode: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(key), raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis token store: set: %w", err)
	}
	return nil
}
