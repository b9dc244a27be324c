package paypal

import (
	"context"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"golang.org/x/sync/singleflight"
)

// DefaultRefreshSkew is how long before expiry a cached token stops being served.
const DefaultRefreshSkew = 60 * time.Second

// refreshTimeout bounds a shared refresh once it no longer follows any caller's context.
const refreshTimeout = 30 * time.Second

// CachingTokenSource reuses a token until shortly before it expires.
// Concurrent misses share one upstream refresh. The refresh runs detached
// from the caller that started it, so a caller giving up only stops its own wait.
type CachingTokenSource struct {
	next  gateway.TokenSource
	store gateway.TokenStore
	key   string
	skew  time.Duration
	now   func() time.Time
	group singleflight.Group
	log   observability.Logger
}

func NewCachingTokenSource(next gateway.TokenSource, store gateway.TokenStore, key string, skew time.Duration, logger observability.Logger) *CachingTokenSource {
	if skew <= 0 {
		skew = DefaultRefreshSkew
	}
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &CachingTokenSource{
		next:  next,
		store: store,
		key:   key,
		skew:  skew,
		now:   time.Now,
		log:   logger.With(observability.F("component", "token_cache")),
	}
}

func (c *CachingTokenSource) AcquireToken(ctx context.Context) (gateway.AccessToken, error) {
	logger := logctx.FromOr(ctx, c.log)
	if tok, ok := c.cached(ctx, logger); ok {
		return tok, nil
	}

	ch := c.group.DoChan(c.key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), refreshTimeout)
		defer cancel()
		if tok, ok := c.cached(rctx, logger); ok {
			return tok, nil
		}
		tok, err := c.next.AcquireToken(rctx)
		if err != nil {
			return gateway.AccessToken{}, err
		}
		if tok.ValidAt(c.now(), c.skew) {
			if err := c.store.Save(rctx, c.key, tok); err != nil {
				logger.Warn("token_cache_save_failed", observability.F("error", err))
			}
		}
		logger.Info("token_refreshed", observability.F("expires_at", tok.ExpiresAt))
		return tok, nil
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return gateway.AccessToken{}, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return gateway.AccessToken{}, res.Err
	}
	if res.Shared {
		logger.Debug("token_refresh_shared")
	}
	return res.Val.(gateway.AccessToken), nil
}

func (c *CachingTokenSource) cached(ctx context.Context, logger observability.Logger) (gateway.AccessToken, bool) {
	tok, ok, err := c.store.Load(ctx, c.key)
	if err != nil {
		logger.Warn("token_cache_load_failed", observability.F("error", err))
		return gateway.AccessToken{}, false
	}
	if !ok || !tok.ValidAt(c.now(), c.skew) {
		return gateway.AccessToken{}, false
	}
	return tok, true
}
