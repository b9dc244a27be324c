package gateway

import "context"

// TokenSource yields a bearer token for the next gateway call.
type TokenSource interface {
	AcquireToken(ctx context.Context) (AccessToken, error)
}

// Orders is the gateway's order API.
type Orders interface {
	CreateOrder(ctx context.Context, payload *OrderPayload) (*Result, error)
	CaptureOrder(ctx context.Context, orderID string) (*Result, error)
}

// TokenStore keeps one token per key. A miss is (AccessToken{}, false, nil).
type TokenStore interface {
	Load(ctx context.Context, key string) (AccessToken, bool, error)
	Save(ctx context.Context, key string, token AccessToken) error
}

// RequestIDs produces the idempotency key sent with each gateway call.
type RequestIDs interface {
	NewID() string
}
