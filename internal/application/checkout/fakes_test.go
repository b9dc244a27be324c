package checkout

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
)

type fakeGateway struct {
	mu           sync.Mutex
	createCalls  []*gateway.OrderPayload
	captureCalls []string

	createResult  *gateway.Result
	captureResult *gateway.Result
	err           error
}

func (f *fakeGateway) CreateOrder(_ context.Context, p *gateway.OrderPayload) (*gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls = append(f.createCalls, p)
	if f.err != nil {
		return nil, f.err
	}
	return f.createResult, nil
}

func (f *fakeGateway) CaptureOrder(_ context.Context, orderID string) (*gateway.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.captureCalls = append(f.captureCalls, orderID)
	if f.err != nil {
		return nil, f.err
	}
	return f.captureResult, nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []domoutbox.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e domoutbox.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func result(status int, body string) *gateway.Result {
	return &gateway.Result{HTTPStatus: status, Body: json.RawMessage(body)}
}
