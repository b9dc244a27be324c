package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

const (
	ordersPath      = "/v2/checkout/orders"
	createEndpoint  = "create_order"
	captureEndpoint = "capture_order"
	requestIDHeader = "PayPal-Request-Id"
)

var errEmptyBody = errors.New("empty response body")

// Client calls the Orders v2 API. Responses come back as gateway.Result with
// status and body untouched; only transport and JSON validity are checked.
type Client struct {
	baseURL string
	tokens  gateway.TokenSource
	ids     gateway.RequestIDs
	t       *transport
}

var _ gateway.Orders = (*Client)(nil)

func NewClient(baseURL string, tokens gateway.TokenSource, ids gateway.RequestIDs, httpClient *http.Client, tel observability.Observability) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		ids:     ids,
		t:       newTransport(httpClient, tel),
	}
}

func (c *Client) CreateOrder(ctx context.Context, payload *gateway.OrderPayload) (*gateway.Result, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return c.post(ctx, createEndpoint, ordersPath, body)
}

func (c *Client) CaptureOrder(ctx context.Context, orderID string) (*gateway.Result, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.InvalidOrderID()
	}
	return c.post(ctx, captureEndpoint, ordersPath+"/"+url.PathEscape(orderID)+"/capture", nil)
}

func (c *Client) post(ctx context.Context, endpoint, path string, body []byte) (*gateway.Result, error) {
	tok, err := c.tokens.AcquireToken(ctx)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, domain.GatewayUnreachable(path, err)
	}
	req.Header.Set("Authorization", "Bearer "+tok.Value)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.ids != nil {
		req.Header.Set(requestIDHeader, c.ids.NewID())
	}

	resp, err := c.t.send(ctx, endpoint, req)
	if err != nil {
		return nil, domain.GatewayUnreachable(path, err)
	}

	raw := bytes.TrimSpace(resp.Body)
	switch {
	case resp.Truncated:
		return nil, parseFailure(resp, errResponseTooLarge)
	case len(raw) == 0:
		return nil, parseFailure(resp, errEmptyBody)
	case !json.Valid(raw):
		return nil, parseFailure(resp, nil)
	}
	return &gateway.Result{Body: json.RawMessage(resp.Body), HTTPStatus: resp.Status}, nil
}

func parseFailure(resp *response, err error) error {
	e := domain.ResponseParseFailed(resp.Status, string(resp.Body), err)
	e.DebugID = resp.DebugID
	return e
}
