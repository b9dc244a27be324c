package paypal

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/gateway"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testClientID = "client-id"
	testSecret   = "super-secret"
	captureBody  = `{"name":"UNPROCESSABLE_ENTITY","details":[{"issue":"INSTRUMENT_DECLINED","description":"The instrument presented was declined."}],"debug_id":"f00d"}`
)

type fixedIDs string

func (f fixedIDs) NewID() string { return string(f) }

type fakeGateway struct {
	tokenCalls   atomic.Int32
	orderCalls   atomic.Int32
	orderHandler http.HandlerFunc
}

func (f *fakeGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == tokenPath {
		f.tokenCalls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"access_token":"A21AAtoken","token_type":"Bearer","expires_in":32400}`)
		return
	}
	f.orderCalls.Add(1)
	f.orderHandler(w, r)
}

func newFakeGateway(t *testing.T, h http.HandlerFunc) (*fakeGateway, *httptest.Server) {
	t.Helper()
	fg := &fakeGateway{orderHandler: h}
	srv := httptest.NewServer(fg)
	t.Cleanup(srv.Close)
	return fg, srv
}

func newClient(srv *httptest.Server, creds Credentials) *Client {
	tokens := NewTokenProvider(srv.URL, creds, srv.Client(), nil)
	return NewClient(srv.URL, tokens, fixedIDs("req-1"), srv.Client(), nil)
}

func validCreds() Credentials { return Credentials{ClientID: testClientID, ClientSecret: testSecret} }

func samplePayload() *gateway.OrderPayload {
	amount := gateway.Money{CurrencyCode: "USD", Value: "35.00"}
	return &gateway.OrderPayload{
		Intent: gateway.IntentCapture,
		PurchaseUnits: []gateway.PurchaseUnit{{
			Amount: gateway.Amount{Money: amount, Breakdown: gateway.Breakdown{ItemTotal: amount}},
		}},
	}
}

func TestBaseURL(t *testing.T) {
	u, err := BaseURL("")
	require.NoError(t, err)
	assert.Equal(t, SandboxBaseURL, u)

	u, err = BaseURL("LIVE")
	require.NoError(t, err)
	assert.Equal(t, LiveBaseURL, u)

	_, err = BaseURL("staging")
	assert.Error(t, err)
}

func TestTokenProvider_ExchangesClientCredentials(t *testing.T) {
	var gotUser, gotPass, gotGrant, gotType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, tokenPath, r.URL.Path)
		gotUser, gotPass, _ = r.BasicAuth()
		gotType = r.Header.Get("Content-Type")
		assert.NoError(t, r.ParseForm())
		gotGrant = r.PostForm.Get("grant_type")
		_, _ = io.WriteString(w, `{"access_token":"A21AAtoken","expires_in":3600}`)
	}))
	defer srv.Close()

	p := NewTokenProvider(srv.URL+"/", validCreds(), srv.Client(), nil)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	p.now = func() time.Time { return now }

	tok, err := p.AcquireToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, testClientID, gotUser)
	assert.Equal(t, testSecret, gotPass)
	assert.Equal(t, "client_credentials", gotGrant)
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "A21AAtoken", tok.Value)
	assert.Equal(t, now.Add(time.Hour), tok.ExpiresAt)
}

func TestTokenProvider_MissingCredentialsMakesNoCall(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	for _, creds := range []Credentials{{}, {ClientID: "id"}, {ClientSecret: "secret"}} {
		_, err := NewTokenProvider(srv.URL, creds, srv.Client(), nil).AcquireToken(context.Background())
		assert.Equal(t, domain.KindMissingCredentials, domain.KindOf(err))
	}
	assert.Zero(t, hits.Load())
}

func TestTokenProvider_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(debugIDHeader, "dbg-1")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error":"invalid_client","error_description":"Client Authentication failed"}`)
	}))
	defer srv.Close()

	_, err := NewTokenProvider(srv.URL, validCreds(), srv.Client(), nil).AcquireToken(context.Background())
	require.Error(t, err)

	var ce *domain.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.KindTokenAcquisitionFailed, ce.Kind)
	assert.Equal(t, http.StatusUnauthorized, ce.Status)
	assert.Equal(t, "dbg-1", ce.DebugID)
	assert.Contains(t, ce.Body, "invalid_client")
	assert.NotContains(t, err.Error(), testSecret)
}

func TestTokenProvider_NoAccessTokenInBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"token_type":"Bearer"}`)
	}))
	defer srv.Close()

	_, err := NewTokenProvider(srv.URL, validCreds(), srv.Client(), nil).AcquireToken(context.Background())
	assert.Equal(t, domain.KindTokenAcquisitionFailed, domain.KindOf(err))
	assert.ErrorIs(t, err, errNoAccessToken)
}

func TestClient_CreateOrder(t *testing.T) {
	const created = `{"id":"5O190127TN364715T","status":"CREATED","links":[]}`
	fg, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ordersPath, r.URL.Path)
		assert.Equal(t, "Bearer A21AAtoken", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "req-1", r.Header.Get(requestIDHeader))

		var p gateway.OrderPayload
		if assert.NoError(t, json.NewDecoder(r.Body).Decode(&p)) && assert.Len(t, p.PurchaseUnits, 1) {
			assert.Equal(t, "CAPTURE", p.Intent)
			assert.Equal(t, "35.00", p.PurchaseUnits[0].Amount.Value)
		}

		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, created)
	})

	res, err := newClient(srv, validCreds()).CreateOrder(context.Background(), samplePayload())
	require.NoError(t, err)
	assert.Equal(t, http.StatusCreated, res.HTTPStatus)
	assert.Equal(t, created, string(res.Body))
	assert.Equal(t, int32(1), fg.tokenCalls.Load())
	assert.Equal(t, int32(1), fg.orderCalls.Load())
}

func TestClient_CaptureDeclinePassesThrough(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/checkout/orders/ORDER-1/capture", r.URL.Path)
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, captureBody)
	})

	res, err := newClient(srv, validCreds()).CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnprocessableEntity, res.HTTPStatus)
	assert.Equal(t, captureBody, string(res.Body))
}

func TestClient_CaptureEscapesOrderID(t *testing.T) {
	var escaped string
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		escaped = r.URL.EscapedPath()
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := newClient(srv, validCreds()).CaptureOrder(context.Background(), "a/b")
	require.NoError(t, err)
	assert.Equal(t, "/v2/checkout/orders/a%2Fb/capture", escaped)
}

func TestClient_EmptyOrderIDMakesNoCall(t *testing.T) {
	fg, srv := newFakeGateway(t, func(http.ResponseWriter, *http.Request) {})

	_, err := newClient(srv, validCreds()).CaptureOrder(context.Background(), " ")
	assert.Equal(t, domain.KindInvalidOrderID, domain.KindOf(err))
	assert.Zero(t, fg.tokenCalls.Load())
	assert.Zero(t, fg.orderCalls.Load())
}

func TestClient_MissingCredentialsMakesNoCall(t *testing.T) {
	fg, srv := newFakeGateway(t, func(http.ResponseWriter, *http.Request) {})

	_, err := newClient(srv, Credentials{}).CreateOrder(context.Background(), samplePayload())
	assert.Equal(t, domain.KindMissingCredentials, domain.KindOf(err))
	assert.Zero(t, fg.tokenCalls.Load())
	assert.Zero(t, fg.orderCalls.Load())
}

func TestClient_NonJSONBody(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := newClient(srv, validCreds()).CreateOrder(context.Background(), samplePayload())
	var ce *domain.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.KindResponseParseFailed, ce.Kind)
	assert.Equal(t, http.StatusBadGateway, ce.Status)
	assert.Equal(t, "<html>bad gateway</html>", ce.Body)
}

func TestClient_EmptyBody(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	_, err := newClient(srv, validCreds()).CaptureOrder(context.Background(), "X")
	assert.Equal(t, domain.KindResponseParseFailed, domain.KindOf(err))
	assert.ErrorIs(t, err, errEmptyBody)
}

func TestClient_Timeout(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	hc := srv.Client()
	hc.Timeout = 100 * time.Millisecond
	c := NewClient(srv.URL, NewTokenProvider(srv.URL, validCreds(), srv.Client(), nil), nil, hc, nil)

	_, err := c.CreateOrder(context.Background(), samplePayload())
	assert.Equal(t, domain.KindGatewayUnreachable, domain.KindOf(err))
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	tokens := stubTokens{tok: gateway.AccessToken{Value: "t"}}
	_, err := NewClient(base, tokens, nil, nil, nil).CaptureOrder(context.Background(), "X")
	assert.Equal(t, domain.KindGatewayUnreachable, domain.KindOf(err))
}

func TestClient_RecordsExternalMetrics(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = io.WriteString(w, captureBody)
	})
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New(reg, "", ""))
	tel := infraobs.New(infraobs.Options{Counters: counters, Histograms: histograms})

	tokens := NewTokenProvider(srv.URL, validCreds(), srv.Client(), tel)
	c := NewClient(srv.URL, tokens, nil, srv.Client(), tel)
	_, err := c.CaptureOrder(context.Background(), "ORDER-1")
	require.NoError(t, err)

	expected := `
# HELP external_requests_total Total number of calls to external dependencies.
# TYPE external_requests_total counter
external_requests_total{endpoint="capture_order",outcome="http_4xx",peer="paypal"} 1
external_requests_total{endpoint="oauth2_token",outcome="success",peer="paypal"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "external_requests_total"))
}

type stubTokens struct {
	tok gateway.AccessToken
	err error
}

func (s stubTokens) AcquireToken(context.Context) (gateway.AccessToken, error) { return s.tok, s.err }

func TestClient_OversizedBodyIsReportedAsTooLarge(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"`+strings.Repeat("a", maxResponseBytes)+`"}`)
	})

	_, err := newClient(srv, validCreds()).CreateOrder(context.Background(), samplePayload())
	var ce *domain.Error
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, domain.KindResponseParseFailed, ce.Kind)
	assert.Equal(t, http.StatusCreated, ce.Status)
	assert.ErrorIs(t, err, errResponseTooLarge)
}

func TestClient_RecordsDurationPerEndpoint(t *testing.T) {
	_, srv := newFakeGateway(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"id":"ORDER-1","status":"CREATED"}`)
	})
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New(reg, "", ""))
	tel := infraobs.New(infraobs.Options{Counters: counters, Histograms: histograms})

	c := NewClient(srv.URL, NewTokenProvider(srv.URL, validCreds(), srv.Client(), tel), nil, srv.Client(), tel)
	for range 2 {
		_, err := c.CreateOrder(context.Background(), samplePayload())
		require.NoError(t, err)
	}

	n, err := testutil.GatherAndCount(reg, "external_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
