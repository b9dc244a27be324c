package paypal

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	peer             = "paypal"
	debugIDHeader    = "Paypal-Debug-Id"
	maxResponseBytes = 1 << 20
)

var errResponseTooLarge = fmt.Errorf("response body exceeds %d bytes", maxResponseBytes)

// response.Truncated is set when the body ran past maxResponseBytes; Body
// then holds only the first maxResponseBytes.
type response struct {
	Status    int
	Body      []byte
	DebugID   string
	Truncated bool
}

// transport sends one request and reports it as an external call.
// It never interprets the response beyond reading it.
type transport struct {
	http   *http.Client
	tracer observability.Tracer
	log    observability.Logger

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}

	mu        sync.Mutex
	durations map[string]observability.BoundHistogram
}

func newTransport(httpClient *http.Client, tel observability.Observability) *transport {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	t := &transport{
		http:         httpClient,
		tracer:       observability.NopTracer(),
		log:          observability.NopLogger(),
		extCounter:   observability.NopCounter(),
		extHistogram: observability.NopHistogram(),
		durations:    make(map[string]observability.BoundHistogram),
	}
	if tel != nil {
		t.tracer = tel.Tracer()
		t.log = tel.Logger().With(observability.F("peer", peer))
		t.extCounter = tel.Metrics().Counter(observability.MExternalRequests)
		t.extHistogram = tel.Metrics().Histogram(observability.MExternalRequestDuration)
	}
	return t
}

func (t *transport) send(ctx context.Context, endpoint string, req *http.Request) (resp *response, err error) {
	ctx, span := t.tracer.Start(ctx, "paypal."+endpoint,
		attribute.String("peer.service", peer),
		attribute.String("http.request.method", req.Method),
		attribute.String("url.path", req.URL.Path),
	)
	start := time.Now()
	outcome := "success"

	defer func() {
		lat := time.Since(start).Seconds()
		t.extCounter.Add(1,
			observability.L("peer", peer),
			observability.L("endpoint", endpoint),
			observability.L("outcome", outcome),
		)
		t.durationFor(endpoint).Observe(lat)

		fields := []observability.Field{
			observability.F("endpoint", endpoint),
			observability.F("outcome", outcome),
			observability.F("latency_seconds", lat),
		}
		if resp != nil {
			span.SetAttributes(attribute.Int("http.response.status_code", resp.Status))
			fields = append(fields, observability.F("http_status", resp.Status))
			if resp.DebugID != "" {
				fields = append(fields, observability.F("debug_id", resp.DebugID))
			}
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
			fields = append(fields, observability.F("error", err.Error()))
		} else if outcome != "success" {
			span.SetStatus(codes.Error, outcome)
		}
		span.End()

		logger := logctx.FromOr(ctx, t.log)
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields, observability.F("span_id", sc.SpanID().String()))
		}
		logger.Info("paypal_request_done", fields...)
	}()

	res, err := t.http.Do(req.WithContext(ctx))
	if err != nil {
		outcome = "transport_error"
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes+1))
	if err != nil {
		outcome = "transport_error"
		return nil, fmt.Errorf("read response body: %w", err)
	}

	resp = &response{Status: res.StatusCode, Body: body, DebugID: res.Header.Get(debugIDHeader)}
	switch {
	case len(body) > maxResponseBytes:
		resp.Body, resp.Truncated = body[:maxResponseBytes], true
		outcome = "response_too_large"
	case res.StatusCode < 200 || res.StatusCode >= 300:
		outcome = "http_" + statusClass(res.StatusCode)
	}
	return resp, nil
}

func (t *transport) durationFor(endpoint string) observability.BoundHistogram {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.durations[endpoint]
	if !ok {
		h = t.extHistogram.Bind(observability.L("peer", peer), observability.L("endpoint", endpoint))
		t.durations[endpoint] = h
	}
	return h
}

func statusClass(code int) string {
	return fmt.Sprintf("%dxx", code/100)
}
