package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	appCheckout "github.com/Zhima-Mochi/minishop-checkout/internal/application/checkout"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// CheckoutService is what the handler needs from the application layer.
type CheckoutService interface {
	CreateOrder(ctx context.Context, req domain.OrderRequest) (*appCheckout.Response, error)
	CaptureOrder(ctx context.Context, orderID string) (*appCheckout.Response, error)
}

type Handler struct {
	checkout CheckoutService
	log      observability.Logger
	tel      observability.Observability

	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
	maxBodyBytes         = 1 << 20

	routeCreateOrder  = "/api/orders"
	routeCaptureOrder = "/api/orders/{orderID}/capture"
	routeHealth       = "/health"
)

func NewHandler(svc CheckoutService, tel observability.Observability) *Handler {
	h := &Handler{
		checkout:     svc,
		log:          observability.NopLogger(),
		tel:          tel,
		reqCounter:   observability.NopCounter(),
		durHistogram: observability.NopHistogram(),
	}
	if tel != nil {
		h.log = tel.Logger()
		h.reqCounter = tel.Metrics().Counter(observability.MHTTPRequests)
		h.durHistogram = tel.Metrics().Histogram(observability.MHTTPRequestDuration)
	}
	h.log = h.log.With(observability.F("component", componentHTTPHandler))
	return h
}

// Router mounts the storefront API. Extra routes (e.g. /metrics) can be added
// by the caller on the returned router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()

	// Trace → ObservabilityMiddleware (request logger) → HTTP metrics → Access log → Handler
	h.handle(r, http.MethodPost, routeCreateOrder, h.handleCreateOrder)
	h.handle(r, http.MethodPost, routeCaptureOrder, h.handleCaptureOrder)
	h.handle(r, http.MethodGet, routeHealth, h.handleHealth)

	return r
}

func (h *Handler) handle(r chi.Router, method, route string, handler http.HandlerFunc) {
	wrapped := h.withTrace(
		ObservabilityMiddleware(h.log, func(r *http.Request) string {
			return r.Header.Get(headerRequestID)
		})(
			h.withHTTPMetrics(
				h.withAccessLog(handler),
			),
		),
	)
	r.Method(method, route, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		wrapped.ServeHTTP(w, req.WithContext(contextWithRoute(req.Context(), route)))
	}))
}

func (h *Handler) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.OrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error(), Kind: kindMalformedRequest})
		return
	}

	resp, err := h.checkout.CreateOrder(r.Context(), req)
	if err != nil {
		h.writeDomainError(w, r, "Failed to create order.", err)
		return
	}
	writeRaw(w, resp.Status, resp.Body)
}

func (h *Handler) handleCaptureOrder(w http.ResponseWriter, r *http.Request) {
	resp, err := h.checkout.CaptureOrder(r.Context(), chi.URLParam(r, "orderID"))
	if err != nil {
		h.writeDomainError(w, r, "Failed to capture order.", err)
		return
	}
	writeRaw(w, resp.Status, resp.Body)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("minishop-checkout.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		route := routeFromContext(parentCtx)

		ctx, span := tracer.Start(parentCtx,
			r.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", r.Method),
				attribute.String("http.route", route),
				attribute.String("url.path", r.URL.Path),
				attribute.String("user_agent.original", r.UserAgent()),
			),
		)
		defer span.End()

		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(lrw, r.WithContext(ctx))

		span.SetAttributes(attribute.Int("http.response.status_code", lrw.status))
		if lrw.status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(lrw.status))
		}
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		labels := []observability.Label{
			observability.L("method", r.Method),
			observability.L("route", routeFromContext(r.Context())),
			observability.L("status", strconv.Itoa(lrw.status)),
		}
		h.reqCounter.Add(1, labels...)
		h.durHistogram.Observe(time.Since(start).Seconds(), labels...)
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := decoder.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("body is empty")
		}
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeRaw forwards an already-encoded JSON body.
func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

const kindMalformedRequest domain.Kind = "MALFORMED_REQUEST"

type errorResponse struct {
	Error          string      `json:"error"`
	Kind           domain.Kind `json:"kind,omitempty"`
	UpstreamStatus int         `json:"upstream_status,omitempty"`
	DebugID        string      `json:"debug_id,omitempty"`
}

// writeDomainError maps checkout error kinds to a status. Upstream bodies
// only go to the log, never to the client.
func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	var ce *domain.Error
	if !errors.As(err, &ce) {
		logctx.FromOr(r.Context(), h.log).Error("request_failed", observability.F("error", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: message})
		return
	}

	if domain.IsValidation(ce) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: ce.Message, Kind: ce.Kind})
		return
	}

	status := http.StatusInternalServerError
	switch ce.Kind {
	case domain.KindGatewayUnreachable, domain.KindResponseParseFailed:
		status = http.StatusBadGateway
	}

	fields := []observability.Field{
		observability.F("kind", string(ce.Kind)),
		observability.F("error", err),
	}
	if ce.Status != 0 {
		fields = append(fields, observability.F("upstream_status", ce.Status))
	}
	if ce.Body != "" {
		fields = append(fields, observability.F("upstream_body", ce.Body))
	}
	if ce.DebugID != "" {
		fields = append(fields, observability.F("debug_id", ce.DebugID))
	}
	logctx.FromOr(r.Context(), h.log).Error("request_failed", fields...)

	writeJSON(w, status, errorResponse{
		Error:          message,
		Kind:           ce.Kind,
		UpstreamStatus: ce.Status,
		DebugID:        ce.DebugID,
	})
}

type routeKey struct{}

// contextWithRoute stores the stable route template in the context so downstream
// metrics/logging can rely on low-cardinality values.
func contextWithRoute(ctx context.Context, route string) context.Context {
	if route == "" {
		return ctx
	}
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if ctx == nil {
		return "unknown"
	}
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}
