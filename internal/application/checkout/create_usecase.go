package checkout

import (
	"context"
	"strconv"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	checkoutService    = "checkout-service"
	useCaseOrderCreate = "checkout.create_order"
	spanPrefix         = "UC."
	publishTimeout     = 300 * time.Millisecond
)

// Response is what the HTTP layer writes back: the gateway body and status, verbatim.
type Response struct {
	Body   []byte
	Status int
	Stage  domain.Stage
}

// CreateOrderUseCase prices the cart, submits it to the gateway and reports the outcome.
type CreateOrderUseCase struct {
	builder   *OrderBuilder
	gateway   GatewayPort
	publisher domoutbox.Publisher
	tracer    observability.Tracer

	log          observability.Logger
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}
}

func NewCreateOrderUseCase(
	builder *OrderBuilder,
	gw GatewayPort,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *CreateOrderUseCase {
	tel = orNop(tel)
	metrics := tel.Metrics()
	return &CreateOrderUseCase{
		builder:      builder,
		gateway:      gw,
		publisher:    publisher,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", checkoutService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute runs Started → PricedAndBuilt → Submitted → {Approved | Declined | Error}.
// Builder failures return before any gateway call. A decline is a normal Response.
func (uc *CreateOrderUseCase) Execute(ctx context.Context, req domain.OrderRequest) (_ *Response, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderCreate))

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CreateOrder",
		attribute.String("use_case", useCaseOrderCreate),
		attribute.Int("checkout.line_count", len(req.Items)),
	)
	start := time.Now()
	attempt := domain.NewAttempt()
	outcome, statusText := "success", "OK"
	var total, gatewayOrderID string
	httpStatus := 0

	defer func() {
		lat := time.Since(start).Seconds()

		span.SetAttributes(attribute.String("checkout.stage", string(attempt.Stage())))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderCreate),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseOrderCreate))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("stage", string(attempt.Stage())),
			observability.F("latency_seconds", lat),
		}
		if total != "" {
			fields = append(fields, observability.F("total", total))
		}
		if gatewayOrderID != "" {
			fields = append(fields, observability.F("gateway_order_id", gatewayOrderID))
		}
		if httpStatus != 0 {
			fields = append(fields, observability.F("gateway_status", httpStatus))
		}
		if reason := attempt.Reason(); reason != "" {
			fields = append(fields, observability.F("failure_reason", reason))
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	payload, err := uc.builder.BuildCreatePayload(req)
	if err != nil {
		outcome, statusText = "rejected", string(domain.KindOf(err))
		advance(logger, attempt, domain.StageError, statusText)
		return nil, err
	}
	total = payload.PurchaseUnits[0].Amount.Value
	advance(logger, attempt, domain.StagePricedAndBuilt, "")
	span.SetAttributes(attribute.String("checkout.total", total))

	if err = ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		advance(logger, attempt, domain.StageError, statusText)
		return nil, err
	}

	advance(logger, attempt, domain.StageSubmitted, "")
	result, err := uc.gateway.CreateOrder(ctx, payload)
	if err != nil {
		outcome, statusText = "error", string(domain.KindOf(err))
		advance(logger, attempt, domain.StageError, statusText)
		publishEvent(ctx, uc.publisher, logger, domain.OrderSubmittedEvent{
			Stage:      domain.StageError,
			Reason:     statusText,
			HTTPStatus: domain.UpstreamStatus(err),
			Total:      total,
			Currency:   uc.builder.Currency(),
			ItemCount:  len(req.Items),
			OccurredAt: time.Now().UTC(),
		})
		return nil, err
	}
	httpStatus = result.HTTPStatus
	gatewayOrderID = result.Summary().ID

	stage, reason := domain.ClassifyCreate(result)
	advance(logger, attempt, stage, reason)
	switch stage {
	case domain.StageApproved:
		statusText = "OK"
	case domain.StageDeclined:
		outcome, statusText = "declined", "DECLINED"
	default:
		outcome, statusText = "error", "GATEWAY_STATUS_"+strconv.Itoa(result.HTTPStatus)
	}

	publishEvent(ctx, uc.publisher, logger, domain.OrderSubmittedEvent{
		GatewayOrderID: gatewayOrderID,
		Stage:          stage,
		Reason:         reason,
		HTTPStatus:     result.HTTPStatus,
		Total:          total,
		Currency:       uc.builder.Currency(),
		ItemCount:      len(req.Items),
		OccurredAt:     time.Now().UTC(),
	})

	return &Response{Body: result.Body, Status: result.HTTPStatus, Stage: stage}, nil
}

// advance records a stage move; a refused move is logged and the attempt keeps its stage.
func advance(logger observability.Logger, attempt *domain.Attempt, next domain.Stage, reason string) {
	from := attempt.Stage()
	if err := attempt.Advance(next, reason); err != nil {
		logger.Warn("invalid_stage_transition",
			observability.F("from", string(from)),
			observability.F("to", string(next)),
			observability.F("error", err.Error()),
		)
	}
}

func publishEvent(ctx context.Context, publisher domoutbox.Publisher, logger observability.Logger, e domoutbox.Event) {
	if publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := publisher.Publish(pubCtx, e); err != nil {
		logger.Warn("event_publish_failed",
			observability.F("event", e.EventName()),
			observability.F("error", err.Error()),
		)
	}
}

func orNop(tel observability.Observability) observability.Observability {
	if tel != nil {
		return tel
	}
	return nopObservability{}
}

type nopObservability struct{}

func (nopObservability) Tracer() observability.Tracer   { return observability.NopTracer() }
func (nopObservability) Logger() observability.Logger   { return observability.NopLogger() }
func (nopObservability) Metrics() observability.Metrics { return observability.NopMetrics() }
