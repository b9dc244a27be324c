package checkout

import (
	"context"
	"strings"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const useCaseOrderCapture = "checkout.capture_order"

// CaptureOrderUseCase settles a gateway order the buyer has approved.
type CaptureOrderUseCase struct {
	gateway   GatewayPort
	publisher domoutbox.Publisher
	tracer    observability.Tracer

	log          observability.Logger
	reqCounter   observability.Counter
	durHistogram observability.Histogram
}

func NewCaptureOrderUseCase(gw GatewayPort, publisher domoutbox.Publisher, tel observability.Observability) *CaptureOrderUseCase {
	tel = orNop(tel)
	metrics := tel.Metrics()
	return &CaptureOrderUseCase{
		gateway:      gw,
		publisher:    publisher,
		tracer:       tel.Tracer(),
		log:          tel.Logger().With(observability.F("service", checkoutService)),
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
	}
}

// Execute forwards the capture and returns the gateway's answer untouched,
// INSTRUMENT_DECLINED included; the storefront decides whether to restart.
func (uc *CaptureOrderUseCase) Execute(ctx context.Context, orderID string) (_ *Response, err error) {
	orderID = strings.TrimSpace(orderID)
	ctx = logctx.Enrich(ctx, uc.log,
		observability.F("use_case", useCaseOrderCapture),
		observability.F("gateway_order_id", orderID),
	)
	logger := logctx.From(ctx)

	ctx, span := uc.tracer.Start(ctx, spanPrefix+"CaptureOrder",
		attribute.String("use_case", useCaseOrderCapture),
		attribute.String("checkout.gateway_order_id", orderID),
	)
	start := time.Now()
	attempt := domain.ResumeApproved()
	outcome, statusText := "success", "OK"
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
			observability.L("use_case", useCaseOrderCapture),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat, observability.L("use_case", useCaseOrderCapture))

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("stage", string(attempt.Stage())),
			observability.F("latency_seconds", lat),
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

	if orderID == "" {
		outcome, statusText = "rejected", string(domain.KindInvalidOrderID)
		advance(logger, attempt, domain.StageCaptureFailed, statusText)
		return nil, domain.InvalidOrderID()
	}

	result, err := uc.gateway.CaptureOrder(ctx, orderID)
	if err != nil {
		outcome, statusText = "error", string(domain.KindOf(err))
		advance(logger, attempt, domain.StageCaptureFailed, statusText)
		publishEvent(ctx, uc.publisher, logger, domain.CaptureAttemptedEvent{
			GatewayOrderID: orderID,
			Stage:          domain.StageCaptureFailed,
			Reason:         statusText,
			HTTPStatus:     domain.UpstreamStatus(err),
			OccurredAt:     time.Now().UTC(),
		})
		return nil, err
	}
	httpStatus = result.HTTPStatus

	stage, reason := domain.ClassifyCapture(result)
	advance(logger, attempt, stage, reason)
	if stage == domain.StageCaptureFailed {
		outcome, statusText = "declined", reason
		if reason != domain.IssueInstrumentDeclined {
			outcome = "error"
		}
	}

	publishEvent(ctx, uc.publisher, logger, domain.CaptureAttemptedEvent{
		GatewayOrderID: orderID,
		Stage:          stage,
		Reason:         reason,
		HTTPStatus:     result.HTTPStatus,
		OccurredAt:     time.Now().UTC(),
	})

	return &Response{Body: result.Body, Status: result.HTTPStatus, Stage: stage}, nil
}
