// Package audit turns checkout lifecycle events into an audit log and
// per-stage counters.
package audit

import (
	"context"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
)

const auditComponent = "checkout_audit"

// Events lists the event names the recorder understands.
var Events = []string{
	domain.OrderSubmittedEvent{}.EventName(),
	domain.CaptureAttemptedEvent{}.EventName(),
}

type Recorder struct {
	log    observability.Logger
	events observability.Counter // checkout_events_total{event,stage}
}

func NewRecorder(tel observability.Observability) *Recorder {
	log := observability.NopLogger()
	metrics := observability.NopMetrics()
	if tel != nil {
		log, metrics = tel.Logger(), tel.Metrics()
	}
	return &Recorder{
		log:    log.With(observability.F("component", auditComponent)),
		events: metrics.Counter(observability.MCheckoutEvents),
	}
}

// Record logs one lifecycle event. Unknown events are ignored.
func (r *Recorder) Record(ctx context.Context, e domoutbox.Event) error {
	logger := logctx.FromOr(ctx, r.log)

	var (
		stage  domain.Stage
		fields []observability.Field
	)
	switch evt := e.(type) {
	case domain.OrderSubmittedEvent:
		stage = evt.Stage
		fields = []observability.Field{
			observability.F("gateway_order_id", evt.GatewayOrderID),
			observability.F("gateway_status", evt.HTTPStatus),
			observability.F("total", evt.Total),
			observability.F("currency", evt.Currency),
			observability.F("item_count", evt.ItemCount),
			observability.F("occurred_at", evt.OccurredAt),
		}
		if evt.Reason != "" {
			fields = append(fields, observability.F("reason", evt.Reason))
		}
	case domain.CaptureAttemptedEvent:
		stage = evt.Stage
		fields = []observability.Field{
			observability.F("gateway_order_id", evt.GatewayOrderID),
			observability.F("gateway_status", evt.HTTPStatus),
			observability.F("occurred_at", evt.OccurredAt),
		}
		if evt.Reason != "" {
			fields = append(fields, observability.F("reason", evt.Reason))
		}
	default:
		logger.Debug("audit_event_ignored", observability.F("event", e.EventName()))
		return nil
	}

	r.events.Add(1,
		observability.L("event", e.EventName()),
		observability.L("stage", string(stage)),
	)

	fields = append(fields, observability.F("stage", string(stage)))
	switch stage {
	case domain.StageApproved, domain.StageCaptured:
		logger.Info("checkout_stage_reached", fields...)
	default:
		logger.Warn("checkout_stage_reached", fields...)
	}
	return nil
}
