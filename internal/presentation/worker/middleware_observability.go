package workerpresentation

import (
	"context"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// WithEventContext injects a request-scoped logger for background/worker executions.
// Dynamic fields only: trace_id/span_id (if valid), event_id (generated if empty),
// plus caller-provided low-cardinality attributes (e.g. "event", "component").
func WithEventContext(
	ctx context.Context,
	base observability.Logger,
	sc trace.SpanContext,
	attrs map[string]string,
) context.Context {
	if base == nil {
		base = observability.NopLogger()
	}

	fields := make([]observability.Field, 0, 3+len(attrs))

	evtID := attrs["event_id"]
	if evtID == "" {
		evtID = uuid.NewString()
	}
	fields = append(fields, observability.F("event_id", evtID))

	if sc.HasTraceID() {
		fields = append(fields, observability.F("trace_id", sc.TraceID().String()))
	}
	if sc.HasSpanID() {
		fields = append(fields, observability.F("span_id", sc.SpanID().String()))
	}

	for k, v := range attrs {
		if k == "event_id" || v == "" {
			continue
		}
		fields = append(fields, observability.F(k, v))
	}

	return logctx.With(ctx, base.With(fields...))
}

// Handle wraps h so every delivery runs in its own consumer span with an
// event-scoped logger in the context.
func Handle(tel observability.Observability, component string, h domoutbox.Handler) domoutbox.Handler {
	tracer := observability.NopTracer()
	base := observability.NopLogger()
	if tel != nil {
		tracer, base = tel.Tracer(), tel.Logger()
	}

	return func(ctx context.Context, e domoutbox.Event) (err error) {
		name := e.EventName()
		ctx, span := tracer.Start(ctx, "event."+name,
			attribute.String("event", name),
			attribute.String("component", component),
		)
		defer func() {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, "HANDLER_FAILED")
			}
			span.End()
		}()

		ctx = WithEventContext(ctx, logctx.FromOr(ctx, base), span.SpanContext(), map[string]string{
			"event":     name,
			"component": component,
		})
		return h(ctx, e)
	}
}
