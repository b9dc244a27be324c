package oteltrace

import (
	"context"

	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultInstrumentation = "minishop-checkout"

type tracer struct{ t trace.Tracer }

// New returns a Tracer backed by the global provider; call telemetry.SetupTracer first
// so spans are sampled and exported.
func New(name string) observability.Tracer {
	if name == "" {
		name = defaultInstrumentation
	}
	return &tracer{t: otel.Tracer(name)}
}

func (t *tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return t.t.Start(ctx, name, trace.WithAttributes(attrs...))
}
