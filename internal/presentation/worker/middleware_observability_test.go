package workerpresentation

import (
	"context"
	"errors"
	"testing"

	domoutbox "github.com/Zhima-Mochi/minishop-checkout/internal/domain/outbox"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability/logctx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type evt struct{}

func (evt) EventName() string { return "test.evt" }

func TestWithEventContext_KeepsGivenEventID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := WithEventContext(context.Background(), zaplogger.New(zap.New(core)), trace.SpanContext{},
		map[string]string{"event_id": "evt-1", "event": "test.evt", "empty": ""})

	logctx.From(ctx).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "evt-1", fields["event_id"])
	assert.Equal(t, "test.evt", fields["event"])
	assert.NotContains(t, fields, "empty")
	assert.NotContains(t, fields, "trace_id")
}

func TestHandle_InjectsLoggerAndPassesError(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	tel := infraobs.New(infraobs.Options{Logger: zaplogger.New(zap.New(core))})
	boom := errors.New("boom")

	h := Handle(tel, "tester", func(ctx context.Context, e domoutbox.Event) error {
		logctx.From(ctx).Info("handled")
		return boom
	})

	err := h(context.Background(), evt{})
	assert.ErrorIs(t, err, boom)

	entries := logs.FilterMessage("handled").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "tester", fields["component"])
	assert.Equal(t, "test.evt", fields["event"])
	assert.NotEmpty(t, fields["event_id"])
}
