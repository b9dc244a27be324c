package audit

import (
	"context"
	"strings"
	"testing"
	"time"

	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type unrelated struct{}

func (unrelated) EventName() string { return "other.thing" }

func TestRecorder_CountsAndLogsStages(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New(reg, "", ""))
	rec := NewRecorder(infraobs.New(infraobs.Options{Logger: zaplogger.New(zap.New(core)), Counters: counters, Histograms: histograms}))

	ctx := context.Background()
	require.NoError(t, rec.Record(ctx, domain.OrderSubmittedEvent{
		GatewayOrderID: "A1", Stage: domain.StageApproved, HTTPStatus: 201,
		Total: "35.00", Currency: "USD", ItemCount: 2, OccurredAt: time.Now(),
	}))
	require.NoError(t, rec.Record(ctx, domain.CaptureAttemptedEvent{
		GatewayOrderID: "A1", Stage: domain.StageCaptureFailed, Reason: domain.IssueInstrumentDeclined, HTTPStatus: 422,
	}))
	require.NoError(t, rec.Record(ctx, unrelated{}))

	expected := `
# HELP checkout_events_total Checkout lifecycle events observed by the audit worker.
# TYPE checkout_events_total counter
checkout_events_total{event="checkout.capture_attempted",stage="capture_failed"} 1
checkout_events_total{event="checkout.order_submitted",stage="approved"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "checkout_events_total"))

	reached := logs.FilterMessage("checkout_stage_reached").All()
	require.Len(t, reached, 2)
	assert.Equal(t, zapcore.InfoLevel, reached[0].Level)
	assert.Equal(t, zapcore.WarnLevel, reached[1].Level)
	assert.Equal(t, domain.IssueInstrumentDeclined, reached[1].ContextMap()["reason"])
	assert.Equal(t, 1, logs.FilterMessage("audit_event_ignored").Len())
}
