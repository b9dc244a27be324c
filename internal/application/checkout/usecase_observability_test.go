package checkout

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-checkout/internal/domain/catalog"
	domain "github.com/Zhima-Mochi/minishop-checkout/internal/domain/checkout"
	infraobs "github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-checkout/internal/infrastructure/observability/zaplogger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestCreateOrderUseCase_RecordsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Standard(prometrics.New(reg, "minishop", ""))
	tel := infraobs.New(infraobs.Options{Logger: zaplogger.New(zap.New(core)), Counters: counters, Histograms: histograms})

	gw := &fakeGateway{createResult: result(http.StatusUnprocessableEntity, `{"details":[{"issue":"INSTRUMENT_DECLINED"}]}`)}
	uc := NewCreateOrderUseCase(NewOrderBuilder(catalog.Default(), DefaultCurrency), gw, nil, tel)

	resp, err := uc.Execute(context.Background(), domain.OrderRequest{
		Items: []domain.CartLine{{ItemID: 2, Quantity: 2}},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StageDeclined, resp.Stage)

	expected := `
# HELP minishop_usecase_requests_total Total number of use case invocations.
# TYPE minishop_usecase_requests_total counter
minishop_usecase_requests_total{outcome="declined",use_case="checkout.create_order"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "minishop_usecase_requests_total"))

	done := logs.FilterMessage("use_case_done").All()
	require.Len(t, done, 1)
	fields := done[0].ContextMap()
	assert.Equal(t, "declined", fields["outcome"])
	assert.Equal(t, "40.00", fields["total"])
	assert.Equal(t, string(domain.StageDeclined), fields["stage"])
	assert.Equal(t, domain.IssueInstrumentDeclined, fields["failure_reason"])
}
