// Package observability assembles the concrete tracer, logger and metric
// instruments behind the observability ports.
package observability

import (
	"github.com/Zhima-Mochi/minishop-checkout/internal/observability"
)

// Options lists the pieces of a provider. Any of them may be left empty.
type Options struct {
	Tracer     observability.Tracer
	Logger     observability.Logger
	Counters   map[observability.MetricKey]observability.Counter
	Histograms map[observability.MetricKey]observability.Histogram
}

type provider struct {
	tracer  observability.Tracer
	logger  observability.Logger
	metrics instruments
}

// instruments resolves metric keys; unknown keys get a nop instrument so a
// component can ask for anything without checking what was registered.
type instruments struct {
	counters   map[observability.MetricKey]observability.Counter
	histograms map[observability.MetricKey]observability.Histogram
}

func (m instruments) Counter(key observability.MetricKey) observability.Counter {
	if c := m.counters[key]; c != nil {
		return c
	}
	return observability.NopCounter()
}

func (m instruments) Histogram(key observability.MetricKey) observability.Histogram {
	if h := m.histograms[key]; h != nil {
		return h
	}
	return observability.NopHistogram()
}

func New(opts Options) observability.Observability {
	p := provider{
		tracer: opts.Tracer,
		logger: opts.Logger,
		metrics: instruments{
			counters:   make(map[observability.MetricKey]observability.Counter, len(opts.Counters)),
			histograms: make(map[observability.MetricKey]observability.Histogram, len(opts.Histograms)),
		},
	}
	if p.tracer == nil {
		p.tracer = observability.NopTracer()
	}
	if p.logger == nil {
		p.logger = observability.NopLogger()
	}
	for k, c := range opts.Counters {
		p.metrics.counters[k] = c
	}
	for k, h := range opts.Histograms {
		p.metrics.histograms[k] = h
	}
	return p
}

func (p provider) Tracer() observability.Tracer   { return p.tracer }
func (p provider) Logger() observability.Logger   { return p.logger }
func (p provider) Metrics() observability.Metrics { return p.metrics }
