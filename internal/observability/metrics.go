package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics holds the engine-level counters. The registry is mounted on the
// HTTP server at /metrics.
type Metrics struct {
	Registry *prometheus.Registry

	PricesResolved   prometheus.Counter
	PrepaidConsumed  prometheus.Counter
	PrepaidUnderflow prometheus.Counter
	SummariesBuilt   prometheus.Counter
	LessonsSkipped   prometheus.Counter
	ReportsExported  *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	m := &Metrics{
		Registry: reg,
		PricesResolved: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "love2learn_prices_resolved_total",
			Help: "Lesson prices resolved by the pricing engine.",
		}),
		PrepaidConsumed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "love2learn_prepaid_sessions_consumed_total",
			Help: "Prepaid session slots consumed by lesson completions.",
		}),
		PrepaidUnderflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "love2learn_prepaid_underflow_total",
			Help: "Prepaid usage decrements clamped at zero.",
		}),
		SummariesBuilt: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "love2learn_monthly_summaries_built_total",
			Help: "Monthly lesson summaries aggregated.",
		}),
		LessonsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "love2learn_orphaned_lessons_skipped_total",
			Help: "Lessons skipped during aggregation because the student record is missing.",
		}),
		ReportsExported: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "love2learn_reports_exported_total",
			Help: "Monthly payment reports exported, by format.",
		}, []string{"format"}),
	}

	reg.MustRegister(
		m.PricesResolved,
		m.PrepaidConsumed,
		m.PrepaidUnderflow,
		m.SummariesBuilt,
		m.LessonsSkipped,
		m.ReportsExported,
	)
	return m
}
