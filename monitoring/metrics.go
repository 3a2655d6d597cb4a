package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Outcome 分类结果标签
type Outcome string

const (
	OutcomePotable    Outcome = "potable"
	OutcomeNonPotable Outcome = "non_potable"
	OutcomeIncomplete Outcome = "incomplete"
	OutcomeError      Outcome = "error"
)

// Metrics 服务指标
type Metrics struct {
	registry *prometheus.Registry

	fieldEvents      *prometheus.CounterVec
	classifyTotal    *prometheus.CounterVec
	classifyDuration prometheus.Histogram
	sessionsActive   prometheus.Gauge
}

// NewMetrics 创建指标收集器，使用独立的 registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fieldEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potability",
			Name:      "field_events_total",
			Help:      "Field change events received, by field.",
		}, []string{"field"}),
		classifyTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "potability",
			Name:      "classify_total",
			Help:      "Classification requests, by outcome.",
		}, []string{"outcome"}),
		classifyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "potability",
			Name:      "classify_duration_seconds",
			Help:      "Time spent in the classifier.",
			Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 10),
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "potability",
			Name:      "sessions_active",
			Help:      "Form sessions currently held.",
		}),
	}
	m.registry.MustRegister(
		m.fieldEvents,
		m.classifyTotal,
		m.classifyDuration,
		m.sessionsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// FieldEvent 记录字段变更事件
func (m *Metrics) FieldEvent(field string) {
	m.fieldEvents.WithLabelValues(field).Inc()
}

// Classified 记录一次分类请求
func (m *Metrics) Classified(outcome Outcome, elapsed time.Duration) {
	m.classifyTotal.WithLabelValues(string(outcome)).Inc()
	if outcome != OutcomeIncomplete {
		m.classifyDuration.Observe(elapsed.Seconds())
	}
}

func (m *Metrics) SessionOpened() { m.sessionsActive.Inc() }
func (m *Metrics) SessionClosed() { m.sessionsActive.Dec() }

// Registry 返回底层 registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
