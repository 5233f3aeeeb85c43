package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/trellis-ai/trellis-ai/pkg/metrics"
)

type Metrics struct {
	apiResponseTime  *prometheus.HistogramVec
	apiErrorCounter  *prometheus.CounterVec
	modelRequestTime *prometheus.HistogramVec
	modelError       *prometheus.CounterVec
	modelRetry       *prometheus.CounterVec
	stageTime        *prometheus.HistogramVec
	messageOutcome   *prometheus.CounterVec
	promptTokens     *prometheus.HistogramVec
	sessionEvicted   *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	// setup metric
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:  metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:  metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		modelRequestTime: metrics.NewHistogramVec("model_request_time", []string{"target"}),
		modelError:       metrics.NewCounterVec("model_error", []string{"target"}),
		modelRetry:       metrics.NewCounterVec("model_retry", []string{"target"}),
		stageTime:        metrics.NewHistogramVec("stage_time", []string{"stage"}),
		messageOutcome:   metrics.NewCounterVec("message_outcome", []string{"outcome"}),
		promptTokens:     metrics.NewHistogramVec("prompt_tokens", nil),
		sessionEvicted:   metrics.NewCounterVec("session_evicted", []string{"reason"}),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) ModelRequestTimer(target string) *prometheus.Timer {
	return prometheus.NewTimer(m.modelRequestTime.WithLabelValues(target))
}

func (m *Metrics) ModelErrorInc(target string) {
	m.modelError.WithLabelValues(target).Inc()
}

func (m *Metrics) ModelRetryInc(target string) {
	m.modelRetry.WithLabelValues(target).Inc()
}

// StageTimer times one orchestration stage, label values follow
// types.HandleStage.String.
func (m *Metrics) StageTimer(stage string) *prometheus.Timer {
	return prometheus.NewTimer(m.stageTime.WithLabelValues(stage))
}

func (m *Metrics) MessageOutcomeInc(outcome string) {
	m.messageOutcome.WithLabelValues(outcome).Inc()
}

func (m *Metrics) PromptTokensObserve(tokens int) {
	m.promptTokens.WithLabelValues().Observe(float64(tokens))
}

func (m *Metrics) SessionEvictedAdd(reason string, n int) {
	m.sessionEvicted.WithLabelValues(reason).Add(float64(n))
}
