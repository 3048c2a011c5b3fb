package metrics

import (
	"strconv"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	aiCallsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_calls_total",
			Help: "AI chat calls per provider/model and outcome.",
		},
		[]string{"provider", "model", "success"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{10, 25, 50, 100, 200, 400, 800, 1600, 3000, 5000},
		},
		[]string{"provider", "model", "success"},
	)

	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Sum of prompt tokens counted per provider/model (best effort).",
		},
		[]string{"provider", "model"},
	)

	extractionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "extractions_total",
			Help: "Knowledge-source extractions by source type and outcome.",
		},
		[]string{"source", "success"},
	)

	chatbotsCreatedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "chatbots_created_total",
			Help: "Chatbots created since process start.",
		},
	)

	sessionsActive = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "conversation_handles_active",
			Help: "Live chatbot conversation handles.",
		},
	)
)

// MustRegister registers collectors with the default registry (idempotent).
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			aiCallsTotal, aiCallsLatencyMs, aiTokensTotal,
			extractionsTotal, chatbotsCreatedTotal, sessionsActive,
		)
	})
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func ObserveAICall(provider, model string, latencyMs int, success bool) {
	ok := strconv.FormatBool(success)
	aiCallsTotal.WithLabelValues(norm(provider), norm(model), ok).Inc()
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), ok).Observe(float64(latencyMs))
}

func AddTokens(provider, model string, n int) {
	aiTokensTotal.WithLabelValues(norm(provider), norm(model)).Add(float64(n))
}

func IncExtraction(source string, success bool) {
	extractionsTotal.WithLabelValues(norm(source), strconv.FormatBool(success)).Inc()
}

func IncChatbotCreated() { chatbotsCreatedTotal.Inc() }

func HandleOpened() { sessionsActive.Inc() }
func HandleClosed() { sessionsActive.Dec() }
