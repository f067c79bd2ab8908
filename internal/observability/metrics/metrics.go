package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters and histograms for the booking flows.
type BookingMetrics struct {
	toolCalls           *prometheus.CounterVec
	toolLatency         *prometheus.HistogramVec
	integrationTotal    *prometheus.CounterVec
	integrationAttempts *prometheus.HistogramVec
	transitions         *prometheus.CounterVec
	agentSteps          *prometheus.HistogramVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "tools",
			Name:      "calls_total",
			Help:      "Tool invocations by tool and result (ok or error type)",
		}, []string{"tool", "result"}),
		toolLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "tools",
			Name:      "latency_seconds",
			Help:      "Latency of tool invocations",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tool"}),
		integrationTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "integrations",
			Name:      "calls_total",
			Help:      "External integration calls by outcome (succeeded, skipped, failed)",
		}, []string{"integration", "outcome"}),
		integrationAttempts: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "integrations",
			Name:      "attempts",
			Help:      "Attempts used per integration call",
			Buckets:   []float64{1, 2, 3, 4, 5},
		}, []string{"integration"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dental",
			Subsystem: "appointments",
			Name:      "transitions_total",
			Help:      "Appointment status transitions",
		}, []string{"from", "to"}),
		agentSteps: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dental",
			Subsystem: "agent",
			Name:      "steps",
			Help:      "Steps taken per agent turn",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 10},
		}, []string{"outcome"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.toolCalls, m.toolLatency, m.integrationTotal, m.integrationAttempts, m.transitions, m.agentSteps)
	return m
}

func (m *BookingMetrics) ObserveToolCall(tool, result string, seconds float64) {
	if m == nil {
		return
	}
	m.toolCalls.WithLabelValues(tool, result).Inc()
	m.toolLatency.WithLabelValues(tool).Observe(seconds)
}

// ObserveIntegration satisfies gateway.Observer. Skipped calls record no attempts.
func (m *BookingMetrics) ObserveIntegration(integration, outcome string, attempts int) {
	if m == nil {
		return
	}
	m.integrationTotal.WithLabelValues(integration, outcome).Inc()
	if attempts > 0 {
		m.integrationAttempts.WithLabelValues(integration).Observe(float64(attempts))
	}
}

func (m *BookingMetrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(from, to).Inc()
}

func (m *BookingMetrics) ObserveAgentTurn(outcome string, steps int) {
	if m == nil {
		return
	}
	m.agentSteps.WithLabelValues(outcome).Observe(float64(steps))
}
