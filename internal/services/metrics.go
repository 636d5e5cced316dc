package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "daily_squad"

// Metrics counts domain state changes. A nil *Metrics records nothing.
type Metrics struct {
	EventTransitions  *prometheus.CounterVec
	OutcomesFinalized prometheus.Counter
	Challenges        prometheus.Counter
	Overturns         prometheus.Counter
	Approvals         prometheus.Counter
	JudgePoints       *prometheus.CounterVec
	NotifyFailures    prometheus.Counter
}

// NewMetrics registers the domain counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "event_transitions_total",
			Help:      "Daily event status transitions, by target status.",
		}, []string{"status"}),
		OutcomesFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outcomes_finalized_total",
			Help:      "Event outcomes finalized by a judge.",
		}),
		Challenges: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "challenges_total",
			Help:      "Accepted outcome challenges.",
		}),
		Overturns: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outcomes_overturned_total",
			Help:      "Outcomes overturned by challenge quorum.",
		}),
		Approvals: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "outcomes_approved_total",
			Help:      "Outcomes that survived their challenge window.",
		}),
		JudgePoints: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "judge_awards_total",
			Help:      "Judge point awards applied, by kind.",
		}, []string{"kind"}),
		NotifyFailures: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "notify_failures_total",
			Help:      "Notification hook deliveries that returned an error.",
		}),
	}
}

func (m *Metrics) transition(status string) {
	if m != nil {
		m.EventTransitions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) finalized() {
	if m != nil {
		m.OutcomesFinalized.Inc()
	}
}

func (m *Metrics) challenged() {
	if m != nil {
		m.Challenges.Inc()
	}
}

func (m *Metrics) overturned() {
	if m != nil {
		m.Overturns.Inc()
	}
}

func (m *Metrics) approved() {
	if m != nil {
		m.Approvals.Inc()
	}
}

func (m *Metrics) awarded(kind string) {
	if m != nil {
		m.JudgePoints.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) notifyFailed() {
	if m != nil {
		m.NotifyFailures.Inc()
	}
}
