package conversation

import (
	"errors"

	"threadbox/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	operations *prometheus.CounterVec
	events     *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadbox",
			Subsystem: "conversation",
			Name:      "operations_total",
			Help:      "Conversation operations by outcome.",
		}, []string{"operation", "outcome"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "threadbox",
			Subsystem: "conversation",
			Name:      "events_total",
			Help:      "Domain events delivered to subscribers.",
		}, []string{"event"}),
	}
	reg.MustRegister(m.operations, m.events)
	return m
}

func (m *Metrics) observe(operation string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(operation, outcome(err)).Inc()
}

func (m *Metrics) event(name string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(name).Inc()
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, apperr.ErrValidation):
		return "invalid"
	case errors.Is(err, apperr.ErrNotFoundOrDenied):
		return "not_found"
	case errors.Is(err, apperr.ErrForbidden):
		return "forbidden"
	default:
		return "error"
	}
}
