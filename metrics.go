package hal

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts responses produced by a Responder.
type Metrics struct {
	Documents        *prometheus.CounterVec
	ConfigureSeconds *prometheus.HistogramVec
	Errors           *prometheus.CounterVec
}

// NewMetrics creates the responder metrics and registers them with reg.
// A nil reg leaves them unregistered. Collectors already registered by
// another Metrics are reused.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Documents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hal",
				Subsystem: "responder",
				Name:      "documents_total",
				Help:      "Total number of responses written, by media type",
			},
			[]string{"media_type"},
		),
		ConfigureSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "hal",
				Subsystem: "responder",
				Name:      "configure_duration_seconds",
				Help:      "Time spent configuring representations",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		Errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "hal",
				Subsystem: "responder",
				Name:      "errors_total",
				Help:      "Total number of failed responses, by error kind",
			},
			[]string{"kind"},
		),
	}
	if reg == nil {
		return m, nil
	}

	var err error
	if m.Documents, err = register(reg, m.Documents); err != nil {
		return nil, err
	}
	if m.ConfigureSeconds, err = register(reg, m.ConfigureSeconds); err != nil {
		return nil, err
	}
	if m.Errors, err = register(reg, m.Errors); err != nil {
		return nil, err
	}
	return m, nil
}

func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

func (m *Metrics) observeConfigure(route string, start time.Time) {
	if m == nil {
		return
	}
	m.ConfigureSeconds.WithLabelValues(route).Observe(time.Since(start).Seconds())
}

func (m *Metrics) document(mediaType string) {
	if m == nil {
		return
	}
	m.Documents.WithLabelValues(mediaType).Inc()
}

func (m *Metrics) failure(err error) {
	if m == nil {
		return
	}
	m.Errors.WithLabelValues(errorKind(err)).Inc()
}

// errorKind labels err for the errors_total counter.
func errorKind(err error) string {
	switch {
	case IsMissingPath(err):
		return "missing_path"
	case IsUnknownRel(err):
		return "unknown_rel"
	case IsConfigurationError(err):
		return "configuration"
	case IsHookError(err):
		return "hook"
	case IsNotFound(err):
		return "not_found"
	}
	return "internal"
}
