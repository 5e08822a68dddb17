package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	registrationPersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "booking_service",
		Subsystem: "persistence",
		Name:      "last_registration_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent registration persisted to Postgres.",
	})
	statusChangeGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "booking_service",
		Subsystem: "persistence",
		Name:      "last_status_change_timestamp_seconds",
		Help:      "Unix timestamp of the most recent registration status transition.",
	})
	statusTransitionCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "booking_service",
		Subsystem: "lifecycle",
		Name:      "status_transitions_total",
		Help:      "Count of applied registration status transitions, labeled by target status.",
	}, []string{"status"})
)

func init() {
	prometheus.MustRegister(registrationPersistGauge, statusChangeGauge, statusTransitionCounter)
}

// RecordRegistrationPersisted updates the persistence watermark gauge.
func RecordRegistrationPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	registrationPersistGauge.Set(float64(ts.Unix()))
}

// RecordStatusChanged updates the transition watermark gauge.
func RecordStatusChanged(ts time.Time) {
	if ts.IsZero() {
		return
	}
	statusChangeGauge.Set(float64(ts.Unix()))
}

// RecordStatusTransition counts an applied transition by target status.
func RecordStatusTransition(status string) {
	statusTransitionCounter.WithLabelValues(status).Inc()
}
