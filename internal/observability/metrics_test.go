package observability

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func gaugeValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() == name {
			require.NotEmpty(t, family.GetMetric())
			return family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	t.Fatalf("metric %s not registered", name)
	return 0
}

func TestWatermarkGauges(t *testing.T) {
	ts := time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC)

	RecordRegistrationPersisted(ts)
	require.Equal(t, float64(ts.Unix()),
		gaugeValue(t, "booking_service_persistence_last_registration_persisted_timestamp_seconds"))

	RecordStatusChanged(ts.Add(time.Minute))
	require.Equal(t, float64(ts.Add(time.Minute).Unix()),
		gaugeValue(t, "booking_service_persistence_last_status_change_timestamp_seconds"))
}

func TestZeroTimestampsAreIgnored(t *testing.T) {
	RecordRegistrationPersisted(time.Date(2026, time.March, 14, 9, 30, 0, 0, time.UTC))
	before := gaugeValue(t, "booking_service_persistence_last_registration_persisted_timestamp_seconds")

	RecordRegistrationPersisted(time.Time{})
	require.Equal(t, before,
		gaugeValue(t, "booking_service_persistence_last_registration_persisted_timestamp_seconds"))
}

func TestStatusTransitionCounter(t *testing.T) {
	RecordStatusTransition("cancelled")
	RecordStatusTransition("cancelled")

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var metric *dto.Metric
	for _, family := range families {
		if family.GetName() != "booking_service_lifecycle_status_transitions_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "status" && label.GetValue() == "cancelled" {
					metric = m
				}
			}
		}
	}
	require.NotNil(t, metric)
	require.GreaterOrEqual(t, metric.GetCounter().GetValue(), 2.0)
}
