package metrics

import (
	"testing"
	"time"

	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meganame/megacheck/internal/observability"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{
		Enabled: true,
		Emitter: collector,
	})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() {
		observability.TelemetrySystem = original
	})

	return collector
}

func TestRecordLookupAndBatch(t *testing.T) {
	collector := setupTelemetry(t)

	RecordLookup("available")
	RecordLookup("taken")
	RecordBatch(2, 15*time.Millisecond)
	RecordShortCircuit()
	RecordRegistryCall("aggregate3", "ok", 40*time.Millisecond)

	assert.Greater(t, collector.CountMetricsByName(LookupsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(RegistryCallsTotal), 0)
	assert.Greater(t, collector.CountMetricsByName(RegistryCallDuration), 0)
	assert.Greater(t, collector.CountMetricsByName(BatchSize), 0)
	assert.Greater(t, collector.CountMetricsByName(BatchDuration), 0)
	assert.Greater(t, collector.CountMetricsByName(RegistryShortCircuitTotal), 0)
}

func TestRecordErrors(t *testing.T) {
	collector := setupTelemetry(t)

	RecordError("VALIDATION_FAILED", 400)
	RecordErrorByEndpoint("/api/check", "VALIDATION_FAILED")
	RecordPanic()
	RecordHealthCheck("registry", false, time.Millisecond)

	assert.Greater(t, collector.CountMetricsByName(ErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(ErrorsByEndpointName), 0)
	assert.Greater(t, collector.CountMetricsByName(PanicsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(HealthCheckTotal), 0)
}

func TestRecordWithoutTelemetryIsNoop(t *testing.T) {
	original := observability.TelemetrySystem
	observability.TelemetrySystem = nil
	t.Cleanup(func() { observability.TelemetrySystem = original })

	assert.NotPanics(t, func() {
		RecordLookup("error")
		RecordBatch(1, time.Millisecond)
		RecordShortCircuit()
		RecordRegistryCall("records", "error", time.Millisecond)
		RecordHealthCheck("registry", true, time.Millisecond)
		RecordError("INTERNAL_ERROR", 500)
		RecordPanic()
		SetServerStartTime(time.Now().Unix())
	})
}
