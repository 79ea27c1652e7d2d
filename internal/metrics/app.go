package metrics

import "time"

// Application metric names. The exporter prefixes each with its namespace,
// so LookupsTotal is scraped as megacheck_lookups_total.
const (
	LookupsTotal              = "lookups_total"
	RegistryShortCircuitTotal = "registry_short_circuit_total"

	BatchSize     = "batch_size"
	BatchDuration = "batch_duration_ms"

	RegistryCallsTotal   = "registry_calls_total"
	RegistryCallDuration = "registry_call_duration_ms"

	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"

	ServerStartTime = "app_server_start_time_seconds"
)

// RecordLookup counts one batch entry by its final status.
func RecordLookup(status string) {
	counter(LookupsTotal, map[string]string{"status": status})
}

// RecordShortCircuit counts a label skipped because the registry was unreachable.
func RecordShortCircuit() {
	counter(RegistryShortCircuitTotal, nil)
}

// RecordBatch records the size and wall time of a batch check.
func RecordBatch(size int, duration time.Duration) {
	gauge(BatchSize, float64(size), nil)
	histogram(BatchDuration, duration, nil)
}

// RecordRegistryCall records one eth_call against the registry. method is
// the contract function (records, ownerOf, aggregate3); outcome is ok,
// revert or error.
func RecordRegistryCall(method, outcome string, duration time.Duration) {
	counter(RegistryCallsTotal, map[string]string{"method": method, "outcome": outcome})
	histogram(RegistryCallDuration, duration, map[string]string{"method": method})
}

// RecordHealthCheck records a health check execution.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}
	counter(HealthCheckTotal, map[string]string{"check": checkName, "status": status})
	histogram(HealthCheckDuration, duration, map[string]string{"check": checkName})
}

// SetServerStartTime records the server start time (Unix timestamp).
func SetServerStartTime(timestamp int64) {
	gauge(ServerStartTime, float64(timestamp), nil)
}
