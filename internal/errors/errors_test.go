package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fulmenhq/gofulmen/errors"
	"github.com/fulmenhq/gofulmen/telemetry"
	telemetrytesting "github.com/fulmenhq/gofulmen/telemetry/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meganame/megacheck/internal/metrics"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/server/middleware"
)

func setupTelemetry(t *testing.T) *telemetrytesting.FakeCollector {
	t.Helper()

	collector := telemetrytesting.NewFakeCollector()
	sys, err := telemetry.NewSystem(&telemetry.Config{Enabled: true, Emitter: collector})
	require.NoError(t, err)

	original := observability.TelemetrySystem
	observability.TelemetrySystem = sys
	t.Cleanup(func() { observability.TelemetrySystem = original })

	return collector
}

func TestHTTPStatusFromCode(t *testing.T) {
	cases := map[string]int{
		"VALIDATION_FAILED":      http.StatusBadRequest,
		"INVALID_INPUT":          http.StatusBadRequest,
		"NOT_FOUND":              http.StatusNotFound,
		"METHOD_NOT_ALLOWED":     http.StatusMethodNotAllowed,
		"EXTERNAL_SERVICE_ERROR": http.StatusBadGateway,
		"SERVICE_UNAVAILABLE":    http.StatusServiceUnavailable,
		"INTERNAL_ERROR":         http.StatusInternalServerError,
		"SOMETHING_ELSE":         http.StatusInternalServerError,
	}
	for code, want := range cases {
		assert.Equal(t, want, HTTPStatusFromCode(code), code)
	}
	assert.Equal(t, http.StatusInternalServerError, HTTPStatusFromEnvelope(nil))
}

func TestWrapUsesRequestID(t *testing.T) {
	ctx := context.WithValue(context.Background(), middleware.RequestIDContextKey, "req-7")

	env := WrapInternal(ctx, stderrors.New("dial tcp 10.0.0.7:8545: connection refused"), "batch check failed")
	assert.Equal(t, "INTERNAL_ERROR", env.Code)
	assert.Equal(t, "batch check failed", env.Message)
	assert.Equal(t, "req-7", env.CorrelationID)
	assert.Contains(t, env.Context[wrappedErrorKey], "connection refused")
}

func TestEnsureEnvelope(t *testing.T) {
	env := EnsureEnvelope(nil)
	assert.Equal(t, "INTERNAL_ERROR", env.Code)

	original := NewValidationError("too many names")
	assert.Same(t, original, EnsureEnvelope(original))

	env = EnsureEnvelope(stderrors.New("boom"))
	assert.Equal(t, "INTERNAL_ERROR", env.Code)
	assert.Equal(t, "unexpected error", env.Message)
}

func TestDefaultSeverity(t *testing.T) {
	assert.Empty(t, NewValidationError("bad").Severity)
	assert.Equal(t, errors.SeverityMedium, NewServiceUnavailableError("down").Severity)
	assert.Equal(t, errors.SeverityMedium, WrapExternalService(context.Background(), stderrors.New("x"), "rpc").Severity)
	assert.Equal(t, errors.SeverityHigh, NewInternalError("boom").Severity)
}

func TestEnsureCorrelationIDKeepsExisting(t *testing.T) {
	env := NewNotFoundError("missing").WithCorrelationID("abc")
	assert.Equal(t, "abc", EnsureCorrelationID(env, nil).CorrelationID)
	assert.NotEmpty(t, EnsureCorrelationID(NewNotFoundError("missing"), nil).CorrelationID)
}

func TestRespondWithErrorHidesWrappedCause(t *testing.T) {
	collector := setupTelemetry(t)

	handler := middleware.RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithError(w, r, WrapInternal(r.Context(), stderrors.New("rpc https://secret.rpc/key failed"), "batch check failed"))
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/check", nil)
	req.Header.Set(middleware.RequestIDHeader, "req-9")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotContains(t, rec.Body.String(), "secret.rpc")

	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "INTERNAL_ERROR", body.Error.Code)
	assert.Equal(t, "batch check failed", body.Error.Message)
	assert.Equal(t, "req-9", body.Error.RequestID)

	assert.Greater(t, collector.CountMetricsByName(metrics.ErrorsTotalName), 0)
	assert.Greater(t, collector.CountMetricsByName(metrics.ErrorsByEndpointName), 0)
}

func TestRespondWithValidationError(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/price", nil)

	RespondWithError(rec, req, NewValidationError("missing 'name' parameter"))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var body HTTPErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "VALIDATION_FAILED", body.Error.Code)
	assert.NotEmpty(t, body.Error.RequestID)
	assert.Nil(t, body.Error.Details)
}
