package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/core/engine"
	"github.com/meganame/megacheck/internal/core/registry"
	"github.com/meganame/megacheck/internal/metrics"
	"github.com/meganame/megacheck/internal/observability"
)

// RegistryStatus is the body of GET /api/health.
type RegistryStatus struct {
	Status    string `json:"status"`
	Connected bool   `json:"connected"`
	Block     uint64 `json:"block,omitempty"`
	Error     string `json:"error,omitempty"`
}

// RegistryHealth reports whether the JSON-RPC endpoint answers. It also
// satisfies HealthChecker so the registry shows up in /health.
type RegistryHealth struct {
	Reporter registry.StatusReporter
	Timeout  time.Duration
}

// CheckHealth fetches the latest block number.
func (h *RegistryHealth) CheckHealth(ctx context.Context) error {
	_, err := h.blockNumber(ctx)
	return err
}

func (h *RegistryHealth) blockNumber(ctx context.Context) (uint64, error) {
	if h.Reporter == nil {
		return 0, registry.ErrUnavailable
	}
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return h.Reporter.BlockNumber(callCtx)
}

// ServeHTTP always answers 200; connectivity is reported in the body.
func (h *RegistryHealth) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := RegistryStatus{Status: "ok", Connected: true}

	started := time.Now()
	block, err := h.blockNumber(r.Context())
	metrics.RecordHealthCheck("registry_api", err == nil, time.Since(started))
	if err != nil {
		status = RegistryStatus{Status: "error", Error: engine.PublicDetail(registry.Classify(err))}
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Registry health check failed", zap.Error(err))
		}
	} else {
		status.Block = block
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(status)
}
