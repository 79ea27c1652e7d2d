package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"
	"golang.org/x/sync/errgroup"

	"github.com/meganame/megacheck/internal/metrics"
)

// Check results reported per checker.
const (
	checkHealthy   = "healthy"
	checkDegraded  = "degraded"
	checkUnhealthy = "unhealthy"
	checkTimeout   = "timeout"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// probe describes one health endpoint.
type probe struct {
	name    string
	timeout time.Duration
	// dependencies includes checkers registered with RegisterDependency.
	dependencies bool
	aggregate    bool
}

var probes = map[string]probe{
	"aggregate": {name: "aggregate", timeout: 5 * time.Second, dependencies: true, aggregate: true},
	"live":      {name: "live", timeout: 2 * time.Second},
	"ready":     {name: "ready", timeout: 5 * time.Second, dependencies: true},
	"startup":   {name: "startup", timeout: 3 * time.Second},
}

type registeredChecker struct {
	checker    HealthChecker
	dependency bool
}

// HealthManager runs registered checkers for the health endpoints.
// Failing dependencies (the registry endpoint) degrade the service; failing
// core checkers make it unhealthy.
type HealthManager struct {
	mu       sync.RWMutex
	checkers map[string]registeredChecker
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]registeredChecker),
		version:  version,
	}
}

// RegisterChecker registers a core checker.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.register(name, checker, false)
}

// RegisterDependency registers an external dependency. Liveness and startup
// probes skip it.
func (hm *HealthManager) RegisterDependency(name string, checker HealthChecker) {
	hm.register(name, checker, true)
}

func (hm *HealthManager) register(name string, checker HealthChecker, dependency bool) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = registeredChecker{checker: checker, dependency: dependency}
}

// runHealthChecks executes the checkers selected by p concurrently.
func (hm *HealthManager) runHealthChecks(ctx context.Context, p probe) map[string]string {
	hm.mu.RLock()
	selected := make(map[string]registeredChecker, len(hm.checkers))
	for name, rc := range hm.checkers {
		if rc.dependency && !p.dependencies {
			continue
		}
		selected[name] = rc
	}
	hm.mu.RUnlock()

	var mu sync.Mutex
	checks := make(map[string]string, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	for name, rc := range selected {
		g.Go(func() error {
			result := runCheck(gctx, name, rc)
			mu.Lock()
			checks[name] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return checks
}

func runCheck(ctx context.Context, name string, rc registeredChecker) string {
	started := time.Now()
	err := rc.checker.CheckHealth(ctx)
	metrics.RecordHealthCheck(name, err == nil, time.Since(started))

	switch {
	case err == nil:
		return checkHealthy
	case ctx.Err() != nil:
		return checkTimeout
	case rc.dependency:
		return checkDegraded
	default:
		return checkUnhealthy
	}
}

// determineOverallStatus determines overall health status
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	status := checkHealthy
	for _, result := range checks {
		switch result {
		case checkUnhealthy:
			return checkUnhealthy
		case checkDegraded, checkTimeout:
			status = checkDegraded
		}
	}
	return status
}

func (hm *HealthManager) serveProbe(w http.ResponseWriter, r *http.Request, p probe) {
	checkCtx, cancel := context.WithTimeout(r.Context(), p.timeout)
	defer cancel()

	checks := hm.runHealthChecks(checkCtx, p)
	status := hm.determineOverallStatus(checks)

	if status == checkUnhealthy {
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", p.name+" health check failed")
		respondWithError(w, r, enrichHealthEnvelope(envelope, p.name, status, checks))
		return
	}

	var body any = ProbeResponse{Status: status, Timestamp: time.Now().UTC()}
	if p.aggregate {
		body = HealthResponse{
			Status:    status,
			Version:   hm.version,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Checks:    checks,
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

// HealthHandler serves the aggregate /health report.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, probes["aggregate"])
}

// ProbeHandler serves one of the live, ready or startup probes.
func (hm *HealthManager) ProbeHandler(name string) http.HandlerFunc {
	p, ok := probes[name]
	if !ok {
		p = probe{name: name, timeout: 5 * time.Second, dependencies: true}
	}
	return func(w http.ResponseWriter, r *http.Request) {
		hm.serveProbe(w, r, p)
	}
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probeName, status string, checks map[string]string) *errors.ErrorEnvelope {
	details := map[string]interface{}{
		"status": status,
		"probe":  probeName,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	envelope = envelope.WithDetails(details)

	var failing []string
	for name, result := range checks {
		if result != checkHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	contextData := map[string]interface{}{"probe": probeName}
	if len(failing) > 0 {
		contextData["unhealthy_checks"] = failing
	}
	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager initializes the global health manager
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the global health manager
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

// Probe returns a handler backed by the global manager. name is "aggregate"
// or one of the probe names.
func Probe(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if globalHealthManager == nil {
			envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
			respondWithError(w, r, enrichHealthEnvelope(envelope, name, "unknown", nil))
			return
		}
		if name == "aggregate" {
			globalHealthManager.HealthHandler(w, r)
			return
		}
		globalHealthManager.ProbeHandler(name)(w, r)
	}
}
