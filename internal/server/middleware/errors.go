package middleware

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/fulmenhq/gofulmen/errors"
	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/metrics"
	"github.com/meganame/megacheck/internal/observability"
)

const panicMessage = "internal server error"

// ErrorResponse mirrors the body written by internal/errors. It is declared
// here because that package imports middleware.
type ErrorResponse struct {
	Error struct {
		Code      string `json:"code"`
		Message   string `json:"message"`
		RequestID string `json:"request_id,omitempty"`
	} `json:"error"`
}

// Recovery turns a handler panic into a 500 INTERNAL_ERROR body. The panic
// value and stack go to the server log only.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}
			recovered(w, r, rec)
		}()
		next.ServeHTTP(w, r)
	})
}

func recovered(w http.ResponseWriter, r *http.Request, rec any) {
	env := errors.NewErrorEnvelope("INTERNAL_ERROR", panicMessage).
		WithCorrelationID(GetRequestID(r.Context()))
	if critical, err := env.WithSeverity(errors.SeverityCritical); err == nil {
		env = critical
	}

	metrics.RecordPanic()
	metrics.RecordError(env.Code, http.StatusInternalServerError)

	if logger := observability.ServerLogger; logger != nil {
		logger.Error("recovered handler panic",
			zap.String("panic", fmt.Sprint(rec)),
			zap.String("path", r.URL.Path),
			zap.String("request_id", env.CorrelationID),
			zap.String("severity", string(env.Severity)),
			zap.ByteString("stack", debug.Stack()))
	}

	var body ErrorResponse
	body.Error.Code = env.Code
	body.Error.Message = env.Message
	body.Error.RequestID = env.CorrelationID

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_ = json.NewEncoder(w).Encode(body)
}
