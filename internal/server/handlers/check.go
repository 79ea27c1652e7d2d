package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/engine"
	apperrors "github.com/meganame/megacheck/internal/errors"
	"github.com/meganame/megacheck/internal/observability"
	"github.com/meganame/megacheck/internal/server/middleware"
)

// maxCheckBody bounds the request body of a check call.
const maxCheckBody = 1 << 20

// BatchChecker resolves an ordered batch of candidate names.
type BatchChecker interface {
	CheckBatch(ctx context.Context, names []string) (*core.BatchResponse, error)
}

// CheckHandler serves POST /api/check.
type CheckHandler struct {
	Checker BatchChecker
}

var (
	errMissingNames = errors.New("missing 'names' field")
	errNoNames      = errors.New("no names provided")
)

// ServeHTTP accepts {"names": [...]} or {"names": "a, b c"} as JSON, or one or
// more form fields named "names", and returns the ordered batch response.
func (h *CheckHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Checker == nil {
		respondWithError(w, r, apperrors.NewServiceUnavailableError("checker not initialized"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxCheckBody)
	names, err := readNames(r)
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, errMissingNames), errors.Is(err, errNoNames):
			respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		case errors.As(err, &tooLarge):
			respondWithError(w, r, apperrors.WrapValidationError(r.Context(), err, "request body too large"))
		case errors.As(err, &syntaxErr), errors.As(err, &typeErr):
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "names must be a list of strings or a comma separated string"))
		default:
			respondWithError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "unable to read request"))
		}
		return
	}

	resp, err := h.Checker.CheckBatch(r.Context(), names)
	switch {
	case errors.Is(err, engine.ErrEmptyBatch), errors.Is(err, engine.ErrBatchTooLarge):
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	case err != nil:
		respondWithError(w, r, apperrors.WrapInternal(r.Context(), err, "batch check failed"))
		return
	}

	logLookupFailures(r, resp.Results)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}

type checkRequest struct {
	Names json.RawMessage `json:"names"`
}

func readNames(r *http.Request) ([]string, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var names []string
	switch mediaType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseMultipartForm(maxCheckBody); err != nil && !errors.Is(err, http.ErrNotMultipart) {
			return nil, err
		}
		values, ok := r.PostForm["names"]
		if !ok {
			return nil, errMissingNames
		}
		for _, value := range values {
			names = append(names, core.SplitNames(value)...)
		}
	default:
		var req checkRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, err
		}
		if len(req.Names) == 0 || string(req.Names) == "null" {
			return nil, errMissingNames
		}
		parsed, err := decodeNames(req.Names)
		if err != nil {
			return nil, err
		}
		names = parsed
	}

	if len(names) == 0 {
		return nil, errNoNames
	}
	return names, nil
}

func decodeNames(raw json.RawMessage) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		return core.SplitNames(text), nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		return nil, err
	}
	return list, nil
}

func logLookupFailures(r *http.Request, results []*core.AvailabilityResult) {
	logger := observability.ServerLogger
	if logger == nil {
		return
	}
	requestID := middleware.GetRequestID(r.Context())
	for _, result := range results {
		if result == nil || result.Cause == nil {
			continue
		}
		logger.Warn("Registry lookup failed",
			zap.String("label", result.Name),
			zap.String("detail", result.Detail),
			zap.String("request_id", requestID),
			zap.Error(result.Cause))
	}
}

// parseIntParam reads an integer query parameter, returning fallback when absent.
func parseIntParam(r *http.Request, key string, fallback int) (int, error) {
	value := strings.TrimSpace(r.URL.Query().Get(key))
	if value == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return n, nil
}
