package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/meganame/megacheck/internal/core"
	apperrors "github.com/meganame/megacheck/internal/errors"
)

// PriceHandler serves GET /api/price?name=&years=.
type PriceHandler struct {
	Rules core.LabelRules
}

func (h *PriceHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondWithError(w, r, apperrors.NewValidationError("missing 'name' parameter"))
		return
	}

	years, err := parseIntParam(r, "years", 1)
	if err != nil {
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	quote, err := core.NewQuote(h.Rules, name, years)
	if err != nil {
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(quote)
}
