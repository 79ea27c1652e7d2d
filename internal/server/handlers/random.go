package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/meganame/megacheck/internal/core"
	"github.com/meganame/megacheck/internal/core/namegen"
	apperrors "github.com/meganame/megacheck/internal/errors"
)

// RandomResponse lists generated candidate names.
type RandomResponse struct {
	Pattern string   `json:"pattern"`
	Names   []string `json:"names"`
}

// RandomHandler serves GET /api/random?count=&pattern=&min=&max=.
type RandomHandler struct {
	Rules core.LabelRules
}

func (h *RandomHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	pattern, err := namegen.ParsePattern(query.Get("pattern"))
	if err != nil {
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	opts := namegen.Options{
		Pattern:   pattern,
		Separator: query.Get("separator"),
		Rules:     h.Rules,
	}
	for key, dst := range map[string]*int{
		"count": &opts.Count,
		"min":   &opts.MinLength,
		"max":   &opts.MaxLength,
	} {
		n, err := parseIntParam(r, key, 0)
		if err != nil {
			respondWithError(w, r, apperrors.NewValidationError(err.Error()))
			return
		}
		*dst = n
	}

	names, err := namegen.Generate(opts)
	if err != nil {
		respondWithError(w, r, apperrors.NewValidationError(err.Error()))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RandomResponse{Pattern: string(pattern), Names: names})
}
