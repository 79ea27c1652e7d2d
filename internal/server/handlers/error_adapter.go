package handlers

import (
	"net/http"

	apperrors "github.com/meganame/megacheck/internal/errors"
)

// respondWithError writes err as a JSON error envelope.
func respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	apperrors.RespondWithError(w, r, err)
}
