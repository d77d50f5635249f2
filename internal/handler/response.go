package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/freeeve/age-of-conquest/internal/model"
	"github.com/freeeve/age-of-conquest/internal/service"
	"github.com/freeeve/age-of-conquest/pkg/conquest"
)

// maxBodySize bounds request bodies. Commands are tiny; a create request with
// a custom rule set is the largest.
const maxBodySize = 64 << 10

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Error encoding response")
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads and decodes JSON from a request body.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v)
}

// rejection maps a service or engine error to a status and machine-readable
// reason. Anything unrecognised is a 500.
var rejections = []struct {
	err    error
	status int
	reason string
}{
	{service.ErrMatchNotFound, http.StatusNotFound, "not_found"},
	{conquest.ErrIllegalMove, http.StatusUnprocessableEntity, "illegal_move"},
	{conquest.ErrInsufficientFunds, http.StatusPaymentRequired, "insufficient_funds"},
	{conquest.ErrNoEligibleTarget, http.StatusConflict, "no_eligible_target"},
	{conquest.ErrMatchConcluded, http.StatusConflict, "match_concluded"},
	{conquest.ErrInvalidSelection, http.StatusBadRequest, "invalid_selection"},
	{conquest.ErrInvalidConfig, http.StatusBadRequest, "invalid_config"},
}

// writeServiceError writes the response for a failed command.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	for _, rj := range rejections {
		if errors.Is(err, rj.err) {
			writeJSON(w, rj.status, model.Rejection{Error: err.Error(), Reason: rj.reason})
			return
		}
	}
	if errors.Is(err, r.Context().Err()) {
		writeError(w, http.StatusServiceUnavailable, "request cancelled")
		return
	}
	log.Error().Err(err).Str("path", r.URL.Path).Msg("Unexpected service error")
	writeError(w, http.StatusInternalServerError, "internal server error")
}
