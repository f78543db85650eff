package api

import (
	"encoding/json"
	"net/http"

	"github.com/stormhaven/arena/internal/apierr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeError maps an apierr.Kind to an HTTP status and encodes the body
// as errorResponse (spec §7's taxonomy surfaces verbatim to the client).
// An internal error's message is replaced with a generic one.
func writeError(w http.ResponseWriter, err error) {
	kind := apierr.KindOf(err)
	message := err.Error()
	if kind == apierr.KindInternal {
		message = "internal error"
	}
	writeJSON(w, statusFor(kind), errorResponse{Kind: string(kind), Message: message})
}

func statusFor(kind apierr.Kind) int {
	switch kind {
	case apierr.KindNotFound:
		return http.StatusNotFound
	case apierr.KindForbidden:
		return http.StatusForbidden
	case apierr.KindIllegalAction:
		return http.StatusUnprocessableEntity
	case apierr.KindStaleState:
		return http.StatusConflict
	case apierr.KindBusy:
		return http.StatusServiceUnavailable
	case apierr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
