package httptransport

import (
	"encoding/json"
	"net/http"

	pkgerrors "kindred/pkg/errors"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError centralizes domain error translation so every handler emits the
// same JSON envelope.
func writeError(w http.ResponseWriter, err error) {
	code := pkgerrors.CodeOf(err)
	writeJSON(w, pkgerrors.ToHTTPStatus(code), map[string]string{
		"error": string(code),
	})
}
