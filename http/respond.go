package httpapi

import (
	"net/http"

	"github.com/go-chi/render"
)

// writeError is the single shape for user-visible failures. Internal
// detail stays in the logs.
func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	render.Status(r, status)
	render.JSON(w, r, map[string]any{"error": msg})
}

func writeRawJSON(w http.ResponseWriter, payload []byte) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}
