package handler

import "net/http"

// Health handles GET /healthz. Liveness only; it does not touch the database
// or the completion provider.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
