package rest

import "net/http"

// handlePing - liveness probe for load balancers.
func (that *Server) handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte("pong")); err != nil {
		that.logger.Warn("failed to write ping response", "error", err)
	}
}
