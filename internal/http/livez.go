package http

import (
	"net/http"
	"time"

	"github.com/crewdeck/crewdeck/pkg/api"
	"github.com/crewdeck/crewdeck/pkg/httpx"
)

// LivezHandler is the liveness probe. It returns 200 whenever the
// process is up.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, api.HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}
