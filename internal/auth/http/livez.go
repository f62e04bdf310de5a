package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/botdash/pkg/authsdk"
	"github.com/aussiebroadwan/botdash/pkg/httpx"
)

// LivezHandler godoc
//
//	@Summary		Liveness Check Endpoint
//	@Description	Liveness probe. Answers 200 whenever the process can serve HTTP; dependencies are only checked by /readyz.
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version"
//	@Router			/livez [get].
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeHealth(w, http.StatusOK, healthReport("ok", startTime, version, nil))
	}
}

func healthReport(status string, startTime time.Time, version string, checks *authsdk.HealthChecks) authsdk.HealthResponse {
	return authsdk.HealthResponse{
		Status:  status,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Version: version,
		Checks:  checks,
	}
}

// Probes must never be answered from a cache.
func writeHealth(w http.ResponseWriter, code int, report authsdk.HealthResponse) {
	httpx.NoCache(w)
	httpx.WriteJSON(w, code, report)
}
