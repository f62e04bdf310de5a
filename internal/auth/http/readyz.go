package http

import (
	"context"
	"net/http"
	"time"

	"github.com/aussiebroadwan/botdash/internal/auth/store"
	"github.com/aussiebroadwan/botdash/pkg/authsdk"
)

// Pinger is an upstream dependency readiness can probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyzHandler godoc
//
//	@Summary		Readiness Check Endpoint
//	@Description	Readiness probe endpoint returning service health status and checks for critical dependencies
//	@Description	Includes uptime, version, and the status of the store and, when configured, the provisioner
//	@Tags			Health
//	@Produce		json
//	@Success		200	{object}	authsdk.HealthResponse	"status, uptime, version, checks"
//	@Failure		503	{object}	authsdk.HealthResponse	"status, uptime, version, checks - service not ready"
//	@Router			/readyz [get].
func ReadyzHandler(
	startTime time.Time,
	version string,
	st store.Store,
	provisioner Pinger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &authsdk.HealthChecks{Database: "ok"}
		overallStatus := "ok"
		statusCode := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			overallStatus = "degraded"
			statusCode = http.StatusServiceUnavailable
		}

		// The provisioner only backs the bot pages, so an outage degrades
		// readiness without failing it.
		if provisioner != nil {
			checks.Provisioner = "ok"
			if err := provisioner.Ping(r.Context()); err != nil {
				checks.Provisioner = "error: " + err.Error()
				overallStatus = "degraded"
			}
		}

		writeHealth(w, statusCode, healthReport(overallStatus, startTime, version, checks))
	}
}
