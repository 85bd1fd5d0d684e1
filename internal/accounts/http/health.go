package http

import (
	"net/http"
	"time"

	"github.com/aussiebroadwan/accounts/internal/accounts/store"
	"github.com/aussiebroadwan/accounts/pkg/httpx"
	"github.com/aussiebroadwan/accounts/pkg/jwtx"
)

// LivezHandler always reports ok while the process is serving.
func LivezHandler(startTime time.Time, version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, HealthResponse{
			Status:  "ok",
			Uptime:  time.Since(startTime).String(),
			Version: version,
		})
	}
}

// WorkflowCounter reports how many workflow runtimes are live.
type WorkflowCounter interface {
	Count() int
}

// ReadyzHandler reports degraded when the database is unreachable or no
// token verification keys are loaded. The live workflow count is included
// when workflows is non-nil.
func ReadyzHandler(startTime time.Time, version string, st store.Store, keys *jwtx.KeySet, workflows WorkflowCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := &HealthChecks{Database: "ok", Keys: "ok"}
		status := "ok"
		code := http.StatusOK

		if err := st.Ping(r.Context()); err != nil {
			checks.Database = "error: " + err.Error()
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		if keys == nil || !keys.IsReady() {
			checks.Keys = "error: no keys loaded"
			status = "degraded"
			code = http.StatusServiceUnavailable
		}

		resp := HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).String(),
			Version: version,
			Checks:  checks,
		}
		if workflows != nil {
			n := workflows.Count()
			resp.ActiveWorkflows = &n
		}
		httpx.WriteJSON(w, code, resp)
	}
}
