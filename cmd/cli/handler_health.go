package main

import (
	"net/http"
)

// healthHandler returns server health status
func (rm *RouteManager) healthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":   "ok",
		"database": "memory",
		"editors":  rm.editors.Len(),
	}

	if hc, ok := rm.store.(interface{ IsConnectionHealthy() bool }); ok {
		status["database"] = "healthy"
		if !hc.IsConnectionHealthy() {
			status["status"] = "degraded"
			status["database"] = "unhealthy"
			writeJSON(w, http.StatusServiceUnavailable, status)
			return
		}
	}

	writeJSON(w, http.StatusOK, status)
}
