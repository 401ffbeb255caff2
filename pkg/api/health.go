package api

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	statusPass = "pass"
	statusFail = "fail"

	healthContentType = "application/health+json"
)

// Version is set at build time with -ldflags.
var Version = "0.0.0"

type HealthInfo struct {
	Status      string `json:"status"`
	Version     string `json:"version"`
	Description string `json:"description"`
	InstanceID  string `json:"instance_id"`
}

// Health reports pass while check succeeds and fail with 503 otherwise.
func Health(service, instanceID string, check func(context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res := HealthInfo{
			Status:      statusPass,
			Version:     Version,
			Description: service + " service",
			InstanceID:  instanceID,
		}
		code := http.StatusOK
		if check != nil {
			if err := check(r.Context()); err != nil {
				res.Status = statusFail
				code = http.StatusServiceUnavailable
			}
		}

		w.Header().Set("Content-Type", healthContentType)
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(res)
	}
}
