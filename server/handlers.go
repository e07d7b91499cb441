package server

import (
	"encoding/json"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthChecker reports the state of every cache behind the server.
// *repository.Registry implements it.
type HealthChecker interface {
	Healthy() bool
	Ready() bool
}

type probeResponse struct {
	Status string `json:"status"`
}

func HealthzHandler(checker HealthChecker) http.HandlerFunc {
	return probeHandler(checker.Healthy)
}

func ReadyzHandler(checker HealthChecker) http.HandlerFunc {
	return probeHandler(checker.Ready)
}

func probeHandler(probe func() bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		status, resp := http.StatusOK, probeResponse{Status: "ok"}
		if !probe() {
			status, resp = http.StatusServiceUnavailable, probeResponse{Status: "unavailable"}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}

// MetricsHandler serves gatherer in the Prometheus exposition format.
func MetricsHandler(gatherer prometheus.Gatherer) http.HandlerFunc {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}).ServeHTTP
}
