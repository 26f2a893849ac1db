package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/familybudget/family-budget-api/api"
	"github.com/familybudget/family-budget-api/config"
)

// Metrics exposes the in-process request metrics for the support console
type Metrics struct{}

// MetricsHandler returns per-route latency aggregates and recent slow
// database queries
func (m Metrics) MetricsHandler(w http.ResponseWriter, r *http.Request) {
	resp := map[string]interface{}{
		"routes":      api.Collector.Routes(),
		"slowQueries": api.Collector.SlowQueries(500 * time.Millisecond),
		"generatedAt": time.Now().UTC(),
	}
	b, err := json.Marshal(resp)
	if err != nil {
		config.ErrorStatus("failed to marshal metrics", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
