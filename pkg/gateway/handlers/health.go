package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/LMSAIH/xhacks2026-sub000/pkg/gateway/lifecycle"
)

// HealthHandler answers liveness probes.
type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// ReadyHandler answers readiness probes; it fails while the gateway drains
// so load balancers stop routing new work here.
type ReadyHandler struct {
	Lifecycle *lifecycle.Lifecycle
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK       bool `json:"ok"`
		Draining bool `json:"draining,omitempty"`
	}

	draining := h.Lifecycle.IsDraining()
	status := http.StatusOK
	if draining {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{OK: !draining, Draining: draining})
}
