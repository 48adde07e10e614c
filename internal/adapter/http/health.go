package http

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

type namedCheck struct {
	name  string
	check CheckFunc
}

// Health serves liveness and readiness.
type Health struct {
	version string
	timeout time.Duration
	checks  []namedCheck
}

// NewHealth creates a Health reporting version.
func NewHealth(version string) *Health {
	return &Health{version: version, timeout: 2 * time.Second}
}

// AddCheck registers a readiness probe.
func (h *Health) AddCheck(name string, fn CheckFunc) {
	h.checks = append(h.checks, namedCheck{name: name, check: fn})
}

type healthStatus struct {
	Status  string            `json:"status"`
	Version string            `json:"version,omitempty"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// Live handles GET /health.
func (h *Health) Live(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthStatus{Status: "ok", Version: h.version})
}

// Ready handles GET /health/ready. Probes run concurrently and any failure
// answers 503.
func (h *Health) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	st := healthStatus{Status: "ok", Version: h.version, Checks: make(map[string]string, len(h.checks))}
	for _, c := range h.checks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := c.check(ctx); err != nil {
				result = "error: " + err.Error()
			}
			mu.Lock()
			defer mu.Unlock()
			st.Checks[c.name] = result
			if result != "ok" {
				st.Status = "degraded"
			}
		}()
	}
	wg.Wait()

	status := http.StatusOK
	if st.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, st)
}
