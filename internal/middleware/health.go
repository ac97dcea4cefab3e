package middleware

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	probeTimeout = 2 * time.Second
	reportBudget = 5 * time.Second
)

// HealthChecker is anything /health and /readyz can probe.
type HealthChecker interface {
	Check(ctx context.Context) error
}

type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// DatabaseHealthChecker pings a SQL history store.
type DatabaseHealthChecker struct {
	DB *sql.DB
}

func (d *DatabaseHealthChecker) Check(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	return d.DB.PingContext(ctx)
}

type probeResult struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type healthReport struct {
	Status    string                 `json:"status"`
	CheckedAt time.Time              `json:"checked_at"`
	Checks    map[string]probeResult `json:"checks"`
}

// probeAll runs every checker at once. A failing probe never cancels the
// others; each gets its own result.
func probeAll(ctx context.Context, checkers map[string]HealthChecker) healthReport {
	rep := healthReport{
		Status:    "ok",
		CheckedAt: time.Now().UTC(),
		Checks:    make(map[string]probeResult, len(checkers)),
	}
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	for name, c := range checkers {
		g.Go(func() error {
			start := time.Now()
			err := c.Check(ctx)
			res := probeResult{Status: "ok", LatencyMS: time.Since(start).Milliseconds()}
			if err != nil {
				res.Status, res.Error = "down", err.Error()
			}
			mu.Lock()
			rep.Checks[name] = res
			if err != nil {
				rep.Status = "down"
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return rep
}

// HealthHandler answers 503 as soon as any probe is down.
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), reportBudget)
		defer cancel()

		rep := probeAll(ctx, checkers)
		code := http.StatusOK
		if rep.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(rep)
	}
}

// LivenessHandler only proves the process serves HTTP.
func LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}
