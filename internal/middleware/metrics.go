package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"
)

type serviceCounters struct {
	requests      atomic.Uint64
	inFlight      atomic.Int64
	byClass       [6]atomic.Uint64 // index = status / 100
	busyMicros    atomic.Uint64
	analyses      atomic.Uint64
	analysesLive  atomic.Int64
	analysesError atomic.Uint64
	queries       atomic.Uint64
	started       time.Time
}

var counters = &serviceCounters{started: time.Now()}

// AnalysisStarted counts one /analyze call. The returned func must be called
// once with the outcome.
func AnalysisStarted() func(err error) {
	counters.analyses.Add(1)
	counters.analysesLive.Add(1)
	return func(err error) {
		counters.analysesLive.Add(-1)
		if err != nil {
			counters.analysesError.Add(1)
		}
	}
}

func QueryAnswered() { counters.queries.Add(1) }

// Snapshot is the /metrics document.
type Snapshot struct {
	Requests struct {
		Total         uint64            `json:"total"`
		InFlight      int64             `json:"in_flight"`
		ByStatusClass map[string]uint64 `json:"by_status_class"`
		AvgLatencyMS  float64           `json:"avg_latency_ms"`
	} `json:"requests"`
	Analyses struct {
		Total   uint64 `json:"total"`
		Running int64  `json:"running"`
		Failed  uint64 `json:"failed"`
	} `json:"analyses"`
	Queries       uint64  `json:"queries"`
	UptimeSeconds float64 `json:"uptime_seconds"`
	Goroutines    int     `json:"goroutines"`
	HeapBytes     uint64  `json:"heap_bytes"`
	NumGC         uint32  `json:"num_gc"`
}

func TakeSnapshot() Snapshot {
	var s Snapshot
	total := counters.requests.Load()
	s.Requests.Total = total
	s.Requests.InFlight = counters.inFlight.Load()
	s.Requests.ByStatusClass = map[string]uint64{}
	for i := 1; i < len(counters.byClass); i++ {
		if n := counters.byClass[i].Load(); n > 0 {
			s.Requests.ByStatusClass[string(rune('0'+i))+"xx"] = n
		}
	}
	if total > 0 {
		s.Requests.AvgLatencyMS = float64(counters.busyMicros.Load()) / float64(total) / 1000
	}
	s.Analyses.Total = counters.analyses.Load()
	s.Analyses.Running = counters.analysesLive.Load()
	s.Analyses.Failed = counters.analysesError.Load()
	s.Queries = counters.queries.Load()
	s.UptimeSeconds = time.Since(counters.started).Seconds()
	s.Goroutines = runtime.NumGoroutine()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	s.HeapBytes, s.NumGC = mem.HeapAlloc, mem.NumGC
	return s
}

// MetricsMiddleware counts requests by status class. Long-lived SSE streams
// count once they end.
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		counters.requests.Add(1)
		counters.inFlight.Add(1)
		start := time.Now()
		rw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		defer func() {
			counters.inFlight.Add(-1)
			counters.busyMicros.Add(uint64(time.Since(start).Microseconds()))
			if c := rw.status / 100; c > 0 && c < len(counters.byClass) {
				counters.byClass[c].Add(1)
			}
		}()
		next.ServeHTTP(rw, r)
	})
}

func MetricsHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(TakeSnapshot())
}
