// Package metrics provides observability for the simulation server.
package metrics

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Collector gathers performance metrics.
type Collector struct {
	// Engine operation metrics
	OpsTotal       int64
	OpsRejected    int64
	CatchUpCount   int64
	CatchUpLatSum  int64 // nanoseconds
	CatchUpLatMax  int64
	ClockAnomalies int64
	LastCatchUp    time.Time

	// Event metrics
	EventsWritten    int64
	EventWriteLatSum int64
	EventWriteLatMax int64
	EventWriteErrors int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// NewCollector creates a collector anchored at the current time.
// The collector is injected, never a package-level singleton.
func NewCollector() *Collector {
	return &Collector{StartTime: time.Now()}
}

// RecordOp records a completed engine operation; rejected marks a
// validation failure returned to the caller.
func (c *Collector) RecordOp(rejected bool) {
	atomic.AddInt64(&c.OpsTotal, 1)
	if rejected {
		atomic.AddInt64(&c.OpsRejected, 1)
	}
}

// RecordCatchUp records a catch-up pass completion.
func (c *Collector) RecordCatchUp(latency time.Duration) {
	atomic.AddInt64(&c.CatchUpCount, 1)
	atomic.AddInt64(&c.CatchUpLatSum, int64(latency))

	// Update max (non-atomic race is acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.CatchUpLatMax) {
		atomic.StoreInt64(&c.CatchUpLatMax, int64(latency))
	}

	c.mu.Lock()
	c.LastCatchUp = time.Now()
	c.mu.Unlock()
}

// RecordClockAnomaly records a negative-elapsed clock observation.
func (c *Collector) RecordClockAnomaly() {
	atomic.AddInt64(&c.ClockAnomalies, 1)
}

// RecordEventWrite records an event write to the database.
func (c *Collector) RecordEventWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.EventsWritten, 1)
	atomic.AddInt64(&c.EventWriteLatSum, int64(latency))

	if int64(latency) > atomic.LoadInt64(&c.EventWriteLatMax) {
		atomic.StoreInt64(&c.EventWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.EventWriteErrors, 1)
	}
}

// RecordWSConnection records WebSocket connection changes.
func (c *Collector) RecordWSConnection(delta int64) {
	atomic.AddInt64(&c.WSConnectionsActive, delta)
}

// RecordWSMessage records WebSocket messages.
func (c *Collector) RecordWSMessage(incoming bool) {
	if incoming {
		atomic.AddInt64(&c.WSMessagesIn, 1)
	} else {
		atomic.AddInt64(&c.WSMessagesOut, 1)
	}
}

// RecordWSError records a WebSocket error.
func (c *Collector) RecordWSError() {
	atomic.AddInt64(&c.WSErrors, 1)
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	catchUps := atomic.LoadInt64(&c.CatchUpCount)
	eventsWritten := atomic.LoadInt64(&c.EventsWritten)

	var catchUpAvg, eventAvg float64
	if catchUps > 0 {
		catchUpAvg = float64(atomic.LoadInt64(&c.CatchUpLatSum)) / float64(catchUps) / 1e6 // ms
	}
	if eventsWritten > 0 {
		eventAvg = float64(atomic.LoadInt64(&c.EventWriteLatSum)) / float64(eventsWritten) / 1e6
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"engine": map[string]interface{}{
			"ops_total":       atomic.LoadInt64(&c.OpsTotal),
			"ops_rejected":    atomic.LoadInt64(&c.OpsRejected),
			"catchups":        catchUps,
			"avg_latency_ms":  catchUpAvg,
			"max_latency_ms":  float64(atomic.LoadInt64(&c.CatchUpLatMax)) / 1e6,
			"clock_anomalies": atomic.LoadInt64(&c.ClockAnomalies),
			"last_catchup":    c.LastCatchUp.Format(time.RFC3339),
		},

		"events": map[string]interface{}{
			"written":          eventsWritten,
			"avg_write_lat_ms": eventAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.EventWriteLatMax)) / 1e6,
			"errors":           atomic.LoadInt64(&c.EventWriteErrors),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},
	}
}

// Handler returns an HTTP handler for the JSON /metrics endpoint.
func (c *Collector) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		json.NewEncoder(w).Encode(c.Snapshot())
	}
}

// PrometheusHandler returns metrics in Prometheus text format.
func (c *Collector) PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		fmt.Fprintf(w, "# HELP omerta_ops_total Total engine operations\n")
		fmt.Fprintf(w, "# TYPE omerta_ops_total counter\n")
		fmt.Fprintf(w, "omerta_ops_total %d\n\n", atomic.LoadInt64(&c.OpsTotal))

		fmt.Fprintf(w, "# HELP omerta_ops_rejected Total operations rejected by validation\n")
		fmt.Fprintf(w, "# TYPE omerta_ops_rejected counter\n")
		fmt.Fprintf(w, "omerta_ops_rejected %d\n\n", atomic.LoadInt64(&c.OpsRejected))

		fmt.Fprintf(w, "# HELP omerta_catchup_count Total catch-up passes\n")
		fmt.Fprintf(w, "# TYPE omerta_catchup_count counter\n")
		fmt.Fprintf(w, "omerta_catchup_count %d\n\n", atomic.LoadInt64(&c.CatchUpCount))

		fmt.Fprintf(w, "# HELP omerta_catchup_latency_max_ms Maximum catch-up latency\n")
		fmt.Fprintf(w, "# TYPE omerta_catchup_latency_max_ms gauge\n")
		fmt.Fprintf(w, "omerta_catchup_latency_max_ms %.2f\n\n", float64(atomic.LoadInt64(&c.CatchUpLatMax))/1e6)

		fmt.Fprintf(w, "# HELP omerta_clock_anomalies Negative-elapsed clock observations\n")
		fmt.Fprintf(w, "# TYPE omerta_clock_anomalies counter\n")
		fmt.Fprintf(w, "omerta_clock_anomalies %d\n\n", atomic.LoadInt64(&c.ClockAnomalies))

		fmt.Fprintf(w, "# HELP omerta_events_written Total events written\n")
		fmt.Fprintf(w, "# TYPE omerta_events_written counter\n")
		fmt.Fprintf(w, "omerta_events_written %d\n\n", atomic.LoadInt64(&c.EventsWritten))

		fmt.Fprintf(w, "# HELP omerta_event_write_errors Total event write errors\n")
		fmt.Fprintf(w, "# TYPE omerta_event_write_errors counter\n")
		fmt.Fprintf(w, "omerta_event_write_errors %d\n\n", atomic.LoadInt64(&c.EventWriteErrors))

		fmt.Fprintf(w, "# HELP omerta_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE omerta_ws_connections gauge\n")
		fmt.Fprintf(w, "omerta_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP omerta_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE omerta_ws_messages_total counter\n")
		fmt.Fprintf(w, "omerta_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "omerta_ws_messages_total{direction=\"out\"} %d\n", atomic.LoadInt64(&c.WSMessagesOut))
	}
}
