// Package metrics provides observability for the game server.
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
	// Game metrics
	GamesCreated  int64
	GamesFinished int64
	TurnsPlayed   int64
	Forfeits      int64

	// Transcript metrics
	MessagesAppended   int64
	ArchiveWrites      int64
	ArchiveWriteLatSum int64 // nanoseconds
	ArchiveWriteLatMax int64
	ArchiveWriteErrors int64

	// Delivery gate metrics
	GateWaits    int64
	GateBlocked  int64
	GateTimeouts int64
	GateAcks     int64

	// WebSocket metrics
	WSConnectionsActive int64
	WSMessagesIn        int64
	WSMessagesOut       int64
	WSErrors            int64

	// LLM metrics
	LLMRequests   int64
	LLMErrors     int64
	LLMTokensUsed int64
	LLMCostUSD    float64
	LLMLatencySum int64

	// Scheduler metrics
	AgentActions  int64
	AgentFailures int64

	// System
	StartTime time.Time
	mu        sync.RWMutex
}

// Global collector instance
var collector = &Collector{
	StartTime: time.Now(),
}

// Get returns the global collector.
func Get() *Collector {
	return collector
}

// RecordGameCreated records a new game entering the registry.
func (c *Collector) RecordGameCreated() {
	atomic.AddInt64(&c.GamesCreated, 1)
}

// RecordGameFinished records a game reaching a winner.
func (c *Collector) RecordGameFinished() {
	atomic.AddInt64(&c.GamesFinished, 1)
}

// RecordTurn records a completed turn handover.
func (c *Collector) RecordTurn() {
	atomic.AddInt64(&c.TurnsPlayed, 1)
}

// RecordForfeit records a team forfeiting its turn.
func (c *Collector) RecordForfeit() {
	atomic.AddInt64(&c.Forfeits, 1)
}

// RecordMessage records a transcript append.
func (c *Collector) RecordMessage() {
	atomic.AddInt64(&c.MessagesAppended, 1)
}

// RecordArchiveWrite records a write to the transcript archive.
func (c *Collector) RecordArchiveWrite(latency time.Duration, err error) {
	atomic.AddInt64(&c.ArchiveWrites, 1)
	atomic.AddInt64(&c.ArchiveWriteLatSum, int64(latency))

	// Update max (non-atomic but acceptable for metrics)
	if int64(latency) > atomic.LoadInt64(&c.ArchiveWriteLatMax) {
		atomic.StoreInt64(&c.ArchiveWriteLatMax, int64(latency))
	}

	if err != nil {
		atomic.AddInt64(&c.ArchiveWriteErrors, 1)
	}
}

// RecordGateWait records a delivery gate wait, blocked or not.
func (c *Collector) RecordGateWait(blocked bool) {
	atomic.AddInt64(&c.GateWaits, 1)
	if blocked {
		atomic.AddInt64(&c.GateBlocked, 1)
	}
}

// RecordGateTimeout records a waiter released by timeout.
func (c *Collector) RecordGateTimeout() {
	atomic.AddInt64(&c.GateTimeouts, 1)
}

// RecordGateAck records a narration acknowledgement.
func (c *Collector) RecordGateAck() {
	atomic.AddInt64(&c.GateAcks, 1)
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

// RecordLLMCall records an LLM API call.
func (c *Collector) RecordLLMCall(tokens int, cost float64, latency time.Duration) {
	atomic.AddInt64(&c.LLMRequests, 1)
	atomic.AddInt64(&c.LLMTokensUsed, int64(tokens))
	atomic.AddInt64(&c.LLMLatencySum, int64(latency))

	c.mu.Lock()
	c.LLMCostUSD += cost
	c.mu.Unlock()
}

// RecordLLMError records a failed LLM API call.
func (c *Collector) RecordLLMError() {
	atomic.AddInt64(&c.LLMErrors, 1)
}

// RecordAgentAction records one scheduled seat acting.
func (c *Collector) RecordAgentAction(failed bool) {
	atomic.AddInt64(&c.AgentActions, 1)
	if failed {
		atomic.AddInt64(&c.AgentFailures, 1)
	}
}

// Snapshot returns current metrics as a map.
func (c *Collector) Snapshot() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	archiveWrites := atomic.LoadInt64(&c.ArchiveWrites)
	llmRequests := atomic.LoadInt64(&c.LLMRequests)

	// Calculate averages
	var archiveAvg, llmAvg float64
	if archiveWrites > 0 {
		archiveAvg = float64(atomic.LoadInt64(&c.ArchiveWriteLatSum)) / float64(archiveWrites) / 1e6 // ms
	}
	if llmRequests > 0 {
		llmAvg = float64(atomic.LoadInt64(&c.LLMLatencySum)) / float64(llmRequests) / 1e9 // seconds
	}

	return map[string]interface{}{
		"uptime_seconds": time.Since(c.StartTime).Seconds(),

		"games": map[string]interface{}{
			"created":      atomic.LoadInt64(&c.GamesCreated),
			"finished":     atomic.LoadInt64(&c.GamesFinished),
			"turns_played": atomic.LoadInt64(&c.TurnsPlayed),
			"forfeits":     atomic.LoadInt64(&c.Forfeits),
		},

		"transcript": map[string]interface{}{
			"messages":         atomic.LoadInt64(&c.MessagesAppended),
			"archive_writes":   archiveWrites,
			"avg_write_lat_ms": archiveAvg,
			"max_write_lat_ms": float64(atomic.LoadInt64(&c.ArchiveWriteLatMax)) / 1e6,
			"write_errors":     atomic.LoadInt64(&c.ArchiveWriteErrors),
		},

		"gate": map[string]interface{}{
			"waits":    atomic.LoadInt64(&c.GateWaits),
			"blocked":  atomic.LoadInt64(&c.GateBlocked),
			"timeouts": atomic.LoadInt64(&c.GateTimeouts),
			"acks":     atomic.LoadInt64(&c.GateAcks),
		},

		"websocket": map[string]interface{}{
			"active_connections": atomic.LoadInt64(&c.WSConnectionsActive),
			"messages_in":        atomic.LoadInt64(&c.WSMessagesIn),
			"messages_out":       atomic.LoadInt64(&c.WSMessagesOut),
			"errors":             atomic.LoadInt64(&c.WSErrors),
		},

		"llm": map[string]interface{}{
			"requests":        llmRequests,
			"errors":          atomic.LoadInt64(&c.LLMErrors),
			"tokens_used":     atomic.LoadInt64(&c.LLMTokensUsed),
			"cost_usd":        c.LLMCostUSD,
			"avg_latency_sec": llmAvg,
		},

		"scheduler": map[string]interface{}{
			"agent_actions":  atomic.LoadInt64(&c.AgentActions),
			"agent_failures": atomic.LoadInt64(&c.AgentFailures),
		},
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-cache")

		snapshot := collector.Snapshot()
		json.NewEncoder(w).Encode(snapshot)
	}
}

// PrometheusHandler returns metrics in Prometheus format.
func PrometheusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		c := collector

		fmt.Fprintf(w, "# HELP clueless_games_created Total games created\n")
		fmt.Fprintf(w, "# TYPE clueless_games_created counter\n")
		fmt.Fprintf(w, "clueless_games_created %d\n\n", atomic.LoadInt64(&c.GamesCreated))

		fmt.Fprintf(w, "# HELP clueless_games_finished Total games with a winner\n")
		fmt.Fprintf(w, "# TYPE clueless_games_finished counter\n")
		fmt.Fprintf(w, "clueless_games_finished %d\n\n", atomic.LoadInt64(&c.GamesFinished))

		fmt.Fprintf(w, "# HELP clueless_forfeits Total team forfeits\n")
		fmt.Fprintf(w, "# TYPE clueless_forfeits counter\n")
		fmt.Fprintf(w, "clueless_forfeits %d\n\n", atomic.LoadInt64(&c.Forfeits))

		fmt.Fprintf(w, "# HELP clueless_messages_total Total transcript messages\n")
		fmt.Fprintf(w, "# TYPE clueless_messages_total counter\n")
		fmt.Fprintf(w, "clueless_messages_total %d\n\n", atomic.LoadInt64(&c.MessagesAppended))

		fmt.Fprintf(w, "# HELP clueless_archive_write_errors Total archive write errors\n")
		fmt.Fprintf(w, "# TYPE clueless_archive_write_errors counter\n")
		fmt.Fprintf(w, "clueless_archive_write_errors %d\n\n", atomic.LoadInt64(&c.ArchiveWriteErrors))

		fmt.Fprintf(w, "# HELP clueless_gate_waits_total Total delivery gate waits\n")
		fmt.Fprintf(w, "# TYPE clueless_gate_waits_total counter\n")
		fmt.Fprintf(w, "clueless_gate_waits_total{kind=\"all\"} %d\n", atomic.LoadInt64(&c.GateWaits))
		fmt.Fprintf(w, "clueless_gate_waits_total{kind=\"blocked\"} %d\n", atomic.LoadInt64(&c.GateBlocked))
		fmt.Fprintf(w, "clueless_gate_waits_total{kind=\"timeout\"} %d\n\n", atomic.LoadInt64(&c.GateTimeouts))

		fmt.Fprintf(w, "# HELP clueless_ws_connections Active WebSocket connections\n")
		fmt.Fprintf(w, "# TYPE clueless_ws_connections gauge\n")
		fmt.Fprintf(w, "clueless_ws_connections %d\n\n", atomic.LoadInt64(&c.WSConnectionsActive))

		fmt.Fprintf(w, "# HELP clueless_ws_messages_total Total WebSocket messages\n")
		fmt.Fprintf(w, "# TYPE clueless_ws_messages_total counter\n")
		fmt.Fprintf(w, "clueless_ws_messages_total{direction=\"in\"} %d\n", atomic.LoadInt64(&c.WSMessagesIn))
		fmt.Fprintf(w, "clueless_ws_messages_total{direction=\"out\"} %d\n\n", atomic.LoadInt64(&c.WSMessagesOut))

		fmt.Fprintf(w, "# HELP clueless_llm_requests Total LLM API requests\n")
		fmt.Fprintf(w, "# TYPE clueless_llm_requests counter\n")
		fmt.Fprintf(w, "clueless_llm_requests %d\n\n", atomic.LoadInt64(&c.LLMRequests))

		fmt.Fprintf(w, "# HELP clueless_llm_tokens_used Total tokens consumed\n")
		fmt.Fprintf(w, "# TYPE clueless_llm_tokens_used counter\n")
		fmt.Fprintf(w, "clueless_llm_tokens_used %d\n\n", atomic.LoadInt64(&c.LLMTokensUsed))

		c.mu.RLock()
		fmt.Fprintf(w, "# HELP clueless_llm_cost_usd Total LLM cost in USD\n")
		fmt.Fprintf(w, "# TYPE clueless_llm_cost_usd counter\n")
		fmt.Fprintf(w, "clueless_llm_cost_usd %.4f\n", c.LLMCostUSD)
		c.mu.RUnlock()
	}
}
