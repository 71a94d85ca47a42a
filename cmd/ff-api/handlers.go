package main

import (
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"FlowForge/internal/query"
	"FlowForge/internal/simulator"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// APIHandler holds the dependencies for API handlers. The session is
// guarded by a mutex because the router serves handlers concurrently.
type APIHandler struct {
	cfg     *config.Config
	querier query.Querier

	mu      sync.Mutex
	session *simulator.Session

	// The session has a single logical owner, so only one live stream
	// client may drive ticks at a time.
	liveMu     sync.Mutex
	liveActive bool

	tickInterval time.Duration
	upgrader     websocket.Upgrader
}

// NewAPIHandler creates the handler set with a fresh stopped session.
func NewAPIHandler(cfg *config.Config, querier query.Querier) (*APIHandler, error) {
	session, err := simulator.NewSession(simulator.Steady(cfg.Simulator.BenignRate), cfg.Simulator.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	interval, err := time.ParseDuration(cfg.Simulator.TickInterval)
	if err != nil {
		return nil, fmt.Errorf("invalid tick_interval: %w", err)
	}

	h := &APIHandler{
		cfg:          cfg,
		querier:      querier,
		session:      session,
		tickInterval: interval,
	}
	h.upgrader = websocket.Upgrader{CheckOrigin: h.checkOrigin}
	return h, nil
}

// checkOrigin admits configured origins; an empty list admits all.
func (h *APIHandler) checkOrigin(r *http.Request) bool {
	if len(h.cfg.API.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	for _, allowed := range h.cfg.API.AllowedOrigins {
		if origin == allowed {
			return true
		}
	}
	return false
}

// generateRequest selects a generation mode and batch parameters.
type generateRequest struct {
	Mode            string                   `json:"mode"`
	Count           int                      `json:"count"`
	Seed            int64                    `json:"seed"`
	BenignRate      float64                  `json:"benign_rate,omitempty"`
	Attack          model.Label              `json:"attack,omitempty"`
	Intensity       float64                  `json:"intensity,omitempty"`
	DurationSeconds float64                  `json:"duration_seconds,omitempty"`
	Weights         map[model.Label]float64  `json:"weights,omitempty"`
	Schedule        []simulator.AttackWindow `json:"schedule,omitempty"`
}

// buildMode maps a generate request onto a simulator mode.
func buildMode(req *generateRequest) (simulator.Mode, error) {
	switch req.Mode {
	case "steady", "":
		return simulator.Steady(req.BenignRate), nil
	case "single_attack":
		duration := time.Duration(req.DurationSeconds * float64(time.Second))
		mode := simulator.SingleAttack(req.Attack, req.Intensity, duration)
		mode.BenignRate = req.BenignRate
		return mode, nil
	case "mixed_threats":
		return simulator.MixedThreats(req.Weights)
	case "daily_cycle":
		return simulator.DailyCycle(req.BenignRate, req.Schedule), nil
	default:
		return simulator.Mode{}, fmt.Errorf("%w: unknown mode %q", simulator.ErrInvalidConfiguration, req.Mode)
	}
}

// generateHandler produces a one-shot batch of flow records.
func (h *APIHandler) generateHandler(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}

	mode, err := buildMode(&req)
	if err != nil {
		writeSimulatorError(w, err)
		return
	}

	flows, err := simulator.GenerateBatch(mode, req.Count, req.Seed)
	if err != nil {
		writeSimulatorError(w, err)
		return
	}

	writeJSON(w, map[string]interface{}{
		"mode":  mode.Kind.String(),
		"count": len(flows),
		"flows": flows,
	})
}

func (h *APIHandler) sessionStartHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session.Start()
	resp := h.statusLocked()
	h.mu.Unlock()
	writeJSON(w, resp)
}

func (h *APIHandler) sessionStopHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session.Stop()
	resp := h.statusLocked()
	h.mu.Unlock()
	writeJSON(w, resp)
}

// attackRequest names the attack class to inject and how long it lasts.
type attackRequest struct {
	Attack          model.Label `json:"attack"`
	DurationSeconds float64     `json:"duration_seconds"`
}

func (h *APIHandler) attackStartHandler(w http.ResponseWriter, r *http.Request) {
	var req attackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
		return
	}

	duration := time.Duration(req.DurationSeconds * float64(time.Second))

	h.mu.Lock()
	err := h.session.StartAttack(req.Attack, duration)
	resp := h.statusLocked()
	h.mu.Unlock()

	if err != nil {
		writeSimulatorError(w, err)
		return
	}
	writeJSON(w, resp)
}

func (h *APIHandler) attackStopHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	h.session.StopAttack()
	resp := h.statusLocked()
	h.mu.Unlock()
	writeJSON(w, resp)
}

// tickRequest overrides the configured batch size for one tick.
type tickRequest struct {
	Count int `json:"count"`
}

func (h *APIHandler) sessionTickHandler(w http.ResponseWriter, r *http.Request) {
	req := tickRequest{Count: h.cfg.Simulator.BatchSize}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, fmt.Sprintf("failed to decode request: %v", err), http.StatusBadRequest)
			return
		}
	}

	h.mu.Lock()
	result, err := h.session.Tick(req.Count)
	h.mu.Unlock()

	if err != nil {
		writeSimulatorError(w, err)
		return
	}
	writeJSON(w, result)
}

func (h *APIHandler) sessionStatusHandler(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	resp := h.statusLocked()
	h.mu.Unlock()
	writeJSON(w, resp)
}

// statusLocked snapshots the session; the caller holds the mutex.
func (h *APIHandler) statusLocked() map[string]interface{} {
	status := map[string]interface{}{
		"session_id": h.session.ID(),
		"state":      h.session.State().String(),
		"records":    h.session.Records(),
	}
	if attack := h.session.ActiveAttack(); attack != "" {
		status["active_attack"] = attack
	}
	return status
}

// flowSummaryHandler aggregates stored flows per label over a window.
func (h *APIHandler) flowSummaryHandler(w http.ResponseWriter, r *http.Request) {
	if h.querier == nil {
		http.Error(w, "flow storage is not configured", http.StatusServiceUnavailable)
		return
	}

	since, until, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	summaries, err := h.querier.SummarizeLabels(r.Context(), since, until)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query flows: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, summaries)
}

// topSourcesHandler ranks source addresses by flow count.
func (h *APIHandler) topSourcesHandler(w http.ResponseWriter, r *http.Request) {
	if h.querier == nil {
		http.Error(w, "flow storage is not configured", http.StatusServiceUnavailable)
		return
	}

	since, _, err := parseWindow(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	limit := 10
	if s := r.URL.Query().Get("limit"); s != "" {
		limit, err = strconv.Atoi(s)
		if err != nil {
			http.Error(w, fmt.Sprintf("invalid limit: %v", err), http.StatusBadRequest)
			return
		}
	}

	sources, err := h.querier.TopSources(r.Context(), since, limit)
	if err != nil {
		http.Error(w, fmt.Sprintf("failed to query flows: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, sources)
}

// liveHandler upgrades to a websocket and streams tick results until
// the client disconnects or the session stops. A second concurrent
// client is rejected rather than doubling the generation rate.
func (h *APIHandler) liveHandler(w http.ResponseWriter, r *http.Request) {
	if !h.acquireLive() {
		http.Error(w, "live stream already has a client", http.StatusConflict)
		return
	}
	defer h.releaseLive()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()
	log.Printf("Live stream client connected from %s", conn.RemoteAddr())

	ticker := time.NewTicker(h.tickInterval)
	defer ticker.Stop()

	for range ticker.C {
		h.mu.Lock()
		result, err := h.session.Tick(h.cfg.Simulator.BatchSize)
		h.mu.Unlock()

		if errors.Is(err, simulator.ErrSessionStopped) {
			conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session stopped"),
				time.Now().Add(time.Second))
			return
		}
		if err != nil {
			log.Printf("Error ticking session for live stream: %v", err)
			return
		}

		if err := conn.WriteJSON(result); err != nil {
			log.Printf("Live stream client disconnected: %v", err)
			return
		}
	}
}

func (h *APIHandler) acquireLive() bool {
	h.liveMu.Lock()
	defer h.liveMu.Unlock()
	if h.liveActive {
		return false
	}
	h.liveActive = true
	return true
}

func (h *APIHandler) releaseLive() {
	h.liveMu.Lock()
	h.liveActive = false
	h.liveMu.Unlock()
}

// parseWindow reads optional RFC 3339 since/until query parameters.
func parseWindow(r *http.Request) (since, until time.Time, err error) {
	if s := r.URL.Query().Get("since"); s != "" {
		since, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid since: %v", err)
		}
	}
	if s := r.URL.Query().Get("until"); s != "" {
		until, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid until: %v", err)
		}
	}
	return since, until, nil
}

// writeSimulatorError maps simulator errors onto HTTP status codes.
func writeSimulatorError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if errors.Is(err, simulator.ErrInvalidConfiguration) {
		status = http.StatusBadRequest
	} else if errors.Is(err, simulator.ErrSessionStopped) {
		status = http.StatusConflict
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}
