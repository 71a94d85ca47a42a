package main

import (
	"FlowForge/internal/config"
	"FlowForge/internal/model"
	"FlowForge/internal/query"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type fakeQuerier struct {
	summaries []query.LabelSummary
}

func (f *fakeQuerier) SummarizeLabels(_ context.Context, _, _ time.Time) ([]query.LabelSummary, error) {
	return f.summaries, nil
}

func (f *fakeQuerier) TopSources(_ context.Context, _ time.Time, limit int) ([]query.TopSource, error) {
	return []query.TopSource{{SrcIP: "10.0.0.1", FlowCount: 3, TotalBytes: 900}}, nil
}

func newTestHandler(t *testing.T, querier query.Querier) *APIHandler {
	t.Helper()
	cfg := &config.Config{
		Simulator: config.SimulatorConfig{Seed: 1, BatchSize: 20, TickInterval: "1s", BenignRate: 50},
	}
	h, err := NewAPIHandler(cfg, querier)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return h
}

func TestGenerateHandler(t *testing.T) {
	h := newTestHandler(t, nil)

	body := `{"mode":"single_attack","count":40,"seed":7,"attack":"DDoS","intensity":0.5,"duration_seconds":60}`
	req := httptest.NewRequest("POST", "/api/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.generateHandler(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Mode  string             `json:"mode"`
		Count int                `json:"count"`
		Flows []model.FlowRecord `json:"flows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Mode != "single_attack" || resp.Count != 40 || len(resp.Flows) != 40 {
		t.Errorf("unexpected response: mode=%s count=%d flows=%d", resp.Mode, resp.Count, len(resp.Flows))
	}
}

func TestGenerateHandlerRejections(t *testing.T) {
	h := newTestHandler(t, nil)

	cases := []struct {
		name string
		body string
	}{
		{"unknown mode", `{"mode":"chaos","count":10,"seed":1}`},
		{"zero count", `{"mode":"steady","count":0,"seed":1}`},
		{"unknown attack", `{"mode":"single_attack","count":10,"seed":1,"attack":"Meteor","intensity":0.5}`},
		{"bad weights", `{"mode":"mixed_threats","count":10,"seed":1,"weights":{"Benign":-1}}`},
	}
	for _, tc := range cases {
		req := httptest.NewRequest("POST", "/api/v1/generate", strings.NewReader(tc.body))
		rec := httptest.NewRecorder()
		h.generateHandler(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", tc.name, rec.Code)
		}
	}
}

func TestSessionHandlers(t *testing.T) {
	h := newTestHandler(t, nil)

	// Tick before start conflicts with the stopped state.
	rec := httptest.NewRecorder()
	h.sessionTickHandler(rec, httptest.NewRequest("POST", "/api/v1/session/tick", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for tick on stopped session, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.sessionStartHandler(rec, httptest.NewRequest("POST", "/api/v1/session/start", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on start, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.sessionTickHandler(rec, httptest.NewRequest("POST", "/api/v1/session/tick", strings.NewReader(`{"count":15}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on tick, got %d: %s", rec.Code, rec.Body.String())
	}
	var tick struct {
		Flows []model.FlowRecord `json:"flows"`
		State string             `json:"state"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &tick); err != nil {
		t.Fatalf("failed to decode tick response: %v", err)
	}
	if len(tick.Flows) != 15 || tick.State != "baseline" {
		t.Errorf("unexpected tick: flows=%d state=%s", len(tick.Flows), tick.State)
	}

	// Inject an attack and confirm the status reflects it.
	rec = httptest.NewRecorder()
	h.attackStartHandler(rec, httptest.NewRequest("POST", "/api/v1/session/attack/start",
		strings.NewReader(`{"attack":"PortScan","duration_seconds":30}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on attack start, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	h.sessionStatusHandler(rec, httptest.NewRequest("GET", "/api/v1/session/status", nil))
	var status map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status["state"] != "attack_active" || status["active_attack"] != "PortScan" {
		t.Errorf("unexpected status: %v", status)
	}

	rec = httptest.NewRecorder()
	h.attackStartHandler(rec, httptest.NewRequest("POST", "/api/v1/session/attack/start",
		strings.NewReader(`{"attack":"Tsunami","duration_seconds":30}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown attack, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.sessionStopHandler(rec, httptest.NewRequest("POST", "/api/v1/session/stop", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on stop, got %d", rec.Code)
	}
}

func TestLiveStreamSingleClient(t *testing.T) {
	cfg := &config.Config{
		Simulator: config.SimulatorConfig{Seed: 1, BatchSize: 5, TickInterval: "20ms", BenignRate: 50},
	}
	h, err := NewAPIHandler(cfg, nil)
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	h.session.Start()

	server := httptest.NewServer(http.HandlerFunc(h.liveHandler))
	defer server.Close()
	url := "ws" + strings.TrimPrefix(server.URL, "http")

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("first client failed to connect: %v", err)
	}
	defer conn.Close()

	var result struct {
		Flows []model.FlowRecord `json:"flows"`
		State string             `json:"state"`
	}
	if err := conn.ReadJSON(&result); err != nil {
		t.Fatalf("failed to read tick result: %v", err)
	}
	if len(result.Flows) != 5 || result.State != "baseline" {
		t.Errorf("unexpected tick result: flows=%d state=%s", len(result.Flows), result.State)
	}

	// A second concurrent client would double the generation rate and
	// split the stream; it must be turned away instead.
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("second concurrent client should be rejected")
	}
	if resp == nil || resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for second client, got %+v", resp)
	}
	resp.Body.Close()
}

func TestFlowSummaryHandler(t *testing.T) {
	h := newTestHandler(t, nil)

	rec := httptest.NewRecorder()
	h.flowSummaryHandler(rec, httptest.NewRequest("GET", "/api/v1/flows/summary", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without storage, got %d", rec.Code)
	}

	h = newTestHandler(t, &fakeQuerier{summaries: []query.LabelSummary{
		{Label: "Benign", FlowCount: 100},
		{Label: "DDoS", FlowCount: 40},
	}})

	rec = httptest.NewRecorder()
	h.flowSummaryHandler(rec, httptest.NewRequest("GET", "/api/v1/flows/summary?since=2026-01-01T00:00:00Z", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var summaries []query.LabelSummary
	if err := json.Unmarshal(rec.Body.Bytes(), &summaries); err != nil {
		t.Fatalf("failed to decode summaries: %v", err)
	}
	if len(summaries) != 2 {
		t.Errorf("expected 2 summaries, got %d", len(summaries))
	}

	rec = httptest.NewRecorder()
	h.flowSummaryHandler(rec, httptest.NewRequest("GET", "/api/v1/flows/summary?since=not-a-time", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed since, got %d", rec.Code)
	}
}
