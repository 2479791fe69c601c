package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/database"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/realtime"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/repository"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/service"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/session"
)

func newTestServer(t *testing.T) (*SpectatorServer, *realtime.Aggregator) {
	t.Helper()
	logger := zerolog.Nop()
	cfg := &config.Config{
		AgentURL: "ws://localhost:0/ws",
		TeamName: "testers",
		DBPath:   filepath.Join(t.TempDir(), "test.db"),
	}

	db, err := database.New(cfg, logger)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	repo := repository.NewGameRepository(db, logger)
	replay := service.NewReplayService(repo, logger)
	aggregator := realtime.NewAggregator(nil, cfg, logger)
	t.Cleanup(aggregator.Disconnect)
	sessionClient := session.NewClient(cfg, logger)

	return NewSpectatorServer(sessionClient, aggregator, replay, logger), aggregator
}

func TestGetSessionSnapshot(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/session", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "disconnected" {
		t.Fatalf("expected disconnected, got %q", body.Status)
	}
}

func TestRealtimeImportAndCurrentPacket(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	// No selection yet.
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realtime/current", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 before import, got %d", rec.Code)
	}

	lines := strings.Join([]string{
		`{"id":"g1","idx":0,"day":1,"is_day":true,"agents":[],"event":"talk","message":"first"}`,
		`{"id":"g1","idx":1,"day":1,"is_day":true,"agents":[],"event":"talk","message":"last"}`,
	}, "\n")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/realtime/import", strings.NewReader(lines)))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for import, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/realtime/current", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 after import, got %d", rec.Code)
	}
	var packet struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&packet); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if packet.Message != "last" {
		t.Fatalf("expected the last packet selected, got %q", packet.Message)
	}
}

func TestRealtimeImportRejectsMalformedBatch(t *testing.T) {
	srv, aggregator := newTestServer(t)
	handler := srv.Handler()

	body := "{\"id\":\"g1\",\"idx\":0,\"day\":1,\"is_day\":true,\"agents\":[],\"event\":\"talk\"}\nnot json"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/realtime/import", strings.NewReader(body)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if len(aggregator.State().Get().Entries) != 0 {
		t.Fatal("expected aggregator state unchanged")
	}
}

func TestArchiveFold(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	log := "1,whisper,0,0,0,hi\n1,talk,0,0,1,hey\n1,whisper,1,0,2,bye"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/archive", strings.NewReader(log)))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Days map[string]struct {
			BeforeWhisper []struct {
				Text string `json:"text"`
			} `json:"before_whisper"`
			AfterWhisper []struct {
				Text string `json:"text"`
			} `json:"after_whisper"`
		} `json:"days"`
		Skipped int `json:"skipped"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	day := body.Days["1"]
	if len(day.BeforeWhisper) != 1 || day.BeforeWhisper[0].Text != "hi" {
		t.Fatalf("unexpected before whispers: %+v", day.BeforeWhisper)
	}
	if len(day.AfterWhisper) != 1 || day.AfterWhisper[0].Text != "bye" {
		t.Fatalf("unexpected after whispers: %+v", day.AfterWhisper)
	}
}

func TestSwitchRequiresGameID(t *testing.T) {
	srv, _ := newTestServer(t)
	handler := srv.Handler()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/realtime/switch", strings.NewReader(`{}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing game_id, got %d", rec.Code)
	}
}
