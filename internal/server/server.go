// Package server exposes the reconstructed state projections to the
// rendering layer as a JSON HTTP API. Consumers only ever read complete
// snapshots; no endpoint mutates core state directly.
package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/archive"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/middleware"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/realtime"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/service"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/session"
)

type SpectatorServer struct {
	session    *session.Client
	aggregator *realtime.Aggregator
	replay     *service.ReplayService
	logger     zerolog.Logger
}

func NewSpectatorServer(
	sessionClient *session.Client,
	aggregator *realtime.Aggregator,
	replay *service.ReplayService,
	logger zerolog.Logger,
) *SpectatorServer {
	return &SpectatorServer{
		session:    sessionClient,
		aggregator: aggregator,
		replay:     replay,
		logger:     logger.With().Str("component", "server").Logger(),
	}
}

// Handler builds the full route table wrapped with CORS and request-id
// middleware.
func (s *SpectatorServer) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/session", s.getSession)
	mux.HandleFunc("POST /api/session/connect", s.sessionConnect)
	mux.HandleFunc("POST /api/session/disconnect", s.sessionDisconnect)
	mux.HandleFunc("POST /api/session/send", s.sessionSend)

	mux.HandleFunc("GET /api/realtime", s.getRealtime)
	mux.HandleFunc("GET /api/realtime/current", s.getCurrentPacket)
	mux.HandleFunc("POST /api/realtime/connect", s.realtimeConnect)
	mux.HandleFunc("POST /api/realtime/disconnect", s.realtimeDisconnect)
	mux.HandleFunc("POST /api/realtime/switch", s.realtimeSwitch)
	mux.HandleFunc("POST /api/realtime/select", s.realtimeSelect)
	mux.HandleFunc("POST /api/realtime/import", s.realtimeImport)

	mux.HandleFunc("POST /api/archive", s.archiveFold)

	mux.HandleFunc("GET /api/replay/games", s.listRecordedGames)
	mux.HandleFunc("GET /api/replay/games/{id}", s.getRecordedGame)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	return middleware.RequestID(s.logger)(c.Handler(mux))
}

func (s *SpectatorServer) getSession(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.session.State().Get())
}

func (s *SpectatorServer) sessionConnect(w http.ResponseWriter, r *http.Request) {
	if err := s.session.Connect(); err != nil {
		s.writeError(w, http.StatusBadGateway, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) sessionDisconnect(w http.ResponseWriter, r *http.Request) {
	s.session.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) sessionSend(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.session.Send(req.Text)
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) getRealtime(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.aggregator.State().Get())
}

func (s *SpectatorServer) getCurrentPacket(w http.ResponseWriter, r *http.Request) {
	packet := s.aggregator.State().Get().CurrentPacket()
	if packet == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	s.writeJSON(w, http.StatusOK, packet)
}

func (s *SpectatorServer) realtimeConnect(w http.ResponseWriter, r *http.Request) {
	s.aggregator.Connect()
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) realtimeDisconnect(w http.ResponseWriter, r *http.Request) {
	s.aggregator.Disconnect()
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) realtimeSwitch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		GameID string `json:"game_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.GameID == "" {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.aggregator.SwitchToGame(req.GameID, true)
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) realtimeSelect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Idx int `json:"idx"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	s.aggregator.SelectPacket(req.Idx, true)
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) realtimeImport(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := s.aggregator.LoadFromText(string(body)); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *SpectatorServer) archiveFold(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	days, skipped := archive.ParseLog(string(body), s.logger)
	s.writeJSON(w, http.StatusOK, map[string]any{
		"days":    days,
		"skipped": skipped,
	})
}

func (s *SpectatorServer) listRecordedGames(w http.ResponseWriter, r *http.Request) {
	games, err := s.replay.ListGames(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, games)
}

func (s *SpectatorServer) getRecordedGame(w http.ResponseWriter, r *http.Request) {
	packets, err := s.replay.GamePackets(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	if len(packets) == 0 {
		s.writeError(w, http.StatusNotFound, nil)
		return
	}
	s.writeJSON(w, http.StatusOK, packets)
}

func (s *SpectatorServer) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}

func (s *SpectatorServer) writeError(w http.ResponseWriter, status int, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	s.writeJSON(w, status, map[string]string{"error": msg})
}
