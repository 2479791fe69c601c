package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/constants"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/realtime"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/repository"
)

// ReplayService records every game the aggregator observes so finished
// games remain available after the feed rotates them out or the process
// restarts.
type ReplayService struct {
	repo   *repository.GameRepository
	logger zerolog.Logger

	mu          sync.Mutex
	persisted   map[string]int
	unsubscribe func()
}

func NewReplayService(repo *repository.GameRepository, logger zerolog.Logger) *ReplayService {
	return &ReplayService{
		repo:      repo,
		logger:    logger.With().Str("component", "replay").Logger(),
		persisted: make(map[string]int),
	}
}

// Watch subscribes to the aggregator store and persists games whose packet
// logs grew since the last flush.
func (s *ReplayService) Watch(agg *realtime.Aggregator) {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.mu.Unlock()

	unsubscribe := agg.State().Subscribe(func(state realtime.State) {
		s.flush(state)
	})

	s.mu.Lock()
	s.unsubscribe = unsubscribe
	s.mu.Unlock()
}

// Stop detaches from the aggregator. Idempotent.
func (s *ReplayService) Stop() {
	s.mu.Lock()
	if s.unsubscribe != nil {
		s.unsubscribe()
		s.unsubscribe = nil
	}
	s.mu.Unlock()
}

func (s *ReplayService) flush(state realtime.State) {
	items := make(map[string]protocol.GameItem, len(state.GameItems))
	for _, item := range state.GameItems {
		items[item.ID] = item
	}

	var dirty []protocol.GameItem
	s.mu.Lock()
	for id, packets := range state.Entries {
		if len(packets) == s.persisted[id] {
			continue
		}
		s.persisted[id] = len(packets)
		item, ok := items[id]
		if !ok {
			item = protocol.GameItem{ID: id, Filename: id}
		}
		dirty = append(dirty, item)
	}
	s.mu.Unlock()

	if len(dirty) == 0 {
		return
	}

	g := new(errgroup.Group)
	for _, item := range dirty {
		packets := state.Entries[item.ID]
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), constants.DatabaseTimeout)
			defer cancel()
			return s.repo.Upsert(ctx, item, packets)
		})
	}

	go func() {
		if err := g.Wait(); err != nil {
			s.logger.Error().Err(err).Msg("failed to record game")
		}
	}()
}

// ListGames returns the recorded game metadata.
func (s *ReplayService) ListGames(ctx context.Context) ([]repository.RecordedGame, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.List(ctx)
}

// GamePackets returns a recorded game's packet log.
func (s *ReplayService) GamePackets(ctx context.Context, gameID string) ([]protocol.RealtimePacket, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()
	return s.repo.Packets(ctx, gameID)
}
