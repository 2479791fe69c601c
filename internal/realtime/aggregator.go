package realtime

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/constants"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/store"
)

// Feed is the slice of the realtime HTTP feed the aggregator needs.
type Feed interface {
	GameList(ctx context.Context) ([]protocol.GameItem, error)
	GamePackets(ctx context.Context, filename string) ([]protocol.RealtimePacket, error)
}

// Aggregator polls the feed and folds fetched packet logs into an
// observable state snapshot.
//
// Fetch completions carry no sequence numbers, so a slow in-flight fetch
// that resolves after a newer poll can overwrite the newer entry list.
// This staleness window is inherited from the upstream viewer and bounded
// by the poll interval.
type Aggregator struct {
	feed     Feed
	logger   zerolog.Logger
	state    *store.Store[State]
	interval time.Duration

	mu          sync.Mutex
	listStop    chan struct{}
	gamePollers map[string]chan struct{}
	lastUpdates map[string]string
}

func NewAggregator(feed Feed, cfg *config.Config, logger zerolog.Logger) *Aggregator {
	interval := constants.GameListPollInterval
	if cfg != nil && cfg.PollInterval > 0 {
		interval = cfg.PollInterval
	}
	return &Aggregator{
		feed:        feed,
		logger:      logger.With().Str("component", "realtime").Logger(),
		state:       store.New(NewState()),
		interval:    interval,
		gamePollers: make(map[string]chan struct{}),
		lastUpdates: make(map[string]string),
	}
}

// State returns the observable aggregator store.
func (a *Aggregator) State() *store.Store[State] {
	return a.state
}

// Connect starts the game-list polling loop. Calling Connect on a running
// aggregator restarts it.
func (a *Aggregator) Connect() {
	a.Disconnect()

	a.state.Update(func(s State) State {
		s.Status = StatusConnecting
		return s
	})

	stop := make(chan struct{})
	a.mu.Lock()
	a.listStop = stop
	a.mu.Unlock()

	go func() {
		ticker := time.NewTicker(a.interval)
		defer ticker.Stop()
		a.pollGameList()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				a.pollGameList()
			}
		}
	}()
}

// Disconnect cancels the list poller and every per-game poller, clearing
// the cached last-update markers. Idempotent.
func (a *Aggregator) Disconnect() {
	a.mu.Lock()
	if a.listStop != nil {
		close(a.listStop)
		a.listStop = nil
	}
	for id, stop := range a.gamePollers {
		close(stop)
		delete(a.gamePollers, id)
		delete(a.lastUpdates, id)
	}
	a.mu.Unlock()

	a.state.Update(func(s State) State {
		s.Status = StatusDisconnected
		return s
	})
}

func (a *Aggregator) pollGameList() {
	ctx, cancel := context.WithTimeout(context.Background(), constants.FeedFetchTimeout)
	defer cancel()

	games, err := a.feed.GameList(ctx)
	if err != nil {
		a.logger.Warn().Err(err).Msg("failed to fetch game list")
		a.state.Update(func(s State) State {
			s.Status = StatusConnecting
			return s
		})
		return
	}

	a.reconcilePollers(games)

	a.state.Update(func(s State) State {
		target := s.CurrentGameID
		if len(games) > 0 {
			if s.CurrentGameID == "" || (!s.IsManualGameSelection && len(games) > len(s.GameItems)) {
				target = mostRecentGame(games).ID
			}
		}
		s.Status = StatusConnected
		s.GameItems = games
		if target != s.CurrentGameID {
			s = s.withCurrentGame(target, false)
		}
		return s
	})
}

// reconcilePollers diffs the listed game ids against the tracked ones:
// vanished games stop polling, new games start.
func (a *Aggregator) reconcilePollers(games []protocol.GameItem) {
	listed := make(map[string]protocol.GameItem, len(games))
	for _, game := range games {
		listed[game.ID] = game
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	for id, stop := range a.gamePollers {
		if _, ok := listed[id]; !ok {
			close(stop)
			delete(a.gamePollers, id)
			delete(a.lastUpdates, id)
			a.logger.Debug().Str("game_id", id).Msg("game vanished, polling stopped")
		}
	}

	for _, game := range games {
		if _, ok := a.gamePollers[game.ID]; ok {
			continue
		}
		stop := make(chan struct{})
		a.gamePollers[game.ID] = stop
		a.logger.Debug().Str("game_id", game.ID).Str("filename", game.Filename).Msg("game discovered, polling started")
		go a.runGamePoller(game, stop)
	}
}

func (a *Aggregator) runGamePoller(game protocol.GameItem, stop chan struct{}) {
	a.initialFetch(game)

	ticker := time.NewTicker(constants.GamePollInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.pollGame(game.ID, game.Filename)
		}
	}
}

func (a *Aggregator) initialFetch(game protocol.GameItem) {
	packets := a.fetchPackets(game.Filename)
	if len(packets) > 0 {
		a.state.Update(func(s State) State {
			return s.withEntries(game.ID, packets)
		})
	}
	a.mu.Lock()
	a.lastUpdates[game.ID] = game.UpdatedAt
	a.mu.Unlock()
}

// pollGame refetches the listing and, only when the game's updated_at
// marker moved, replaces the cached entry list wholesale.
func (a *Aggregator) pollGame(gameID, filename string) {
	ctx, cancel := context.WithTimeout(context.Background(), constants.FeedFetchTimeout)
	games, err := a.feed.GameList(ctx)
	cancel()
	if err != nil {
		a.logger.Debug().Err(err).Str("game_id", gameID).Msg("poll listing failed")
		return
	}

	var game *protocol.GameItem
	for i := range games {
		if games[i].ID == gameID {
			game = &games[i]
			break
		}
	}
	if game == nil {
		return
	}

	a.mu.Lock()
	last := a.lastUpdates[gameID]
	a.mu.Unlock()
	if game.UpdatedAt == last {
		return
	}

	packets := a.fetchPackets(filename)
	if len(packets) > 0 {
		a.state.Update(func(s State) State {
			return s.withEntries(gameID, packets)
		})
	}

	a.mu.Lock()
	a.lastUpdates[gameID] = game.UpdatedAt
	a.mu.Unlock()
}

func (a *Aggregator) fetchPackets(filename string) []protocol.RealtimePacket {
	ctx, cancel := context.WithTimeout(context.Background(), constants.FeedFetchTimeout)
	defer cancel()

	packets, err := a.feed.GamePackets(ctx, filename)
	if err != nil {
		a.logger.Warn().Err(err).Str("filename", filename).Msg("failed to fetch game packets")
		return nil
	}
	return packets
}

// SwitchToGame makes the given game current. A manual switch suppresses
// auto-follow until the flag is cleared by a forced auto-switch.
func (a *Aggregator) SwitchToGame(gameID string, manual bool) {
	a.state.Update(func(s State) State {
		return s.withCurrentGame(gameID, manual)
	})
}

// SelectPacket selects a packet index within the current game.
func (a *Aggregator) SelectPacket(idx int, manual bool) {
	a.state.Update(func(s State) State {
		s.SelectedPacketIdx = &idx
		s.IsManualPacketSelection = manual
		return s
	})
}

// LoadFromText ingests newline-delimited JSON packets, replacing the whole
// aggregator state. Ingestion is all-or-nothing: one malformed line leaves
// the state unchanged.
func (a *Aggregator) LoadFromText(text string) error {
	packets, err := protocol.ParseJSONL(text)
	if err != nil {
		a.logger.Error().Err(err).Msg("bulk import rejected")
		return fmt.Errorf("bulk import rejected: %w", err)
	}
	if len(packets) == 0 {
		return fmt.Errorf("bulk import rejected: no packets")
	}

	grouped, order := groupAndSortPackets(packets)
	now := time.Now().UTC().Format(time.RFC3339)

	a.state.Update(func(s State) State {
		items := make([]protocol.GameItem, 0, len(order))
		lengths := make(map[string]int, len(order))
		for _, id := range order {
			items = append(items, protocol.GameItem{ID: id, Filename: id, UpdatedAt: now})
			lengths[id] = len(grouped[id])
		}

		s.Entries = grouped
		s.GameItems = items
		s.PreviousEntriesLengths = lengths
		s.IsManualGameSelection = false
		s.IsManualPacketSelection = false
		s.CurrentGameID = order[0]
		idx := len(grouped[order[0]]) - 1
		s.SelectedPacketIdx = &idx
		return s
	})

	a.logger.Info().Int("packets", len(packets)).Int("games", len(order)).Msg("bulk import loaded")
	return nil
}

// LoadFromFiles reads the given files concurrently and ingests each as its
// own all-or-nothing batch, in argument order.
func (a *Aggregator) LoadFromFiles(paths []string) error {
	texts := make([]string, len(paths))
	g := new(errgroup.Group)
	for i, path := range paths {
		g.Go(func() error {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("read %s: %w", path, err)
			}
			texts[i] = string(data)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		a.logger.Error().Err(err).Msg("bulk file import failed")
		return err
	}

	for i, text := range texts {
		if err := a.LoadFromText(text); err != nil {
			return fmt.Errorf("%s: %w", paths[i], err)
		}
	}
	return nil
}
