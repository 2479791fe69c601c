// Package realtime aggregates the recorded game feed: it discovers
// concurrently running games from the server listing, polls each game's
// append-only packet log and tracks which game and packet are current under
// manual-override rules.
package realtime

import (
	"maps"
	"slices"
	"time"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

type State struct {
	Status                  ConnectionStatus                     `json:"status"`
	Entries                 map[string][]protocol.RealtimePacket `json:"entries"`
	GameItems               []protocol.GameItem                  `json:"game_items"`
	CurrentGameID           string                               `json:"current_game_id,omitempty"`
	SelectedPacketIdx       *int                                 `json:"selected_packet_idx,omitempty"`
	IsManualGameSelection   bool                                 `json:"is_manual_game_selection"`
	IsManualPacketSelection bool                                 `json:"is_manual_packet_selection"`
	PreviousEntriesLengths  map[string]int                       `json:"previous_entries_lengths"`
}

func NewState() State {
	return State{
		Status:                 StatusDisconnected,
		Entries:                map[string][]protocol.RealtimePacket{},
		GameItems:              []protocol.GameItem{},
		PreviousEntriesLengths: map[string]int{},
	}
}

// CurrentPacket derives the selected packet, or nil when no game or index
// is selected or the index is out of bounds for the current entry list.
func (s State) CurrentPacket() *protocol.RealtimePacket {
	if s.CurrentGameID == "" || s.SelectedPacketIdx == nil {
		return nil
	}
	packets := s.Entries[s.CurrentGameID]
	idx := *s.SelectedPacketIdx
	if idx < 0 || idx >= len(packets) {
		return nil
	}
	packet := packets[idx]
	return &packet
}

// withCurrentGame switches the current game, resetting the packet selection
// to the game's last packet and clearing the manual packet flag. Explicit
// switches set the manual game flag; auto-follow switches clear it.
func (s State) withCurrentGame(id string, manual bool) State {
	s.CurrentGameID = id
	if packets := s.Entries[id]; len(packets) > 0 {
		idx := len(packets) - 1
		s.SelectedPacketIdx = &idx
	} else {
		s.SelectedPacketIdx = nil
	}
	s.IsManualGameSelection = manual
	s.IsManualPacketSelection = false
	return s
}

func (s State) withEntries(gameID string, packets []protocol.RealtimePacket) State {
	entries := maps.Clone(s.Entries)
	entries[gameID] = packets
	s.Entries = entries

	lengths := maps.Clone(s.PreviousEntriesLengths)
	previous := lengths[gameID]
	lengths[gameID] = len(packets)
	s.PreviousEntriesLengths = lengths

	if gameID == s.CurrentGameID && len(packets) > previous && !s.IsManualPacketSelection {
		idx := len(packets) - 1
		s.SelectedPacketIdx = &idx
	}
	return s
}

// mostRecentGame picks the listing entry with the latest updated_at.
func mostRecentGame(games []protocol.GameItem) protocol.GameItem {
	latest := games[0]
	for _, game := range games[1:] {
		if parseUpdatedAt(game.UpdatedAt).After(parseUpdatedAt(latest.UpdatedAt)) {
			latest = game
		}
	}
	return latest
}

func parseUpdatedAt(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// groupAndSortPackets buckets packets by game id, preserving first-seen
// game order, and sorts each bucket by day ascending, day phase before
// night phase, then sequence index ascending.
func groupAndSortPackets(packets []protocol.RealtimePacket) (map[string][]protocol.RealtimePacket, []string) {
	grouped := map[string][]protocol.RealtimePacket{}
	var order []string
	for _, packet := range packets {
		if _, ok := grouped[packet.ID]; !ok {
			order = append(order, packet.ID)
		}
		grouped[packet.ID] = append(grouped[packet.ID], packet)
	}
	for id := range grouped {
		sortPackets(grouped[id])
	}
	return grouped, order
}

func sortPackets(packets []protocol.RealtimePacket) {
	slices.SortStableFunc(packets, func(a, b protocol.RealtimePacket) int {
		if a.Day != b.Day {
			return a.Day - b.Day
		}
		if a.IsDay != b.IsDay {
			if a.IsDay {
				return -1
			}
			return 1
		}
		return a.Idx - b.Idx
	})
}
