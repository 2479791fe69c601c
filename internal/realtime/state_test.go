package realtime

import (
	"testing"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

func packet(id string, day int, isDay bool, idx int) protocol.RealtimePacket {
	return protocol.RealtimePacket{ID: id, Day: day, IsDay: isDay, Idx: idx, Event: "talk"}
}

func TestSortPacketsDayPhaseThenIndex(t *testing.T) {
	packets := []protocol.RealtimePacket{
		packet("g", 1, true, 2),
		packet("g", 1, false, 0),
		packet("g", 1, true, 0),
	}

	sortPackets(packets)

	want := []struct {
		day   int
		isDay bool
		idx   int
	}{
		{1, true, 0},
		{1, true, 2},
		{1, false, 0},
	}
	for i, w := range want {
		got := packets[i]
		if got.Day != w.day || got.IsDay != w.isDay || got.Idx != w.idx {
			t.Fatalf("position %d: expected (%d,%v,%d), got (%d,%v,%d)",
				i, w.day, w.isDay, w.idx, got.Day, got.IsDay, got.Idx)
		}
	}
}

func TestSortPacketsOrdersAcrossDays(t *testing.T) {
	packets := []protocol.RealtimePacket{
		packet("g", 2, true, 0),
		packet("g", 1, false, 3),
		packet("g", 1, true, 1),
	}

	sortPackets(packets)

	if packets[0].Day != 1 || !packets[0].IsDay {
		t.Fatalf("expected day 1 daytime first, got %+v", packets[0])
	}
	if packets[2].Day != 2 {
		t.Fatalf("expected day 2 last, got %+v", packets[2])
	}
}

func TestGroupAndSortPacketsPreservesFirstSeenOrder(t *testing.T) {
	packets := []protocol.RealtimePacket{
		packet("b", 1, true, 0),
		packet("a", 1, true, 0),
		packet("b", 1, true, 1),
	}

	grouped, order := groupAndSortPackets(packets)

	if len(order) != 2 || order[0] != "b" || order[1] != "a" {
		t.Fatalf("unexpected group order: %v", order)
	}
	if len(grouped["b"]) != 2 || len(grouped["a"]) != 1 {
		t.Fatalf("unexpected group sizes: b=%d a=%d", len(grouped["b"]), len(grouped["a"]))
	}
}

func TestCurrentPacketBounds(t *testing.T) {
	state := NewState()
	if state.CurrentPacket() != nil {
		t.Fatal("expected nil packet with no selection")
	}

	state.Entries = map[string][]protocol.RealtimePacket{
		"g": {packet("g", 1, true, 0)},
	}
	state.CurrentGameID = "g"

	idx := 0
	state.SelectedPacketIdx = &idx
	if state.CurrentPacket() == nil {
		t.Fatal("expected packet at index 0")
	}

	out := 5
	state.SelectedPacketIdx = &out
	if state.CurrentPacket() != nil {
		t.Fatal("expected nil packet for out-of-bounds index")
	}
}

func TestWithEntriesAutoAdvancesOnGrowth(t *testing.T) {
	state := NewState()
	state.CurrentGameID = "g"

	state = state.withEntries("g", []protocol.RealtimePacket{packet("g", 1, true, 0)})
	if state.SelectedPacketIdx == nil || *state.SelectedPacketIdx != 0 {
		t.Fatalf("expected selection at 0, got %v", state.SelectedPacketIdx)
	}

	state = state.withEntries("g", []protocol.RealtimePacket{
		packet("g", 1, true, 0), packet("g", 1, true, 1),
	})
	if *state.SelectedPacketIdx != 1 {
		t.Fatalf("expected auto-advance to 1, got %d", *state.SelectedPacketIdx)
	}

	// A manual packet selection suppresses auto-advance.
	manual := 0
	state.SelectedPacketIdx = &manual
	state.IsManualPacketSelection = true
	state = state.withEntries("g", []protocol.RealtimePacket{
		packet("g", 1, true, 0), packet("g", 1, true, 1), packet("g", 1, false, 0),
	})
	if *state.SelectedPacketIdx != 0 {
		t.Fatalf("expected manual selection kept, got %d", *state.SelectedPacketIdx)
	}
}
