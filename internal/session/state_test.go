package session

import (
	"testing"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

func fullInfo(day int) *protocol.Info {
	count := 3
	return &protocol.Info{
		GameID: "game-1",
		Day:    day,
		Agent:  "Agent[01]",
		StatusMap: map[string]protocol.Status{
			"Agent[01]": protocol.StatusAlive,
			"Agent[02]": protocol.StatusAlive,
		},
		RoleMap: map[string]protocol.Role{
			"Agent[01]": protocol.RoleSeer,
			"Agent[02]": protocol.RoleWerewolf,
		},
		RemainCount: &count,
	}
}

func TestApplyJudgeAccumulationIsIdempotent(t *testing.T) {
	judge := &protocol.Judge{Day: 1, Agent: "Agent[01]", Target: "Agent[02]", Result: protocol.SpeciesWerewolf}

	state := NewState()
	for i := 0; i < 2; i++ {
		info := fullInfo(1)
		info.DivineResult = judge
		state = Apply(state, &protocol.Packet{Request: protocol.RequestDailyInitialize, Info: info})
	}

	if len(state.DivineResults) != 1 {
		t.Fatalf("expected 1 divine result, got %d", len(state.DivineResults))
	}

	// A different (day, agent) pair accumulates.
	info := fullInfo(2)
	info.DivineResult = &protocol.Judge{Day: 2, Agent: "Agent[01]", Target: "Agent[02]", Result: protocol.SpeciesWerewolf}
	state = Apply(state, &protocol.Packet{Request: protocol.RequestDailyInitialize, Info: info})
	if len(state.DivineResults) != 2 {
		t.Fatalf("expected 2 divine results, got %d", len(state.DivineResults))
	}
}

func TestApplyBroadcastMergesOnlyRemainCount(t *testing.T) {
	state := Apply(NewState(), &protocol.Packet{Request: protocol.RequestInitialize, Info: fullInfo(1)})

	one := 1
	broadcast := &protocol.Info{RemainCount: &one}
	state = Apply(state, &protocol.Packet{Request: protocol.RequestTalkBroadcast, Info: broadcast})

	if state.Info == nil {
		t.Fatal("expected info to survive broadcast")
	}
	if got := *state.Info.RemainCount; got != 1 {
		t.Fatalf("expected remain_count 1, got %d", got)
	}
	if state.Info.GameID != "game-1" {
		t.Fatalf("broadcast clobbered game_id: %q", state.Info.GameID)
	}
	if len(state.Info.RoleMap) != 2 {
		t.Fatalf("broadcast clobbered role_map: %v", state.Info.RoleMap)
	}
}

func TestApplyBroadcastWithoutPriorInfoIsIgnored(t *testing.T) {
	one := 1
	state := Apply(NewState(), &protocol.Packet{
		Request: protocol.RequestTalkBroadcast,
		Info:    &protocol.Info{RemainCount: &one},
	})

	if state.Info != nil {
		t.Fatalf("expected info to stay unset, got %+v", state.Info)
	}
}

func TestApplyHistoryIsMonotonic(t *testing.T) {
	state := NewState()
	slices := [][]protocol.Talk{
		{{Idx: 0, Day: 1, Agent: "Agent[01]", Text: "hi"}},
		{{Idx: 1, Day: 1, Agent: "Agent[02]", Text: "hey"}, {Idx: 2, Day: 1, Agent: "Agent[01]", Text: "yo"}},
		{{Idx: 1, Day: 1, Agent: "Agent[02]", Text: "hey"}}, // duplicate slice still appends
	}

	total := 0
	for _, talks := range slices {
		state = Apply(state, &protocol.Packet{Request: protocol.RequestTalk, TalkHistory: talks})
		total += len(talks)
		if len(state.TalkHistory) != total {
			t.Fatalf("expected %d talks, got %d", total, len(state.TalkHistory))
		}
	}
}

func TestApplyRealtimePhaseToggling(t *testing.T) {
	state := Apply(NewState(), &protocol.Packet{Request: protocol.RequestWhisperStart})
	if !state.IsRealtimePhase || state.RealtimeType != RealtimeWhisper {
		t.Fatalf("expected whisper phase, got %v/%v", state.IsRealtimePhase, state.RealtimeType)
	}

	state = Apply(state, &protocol.Packet{Request: protocol.RequestWhisperEnd})
	if state.IsRealtimePhase || state.RealtimeType != RealtimeNone {
		t.Fatalf("expected phase cleared, got %v/%v", state.IsRealtimePhase, state.RealtimeType)
	}
}

func TestApplyInitializeResolvesIdentity(t *testing.T) {
	info := fullInfo(0)
	info.Profile = "a quiet villager"
	state := Apply(NewState(), &protocol.Packet{Request: protocol.RequestInitialize, Info: info})

	if state.Agent != "Agent[01]" {
		t.Fatalf("expected agent Agent[01], got %q", state.Agent)
	}
	if state.Role != protocol.RoleSeer {
		t.Fatalf("expected role SEER, got %q", state.Role)
	}
	if state.Profile != "a quiet villager" {
		t.Fatalf("expected profile resolved, got %q", state.Profile)
	}
}

func TestApplyAccumulatesExecutedAndAttacked(t *testing.T) {
	state := NewState()

	info := fullInfo(1)
	info.ExecutedAgent = "Agent[02]"
	state = Apply(state, &protocol.Packet{Request: protocol.RequestDailyInitialize, Info: info})

	info = fullInfo(2)
	info.AttackedAgent = "Agent[03]"
	state = Apply(state, &protocol.Packet{Request: protocol.RequestDailyInitialize, Info: info})

	if len(state.ExecutedAgents) != 1 || state.ExecutedAgents[0] != "Agent[02]" {
		t.Fatalf("unexpected executed agents: %v", state.ExecutedAgents)
	}
	if len(state.AttackedAgents) != 1 || state.AttackedAgents[0] != "Agent[03]" {
		t.Fatalf("unexpected attacked agents: %v", state.AttackedAgents)
	}
}
