package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	cfg := &config.Config{AgentURL: "ws://localhost:0/ws", TeamName: "testers"}
	return NewClient(cfg, zerolog.Nop())
}

func TestDeadlineExclusivity(t *testing.T) {
	c := newTestClient(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }
	c.actionTimeout = 30 * time.Second

	c.dispatch(&protocol.Packet{Request: protocol.RequestTalk}, base)

	later := base.Add(10 * time.Second)
	c.dispatch(&protocol.Packet{Request: protocol.RequestVote}, later)

	state := c.State().Get()
	if state.Deadline == nil {
		t.Fatal("expected a deadline to be armed")
	}
	want := later.Add(30 * time.Second)
	if !state.Deadline.Equal(want) {
		t.Fatalf("expected deadline %v computed from the VOTE arrival, got %v", want, *state.Deadline)
	}

	c.mu.Lock()
	if c.timer == nil {
		t.Fatal("expected exactly one live timer")
	}
	c.mu.Unlock()

	c.Disconnect()
}

func TestPhaseStartDisarmsDeadline(t *testing.T) {
	c := newTestClient(t)
	base := time.Now()
	c.actionTimeout = time.Minute

	c.dispatch(&protocol.Packet{Request: protocol.RequestTalk}, base)
	if c.State().Get().Deadline == nil {
		t.Fatal("expected deadline after action request")
	}

	c.dispatch(&protocol.Packet{Request: protocol.RequestTalkStart}, base)
	if c.State().Get().Deadline != nil {
		t.Fatal("expected deadline cleared on phase start")
	}

	c.mu.Lock()
	if c.timer != nil {
		t.Fatal("expected timer disarmed on phase start")
	}
	c.mu.Unlock()
}

func TestDeadlineFireClearsDeadline(t *testing.T) {
	c := newTestClient(t)
	c.actionTimeout = 5 * time.Millisecond

	c.dispatch(&protocol.Packet{Request: protocol.RequestVote}, time.Now())

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.State().Get().Deadline == nil {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("expected the fired deadline to clear itself")
}

func TestHandleMessageDropsUndecodableFrame(t *testing.T) {
	c := newTestClient(t)

	c.handleMessage([]byte("{not json"))

	state := c.State().Get()
	if len(state.Entries) != 0 {
		t.Fatalf("expected no entries after bad frame, got %d", len(state.Entries))
	}
	if state.Request != "" {
		t.Fatalf("expected request untouched, got %q", state.Request)
	}
}

func TestHandleMessageCapturesActionTimeout(t *testing.T) {
	c := newTestClient(t)

	c.handleMessage([]byte(`{"request":"DAILY_INITIALIZE","setting":{"agent_count":5,"timeout":{"action":1500,"response":3000}}}`))

	c.mu.Lock()
	got := c.actionTimeout
	c.mu.Unlock()
	if got != 1500*time.Millisecond {
		t.Fatalf("expected action timeout 1.5s, got %v", got)
	}
	if c.State().Get().Setting == nil {
		t.Fatal("expected setting stored")
	}
}

func TestDisconnectIsIdempotent(t *testing.T) {
	c := newTestClient(t)
	c.Disconnect()
	c.Disconnect()

	if got := c.State().Get().Status; got != StatusDisconnected {
		t.Fatalf("expected disconnected, got %q", got)
	}
}
