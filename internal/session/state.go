// Package session reconstructs one agent's view of a single in-progress
// game from its WebSocket packet stream. Every inbound packet is folded
// into an immutable snapshot; side effects (deadline timer, auto replies,
// disconnect on finish) are dispatched after the fold.
package session

import (
	"time"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

type ConnectionStatus string

const (
	StatusDisconnected ConnectionStatus = "disconnected"
	StatusConnecting   ConnectionStatus = "connecting"
	StatusConnected    ConnectionStatus = "connected"
)

type RealtimeType string

const (
	RealtimeNone    RealtimeType = "none"
	RealtimeTalk    RealtimeType = "talk"
	RealtimeWhisper RealtimeType = "whisper"
)

// Entry is one element of the session log: either a packet received from
// the server or a raw payload sent to it.
type Entry struct {
	Sent     string           `json:"sent,omitempty"`
	Received *protocol.Packet `json:"received,omitempty"`
}

type State struct {
	Status          ConnectionStatus  `json:"status"`
	Deadline        *time.Time        `json:"deadline,omitempty"`
	Entries         []Entry           `json:"entries"`
	Agent           string            `json:"agent,omitempty"`
	Role            protocol.Role     `json:"role,omitempty"`
	Profile         string            `json:"profile,omitempty"`
	Request         protocol.Request  `json:"request,omitempty"`
	Info            *protocol.Info    `json:"info,omitempty"`
	MediumResults   []protocol.Judge  `json:"medium_results"`
	DivineResults   []protocol.Judge  `json:"divine_results"`
	Setting         *protocol.Setting `json:"setting,omitempty"`
	TalkHistory     []protocol.Talk   `json:"talk_history"`
	WhisperHistory  []protocol.Talk   `json:"whisper_history"`
	ExecutedAgents  []string          `json:"executed_agents"`
	AttackedAgents  []string          `json:"attacked_agents"`
	IsRealtimePhase bool              `json:"is_realtime_phase"`
	RealtimeType    RealtimeType      `json:"realtime_type"`
}

func NewState() State {
	return State{
		Status:       StatusDisconnected,
		RealtimeType: RealtimeNone,
	}
}

// Apply folds one inbound packet into the state. The returned snapshot
// shares unmodified slices with its predecessor; modified ones are
// append-extended, never rewritten in place.
func Apply(state State, packet *protocol.Packet) State {
	next := state
	next.Entries = append(state.Entries, Entry{Received: packet})
	next.Request = packet.Request

	switch packet.Request {
	case protocol.RequestTalkStart:
		next.IsRealtimePhase = true
		next.RealtimeType = RealtimeTalk
	case protocol.RequestWhisperStart:
		next.IsRealtimePhase = true
		next.RealtimeType = RealtimeWhisper
	case protocol.RequestTalkEnd, protocol.RequestWhisperEnd:
		next.IsRealtimePhase = false
		next.RealtimeType = RealtimeNone
	}

	if packet.Info != nil {
		if packet.Request.IsBroadcast() {
			// A broadcast carries a minimal info snapshot; only the remain
			// count may overwrite the prior full snapshot. Without a prior
			// snapshot the broadcast info is ignored entirely.
			if state.Info != nil {
				info := *state.Info
				if packet.Info.RemainCount != nil {
					info.RemainCount = packet.Info.RemainCount
				}
				next.Info = &info
			}
		} else {
			next.Info = packet.Info

			if judge := packet.Info.MediumResult; judge != nil {
				next.MediumResults = appendJudge(state.MediumResults, *judge)
			}
			if judge := packet.Info.DivineResult; judge != nil {
				next.DivineResults = appendJudge(state.DivineResults, *judge)
			}
			if packet.Info.ExecutedAgent != "" {
				next.ExecutedAgents = append(state.ExecutedAgents, packet.Info.ExecutedAgent)
			}
			if packet.Info.AttackedAgent != "" {
				next.AttackedAgents = append(state.AttackedAgents, packet.Info.AttackedAgent)
			}
		}
	}

	if packet.Setting != nil {
		next.Setting = packet.Setting
	}

	if len(packet.TalkHistory) > 0 {
		next.TalkHistory = append(state.TalkHistory, packet.TalkHistory...)
	}
	if len(packet.WhisperHistory) > 0 {
		next.WhisperHistory = append(state.WhisperHistory, packet.WhisperHistory...)
	}

	if packet.Request == protocol.RequestInitialize && next.Info != nil {
		next.Agent = next.Info.Agent
		next.Role = next.Info.RoleMap[next.Info.Agent]
		next.Profile = next.Info.Profile
	}

	return next
}

// appendJudge accumulates idempotently: a judge with an already-seen
// (day, agent) pair is discarded.
func appendJudge(judges []protocol.Judge, judge protocol.Judge) []protocol.Judge {
	for _, j := range judges {
		if j.Day == judge.Day && j.Agent == judge.Agent {
			return judges
		}
	}
	return append(judges, judge)
}
