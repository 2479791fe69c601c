// Package archive folds a complete comma-delimited game log into per-day
// snapshots. The fold is pure: all lines are known upfront and the result
// is never mutated afterwards.
package archive

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

type Agent struct {
	Role         protocol.Role   `json:"role"`
	Status       protocol.Status `json:"status"`
	OriginalName string          `json:"original_name"`
	GameName     string          `json:"game_name"`
}

type Talk struct {
	TalkIdx  string `json:"talk_idx"`
	TurnIdx  string `json:"turn_idx"`
	AgentIdx string `json:"agent_idx"`
	Text     string `json:"text"`
}

type Vote struct {
	AgentIdx  string `json:"agent_idx"`
	TargetIdx string `json:"target_idx"`
}

type Execution struct {
	AgentIdx string        `json:"agent_idx"`
	Role     protocol.Role `json:"role"`
}

type Divine struct {
	AgentIdx  string           `json:"agent_idx"`
	TargetIdx string           `json:"target_idx"`
	Result    protocol.Species `json:"result"`
}

type Guard struct {
	AgentIdx  string `json:"agent_idx"`
	TargetIdx string `json:"target_idx"`
	Result    string `json:"result"`
}

type Attack struct {
	TargetIdx string `json:"target_idx"`
	Result    bool   `json:"result"`
}

type Result struct {
	Villagers  string        `json:"villagers"`
	Werewolves string        `json:"werewolves"`
	WinSide    protocol.Team `json:"win_side"`
}

// DayStatus is the folded view of a single day key. Whispers recorded
// before the day's first talk land in BeforeWhisper, later ones in
// AfterWhisper; the split depends on processing order within the day, not
// on an explicit phase marker.
type DayStatus struct {
	Agents        map[string]Agent `json:"agents"`
	BeforeWhisper []Talk           `json:"before_whisper"`
	Talks         []Talk           `json:"talks"`
	Votes         []Vote           `json:"votes"`
	Execution     *Execution       `json:"execution"`
	Divine        *Divine          `json:"divine"`
	AfterWhisper  []Talk           `json:"after_whisper"`
	Guard         *Guard           `json:"guard"`
	AttackVotes   []Vote           `json:"attack_votes"`
	Attack        *Attack          `json:"attack"`
	Result        *Result          `json:"result"`
}

func newDayStatus() *DayStatus {
	return &DayStatus{
		Agents:        make(map[string]Agent),
		BeforeWhisper: []Talk{},
		Talks:         []Talk{},
		Votes:         []Vote{},
		AfterWhisper:  []Talk{},
		AttackVotes:   []Vote{},
	}
}

// ParseLog folds a full log into day snapshots keyed by the day field of
// each line. Lines with an unrecognized record type are ignored; lines
// whose enum fields match no known value are skipped and counted. The
// second return value is the number of skipped lines.
func ParseLog(data string, logger zerolog.Logger) (map[string]*DayStatus, int) {
	result := make(map[string]*DayStatus)
	skipped := 0

	for _, line := range strings.Split(data, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 2 {
			logger.Warn().Str("line", line).Msg("archive line too short")
			skipped++
			continue
		}
		day, kind, rest := fields[0], fields[1], fields[2:]
		if result[day] == nil {
			result[day] = newDayStatus()
		}
		if err := applyLine(result[day], kind, rest); err != nil {
			logger.Warn().Err(err).Str("day", day).Str("type", kind).Msg("archive line skipped")
			skipped++
		}
	}

	return result, skipped
}
