package archive

import (
	"fmt"
	"strconv"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
)

// field returns the positional field or "" when the line is shorter than
// the record type expects; the original logs omit trailing empty fields.
func field(rest []string, i int) string {
	if i < len(rest) {
		return rest[i]
	}
	return ""
}

func applyLine(day *DayStatus, kind string, rest []string) error {
	switch kind {
	case "status":
		return applyStatus(day, rest)
	case "talk":
		day.Talks = append(day.Talks, talkRecord(rest))
	case "vote":
		day.Votes = append(day.Votes, Vote{AgentIdx: field(rest, 0), TargetIdx: field(rest, 1)})
	case "execute":
		role, ok := protocol.ParseRole(field(rest, 1))
		if !ok {
			return fmt.Errorf("unknown role %q", field(rest, 1))
		}
		day.Execution = &Execution{AgentIdx: field(rest, 0), Role: role}
	case "divine":
		species, ok := protocol.ParseSpecies(field(rest, 2))
		if !ok {
			return fmt.Errorf("unknown species %q", field(rest, 2))
		}
		day.Divine = &Divine{AgentIdx: field(rest, 0), TargetIdx: field(rest, 1), Result: species}
	case "whisper":
		entry := talkRecord(rest)
		if len(day.Talks) > 0 {
			day.AfterWhisper = append(day.AfterWhisper, entry)
		} else {
			day.BeforeWhisper = append(day.BeforeWhisper, entry)
		}
	case "guard":
		day.Guard = &Guard{AgentIdx: field(rest, 0), TargetIdx: field(rest, 1), Result: field(rest, 2)}
	case "attackVote":
		day.AttackVotes = append(day.AttackVotes, Vote{AgentIdx: field(rest, 0), TargetIdx: field(rest, 1)})
	case "attack":
		day.Attack = &Attack{TargetIdx: field(rest, 0), Result: field(rest, 1) == "true"}
	case "result":
		team, ok := protocol.ParseTeam(field(rest, 2))
		if !ok {
			return fmt.Errorf("unknown team %q", field(rest, 2))
		}
		day.Result = &Result{Villagers: field(rest, 0), Werewolves: field(rest, 1), WinSide: team}
	default:
		// Unrecognized record types are ignored for forward compatibility.
	}
	return nil
}

func applyStatus(day *DayStatus, rest []string) error {
	idx := field(rest, 0)
	role, ok := protocol.ParseRole(field(rest, 1))
	if !ok {
		return fmt.Errorf("unknown role %q", field(rest, 1))
	}
	status, ok := protocol.ParseStatus(field(rest, 2))
	if !ok {
		return fmt.Errorf("unknown status %q", field(rest, 2))
	}
	gameName := field(rest, 4)
	if gameName == "" {
		gameName = defaultName(idx)
	}
	day.Agents[idx] = Agent{
		Role:         role,
		Status:       status,
		OriginalName: field(rest, 3),
		GameName:     gameName,
	}
	return nil
}

func talkRecord(rest []string) Talk {
	return Talk{
		TalkIdx:  field(rest, 0),
		TurnIdx:  field(rest, 1),
		AgentIdx: field(rest, 2),
		Text:     field(rest, 3),
	}
}

func defaultName(idx string) string {
	if n, err := strconv.Atoi(idx); err == nil {
		return protocol.IdxToName(n)
	}
	return fmt.Sprintf("Agent[%s]", idx)
}
