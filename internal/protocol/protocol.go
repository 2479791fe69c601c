// Package protocol defines the wire types exchanged with the aiwolf-nlp
// game server: the per-agent packet stream, the recorded realtime feed and
// the enumerations shared by both.
package protocol

import "fmt"

type Request string

const (
	RequestName             Request = "NAME"
	RequestTalk             Request = "TALK"
	RequestWhisper          Request = "WHISPER"
	RequestVote             Request = "VOTE"
	RequestDivine           Request = "DIVINE"
	RequestGuard            Request = "GUARD"
	RequestAttack           Request = "ATTACK"
	RequestInitialize       Request = "INITIALIZE"
	RequestDailyInitialize  Request = "DAILY_INITIALIZE"
	RequestDailyFinish      Request = "DAILY_FINISH"
	RequestFinish           Request = "FINISH"
	RequestTalkStart        Request = "TALK_START"
	RequestTalkBroadcast    Request = "TALK_BROADCAST"
	RequestTalkEnd          Request = "TALK_END"
	RequestWhisperStart     Request = "WHISPER_START"
	RequestWhisperBroadcast Request = "WHISPER_BROADCAST"
	RequestWhisperEnd       Request = "WHISPER_END"
)

// IsAction reports whether the request demands a response before the
// server-side action timeout expires.
func (r Request) IsAction() bool {
	switch r {
	case RequestTalk, RequestWhisper, RequestVote, RequestDivine, RequestGuard, RequestAttack:
		return true
	}
	return false
}

// IsBroadcast reports whether the request carries the minimal broadcast
// info snapshot rather than a full one.
func (r Request) IsBroadcast() bool {
	return r == RequestTalkBroadcast || r == RequestWhisperBroadcast
}

type Role string

const (
	RoleWerewolf  Role = "WEREWOLF"
	RolePossessed Role = "POSSESSED"
	RoleSeer      Role = "SEER"
	RoleBodyguard Role = "BODYGUARD"
	RoleVillager  Role = "VILLAGER"
	RoleMedium    Role = "MEDIUM"
)

type Species string

const (
	SpeciesHuman    Species = "HUMAN"
	SpeciesWerewolf Species = "WEREWOLF"
)

type Status string

const (
	StatusAlive Status = "ALIVE"
	StatusDead  Status = "DEAD"
)

type Team string

const (
	TeamVillager Team = "VILLAGER"
	TeamWerewolf Team = "WEREWOLF"
)

var RoleToSpecies = map[Role]Species{
	RoleWerewolf:  SpeciesWerewolf,
	RolePossessed: SpeciesHuman,
	RoleSeer:      SpeciesHuman,
	RoleBodyguard: SpeciesHuman,
	RoleVillager:  SpeciesHuman,
	RoleMedium:    SpeciesHuman,
}

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleWerewolf, RolePossessed, RoleSeer, RoleBodyguard, RoleVillager, RoleMedium:
		return Role(s), true
	}
	return "", false
}

func ParseSpecies(s string) (Species, bool) {
	switch Species(s) {
	case SpeciesHuman, SpeciesWerewolf:
		return Species(s), true
	}
	return "", false
}

func ParseStatus(s string) (Status, bool) {
	switch Status(s) {
	case StatusAlive, StatusDead:
		return Status(s), true
	}
	return "", false
}

func ParseTeam(s string) (Team, bool) {
	switch Team(s) {
	case TeamVillager, TeamWerewolf:
		return Team(s), true
	}
	return "", false
}

// IdxToName renders the canonical zero-padded display name for an agent
// index, e.g. IdxToName(3) == "Agent[03]".
func IdxToName(idx int) string {
	return fmt.Sprintf("Agent[%02d]", idx)
}

type Packet struct {
	Request        Request  `json:"request"`
	Info           *Info    `json:"info,omitempty"`
	Setting        *Setting `json:"setting,omitempty"`
	TalkHistory    []Talk   `json:"talk_history,omitempty"`
	WhisperHistory []Talk   `json:"whisper_history,omitempty"`
}

type Info struct {
	GameID         string            `json:"game_id"`
	Day            int               `json:"day"`
	Agent          string            `json:"agent"`
	Profile        string            `json:"profile,omitempty"`
	MediumResult   *Judge            `json:"medium_result,omitempty"`
	DivineResult   *Judge            `json:"divine_result,omitempty"`
	ExecutedAgent  string            `json:"executed_agent,omitempty"`
	AttackedAgent  string            `json:"attacked_agent,omitempty"`
	VoteList       []Vote            `json:"vote_list,omitempty"`
	AttackVoteList []Vote            `json:"attack_vote_list,omitempty"`
	StatusMap      map[string]Status `json:"status_map,omitempty"`
	RoleMap        map[string]Role   `json:"role_map,omitempty"`
	RemainCount    *int              `json:"remain_count,omitempty"`
	RemainLength   *int              `json:"remain_length,omitempty"`
	RemainSkip     *int              `json:"remain_skip,omitempty"`
}

type Judge struct {
	Day    int     `json:"day"`
	Agent  string  `json:"agent"`
	Target string  `json:"target"`
	Result Species `json:"result"`
}

type Vote struct {
	Day    int    `json:"day"`
	Agent  string `json:"agent"`
	Target string `json:"target"`
}

type Talk struct {
	Idx   int    `json:"idx"`
	Day   int    `json:"day"`
	Turn  int    `json:"turn"`
	Agent string `json:"agent"`
	Text  string `json:"text"`
	Skip  bool   `json:"skip"`
	Over  bool   `json:"over"`
}

type MaxLength struct {
	CountInWord   *bool `json:"count_in_word,omitempty"`
	PerTalk       *int  `json:"per_talk,omitempty"`
	MentionLength *int  `json:"mention_length,omitempty"`
	PerAgent      *int  `json:"per_agent,omitempty"`
	BaseLength    *int  `json:"base_length,omitempty"`
}

type MaxCount struct {
	PerAgent int `json:"per_agent"`
	PerDay   int `json:"per_day"`
}

type TalkSetting struct {
	MaxCount  MaxCount  `json:"max_count"`
	MaxLength MaxLength `json:"max_length"`
	MaxSkip   int       `json:"max_skip"`
}

type VoteSetting struct {
	MaxCount int `json:"max_count"`
}

type AttackVoteSetting struct {
	MaxCount      int  `json:"max_count"`
	AllowNoTarget bool `json:"allow_no_target"`
}

type TimeoutSetting struct {
	// Milliseconds, as announced by the game server.
	Action   int `json:"action"`
	Response int `json:"response"`
}

type Setting struct {
	AgentCount     int               `json:"agent_count"`
	RoleNumMap     map[Role]int      `json:"role_num_map"`
	VoteVisibility bool              `json:"vote_visibility"`
	TalkOnFirstDay bool              `json:"talk_on_first_day"`
	Talk           TalkSetting       `json:"talk"`
	Whisper        TalkSetting       `json:"whisper"`
	Vote           VoteSetting       `json:"vote"`
	AttackVote     AttackVoteSetting `json:"attack_vote"`
	Timeout        TimeoutSetting    `json:"timeout"`
}
