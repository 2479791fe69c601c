package protocol

// RealtimePacket is one line of a recorded game's JSONL feed. The server
// appends a packet for every visible event; a packet carries the full agent
// roster as of that event.
type RealtimePacket struct {
	ID        string          `json:"id"`
	Idx       int             `json:"idx"`
	Day       int             `json:"day"`
	IsDay     bool            `json:"is_day"`
	Agents    []RealtimeAgent `json:"agents"`
	Event     string          `json:"event"`
	Message   *string         `json:"message,omitempty"`
	FromIdx   *int            `json:"from_idx,omitempty"`
	ToIdx     *int            `json:"to_idx,omitempty"`
	BubbleIdx *int            `json:"bubble_idx,omitempty"`
}

type RealtimeAgent struct {
	Idx     int    `json:"idx"`
	Team    string `json:"team"`
	Name    string `json:"name"`
	Profile string `json:"profile,omitempty"`
	Avatar  string `json:"avatar,omitempty"`
	Role    string `json:"role"`
	IsAlive bool   `json:"is_alive"`
}

// GameItem is one entry of the realtime feed's games.json listing.
type GameItem struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	UpdatedAt string `json:"updated_at"`
}

// DefaultRealtimeAgents builds a roster of n placeholder agents used before
// the first packet of a game has been observed.
func DefaultRealtimeAgents(n int) []RealtimeAgent {
	agents := make([]RealtimeAgent, n)
	for i := range agents {
		agents[i] = RealtimeAgent{
			Idx:     i + 1,
			Team:    "Undefined",
			Name:    IdxToName(i + 1),
			Role:    "Undefined",
			IsAlive: true,
		}
	}
	return agents
}
