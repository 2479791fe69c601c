package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParseJSONL decodes newline-delimited realtime packets. Decoding is
// all-or-nothing: a single malformed line fails the whole batch so a
// partial log is never applied.
func ParseJSONL(text string) ([]RealtimePacket, error) {
	var packets []RealtimePacket
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var packet RealtimePacket
		if err := json.Unmarshal([]byte(line), &packet); err != nil {
			return nil, fmt.Errorf("line %d: %w", i+1, err)
		}
		packets = append(packets, packet)
	}
	return packets, nil
}
