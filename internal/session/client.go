package session

import (
	"encoding/json"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/constants"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/protocol"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/store"
)

// Client owns the live WebSocket connection and the session state store.
// The read pump delivers one frame at a time, so folds are strictly serial;
// at most one action-deadline timer is outstanding at any moment.
type Client struct {
	cfg    *config.Config
	logger zerolog.Logger
	state  *store.Store[State]

	mu            sync.Mutex
	conn          *websocket.Conn
	timer         *time.Timer
	actionTimeout time.Duration

	now func() time.Time
}

func NewClient(cfg *config.Config, logger zerolog.Logger) *Client {
	return &Client{
		cfg:           cfg,
		logger:        logger.With().Str("component", "session").Logger(),
		state:         store.New(NewState()),
		actionTimeout: constants.DefaultActionTimeout,
		now:           time.Now,
	}
}

// State returns the observable session store.
func (c *Client) State() *store.Store[State] {
	return c.state
}

// Connect dials the configured endpoint, appending the auth token as a
// query parameter when one is set. A previous session's state is replaced
// wholesale.
func (c *Client) Connect() error {
	c.Disconnect()

	endpoint, err := url.Parse(c.cfg.AgentURL)
	if err != nil {
		c.logger.Error().Err(err).Str("url", c.cfg.AgentURL).Msg("invalid agent url")
		return err
	}
	if c.cfg.AgentToken != "" {
		query := endpoint.Query()
		query.Set("token", c.cfg.AgentToken)
		endpoint.RawQuery = query.Encode()
	}

	fresh := NewState()
	fresh.Status = StatusConnecting
	c.state.Set(fresh)

	conn, _, err := websocket.DefaultDialer.Dial(endpoint.String(), nil)
	if err != nil {
		c.logger.Error().Err(err).Str("url", endpoint.String()).Msg("failed to connect")
		c.state.Update(func(s State) State {
			s.Status = StatusDisconnected
			return s
		})
		return err
	}

	c.mu.Lock()
	c.conn = conn
	c.actionTimeout = constants.DefaultActionTimeout
	c.mu.Unlock()

	c.state.Update(func(s State) State {
		s.Status = StatusConnected
		return s
	})
	c.logger.Info().Str("url", endpoint.String()).Msg("connected")

	go c.readPump(conn)
	return nil
}

// Disconnect closes the transport and clears the pending deadline timer.
// Safe to call when already disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.stopTimerLocked()
	c.mu.Unlock()

	if conn != nil {
		if err := conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("close failed")
		}
		c.state.Update(func(s State) State {
			s.Status = StatusDisconnected
			s.Deadline = nil
			return s
		})
		c.logger.Info().Msg("disconnected")
	}
}

// Send transmits one raw payload, records it in the session log and cancels
// any pending action deadline. Send failures are logged, never propagated.
func (c *Client) Send(text string) {
	c.mu.Lock()
	c.stopTimerLocked()
	conn := c.conn
	c.mu.Unlock()

	c.state.Update(func(s State) State {
		s.Deadline = nil
		return s
	})

	if conn == nil {
		c.logger.Warn().Msg("send skipped, not connected")
		return
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte(text)); err != nil {
		c.logger.Error().Err(err).Msg("failed to send message")
		return
	}
	c.state.Update(func(s State) State {
		s.Entries = append(s.Entries, Entry{Sent: text})
		return s
	})
}

func (c *Client) readPump(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.logger.Debug().Err(err).Msg("read loop ended")
			c.Disconnect()
			return
		}
		c.handleMessage(data)
	}
}

func (c *Client) handleMessage(data []byte) {
	received := c.now()

	var packet protocol.Packet
	if err := json.Unmarshal(data, &packet); err != nil {
		// An undecodable frame is dropped; state is not advanced.
		c.logger.Error().Err(err).Msg("failed to parse message")
		return
	}

	c.state.Update(func(s State) State {
		return Apply(s, &packet)
	})

	if packet.Setting != nil && packet.Setting.Timeout.Action > 0 {
		c.mu.Lock()
		c.actionTimeout = time.Duration(packet.Setting.Timeout.Action) * time.Millisecond
		c.mu.Unlock()
	}

	c.dispatch(&packet, received)
}

// dispatch performs the side effects a packet kind demands, after the state
// fold has completed.
func (c *Client) dispatch(packet *protocol.Packet, received time.Time) {
	switch {
	case packet.Request == protocol.RequestName:
		c.Send(c.cfg.TeamName)
	case packet.Request.IsAction():
		c.armDeadline(received)
	case packet.Request == protocol.RequestTalkStart, packet.Request == protocol.RequestWhisperStart:
		// Phase-level timeouts are the server's responsibility; no local
		// deadline runs during a realtime phase.
		c.mu.Lock()
		c.stopTimerLocked()
		c.mu.Unlock()
		c.state.Update(func(s State) State {
			s.Deadline = nil
			return s
		})
	case packet.Request == protocol.RequestFinish:
		c.Disconnect()
	}
}

// armDeadline schedules the timeout sentinel. Arming always supersedes any
// unexpired prior deadline.
func (c *Client) armDeadline(received time.Time) {
	c.mu.Lock()
	c.stopTimerLocked()
	timeout := c.actionTimeout
	deadline := received.Add(timeout)
	c.timer = time.AfterFunc(deadline.Sub(c.now()), func() {
		c.Send(constants.TimeoutSentinel)
	})
	c.mu.Unlock()

	c.state.Update(func(s State) State {
		s.Deadline = &deadline
		return s
	})
}

func (c *Client) stopTimerLocked() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
