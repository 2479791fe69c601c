package constants

import "time"

const (
	// DefaultActionTimeout applies until a setting packet announces the
	// server's configured action timeout.
	DefaultActionTimeout = 60 * time.Second

	GameListPollInterval = 1 * time.Second
	GamePollInterval     = 1 * time.Second
)

const (
	FeedFetchTimeout = 10 * time.Second
	DatabaseTimeout  = 5 * time.Second
	RequestTimeout   = 30 * time.Second
)

const (
	DBMaxOpenConns    = 100
	DBMaxIdleConns    = 10
	DBConnMaxLifetime = 1 * time.Hour
	DBMaxIdleTime     = 10 * time.Minute
)

const (
	ShutdownTimeout = 5 * time.Second
)

// TimeoutSentinel is the literal payload sent to the game server when an
// action deadline fires without an operator response.
const TimeoutSentinel = "TIMEOUT"
