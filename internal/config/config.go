package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

type Config struct {
	AgentURL        string
	AgentToken      string
	TeamName        string
	RealtimeBaseURL string
	DBPath          string
	ServerPort      string
	LogLevel        string
	PollInterval    time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		AgentURL:        getEnv("AGENT_WS_URL", "ws://localhost:8080/ws"),
		AgentToken:      getEnv("AGENT_TOKEN", ""),
		TeamName:        getEnv("TEAM_NAME", "spectator"),
		RealtimeBaseURL: getEnv("REALTIME_BASE_URL", "http://localhost:8080"),
		DBPath:          getEnv("DB_PATH", "spectator.db"),
		ServerPort:      getEnv("SERVER_PORT", "8081"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PollInterval:    getDurationEnv("POLL_INTERVAL", time.Second),
	}

	logger.Info().
		Str("agent_url", cfg.AgentURL).
		Str("realtime_base_url", cfg.RealtimeBaseURL).
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Dur("poll_interval", cfg.PollInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
