package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"
	"go.uber.org/fx"

	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/constants"
	fxmodules "github.com/iggy157/aiwolf-nlp-realtime-system/internal/fx"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/realtime"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/server"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/service"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/session"
)

func main() {
	fx.New(
		fxmodules.Module,
		fx.Invoke(runServer),
	).Run()
}

func runServer(
	lc fx.Lifecycle,
	spectatorServer *server.SpectatorServer,
	sessionClient *session.Client,
	aggregator *realtime.Aggregator,
	replay *service.ReplayService,
	cfg *config.Config,
	db *sql.DB,
	logger zerolog.Logger,
) {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.ServerPort),
		Handler: spectatorServer.Handler(),
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			replay.Watch(aggregator)
			aggregator.Connect()

			go func() {
				logger.Info().Str("addr", srv.Addr).Msg("server starting")
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					logger.Fatal().Err(err).Msg("server failed")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info().Msg("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()

			sessionClient.Disconnect()
			aggregator.Disconnect()
			replay.Stop()

			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
			}

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error().Err(err).Msg("server shutdown failed")
				return err
			}
			logger.Info().Msg("server stopped gracefully")
			return nil
		},
	})
}
