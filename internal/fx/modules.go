package fx

import (
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/api"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/config"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/database"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/logger"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/realtime"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/repository"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/server"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/service"
	"github.com/iggy157/aiwolf-nlp-realtime-system/internal/session"

	"go.uber.org/fx"
)

func ProvideFeed(client *api.FeedClient) realtime.Feed {
	return client
}

var Module = fx.Options(
	fx.Provide(logger.New),
	fx.Provide(config.Load),
	fx.Provide(database.New),
	// repos
	fx.Provide(repository.NewGameRepository),
	// feed client
	fx.Provide(api.NewFeedClient),
	fx.Provide(ProvideFeed),
	// reconstructors
	fx.Provide(session.NewClient),
	fx.Provide(realtime.NewAggregator),
	// svc
	fx.Provide(service.NewReplayService),
	// server
	fx.Provide(server.NewSpectatorServer),
)
