// Package app wires the travel agent services shared by the HTTP server and
// the command line client.
package app

import (
	"context"
	"fmt"

	"travelagent/internal/config"
	"travelagent/internal/logging"
	"travelagent/internal/repository"
	"travelagent/internal/service"

	"github.com/rs/zerolog"
)

// App holds the constructed services and the connections they share
type App struct {
	Config         *config.Config
	Repo           *repository.PostgresRepository
	Cache          *repository.RedisCache
	Router         *service.Router
	Queries        *service.QueryService
	Retrieval      *service.RetrievalEngine
	Accommodations *service.AccommodationService
	Places         *service.PlaceIngestService

	logger zerolog.Logger
}

// New connects to the catalog and builds every service from cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.Component("app")

	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	logger.Info().Msg("connected to PostgreSQL database")

	a := &App{Config: cfg, Repo: repo, logger: logger}

	var geoCache service.GeoCache
	if cfg.Redis.Enabled {
		cache, err := repository.NewRedisCache(ctx, cfg.Redis)
		if err != nil {
			// geocoding still works uncached
			logger.Warn().Err(err).Str("addr", cfg.Redis.Addr()).Msg("redis unavailable, geocode cache disabled")
		} else {
			a.Cache = cache
			geoCache = cache
			logger.Info().Str("addr", cfg.Redis.Addr()).Dur("ttl", cfg.Redis.GeocodeTTL).Msg("geocode cache enabled")
		}
	}

	completer, embedder, err := service.NewAIProvider(&cfg.AI)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create AI provider: %w", err)
	}
	if cfg.AI.Enabled {
		logger.Info().
			Str("provider", cfg.AI.Provider).
			Str("api_base", cfg.AI.APIBase).
			Str("chat_model", cfg.AI.ChatModel).
			Str("embedding_model", cfg.AI.EmbeddingModel).
			Float64("temperature", cfg.AI.ChatTemperature).
			Strs("deployments", cfg.AI.Deployments).
			Msg("AI provider initialized")
	} else {
		logger.Warn().Msg("AI is disabled, set OPENAI_API_KEY to enable query understanding and generation")
	}

	geocoder := service.NewNominatimGeocoder(cfg.Geocoder, geoCache)
	extractor := service.NewIntentExtractor(completer)
	ranker := service.NewRanker(cfg.Retrieval.EmbeddingDimension)

	a.Retrieval = service.NewRetrievalEngine(repo, embedder, ranker)
	a.Accommodations = service.NewAccommodationService(repo, geocoder, completer, cfg.Accommodation)
	a.Places = service.NewPlaceIngestService(repo, geocoder, embedder, cfg.Retrieval.EmbeddingDimension)

	queries := service.NewTravelQueryService(extractor, a.Retrieval, repo, cfg.Retrieval)
	factories := service.DefaultFactories(service.SpecialistDeps{
		Queries:        queries,
		Accommodations: a.Accommodations,
		Completer:      completer,
		Temperature:    cfg.AI.ChatTemperature,
	})

	a.Router, err = service.NewRouter(factories, extractor,
		service.NewModeClassifier(completer),
		service.NewMultiIntentDecomposer(completer),
		service.RouterOptions{
			PoolSize:          cfg.Router.PoolSize,
			DefaultDeployment: cfg.Router.DefaultDeployment,
			Deployments:       cfg.AI.Deployments,
		})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to create router: %w", err)
	}

	a.Queries = service.NewQueryService(a.Router, a.Retrieval, repo, cfg.Retrieval.TopK)

	logger.Info().Msg("services initialized")
	return a, nil
}

// Close waits for pending query logs and releases every connection
func (a *App) Close() {
	if a.Queries != nil {
		a.Queries.Flush()
	}
	if a.Router != nil {
		a.Router.Close()
	}
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("failed to close redis")
		}
	}
	if err := a.Repo.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("failed to close database")
	}
}
