// Package bootstrap wires configuration, storage, engines, and the HTTP
// surface into runnable components.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/api"
	"github.com/csinsight/ticket-classifier/internal/classifier"
	"github.com/csinsight/ticket-classifier/internal/config"
	"github.com/csinsight/ticket-classifier/internal/database"
	"github.com/csinsight/ticket-classifier/internal/insights"
	"github.com/csinsight/ticket-classifier/internal/logger"
	"github.com/csinsight/ticket-classifier/internal/logging"
	"github.com/csinsight/ticket-classifier/internal/runner"
	"github.com/csinsight/ticket-classifier/internal/server"
	"github.com/csinsight/ticket-classifier/internal/telemetry"
)

// Components holds everything the httpd entrypoint needs.
type Components struct {
	Config    *config.Config
	DB        *sqlx.DB
	Runner    *runner.Runner
	Handler   *api.Handler
	Server    *server.Server
	Telemetry *telemetry.Provider
	Log       *logging.Adapter
}

// NewHTTPComponents builds the full HTTP service. The sqlite driver gets its
// schema ensured and categories seeded so a fresh local database works out of
// the box; postgres schemas are managed by migrations.
func NewHTTPComponents(ctx context.Context, cfg *config.Config, baseLog logger.Logger) (*Components, error) {
	log := logging.NewAdapter(baseLog)

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("setup database: %w", err)
	}
	log.Info("database connected", "driver", cfg.Database.Driver)

	categoriesRepo := database.NewCategoriesRepository(db)
	ticketsRepo := database.NewTicketsRepository(db)
	runsRepo := database.NewRunsRepository(db)

	if cfg.Database.Driver == "sqlite3" {
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		if err := categoriesRepo.Seed(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	provider := telemetry.NewProvider()

	rules := classifier.DefaultRuleTable()
	factory := NewEngineFactory(rules, cfg.Classification.ML, provider, log)
	aggregator := aggregate.NewEngine(log)

	run := runner.New(
		ticketsRepo,
		categoriesRepo,
		runsRepo,
		factory,
		aggregator,
		log,
		runner.WithConcurrency(cfg.Service.Concurrency),
		runner.WithTelemetry(provider),
	)

	// With insights disabled the generator still exists and serves the
	// template fallback.
	apiKey := cfg.Insights.APIKey
	if !cfg.Insights.Enabled {
		apiKey = ""
	}
	insightsGen := insights.NewGenerator(insights.Config{
		APIKey:        apiKey,
		Model:         cfg.Insights.Model,
		MaxTokens:     cfg.Insights.MaxTokens,
		RatePerMinute: cfg.Insights.RatePerMinute,
	}, provider, log)

	handler := api.NewHandler(
		run,
		rules,
		ticketsRepo,
		categoriesRepo,
		runsRepo,
		insightsGen,
		db,
		cfg.Classification.DefaultEngine,
		cfg.Service.Name,
		cfg.Service.Version,
		log,
	)

	router := api.NewRouter(cfg.Service.Debug, log)
	api.SetupRoutes(router, handler, provider.Handler())

	return &Components{
		Config:    cfg,
		DB:        db,
		Runner:    run,
		Handler:   handler,
		Server:    server.New(cfg.Service.Port, router),
		Telemetry: provider,
		Log:       log,
	}, nil
}

// Close releases held resources.
func (c *Components) Close() error {
	return c.DB.Close()
}
