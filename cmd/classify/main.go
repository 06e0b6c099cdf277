// Command classify runs one classification run from the command line and
// prints the response payload as JSON. Useful against a local sqlite
// database without standing up the HTTP service.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/csinsight/ticket-classifier/internal/aggregate"
	"github.com/csinsight/ticket-classifier/internal/bootstrap"
	"github.com/csinsight/ticket-classifier/internal/classifier"
	"github.com/csinsight/ticket-classifier/internal/config"
	"github.com/csinsight/ticket-classifier/internal/database"
	"github.com/csinsight/ticket-classifier/internal/domain"
	"github.com/csinsight/ticket-classifier/internal/logger"
	"github.com/csinsight/ticket-classifier/internal/logging"
	"github.com/csinsight/ticket-classifier/internal/runner"
)

func main() {
	var (
		configPath = flag.String("config", "config.yml", "path to config file")
		userID     = flag.Int64("user", 1, "user id for the run")
		fileID     = flag.Int64("file", 0, "classify tickets of this file id (default: latest)")
		batchID    = flag.Int64("batch", 0, "classify tickets of this batch id")
		engine     = flag.String("engine", "", "classification engine (rule_based or ml)")
	)
	flag.Parse()

	if err := run(*configPath, *userID, *fileID, *batchID, *engine); err != nil {
		fmt.Fprintf(os.Stderr, "classify: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, userID, fileID, batchID int64, engine string) error {
	if fileID != 0 && batchID != 0 {
		return fmt.Errorf("-file and -batch are mutually exclusive")
	}

	cfg, err := config.Load(config.GetConfigPath(configPath))
	if err != nil {
		return err
	}

	log := logging.NewAdapter(logger.Must(logger.Config{Level: cfg.Logging.Level}))

	db, err := database.Connect(cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	categoriesRepo := database.NewCategoriesRepository(db)
	ticketsRepo := database.NewTicketsRepository(db)

	if cfg.Database.Driver == "sqlite3" {
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		if err := categoriesRepo.Seed(ctx); err != nil {
			return err
		}
	}

	target := domain.Target{FileID: fileID, BatchID: batchID}
	if fileID == 0 && batchID == 0 {
		latest, err := ticketsRepo.LatestFileID(ctx)
		if err != nil {
			return err
		}
		target = domain.Target{FileID: latest}
	}

	rules := classifier.DefaultRuleTable()
	r := runner.New(
		ticketsRepo,
		categoriesRepo,
		database.NewRunsRepository(db),
		bootstrap.NewEngineFactory(rules, cfg.Classification.ML, nil, log),
		aggregate.NewEngine(log),
		log,
		runner.WithConcurrency(cfg.Service.Concurrency),
	)

	if engine == "" {
		engine = cfg.Classification.DefaultEngine
	}
	payload, err := r.Run(ctx, runner.Request{UserID: userID, Target: target, Engine: engine})
	if err != nil {
		return err
	}

	out, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
