// Command httpd runs the ticket classifier HTTP service.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/csinsight/ticket-classifier/internal/bootstrap"
	"github.com/csinsight/ticket-classifier/internal/config"
	"github.com/csinsight/ticket-classifier/internal/logger"
)

const defaultConfigPath = "config.yml"

func main() {
	cfg, err := config.Load(config.GetConfigPath(defaultConfigPath))
	if err != nil {
		logger.Must(logger.Config{}).Fatal("failed to load config", logger.Error(err))
	}

	log := logger.Must(logger.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Service.Debug,
		OutputPaths: cfg.Logging.OutputPaths,
	})
	defer func() { _ = log.Sync() }()

	log.Info("starting ticket classifier",
		logger.String("service", cfg.Service.Name),
		logger.String("version", cfg.Service.Version),
		logger.Int("port", cfg.Service.Port),
	)

	comps, err := bootstrap.NewHTTPComponents(context.Background(), cfg, log)
	if err != nil {
		log.Fatal("failed to initialize service", logger.Error(err))
	}
	defer func() { _ = comps.Close() }()

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- comps.Server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil {
			log.Fatal("server error", logger.Error(err))
		}
	case sig := <-shutdown:
		log.Info("shutdown signal received", logger.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Service.ShutdownTimeout)
		defer cancel()

		if err := comps.Server.Shutdown(ctx); err != nil {
			log.Fatal("graceful shutdown failed", logger.Error(err))
		}
		log.Info("server stopped gracefully")
	}
}
