// Package main provides a CLI tool for importing bibliographic seed files.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/helixir/screening-service/internal/config"
	"github.com/helixir/screening-service/internal/database"
	"github.com/helixir/screening-service/internal/events"
	"github.com/helixir/screening-service/internal/importer"
	"github.com/helixir/screening-service/internal/observability"
	"github.com/helixir/screening-service/internal/repository"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	file := flag.String("file", "", "Path to the JSON seed file to import")
	timeout := flag.Duration("timeout", 5*time.Minute, "Overall timeout for the import")
	flag.Parse()

	if *file == "" {
		flag.Usage()
		return fmt.Errorf("a seed file is required: -file papers.json")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Console logging for the CLI tool.
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      "info",
		Format:     "console",
		Output:     "stdout",
		AddSource:  false,
		TimeFormat: time.RFC3339,
	})
	logger = logger.With().Str("component", "import").Logger()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()
	logger.Info().Msg("database connection established")

	paperRepo := repository.NewPgPaperRepository(db)

	opts := []importer.Option{}
	if cfg.Kafka.Enabled {
		publisher := events.NewPublisher(events.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.Topic,
			BatchTimeout: cfg.Kafka.BatchTimeout,
		}, logger)
		defer func() {
			if closeErr := publisher.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close event publisher")
			}
		}()
		opts = append(opts, importer.WithPublisher(publisher))
	}

	imp := importer.New(paperRepo, logger, opts...)

	result, err := imp.ImportFile(ctx, *file)
	if err != nil {
		return fmt.Errorf("import %s: %w", *file, err)
	}

	logger.Info().
		Str("file", *file).
		Int("total", result.Total).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Msg("import finished")
	return nil
}
