package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pantry/internal/config"
	"pantry/internal/database"
	"pantry/internal/jobstore"
	"pantry/internal/rabbitmq"
	"pantry/internal/server"
	"pantry/internal/source"
)

func main() {
	configPath := flag.String("config", "config/config.json", "path to the config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	setupLogger(cfg.Logging)
	log.Info().Str("env", cfg.Env).Msg("Starting pantry API")

	db, err := database.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer db.Close(context.Background())
	log.Info().Msg("MongoDB connection established")

	jobs, err := newJobStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize job store")
	}
	defer jobs.Close()

	// Queue mode needs the broker and the staging bucket; inline mode runs
	// jobs as goroutines in this process and needs neither.
	var rabbit rabbitmq.Client
	var files *source.S3Store
	if cfg.Jobs.Mode == "queue" {
		rabbit, err = rabbitmq.NewClientFromConfig(cfg.RabbitMQ)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to RabbitMQ")
		}
		defer rabbit.Close()

		files, err = source.NewS3Store(cfg.S3)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize S3 file store")
		}
		if err := files.TestConnection(); err != nil {
			log.Fatal().Err(err).Msg("S3 bucket is not reachable")
		}
	}

	srv := server.New(*cfg, db, jobs, rabbit, files)

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Forced shutdown")
	}
}

func newJobStore(cfg *config.Config) (jobstore.Store, error) {
	retention := time.Duration(cfg.Import.RetentionHours) * time.Hour

	if cfg.Jobs.JobStore == "redis" {
		return jobstore.NewRedisStore(cfg.Redis, retention)
	}
	return jobstore.NewMemoryStore(retention), nil
}

func setupLogger(config config.LoggingConfig) {
	level, err := zerolog.ParseLevel(config.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	switch config.Format {
	case "json":
		// JSON is the default for zerolog
	case "console", "combined":
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	log.Logger = log.With().Timestamp().Logger()
}
