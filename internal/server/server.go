package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"pantry/internal/config"
	"pantry/internal/controller"
	"pantry/internal/database"
	"pantry/internal/jobstore"
	"pantry/internal/rabbitmq"
	"pantry/internal/source"
)

type Server struct {
	sc     controller.ServerController
	ic     controller.ImportController
	fc     controller.FoodController
	config config.Config
}

func New(cfg config.Config, db database.Database, jobs jobstore.Store, rabbit rabbitmq.Client, files *source.S3Store) *http.Server {
	sc := controller.NewServer(db, jobs)

	ic := controller.NewImportController(db, jobs, rabbit, files, cfg.RabbitMQ, cfg.Import, cfg.Jobs.Mode == "queue")
	ic.ProcessJobs(context.Background()) // Starts consuming queued jobs when in queue mode

	fc := controller.NewFoodController(db)

	server := Server{
		sc:     sc,
		ic:     ic,
		fc:     fc,
		config: cfg,
	}

	return &http.Server{
		Addr:         fmt.Sprintf(":%v", cfg.Port),
		Handler:      server.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}
