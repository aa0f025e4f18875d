package controller

import (
	"context"

	"pantry/internal/database"
	"pantry/internal/jobstore"
)

type ServerController interface {
	DBHealth() error
	JobStoreHealth() error
	Online() string
}

type serverController struct {
	db   database.Database
	jobs jobstore.Store
}

func NewServer(db database.Database, jobs jobstore.Store) ServerController {
	return &serverController{
		db:   db,
		jobs: jobs,
	}
}

func (sc *serverController) Online() string {
	return "Online"
}

func (sc *serverController) DBHealth() error {
	return sc.db.Health()
}

func (sc *serverController) JobStoreHealth() error {
	return sc.jobs.Health(context.TODO())
}
