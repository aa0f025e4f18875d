// Package jobstore tracks import job status. The pipeline and the HTTP layer
// depend only on the Store interface; the memory backend serves
// single-instance deployments and the Redis backend multi-instance ones.
package jobstore

import (
	"context"
	"errors"

	"pantry/internal/model"
)

// ErrNotFound is returned when a job id is unknown to the store.
var ErrNotFound = errors.New("job not found")

// Store is a mutable mapping from job id to ImportJob. Entries are created at
// submission and updated in place throughout processing; concurrent jobs are
// independent entries.
type Store interface {
	// Create registers a new job. The job's ID must already be set.
	Create(ctx context.Context, job *model.ImportJob) error

	// Get returns a snapshot of a job by id, or ErrNotFound.
	Get(ctx context.Context, id string) (*model.ImportJob, error)

	// Update applies mutate to the stored job atomically with respect to
	// other updates of the same id.
	Update(ctx context.Context, id string, mutate func(*model.ImportJob)) error

	// List returns up to limit jobs, most recently created first.
	List(ctx context.Context, limit int) ([]*model.ImportJob, error)

	// Health tests the backing store.
	Health(ctx context.Context) error

	// Close releases resources used by the store.
	Close() error
}
