package jobstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"pantry/internal/model"
)

// MemoryStore is the in-process Store backend. Terminal jobs are swept once
// they are older than the retention period, so the map cannot grow without
// bound under long uptimes; retention 0 disables sweeping.
type MemoryStore struct {
	mu        sync.RWMutex
	jobs      map[string]*model.ImportJob
	retention time.Duration
}

func NewMemoryStore(retention time.Duration) *MemoryStore {
	return &MemoryStore{
		jobs:      make(map[string]*model.ImportJob),
		retention: retention,
	}
}

// Create implements Store.
func (s *MemoryStore) Create(_ context.Context, job *model.ImportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(time.Now())

	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// Get implements Store. It returns a copy so callers can read the snapshot
// without racing the running job's updates.
func (s *MemoryStore) Get(_ context.Context, id string) (*model.ImportJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}

	snapshot := *job
	return &snapshot, nil
}

// Update implements Store.
func (s *MemoryStore) Update(_ context.Context, id string, mutate func(*model.ImportJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}

	mutate(job)
	job.UpdatedAt = time.Now()
	return nil
}

// List implements Store.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*model.ImportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweep(time.Now())

	jobs := make([]*model.ImportJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		snapshot := *job
		jobs = append(jobs, &snapshot)
	}

	sort.Slice(jobs, func(i, j int) bool {
		return jobs[i].CreatedAt.After(jobs[j].CreatedAt)
	})

	if limit > 0 && len(jobs) > limit {
		jobs = jobs[:limit]
	}
	return jobs, nil
}

// Health implements Store.
func (s *MemoryStore) Health(_ context.Context) error { return nil }

// Close implements Store.
func (s *MemoryStore) Close() error { return nil }

// sweep drops terminal jobs past the retention period. Callers hold the
// write lock.
func (s *MemoryStore) sweep(now time.Time) {
	if s.retention <= 0 {
		return
	}
	for id, job := range s.jobs {
		if !job.Status.IsTerminal() {
			continue
		}
		if now.Sub(job.UpdatedAt) > s.retention {
			delete(s.jobs, id)
		}
	}
}
