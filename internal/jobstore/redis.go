package jobstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"pantry/internal/config"
	"pantry/internal/model"
)

// RedisStore implements Store on Redis so multiple API instances can serve
// status polls for jobs another instance is running. Jobs are stored as JSON
// values under a key prefix with a TTL; an index sorted set keeps creation
// order for List. A job is only ever written by the single worker running it,
// so Update is a plain read-modify-write.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed job store and verifies the connection.
func NewRedisStore(cfg config.RedisConfig, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Error().Err(err).Msg("Failed to connect to Redis")
		return nil, err
	}

	log.Info().
		Str("address", cfg.Address).
		Str("prefix", cfg.Prefix).
		Int("db", cfg.DB).
		Dur("ttl", ttl).
		Msg("Redis job store initialized")

	return &RedisStore{
		client: client,
		prefix: cfg.Prefix,
		ttl:    ttl,
	}, nil
}

func (s *RedisStore) jobKey(id string) string {
	return s.prefix + ":import:job:" + id
}

func (s *RedisStore) indexKey() string {
	return s.prefix + ":import:jobs"
}

// Create implements Store.
func (s *RedisStore) Create(ctx context.Context, job *model.ImportJob) error {
	now := time.Now()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now

	if err := s.write(ctx, job); err != nil {
		return err
	}

	err := s.client.ZAdd(ctx, s.indexKey(), redis.Z{
		Score:  float64(job.CreatedAt.UnixMilli()),
		Member: job.ID,
	}).Err()
	if err != nil {
		log.Error().Err(err).Str("jobID", job.ID).Msg("Error indexing job in Redis")
		return err
	}

	return nil
}

// Get implements Store.
func (s *RedisStore) Get(ctx context.Context, id string) (*model.ImportJob, error) {
	data, err := s.client.Get(ctx, s.jobKey(id)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	} else if err != nil {
		log.Error().Err(err).Str("jobID", id).Msg("Error getting job from Redis")
		return nil, err
	}

	var job model.ImportJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("decode job %s: %w", id, err)
	}
	return &job, nil
}

// Update implements Store.
func (s *RedisStore) Update(ctx context.Context, id string, mutate func(*model.ImportJob)) error {
	job, err := s.Get(ctx, id)
	if err != nil {
		return err
	}

	mutate(job)
	job.UpdatedAt = time.Now()

	return s.write(ctx, job)
}

// List implements Store.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*model.ImportJob, error) {
	if limit <= 0 {
		limit = 50
	}

	ids, err := s.client.ZRevRange(ctx, s.indexKey(), 0, int64(limit-1)).Result()
	if err != nil {
		log.Error().Err(err).Msg("Error listing jobs from Redis")
		return nil, err
	}

	jobs := make([]*model.ImportJob, 0, len(ids))
	for _, id := range ids {
		job, err := s.Get(ctx, id)
		if err == ErrNotFound {
			// Entry expired; drop it from the index as we go.
			s.client.ZRem(ctx, s.indexKey(), id)
			continue
		} else if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	return jobs, nil
}

// Health implements Store.
func (s *RedisStore) Health(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close implements Store.
func (s *RedisStore) Close() error {
	log.Info().Msg("Closing Redis job store connection")
	return s.client.Close()
}

func (s *RedisStore) write(ctx context.Context, job *model.ImportJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("encode job %s: %w", job.ID, err)
	}

	start := time.Now()
	err = s.client.Set(ctx, s.jobKey(job.ID), data, s.ttl).Err()
	if err != nil {
		log.Error().Err(err).
			Str("jobID", job.ID).
			Dur("duration", time.Since(start)).
			Msg("Error writing job to Redis")
		return err
	}

	log.Debug().
		Str("jobID", job.ID).
		Int("size", len(data)).
		Dur("duration", time.Since(start)).
		Msg("Job written to Redis")
	return nil
}
