package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"pantry/internal/config"
	"pantry/internal/importer"
	"pantry/internal/jobstore"
	"pantry/internal/model"
	"pantry/internal/rabbitmq"
	"pantry/internal/source"
)

// ImportOptions are the per-job knobs the HTTP boundary exposes.
type ImportOptions struct {
	BatchSize int
	DryRun    bool
	Layout    importer.Layout
}

// ImportController owns the import job lifecycle: registration, dispatch,
// execution and status reads.
type ImportController interface {
	// CreateUploadJob registers a job for an uploaded spreadsheet buffer
	// and returns immediately; the pipeline runs in the background.
	CreateUploadJob(ctx context.Context, data []byte, fileName string, opts ImportOptions) (*model.ImportJob, error)

	// CreateURLJob registers a job that downloads its spreadsheet.
	CreateURLJob(ctx context.Context, rawURL string, opts ImportOptions) (*model.ImportJob, error)

	// ProcessJobs starts the queue consumer. Only meaningful in queue mode.
	ProcessJobs(ctx context.Context) error

	// StopProcessing stops the queue consumer and waits for it.
	StopProcessing()

	GetJob(ctx context.Context, id string) (*model.ImportJob, error)
	ListJobs(ctx context.Context, limit int) ([]*model.ImportJob, error)
}

// queueMessage is the payload published per job in queue mode. The file
// itself is staged in S3 (uploads) or re-fetched from its URL by the worker.
type queueMessage struct {
	JobID     string `json:"job_id"`
	ObjectKey string `json:"object_key,omitempty"`
	URL       string `json:"url,omitempty"`
	FileName  string `json:"file_name,omitempty"`
	BatchSize int    `json:"batch_size"`
	DryRun    bool   `json:"dry_run"`
	Layout    string `json:"layout"`
}

type importController struct {
	imp          *importer.Importer
	jobs         jobstore.Store
	rabbit       rabbitmq.Client
	files        *source.S3Store
	rabbitConfig config.RabbitMQConfig
	importConfig config.ImportConfig
	queueMode    bool
	consumerTag  string
	shutdown     chan struct{}
	wg           sync.WaitGroup
}

// NewImportController wires the pipeline to its collaborators. rabbit and
// files may be nil, in which case jobs run inline as goroutines.
func NewImportController(store importer.FoodStore, jobs jobstore.Store, rabbit rabbitmq.Client,
	files *source.S3Store, rabbitConfig config.RabbitMQConfig, importConfig config.ImportConfig, queueMode bool) ImportController {
	return &importController{
		imp:          importer.New(store),
		jobs:         jobs,
		rabbit:       rabbit,
		files:        files,
		rabbitConfig: rabbitConfig,
		importConfig: importConfig,
		queueMode:    queueMode && rabbit != nil && files != nil,
		shutdown:     make(chan struct{}),
	}
}

func (c *importController) GetJob(ctx context.Context, id string) (*model.ImportJob, error) {
	return c.jobs.Get(ctx, id)
}

func (c *importController) ListJobs(ctx context.Context, limit int) ([]*model.ImportJob, error) {
	return c.jobs.List(ctx, limit)
}

// CreateUploadJob implements ImportController.
func (c *importController) CreateUploadJob(ctx context.Context, data []byte, fileName string, opts ImportOptions) (*model.ImportJob, error) {
	job, err := c.registerJob(ctx, fileName, opts)
	if err != nil {
		return nil, err
	}

	if !c.queueMode {
		src := source.NewBuffer(data, fileName)
		c.runInline(job.ID, src, opts)
		return job, nil
	}

	// Stage the buffer so whichever worker instance consumes the message
	// can read the file back.
	key := job.ID + filepath.Ext(fileName)
	if err := c.files.Stage(ctx, key, bytes.NewReader(data)); err != nil {
		c.failJob(ctx, job.ID, fmt.Errorf("stage upload: %w", err))
		return job, fmt.Errorf("failed to stage upload: %w", err)
	}

	if err := c.enqueueJob(job, queueMessage{
		JobID:     job.ID,
		ObjectKey: key,
		FileName:  fileName,
		BatchSize: opts.BatchSize,
		DryRun:    opts.DryRun,
		Layout:    string(opts.Layout),
	}); err != nil {
		c.failJob(ctx, job.ID, err)
		return job, err
	}

	return job, nil
}

// CreateURLJob implements ImportController.
func (c *importController) CreateURLJob(ctx context.Context, rawURL string, opts ImportOptions) (*model.ImportJob, error) {
	job, err := c.registerJob(ctx, rawURL, opts)
	if err != nil {
		return nil, err
	}

	if !c.queueMode {
		src := source.NewURL(rawURL, 30*time.Second, c.maxFileBytes())
		c.runInline(job.ID, src, opts)
		return job, nil
	}

	if err := c.enqueueJob(job, queueMessage{
		JobID:     job.ID,
		URL:       rawURL,
		BatchSize: opts.BatchSize,
		DryRun:    opts.DryRun,
		Layout:    string(opts.Layout),
	}); err != nil {
		c.failJob(ctx, job.ID, err)
		return job, err
	}

	return job, nil
}

// registerJob creates the pending job entry the submitter polls against.
func (c *importController) registerJob(ctx context.Context, fileName string, opts ImportOptions) (*model.ImportJob, error) {
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = c.importConfig.BatchSize
	}

	job := &model.ImportJob{
		ID:        uuid.NewString(),
		Status:    model.StatusPending,
		Progress:  0,
		DryRun:    opts.DryRun,
		BatchSize: batchSize,
		FileName:  fileName,
		CreatedAt: time.Now(),
	}

	if err := c.jobs.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create job: %w", err)
	}

	log.Info().
		Str("jobId", job.ID).
		Str("file", fileName).
		Bool("dryRun", opts.DryRun).
		Msg("Import job created")

	return job, nil
}

// runInline executes a job as a background goroutine in this process.
func (c *importController) runInline(jobID string, src source.Source, opts ImportOptions) {
	go func() {
		// The submitting request is long gone by the time the pipeline
		// finishes; the job owns its own context.
		c.runJob(context.Background(), jobID, src, opts)
	}()
}

// runJob drives one job through the pipeline and lands it in a terminal
// state. Every failure path resolves to a stored job update; nothing is
// thrown past this function.
func (c *importController) runJob(ctx context.Context, jobID string, src source.Source, opts ImportOptions) {
	if err := c.jobs.Update(ctx, jobID, func(j *model.ImportJob) {
		j.Status = model.StatusProcessing
	}); err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("Failed to mark job processing")
		return
	}

	data, fileName, err := src.Open(ctx)
	if err != nil {
		c.failJob(ctx, jobID, err)
		return
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = c.importConfig.BatchSize
	}

	runOpts := importer.Options{
		BatchSize:      opts.BatchSize,
		DryRun:         opts.DryRun,
		Layout:         opts.Layout,
		HeaderScanRows: c.importConfig.HeaderScanRows,
	}

	// The single progress path: the pipeline reports, the store records.
	report := func(progress int, metrics model.ImportMetrics) {
		err := c.jobs.Update(ctx, jobID, func(j *model.ImportJob) {
			if progress > j.Progress {
				j.Progress = progress
			}
			j.Metrics = metrics
		})
		if err != nil {
			log.Warn().Err(err).Str("jobId", jobID).Msg("Failed to record job progress")
		}
	}

	result := c.imp.Run(ctx, data, fileName, runOpts, report)

	now := time.Now()
	err = c.jobs.Update(ctx, jobID, func(j *model.ImportJob) {
		j.ApplyResult(result)
		if result.Success {
			j.Status = model.StatusCompleted
			j.Progress = 100
		} else {
			j.Status = model.StatusFailed
		}
		j.CompletedAt = &now
	})
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("Failed to record job result")
	}

	log.Info().
		Str("jobId", jobID).
		Bool("success", result.Success).
		Int("inserted", result.InsertedCount).
		Int("skipped", result.SkippedCount).
		Int("errors", result.ErrorCount).
		Msg("Import job finished")
}

func (c *importController) failJob(ctx context.Context, jobID string, cause error) {
	now := time.Now()
	err := c.jobs.Update(ctx, jobID, func(j *model.ImportJob) {
		j.Status = model.StatusFailed
		j.ErrorMessage = cause.Error()
		j.CompletedAt = &now
	})
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("Failed to mark job failed")
	}
}

func (c *importController) routingKey() string {
	if c.rabbitConfig.RoutingKey != "" {
		return c.rabbitConfig.RoutingKey
	}
	return c.rabbitConfig.QueueName
}

// enqueueJob publishes a job message to RabbitMQ
func (c *importController) enqueueJob(job *model.ImportJob, msg queueMessage) error {
	headers := amqp.Table{
		"job_id": job.ID,
	}

	messageBytes, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	err = c.rabbit.Publish(
		c.rabbitConfig.ExchangeName,
		c.routingKey(),
		messageBytes,
		headers,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue job: %w", err)
	}

	return nil
}

// ProcessJobs starts consuming import jobs from RabbitMQ.
func (c *importController) ProcessJobs(ctx context.Context) error {
	if !c.queueMode {
		return nil
	}

	if err := c.rabbit.DeclareExchange(c.rabbitConfig.ExchangeName, "direct"); err != nil {
		return fmt.Errorf("failed to declare exchange: %w", err)
	}

	queue, err := c.rabbit.DeclareQueue(c.rabbitConfig.QueueName)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", c.rabbitConfig.QueueName, err)
	}

	if err := c.rabbit.BindQueue(queue.Name, c.rabbitConfig.ExchangeName, c.routingKey()); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", queue.Name, err)
	}

	c.consumerTag = fmt.Sprintf("import-consumer-%s", uuid.NewString())
	c.startConsumer(ctx, queue.Name, c.consumerTag)

	log.Info().Str("queue", queue.Name).Msg("Import job processing started")
	return nil
}

// StopProcessing stops the consumer loop.
func (c *importController) StopProcessing() {
	close(c.shutdown)
	c.wg.Wait()
	log.Info().Msg("Import job processing stopped")
}

func (c *importController) startConsumer(ctx context.Context, queueName, consumerTag string) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		for {
			select {
			case <-ctx.Done():
				log.Info().Str("consumerTag", consumerTag).Msg("Context cancelled, stopping consumer")
				return
			case <-c.shutdown:
				log.Info().Str("consumerTag", consumerTag).Msg("Shutdown signal received, stopping consumer")
				return
			default:
			}

			deliveries, err := c.rabbit.Consume(queueName, consumerTag)
			if err != nil {
				log.Error().
					Err(err).
					Str("queue", queueName).
					Msg("Failed to consume from queue")
				time.Sleep(5 * time.Second)
				continue
			}

			for delivery := range deliveries {
				c.processDelivery(ctx, delivery)
			}

			log.Warn().
				Str("queue", queueName).
				Str("consumerTag", consumerTag).
				Msg("Consumer channel closed, reconnecting...")
			time.Sleep(5 * time.Second)
		}
	}()
}

// processDelivery handles a single queued job message.
func (c *importController) processDelivery(ctx context.Context, delivery amqp.Delivery) {
	var msg queueMessage
	if err := json.Unmarshal(delivery.Body, &msg); err != nil {
		log.Error().Err(err).Msg("Malformed job message, rejecting")
		delivery.Nack(false, false)
		return
	}
	if msg.JobID == "" {
		log.Error().Msg("Job message missing job_id, rejecting")
		delivery.Nack(false, false)
		return
	}

	logger := log.With().Str("jobId", msg.JobID).Logger()
	logger.Info().Msg("Processing import job message")

	if _, err := c.jobs.Get(ctx, msg.JobID); err != nil {
		logger.Error().Err(err).Msg("Failed to retrieve job from store")
		delivery.Nack(false, false)
		return
	}

	var src source.Source
	switch {
	case msg.ObjectKey != "":
		src = c.files.Object(msg.ObjectKey, msg.FileName, c.maxFileBytes())
	case msg.URL != "":
		src = source.NewURL(msg.URL, 30*time.Second, c.maxFileBytes())
	default:
		logger.Error().Msg("Job message has no file source")
		c.failJob(ctx, msg.JobID, fmt.Errorf("job message has no file source"))
		delivery.Ack(false)
		return
	}

	opts := ImportOptions{
		BatchSize: msg.BatchSize,
		DryRun:    msg.DryRun,
		Layout:    importer.Layout(msg.Layout),
	}
	c.runJob(ctx, msg.JobID, src, opts)

	if msg.ObjectKey != "" {
		if err := c.files.Delete(ctx, msg.ObjectKey); err != nil {
			logger.Warn().Err(err).Str("key", msg.ObjectKey).Msg("Failed to delete staged file")
		}
	}

	delivery.Ack(false)
}

func (c *importController) maxFileBytes() int64 {
	return int64(c.importConfig.MaxFileSizeMB) << 20
}
