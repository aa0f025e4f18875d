package model

import "time"

// JobStatus represents the current state of an import job
type JobStatus string

const (
	StatusPending    JobStatus = "pending"
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status is absorbing; a job never leaves
// completed or failed.
func (s JobStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// RowIssue describes a single validation problem on a single spreadsheet row.
type RowIssue struct {
	Row    int    `bson:"row" json:"row"`
	Field  string `bson:"field" json:"field"`
	Reason string `bson:"reason" json:"reason"`
}

// ImportMetrics tracks the processing statistics for an import job
type ImportMetrics struct {
	TotalRows     int `bson:"total_rows" json:"totalRows"`
	ValidCount    int `bson:"valid_count" json:"validCount"`
	InsertedCount int `bson:"inserted_count" json:"insertedCount"`
	SkippedCount  int `bson:"skipped_count" json:"skippedCount"`
	ErrorCount    int `bson:"error_count" json:"errorCount"`
	BatchesTotal  int `bson:"batches_total" json:"batchesTotal"`
	BatchesDone   int `bson:"batches_done" json:"batchesDone"`
}

// ImportResult is the summary every pipeline run resolves to, success or not.
// Success==false is reserved for pipeline-level failure; per-row validation
// failures are counted in ErrorCount/ErrorDetails while Success stays true.
type ImportResult struct {
	Success         bool       `json:"success"`
	ValidCount      int        `json:"validCount"`
	InsertedCount   int        `json:"insertedCount"`
	SkippedCount    int        `json:"skippedCount"`
	ErrorCount      int        `json:"errorCount"`
	DurationSeconds float64    `json:"durationSeconds"`
	ErrorDetails    []RowIssue `json:"errorDetails,omitempty"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
}

// ImportJob tracks one asynchronous execution of the import pipeline.
type ImportJob struct {
	ID           string        `json:"id"`
	Status       JobStatus     `json:"status"`
	Progress     int           `json:"progress"`
	DryRun       bool          `json:"dryRun"`
	BatchSize    int           `json:"batchSize"`
	FileName     string        `json:"fileName,omitempty"`
	Metrics      ImportMetrics `json:"metrics"`
	Duration     float64       `json:"durationSeconds"`
	ErrorDetails []RowIssue    `json:"errorDetails,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	CompletedAt  *time.Time    `json:"completedAt,omitempty"`
}

// ApplyResult copies a finished pipeline result onto the job.
func (j *ImportJob) ApplyResult(res ImportResult) {
	j.Metrics.ValidCount = res.ValidCount
	j.Metrics.InsertedCount = res.InsertedCount
	j.Metrics.SkippedCount = res.SkippedCount
	j.Metrics.ErrorCount = res.ErrorCount
	j.Duration = res.DurationSeconds
	j.ErrorDetails = res.ErrorDetails
	j.ErrorMessage = res.ErrorMessage
}
