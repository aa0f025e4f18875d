package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"pantry/internal/controller"
	"pantry/internal/importer"
	"pantry/internal/jobstore"
	"pantry/internal/model"
)

// JobResponse is the job status shape the import endpoints return.
type JobResponse struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Progress        int              `json:"progress"`
	DryRun          bool             `json:"dryRun"`
	FileName        string           `json:"fileName,omitempty"`
	ValidCount      int              `json:"validCount"`
	InsertedCount   int              `json:"insertedCount"`
	SkippedCount    int              `json:"skippedCount"`
	ErrorCount      int              `json:"errorCount"`
	DurationSeconds float64          `json:"durationSeconds"`
	ErrorDetails    []model.RowIssue `json:"errorDetails,omitempty"`
	ErrorMessage    string           `json:"errorMessage,omitempty"`
	CreatedAt       string           `json:"createdAt"`
	UpdatedAt       string           `json:"updatedAt"`
}

// ImportURLRequest is the body for imports fetched from a URL.
type ImportURLRequest struct {
	URL       string `json:"url" binding:"required"`
	BatchSize int    `json:"batchSize"`
	DryRun    bool   `json:"dryRun"`
	Layout    string `json:"layout"`
}

// importUploadHandler accepts a multipart spreadsheet upload and returns the
// job id immediately; the import itself runs in the background.
func (s *Server) importUploadHandler(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	if fileHeader.Size > s.maxFileBytes() {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file exceeds the size limit"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.maxFileBytes()))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read uploaded file"})
		return
	}

	opts, ok := importOptionsFromForm(c)
	if !ok {
		return
	}

	job, err := s.ic.CreateUploadJob(c.Request.Context(), data, fileHeader.Filename, opts)
	if err != nil {
		log.Error().Err(err).Str("file", fileHeader.Filename).Msg("Error creating import job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create import job: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, convertJobToResponse(job))
}

// importURLHandler accepts a URL pointing at a spreadsheet to download and
// import.
func (s *Server) importURLHandler(c *gin.Context) {
	var req ImportURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	layout, ok := parseLayout(req.Layout)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layout must be 'fixed' or 'detect'"})
		return
	}

	opts := controller.ImportOptions{
		BatchSize: req.BatchSize,
		DryRun:    req.DryRun,
		Layout:    layout,
	}

	job, err := s.ic.CreateURLJob(c.Request.Context(), req.URL, opts)
	if err != nil {
		log.Error().Err(err).Str("url", req.URL).Msg("Error creating import job")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create import job: " + err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, convertJobToResponse(job))
}

// getJobHandler returns a specific import job by ID
func (s *Server) getJobHandler(c *gin.Context) {
	jobID := c.Param("id")

	job, err := s.ic.GetJob(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, jobstore.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get job: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, convertJobToResponse(job))
}

// listJobsHandler returns recent import jobs, newest first
func (s *Server) listJobsHandler(c *gin.Context) {
	limit, _ := getPaginationParams(c)

	jobs, err := s.ic.ListJobs(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list jobs: " + err.Error()})
		return
	}

	response := make([]JobResponse, 0, len(jobs))
	for _, job := range jobs {
		response = append(response, convertJobToResponse(job))
	}

	c.JSON(http.StatusOK, response)
}

// Helper functions

func importOptionsFromForm(c *gin.Context) (controller.ImportOptions, bool) {
	opts := controller.ImportOptions{}

	if raw := c.PostForm("batchSize"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "batchSize must be a positive integer"})
			return opts, false
		}
		opts.BatchSize = size
	}

	opts.DryRun = c.PostForm("dryRun") == "true"

	layout, ok := parseLayout(c.PostForm("layout"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "layout must be 'fixed' or 'detect'"})
		return opts, false
	}
	opts.Layout = layout

	return opts, true
}

func parseLayout(raw string) (importer.Layout, bool) {
	switch raw {
	case "", "fixed":
		return importer.LayoutFixed, true
	case "detect":
		return importer.LayoutDetect, true
	}
	return "", false
}

// convertJobToResponse flattens a job into the response shape
func convertJobToResponse(job *model.ImportJob) JobResponse {
	return JobResponse{
		ID:              job.ID,
		Status:          string(job.Status),
		Progress:        job.Progress,
		DryRun:          job.DryRun,
		FileName:        job.FileName,
		ValidCount:      job.Metrics.ValidCount,
		InsertedCount:   job.Metrics.InsertedCount,
		SkippedCount:    job.Metrics.SkippedCount,
		ErrorCount:      job.Metrics.ErrorCount,
		DurationSeconds: job.Duration,
		ErrorDetails:    job.ErrorDetails,
		ErrorMessage:    job.ErrorMessage,
		CreatedAt:       job.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       job.UpdatedAt.Format(time.RFC3339),
	}
}
