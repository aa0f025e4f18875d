package server

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pantry/internal/config"
	"pantry/internal/controller"
	"pantry/internal/jobstore"
	"pantry/internal/model"
)

// MockImportController is a mock implementation of controller.ImportController
type MockImportController struct {
	mock.Mock
}

func (m *MockImportController) CreateUploadJob(ctx context.Context, data []byte, fileName string, opts controller.ImportOptions) (*model.ImportJob, error) {
	args := m.Called(ctx, data, fileName, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportController) CreateURLJob(ctx context.Context, rawURL string, opts controller.ImportOptions) (*model.ImportJob, error) {
	args := m.Called(ctx, rawURL, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportController) ProcessJobs(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockImportController) StopProcessing() {
	m.Called()
}

func (m *MockImportController) GetJob(ctx context.Context, id string) (*model.ImportJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.ImportJob), args.Error(1)
}

func (m *MockImportController) ListJobs(ctx context.Context, limit int) ([]*model.ImportJob, error) {
	args := m.Called(ctx, limit)
	return args.Get(0).([]*model.ImportJob), args.Error(1)
}

type stubServerController struct{}

func (stubServerController) DBHealth() error       { return nil }
func (stubServerController) JobStoreHealth() error { return nil }
func (stubServerController) Online() string        { return "Online" }

func newTestServer(ic controller.ImportController) *Server {
	gin.SetMode(gin.TestMode)

	cfg := config.Config{}
	cfg.Import.MaxFileSizeMB = 10
	cfg.CORS.AllowedOrigins = []string{"*"}
	cfg.CORS.AllowedMethods = []string{"GET", "POST"}

	return &Server{
		sc:     stubServerController{},
		ic:     ic,
		config: cfg,
	}
}

func multipartUpload(t *testing.T, fields map[string]string, fileName, content string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)

	part, err := w.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)

	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	return body, w.FormDataContentType()
}

func TestImportUploadHandler(t *testing.T) {
	ic := new(MockImportController)
	ic.On("CreateUploadJob", mock.Anything, mock.Anything, "foods.csv", mock.Anything).
		Return(&model.ImportJob{ID: "job-1", Status: model.StatusPending}, nil)

	router := newTestServer(ic).RegisterRoutes()

	body, contentType := multipartUpload(t, map[string]string{"dryRun": "true"}, "foods.csv", "name,calories\nApple,52\n")
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "job-1", resp.ID)
	assert.Equal(t, "pending", resp.Status)

	opts := ic.Calls[0].Arguments.Get(3).(controller.ImportOptions)
	assert.True(t, opts.DryRun)
}

func TestImportUploadHandlerMissingFile(t *testing.T) {
	router := newTestServer(new(MockImportController)).RegisterRoutes()

	req := httptest.NewRequest(http.MethodPost, "/import", strings.NewReader(""))
	req.Header.Set("Content-Type", "multipart/form-data; boundary=x")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportUploadHandlerBadOptions(t *testing.T) {
	router := newTestServer(new(MockImportController)).RegisterRoutes()

	body, contentType := multipartUpload(t, map[string]string{"batchSize": "-5"}, "foods.csv", "name\n")
	req := httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	body, contentType = multipartUpload(t, map[string]string{"layout": "sideways"}, "foods.csv", "name\n")
	req = httptest.NewRequest(http.MethodPost, "/import", body)
	req.Header.Set("Content-Type", contentType)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportURLHandler(t *testing.T) {
	ic := new(MockImportController)
	ic.On("CreateURLJob", mock.Anything, "https://example.com/foods.xlsx", mock.Anything).
		Return(&model.ImportJob{ID: "job-2", Status: model.StatusPending}, nil)

	router := newTestServer(ic).RegisterRoutes()

	payload := `{"url":"https://example.com/foods.xlsx","layout":"detect"}`
	req := httptest.NewRequest(http.MethodPost, "/import/url", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	ic.AssertExpectations(t)
}

func TestImportURLHandlerMissingURL(t *testing.T) {
	router := newTestServer(new(MockImportController)).RegisterRoutes()

	req := httptest.NewRequest(http.MethodPost, "/import/url", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetJobHandler(t *testing.T) {
	ic := new(MockImportController)
	ic.On("GetJob", mock.Anything, "job-1").
		Return(&model.ImportJob{
			ID:       "job-1",
			Status:   model.StatusCompleted,
			Progress: 100,
			Metrics:  model.ImportMetrics{ValidCount: 10, InsertedCount: 8, SkippedCount: 2},
		}, nil)
	ic.On("GetJob", mock.Anything, "missing").Return(nil, jobstore.ErrNotFound)

	router := newTestServer(ic).RegisterRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import/jobs/job-1", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 100, resp.Progress)
	assert.Equal(t, 8, resp.InsertedCount)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import/jobs/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListJobsHandler(t *testing.T) {
	ic := new(MockImportController)
	ic.On("ListJobs", mock.Anything, 20).
		Return([]*model.ImportJob{
			{ID: "job-2", Status: model.StatusProcessing},
			{ID: "job-1", Status: model.StatusCompleted},
		}, nil)

	router := newTestServer(ic).RegisterRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/import/jobs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp []JobResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp, 2)
	assert.Equal(t, "job-2", resp[0].ID)
}

func TestHealthAndOnline(t *testing.T) {
	router := newTestServer(new(MockImportController)).RegisterRoutes()

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/online", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Online", rec.Body.String())
}
