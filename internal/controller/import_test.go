package controller

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"pantry/internal/config"
	"pantry/internal/jobstore"
	"pantry/internal/model"
)

// MockFoodStore is a mock implementation of importer.FoodStore
type MockFoodStore struct {
	mock.Mock
}

func (m *MockFoodStore) ListFoodNames(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockFoodStore) InsertFoods(ctx context.Context, foods []model.FoodRecord) (int, error) {
	args := m.Called(ctx, foods)
	return args.Int(0), args.Error(1)
}

func newInlineController(store *MockFoodStore, jobs jobstore.Store) ImportController {
	importConfig := config.ImportConfig{
		BatchSize:      100,
		MaxFileSizeMB:  10,
		HeaderScanRows: 30,
	}
	return NewImportController(store, jobs, nil, nil, config.RabbitMQConfig{}, importConfig, false)
}

// waitForTerminal polls the store until the job reaches a terminal state,
// the way an HTTP client would.
func waitForTerminal(t *testing.T, jobs jobstore.Store, id string) *model.ImportJob {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("job %s never reached a terminal state", id)
			return nil
		case <-time.After(10 * time.Millisecond):
		}

		job, err := jobs.Get(context.Background(), id)
		require.NoError(t, err)
		if job.Status.IsTerminal() {
			return job
		}
	}
}

func TestCreateUploadJobLifecycle(t *testing.T) {
	store := new(MockFoodStore)
	store.On("ListFoodNames", mock.Anything).Return([]string{}, nil)
	store.On("InsertFoods", mock.Anything, mock.Anything).Return(2, nil)

	jobs := jobstore.NewMemoryStore(0)
	ic := newInlineController(store, jobs)

	data := []byte("name,calories\nApple,52\nBanana,89\n")
	job, err := ic.CreateUploadJob(context.Background(), data, "foods.csv", ImportOptions{})
	require.NoError(t, err)

	// The submitting call gets the id back before the pipeline finishes.
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, model.StatusPending, job.Status)

	done := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 100, done.Progress)
	assert.Equal(t, 2, done.Metrics.ValidCount)
	assert.Equal(t, 2, done.Metrics.InsertedCount)
	assert.NotNil(t, done.CompletedAt)
}

func TestCreateUploadJobStructuralFailure(t *testing.T) {
	store := new(MockFoodStore)
	jobs := jobstore.NewMemoryStore(0)
	ic := newInlineController(store, jobs)

	job, err := ic.CreateUploadJob(context.Background(), []byte("PK\x03\x04garbage"), "broken.xlsx", ImportOptions{})
	require.NoError(t, err)

	done := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, model.StatusFailed, done.Status)
	assert.NotEmpty(t, done.ErrorMessage)
	store.AssertNotCalled(t, "InsertFoods", mock.Anything, mock.Anything)
}

func TestCreateUploadJobDryRun(t *testing.T) {
	store := new(MockFoodStore)
	store.On("ListFoodNames", mock.Anything).Return([]string{}, nil)

	jobs := jobstore.NewMemoryStore(0)
	ic := newInlineController(store, jobs)

	data := []byte("name,calories\nApple,52\n")
	job, err := ic.CreateUploadJob(context.Background(), data, "foods.csv", ImportOptions{DryRun: true})
	require.NoError(t, err)
	assert.True(t, job.DryRun)

	done := waitForTerminal(t, jobs, job.ID)
	assert.Equal(t, model.StatusCompleted, done.Status)
	assert.Equal(t, 1, done.Metrics.ValidCount)
	assert.Equal(t, 0, done.Metrics.InsertedCount)
	store.AssertNotCalled(t, "InsertFoods", mock.Anything, mock.Anything)
}

func TestGetJobUnknown(t *testing.T) {
	ic := newInlineController(new(MockFoodStore), jobstore.NewMemoryStore(0))

	_, err := ic.GetJob(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}
