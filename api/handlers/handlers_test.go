package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/internal/infrastructure"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// blockingEngine replays progress and then waits for release
type blockingEngine struct {
	progress []domain.RawProgress
	started  chan struct{}
	release  chan struct{}
	result   domain.EngineResult
	err      error
}

func newBlockingEngine() *blockingEngine {
	return &blockingEngine{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (e *blockingEngine) Download(ctx context.Context, opts domain.EngineOptions, hook domain.ProgressHook) (domain.EngineResult, error) {
	e.started <- struct{}{}
	for _, p := range e.progress {
		hook(p)
	}
	<-e.release
	return e.result, e.err
}

// memoryRepo implements domain.JobRepository for testing
type memoryRepo struct {
	mu    sync.Mutex
	jobs  []domain.Job
	stats domain.JobStats
	err   error
}

func (r *memoryRepo) Create(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.jobs = append(r.jobs, *job)
	return nil
}

func (r *memoryRepo) Update(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.jobs {
		if r.jobs[i].ID == job.ID {
			r.jobs[i] = *job
		}
	}
	return nil
}

func (r *memoryRepo) FindByID(id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	for _, j := range r.jobs {
		if j.ID == id {
			job := j
			return &job, nil
		}
	}
	return nil, domain.ErrJobNotFound
}

func (r *memoryRepo) FindRecent(limit int) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	var out []*domain.Job
	for i := len(r.jobs) - 1; i >= 0 && len(out) < limit; i-- {
		job := r.jobs[i]
		out = append(out, &job)
	}
	return out, nil
}

func (r *memoryRepo) FindByStatus(status domain.JobStatus) ([]*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Job
	for _, j := range r.jobs {
		if j.Status == status {
			job := j
			out = append(out, &job)
		}
	}
	return out, nil
}

func (r *memoryRepo) GetStats() (*domain.JobStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	stats := r.stats
	return &stats, nil
}

type fixture struct {
	engine *blockingEngine
	repo   *memoryRepo
	coord  *app.JobCoordinator
	outDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dir := t.TempDir()
	engine := newBlockingEngine()
	repo := &memoryRepo{}
	store := app.NewSettingsStore(infrastructure.NewSettingsFile(filepath.Join(dir, "settings.json")), zap.NewNop())
	coord := app.NewJobCoordinator(app.CoordinatorOptions{
		Engine:           engine,
		Settings:         store,
		Repository:       repo,
		DefaultOutputDir: filepath.Join(dir, "out"),
	})

	f := &fixture{engine: engine, repo: repo, coord: coord, outDir: filepath.Join(dir, "out")}
	t.Cleanup(f.finish)
	return f
}

// finish lets a blocked engine return and waits for the worker
func (f *fixture) finish() {
	select {
	case <-f.engine.release:
	default:
		close(f.engine.release)
	}
	f.coord.Wait()
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
