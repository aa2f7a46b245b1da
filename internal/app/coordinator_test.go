package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeEngine implements domain.Engine for testing. It replays progress, then
// waits for release (if set) before returning result/err.
type fakeEngine struct {
	mu       sync.Mutex
	progress []domain.RawProgress
	release  chan struct{}
	started  chan struct{}
	result   domain.EngineResult
	err      error
	panicMsg string
	calls    []domain.EngineOptions
	running  int
	overlap  bool
}

func (f *fakeEngine) Download(ctx context.Context, opts domain.EngineOptions, hook domain.ProgressHook) (domain.EngineResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, opts)
	f.running++
	if f.running > 1 {
		f.overlap = true
	}
	f.mu.Unlock()
	defer func() {
		f.mu.Lock()
		f.running--
		f.mu.Unlock()
	}()

	if f.started != nil {
		f.started <- struct{}{}
	}
	for _, p := range f.progress {
		hook(p)
	}
	if f.release != nil {
		<-f.release
	}
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	return f.result, f.err
}

func (f *fakeEngine) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// fakeRepo implements domain.JobRepository for testing
type fakeRepo struct {
	mu   sync.Mutex
	jobs map[string]domain.Job
	err  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{jobs: make(map[string]domain.Job)}
}

func (r *fakeRepo) Create(job *domain.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *fakeRepo) Update(job *domain.Job) error {
	return r.Create(job)
}

func (r *fakeRepo) FindByID(id string) (*domain.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return &j, nil
}

func (r *fakeRepo) FindRecent(limit int) ([]*domain.Job, error) { return nil, nil }

func (r *fakeRepo) FindByStatus(status domain.JobStatus) ([]*domain.Job, error) { return nil, nil }

func (r *fakeRepo) GetStats() (*domain.JobStats, error) { return &domain.JobStats{}, nil }

// fakeRevealer implements domain.FolderRevealer for testing
type fakeRevealer struct {
	mu       sync.Mutex
	dirs     []string
	observed []domain.JobState
	coord    *JobCoordinator
	err      error
}

func (r *fakeRevealer) Reveal(dir string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dirs = append(r.dirs, dir)
	if r.coord != nil {
		r.observed = append(r.observed, r.coord.State())
	}
	return r.err
}

// fakeNotifier implements domain.Notifier for testing
type fakeNotifier struct {
	mu        sync.Mutex
	succeeded []string
	failed    []string
}

func (n *fakeNotifier) NotifyJobSucceeded(job *domain.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.succeeded = append(n.succeeded, job.ID)
	return nil
}

func (n *fakeNotifier) NotifyJobFailed(job *domain.Job) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failed = append(n.failed, job.ID)
	return errors.New("notify-send not installed")
}

type coordinatorFixture struct {
	coord    *JobCoordinator
	engine   *fakeEngine
	repo     *fakeRepo
	revealer *fakeRevealer
	notifier *fakeNotifier
	store    *SettingsStore
	dir      string
}

func newFixture(t *testing.T, engine *fakeEngine) *coordinatorFixture {
	t.Helper()
	f := &coordinatorFixture{
		engine:   engine,
		repo:     newFakeRepo(),
		revealer: &fakeRevealer{},
		notifier: &fakeNotifier{},
		store:    NewSettingsStore(&memoryPersistence{}, nil),
		dir:      t.TempDir(),
	}
	f.coord = NewJobCoordinator(CoordinatorOptions{
		Engine:           engine,
		Settings:         f.store,
		Repository:       f.repo,
		Notifier:         f.notifier,
		Revealer:         f.revealer,
		DefaultOutputDir: f.dir,
	})
	f.revealer.coord = f.coord
	return f
}

func (f *coordinatorFixture) submit(t *testing.T) *domain.Job {
	t.Helper()
	job, err := f.coord.Submit(SubmitInput{RawURL: "https://example.com/v", Mode: "video", Quality: "720"})
	require.NoError(t, err)
	return job
}

// collectUntilTerminal reads events until Succeeded or Failed
func collectUntilTerminal(t *testing.T, sub *Subscription) []domain.ProgressEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	var events []domain.ProgressEvent
	for {
		ev, err := sub.Next(ctx)
		require.NoError(t, err)
		events = append(events, ev)
		if ev.Phase.IsTerminal() {
			return events
		}
	}
}

func phases(events []domain.ProgressEvent) []domain.JobState {
	out := make([]domain.JobState, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Phase)
	}
	return out
}

func TestJobCoordinator_SuccessfulJob(t *testing.T) {
	engine := &fakeEngine{
		progress: []domain.RawProgress{
			{Status: "downloading", PercentStr: "10.0%", SpeedStr: "1.00MiB/s"},
			{Status: "downloading", PercentStr: "100.0%", SpeedStr: "2.00MiB/s"},
			{Status: "finished"},
		},
		result: domain.EngineResult{FilePath: "/tmp/out/clip.mp4", MediaType: "video/mp4"},
	}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	job := f.submit(t)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	got := phases(events)
	assert.Equal(t, domain.StateStarting, got[0])
	assert.Equal(t, domain.StateSucceeded, got[len(got)-1])
	assert.Contains(t, got, domain.StateDownloading)
	assert.Contains(t, got, domain.StateFinalizing)

	for _, ev := range events {
		assert.Equal(t, job.ID, ev.JobID)
		assert.False(t, ev.Timestamp.IsZero())
	}

	last := events[len(events)-1]
	assert.Equal(t, MessageDone, last.Message)
	assert.Empty(t, last.ErrorDetail)
	assert.Equal(t, domain.IdleRate, last.Rate)
	assert.Equal(t, domain.StateIdle, f.coord.State())

	require.Equal(t, 1, engine.callCount())
	assert.Equal(t,
		"bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=720][ext=mp4]+bestaudio/bestvideo[height<=720]+bestaudio/best",
		engine.calls[0].Format)

	stored, err := f.repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusSucceeded, stored.Status)
	assert.Equal(t, "/tmp/out/clip.mp4", stored.FilePath)
	assert.Equal(t, "video/mp4", stored.MediaType)
	assert.Equal(t, []string{job.ID}, f.notifier.succeeded)
	assert.Empty(t, f.revealer.dirs)
}

func TestJobCoordinator_RejectsWhileActive(t *testing.T) {
	engine := &fakeEngine{release: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	first := f.submit(t)
	<-engine.started
	assert.Equal(t, domain.StateStarting, f.coord.State())

	_, err := f.coord.Submit(SubmitInput{RawURL: "https://example.com/other"})
	assert.ErrorIs(t, err, domain.ErrJobActive)
	assert.Equal(t, first.ID, f.coord.Status().JobID)

	close(engine.release)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	assert.Equal(t, domain.StateSucceeded, events[len(events)-1].Phase)
	assert.Equal(t, 1, engine.callCount())
	assert.False(t, engine.overlap)
}

func TestJobCoordinator_ValidationErrorStartsNothing(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	_, err := f.coord.Submit(SubmitInput{RawURL: "https://example.com/$(reboot)"})
	require.Error(t, err)
	assert.True(t, domain.IsValidationError(err))

	_, err = f.coord.Submit(SubmitInput{RawURL: "https://example.com/v", RawPath: "/tmp/\x00"})
	assert.True(t, domain.IsValidationError(err))

	assert.Equal(t, domain.StateIdle, f.coord.State())
	assert.Zero(t, sub.Pending())
	assert.Zero(t, engine.callCount())
}

func TestJobCoordinator_EngineFailureThenResubmit(t *testing.T) {
	engine := &fakeEngine{
		progress: []domain.RawProgress{{Status: "downloading", PercentStr: "5%"}},
		err:      &domain.EngineError{Detail: "ERROR: [generic] Unsupported URL"},
	}
	f := newFixture(t, engine)
	f.store.Update(domain.SettingAutoOpen, "true")
	sub := f.coord.Subscribe()
	defer sub.Close()

	job := f.submit(t)
	events := collectUntilTerminal(t, sub)

	failed := 0
	for _, ev := range events {
		if ev.Phase == domain.StateFailed {
			failed++
			assert.NotEmpty(t, ev.ErrorDetail)
			assert.Equal(t, "Download error: ERROR: [generic] Unsupported URL", ev.Message)
		}
	}
	assert.Equal(t, 1, failed)

	// The terminal event is only published once the coordinator is Idle again.
	engine.err = nil
	_, err := f.coord.Submit(SubmitInput{RawURL: "https://example.com/v2"})
	require.NoError(t, err)
	collectUntilTerminal(t, sub)
	f.coord.Wait()

	stored, err := f.repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusFailed, stored.Status)
	assert.Equal(t, []string{job.ID}, f.notifier.failed)
	assert.Len(t, f.revealer.dirs, 1, "folder only revealed for the successful job")
}

func TestJobCoordinator_PanicBecomesFailure(t *testing.T) {
	engine := &fakeEngine{panicMsg: "nil map write"}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	last := events[len(events)-1]
	assert.Equal(t, domain.StateFailed, last.Phase)
	assert.Equal(t, "nil map write", last.ErrorDetail)
	assert.Equal(t, "Unexpected error: nil map write", last.Message)
	assert.Equal(t, domain.StateIdle, f.coord.State())
}

func TestJobCoordinator_EmptyErrorStillHasDetail(t *testing.T) {
	engine := &fakeEngine{err: errors.New("   ")}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	events := collectUntilTerminal(t, sub)
	assert.Equal(t, "unknown error", events[len(events)-1].ErrorDetail)
	f.coord.Wait()
}

func TestJobCoordinator_RevealsFolderAfterTerminalEvent(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	_, err := f.store.Update(domain.SettingAutoOpen, "true")
	require.NoError(t, err)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	collectUntilTerminal(t, sub)
	f.coord.Wait()

	f.revealer.mu.Lock()
	defer f.revealer.mu.Unlock()
	resolved, err := domain.ValidatePath(f.dir)
	require.NoError(t, err)
	assert.Equal(t, []string{resolved}, f.revealer.dirs)
	assert.Equal(t, []domain.JobState{domain.StateIdle}, f.revealer.observed)
}

func TestJobCoordinator_SettingsSnapshot(t *testing.T) {
	engine := &fakeEngine{
		release: make(chan struct{}),
		started: make(chan struct{}, 1),
	}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	<-engine.started

	// Changing settings mid-job does not affect the running job.
	_, err := f.coord.UpdateSetting(domain.SettingAutoOpen, "true")
	require.NoError(t, err)
	assert.True(t, f.coord.Settings().AutoOpenFolder)

	close(engine.release)
	collectUntilTerminal(t, sub)
	f.coord.Wait()

	assert.Empty(t, f.revealer.dirs)
}

func TestJobCoordinator_HidesSpeedWhenDisabled(t *testing.T) {
	engine := &fakeEngine{
		progress: []domain.RawProgress{{Status: "downloading", PercentStr: "50%", SpeedStr: "3.00MiB/s"}},
	}
	f := newFixture(t, engine)
	_, err := f.store.Update(domain.SettingShowSpeed, "false")
	require.NoError(t, err)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	require.Equal(t, domain.StateDownloading, events[1].Phase)
	assert.Empty(t, events[1].Speed)
	assert.Equal(t, 3.0, events[1].Rate)
}

func TestJobCoordinator_RateBoundedWhileActive(t *testing.T) {
	engine := &fakeEngine{
		progress: []domain.RawProgress{
			{Status: "downloading", PercentStr: "1%", SpeedStr: "900MiB/s"},
			{Status: "finished"},
			{Status: "downloading", PercentStr: "bogus", SpeedStr: "1KiB/s"},
		},
	}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	for _, ev := range events {
		switch ev.Phase {
		case domain.StateStarting, domain.StateDownloading:
			assert.GreaterOrEqual(t, ev.Rate, domain.MinRate)
			assert.LessOrEqual(t, ev.Rate, domain.MaxRate)
			assert.GreaterOrEqual(t, ev.Percent, 0.0)
			assert.LessOrEqual(t, ev.Percent, 1.0)
		case domain.StateFinalizing:
			assert.Equal(t, domain.FinalizingRate, ev.Rate)
		}
	}
	assert.Equal(t, []domain.JobState{
		domain.StateStarting,
		domain.StateDownloading,
		domain.StateFinalizing,
		domain.StateSucceeded,
	}, phases(events))
}

func TestJobCoordinator_PhaseNeverMovesBackwards(t *testing.T) {
	// video and audio streams each report their own download and finish
	engine := &fakeEngine{
		progress: []domain.RawProgress{
			{Status: "downloading", PercentStr: "50%", SpeedStr: "1.00MiB/s"},
			{Status: "finished"},
			{Status: "downloading", PercentStr: "10%", SpeedStr: "2.00MiB/s"},
			{Status: "finished"},
		},
		result: domain.EngineResult{FilePath: "/tmp/out/clip.mp4", MediaType: "video/mp4"},
	}
	f := newFixture(t, engine)
	sub := f.coord.Subscribe()
	defer sub.Close()

	job := f.submit(t)
	events := collectUntilTerminal(t, sub)
	// the terminal event is the Idle signal
	assert.Equal(t, domain.StateIdle, f.coord.State())
	f.coord.Wait()

	assert.Equal(t, []domain.JobState{
		domain.StateStarting,
		domain.StateDownloading,
		domain.StateFinalizing,
		domain.StateSucceeded,
	}, phases(events))
	assert.Equal(t, MessageFinalizing, events[2].Message)
	assert.Equal(t, domain.FinalizingRate, events[2].Rate)

	stored, err := f.repo.FindByID(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusSucceeded, stored.Status)
}

func TestJobCoordinator_LateSubscriberSeesCurrentEvent(t *testing.T) {
	engine := &fakeEngine{
		progress: []domain.RawProgress{{Status: "downloading", PercentStr: "40%"}},
		release:  make(chan struct{}),
	}
	f := newFixture(t, engine)
	early := f.coord.Subscribe()
	defer early.Close()

	f.submit(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for {
		ev, err := early.Next(ctx)
		require.NoError(t, err)
		if ev.Phase == domain.StateDownloading {
			break
		}
	}

	late := f.coord.Subscribe()
	defer late.Close()
	ev, ok := late.Poll()
	require.True(t, ok)
	assert.Equal(t, domain.StateDownloading, ev.Phase)
	assert.InDelta(t, 0.4, ev.Percent, 1e-9)

	status := f.coord.Status()
	assert.Equal(t, domain.StateDownloading, status.State)
	require.NotNil(t, status.LastEvent)

	close(engine.release)
	collectUntilTerminal(t, late)
	f.coord.Wait()
}

func TestJobCoordinator_HistoryFailureDoesNotAffectJob(t *testing.T) {
	engine := &fakeEngine{}
	f := newFixture(t, engine)
	f.repo.err = errors.New("database is locked")
	sub := f.coord.Subscribe()
	defer sub.Close()

	f.submit(t)
	events := collectUntilTerminal(t, sub)
	f.coord.Wait()

	assert.Equal(t, domain.StateSucceeded, events[len(events)-1].Phase)
}
