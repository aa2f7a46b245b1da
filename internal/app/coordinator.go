package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// progressLogInterval bounds how often download progress reaches the debug log
const progressLogInterval = 2 * time.Second

// CoordinatorOptions wires the coordinator's collaborators. Engine and
// Settings are required; everything else may be nil.
type CoordinatorOptions struct {
	Engine           domain.Engine
	Settings         *SettingsStore
	Repository       domain.JobRepository
	Notifier         domain.Notifier
	Revealer         domain.FolderRevealer
	Journal          *logger.MultiLogger
	Logger           *zap.Logger
	DefaultOutputDir string
}

// Status is a point-in-time view of the coordinator
type Status struct {
	State     domain.JobState       `json:"state"`
	JobID     string                `json:"job_id,omitempty"`
	LastEvent *domain.ProgressEvent `json:"last_event,omitempty"`
}

// JobCoordinator runs at most one download at a time and publishes its
// progress as an ordered stream of ProgressEvents.
type JobCoordinator struct {
	engine           domain.Engine
	settings         *SettingsStore
	repo             domain.JobRepository
	notifier         domain.Notifier
	revealer         domain.FolderRevealer
	journal          *logger.MultiLogger
	logger           *zap.Logger
	defaultOutputDir string

	mu     sync.Mutex
	state  domain.JobState
	active *domain.Job
	last   *domain.ProgressEvent
	events *broadcaster

	progressLog rate.Sometimes
	wg          sync.WaitGroup
}

// NewJobCoordinator creates an idle coordinator
func NewJobCoordinator(opts CoordinatorOptions) *JobCoordinator {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &JobCoordinator{
		engine:           opts.Engine,
		settings:         opts.Settings,
		repo:             opts.Repository,
		notifier:         opts.Notifier,
		revealer:         opts.Revealer,
		journal:          opts.Journal,
		logger:           log,
		defaultOutputDir: opts.DefaultOutputDir,
		state:            domain.StateIdle,
		events:           newBroadcaster(),
		progressLog:      rate.Sometimes{Interval: progressLogInterval},
	}
}

// Submit validates raw input and starts a job. Validation failures and
// ErrJobActive are returned synchronously; everything else is reported
// through the event stream. The returned job is a copy.
func (c *JobCoordinator) Submit(in SubmitInput) (*domain.Job, error) {
	if strings.TrimSpace(in.RawPath) == "" {
		in.RawPath = c.defaultOutputDir
	}

	snapshot := c.settings.Get()
	req, err := BuildRequest(in, snapshot)
	if err != nil {
		c.journal.LogJobEvent("job_rejected", zap.String("reason", err.Error()))
		return nil, err
	}

	c.mu.Lock()
	if c.state != domain.StateIdle {
		state := c.state
		c.mu.Unlock()
		c.journal.LogJobEvent("job_rejected",
			zap.String("url", req.URL),
			zap.String("reason", "job active"),
			zap.String("state", string(state)))
		return nil, domain.ErrJobActive
	}

	job := domain.NewJob(req)
	c.state = domain.StateStarting
	c.active = job
	c.publishLocked(domain.ProgressEvent{
		JobID:   job.ID,
		Phase:   domain.StateStarting,
		Rate:    domain.DefaultRate,
		Message: MessageStarting,
	})
	submitted := *job
	c.wg.Add(1)
	c.mu.Unlock()

	c.logger.Info("Job submitted",
		zap.String("id", job.ID),
		zap.String("url", req.URL),
		zap.String("mode", string(req.Mode)),
		zap.String("quality", req.QualityLabel()),
		zap.String("output_dir", req.OutputDir))
	c.journal.LogJobEvent("job_submitted",
		zap.String("job_id", job.ID),
		zap.String("url", req.URL),
		zap.String("mode", string(req.Mode)),
		zap.String("output_dir", req.OutputDir))

	go c.run(job, req, snapshot)

	return &submitted, nil
}

// Subscribe returns a new ordered view of the event stream. While a job is
// running the subscription starts with its latest event. Idle is never
// published: a Succeeded or Failed event means the coordinator is Idle again.
func (c *JobCoordinator) Subscribe() *Subscription {
	c.mu.Lock()
	defer c.mu.Unlock()

	sub := c.events.subscribe()
	if c.state.IsActive() && c.last != nil {
		sub.publish(*c.last)
	}
	return sub
}

// State returns the current state
func (c *JobCoordinator) State() domain.JobState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Status returns the current state, the active job and the last event
func (c *JobCoordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	status := Status{State: c.state}
	if c.active != nil {
		status.JobID = c.active.ID
	}
	if c.last != nil {
		ev := *c.last
		status.LastEvent = &ev
	}
	return status
}

// Settings returns a snapshot of the user's settings
func (c *JobCoordinator) Settings() domain.Settings {
	return c.settings.Get()
}

// UpdateSetting changes one setting. A running job keeps the snapshot it
// started with.
func (c *JobCoordinator) UpdateSetting(key, value string) (domain.Settings, error) {
	return c.settings.Update(key, value)
}

// Wait blocks until the running job, if any, has finished
func (c *JobCoordinator) Wait() {
	c.wg.Wait()
}

// run is the worker. It is the only caller of the engine.
func (c *JobCoordinator) run(job *domain.Job, req domain.DownloadRequest, settings domain.Settings) {
	defer c.wg.Done()

	result, err := c.execute(job, req, settings)
	c.finish(job, req, settings, result, err)
}

// execute lowers the request and calls the engine, converting panics into
// an UnexpectedError.
func (c *JobCoordinator) execute(job *domain.Job, req domain.DownloadRequest, settings domain.Settings) (result domain.EngineResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			c.journal.LogAppError("Worker panic", zap.String("job_id", job.ID), zap.Any("panic", r))
			err = &domain.UnexpectedError{Detail: fmt.Sprint(r)}
		}
	}()

	if c.repo != nil {
		if err := c.repo.Create(job); err != nil {
			c.logger.Warn("Failed to record job", zap.String("id", job.ID), zap.Error(err))
		}
	}

	opts, err := LowerOptions(req)
	if err != nil {
		return domain.EngineResult{}, &domain.UnexpectedError{Detail: err.Error()}
	}

	return c.engine.Download(context.Background(), opts, func(raw domain.RawProgress) {
		c.handleProgress(job, settings, raw)
	})
}

// handleProgress normalizes one engine callback and publishes it
func (c *JobCoordinator) handleProgress(job *domain.Job, settings domain.Settings, raw domain.RawProgress) {
	ev, ok := NormalizeProgress(raw)
	if !ok {
		return
	}
	if !settings.ShowSpeed {
		ev.Speed = ""
	}
	ev.JobID = job.ID

	c.mu.Lock()
	if c.active != job || !c.state.IsActive() {
		c.mu.Unlock()
		return
	}
	// Phases only move forward. Multi-stream formats report a second
	// download after the first "finished"; that stays under Finalizing.
	if c.state == domain.StateFinalizing {
		c.mu.Unlock()
		return
	}

	changed := c.state != ev.Phase
	c.state = ev.Phase
	if changed {
		switch ev.Phase {
		case domain.StateDownloading:
			job.MarkDownloading()
		case domain.StateFinalizing:
			job.MarkFinalizing()
		}
	}
	c.publishLocked(ev)
	c.mu.Unlock()

	if !changed {
		c.progressLog.Do(func() {
			c.logger.Debug("Download progress",
				zap.String("id", job.ID),
				zap.Float64("percent", ev.Percent),
				zap.String("speed", ev.Speed))
		})
		return
	}

	c.journal.LogJobEvent("job_"+string(ev.Phase), zap.String("job_id", job.ID))
	c.persist(job)
}

// finish publishes the terminal event and returns to Idle in one step, then
// runs the post-completion side effects.
func (c *JobCoordinator) finish(job *domain.Job, req domain.DownloadRequest, settings domain.Settings, result domain.EngineResult, err error) {
	ev := domain.ProgressEvent{JobID: job.ID, Rate: domain.IdleRate}
	if err == nil {
		ev.Phase = domain.StateSucceeded
		ev.Message = MessageDone
	} else {
		ev.Phase = domain.StateFailed
		ev.ErrorDetail = failureDetail(err)
		ev.Message = failureMessage(err, ev.ErrorDetail)
	}

	c.mu.Lock()
	if err == nil {
		job.MarkSucceeded(result.FilePath, result.MediaType)
	} else {
		job.MarkFailed(errors.New(ev.ErrorDetail))
	}
	c.state = ev.Phase
	c.publishLocked(ev)
	c.state = domain.StateIdle
	c.active = nil
	c.mu.Unlock()

	c.persist(job)

	if err != nil {
		c.logger.Error("Job failed", zap.String("id", job.ID), zap.String("url", job.URL), zap.Error(err))
		c.journal.LogJobEvent("job_failed", zap.String("job_id", job.ID), zap.String("error", ev.ErrorDetail))
		var unexpected *domain.UnexpectedError
		if errors.As(err, &unexpected) {
			c.journal.LogAppError("Unexpected job failure", zap.String("job_id", job.ID), zap.Error(err))
		}
		c.notify(job, false)
		return
	}

	c.logger.Info("Job succeeded",
		zap.String("id", job.ID),
		zap.String("file", result.FilePath),
		zap.String("media_type", result.MediaType),
		zap.Duration("duration", job.Duration()))
	c.journal.LogJobEvent("job_succeeded",
		zap.String("job_id", job.ID),
		zap.String("file", result.FilePath),
		zap.String("media_type", result.MediaType))

	if settings.AutoOpenFolder && c.revealer != nil {
		if err := c.revealer.Reveal(req.OutputDir); err != nil {
			c.logger.Warn("Cannot open folder", zap.String("dir", req.OutputDir), zap.Error(err))
		}
	}
	c.notify(job, true)
}

// publishLocked stamps ev and fans it out. Caller holds c.mu.
func (c *JobCoordinator) publishLocked(ev domain.ProgressEvent) {
	ev.Timestamp = time.Now()
	c.last = &ev
	c.events.publish(ev)
}

func (c *JobCoordinator) persist(job *domain.Job) {
	if c.repo == nil {
		return
	}
	c.mu.Lock()
	snapshot := *job
	c.mu.Unlock()

	if err := c.repo.Update(&snapshot); err != nil {
		c.logger.Warn("Failed to update job history", zap.String("id", job.ID), zap.Error(err))
	}
}

func (c *JobCoordinator) notify(job *domain.Job, succeeded bool) {
	if c.notifier == nil {
		return
	}
	var err error
	if succeeded {
		err = c.notifier.NotifyJobSucceeded(job)
	} else {
		err = c.notifier.NotifyJobFailed(job)
	}
	if err != nil {
		c.logger.Debug("Notification failed", zap.Error(err))
	}
}

// failureDetail is never empty
func failureDetail(err error) string {
	if detail := strings.TrimSpace(err.Error()); detail != "" {
		return detail
	}
	return "unknown error"
}

func failureMessage(err error, detail string) string {
	var engineErr *domain.EngineError
	if errors.As(err, &engineErr) {
		return fmt.Sprintf(messageEngineError, detail)
	}
	return fmt.Sprintf(messageUnexpected, detail)
}
