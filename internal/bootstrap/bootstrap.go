// Package bootstrap assembles the coordinator and its adapters from a loaded
// configuration. Both the HTTP server and the CLI use it.
package bootstrap

import (
	"fmt"

	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/internal/infrastructure"
	"github.com/novastream/novastream-go/pkg/logger"
	"go.uber.org/zap"
)

// Services is the wired application
type Services struct {
	Config      *domain.Config
	Coordinator *app.JobCoordinator
	Settings    *app.SettingsStore
	Repository  *infrastructure.SQLiteJobRepository
	Journal     *logger.MultiLogger
	Logger      *zap.Logger
}

// Build opens the journal, the settings file and the history database and
// creates an idle coordinator. A history database that cannot be opened is
// logged and left out; the coordinator runs without it.
func Build(config *domain.Config, log *zap.Logger) (*Services, error) {
	if log == nil {
		log = zap.NewNop()
	}

	journal, err := logger.NewMultiLogger(logger.MultiLoggerConfig{
		Level:   config.Logging.Level,
		LogsDir: config.Storage.LogsDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize journal: %w", err)
	}

	settings := app.NewSettingsStore(infrastructure.NewSettingsFile(config.Storage.SettingsFile), log)
	loaded := settings.Load()
	log.Debug("Settings loaded",
		zap.String("path", config.Storage.SettingsFile),
		zap.String("theme", string(loaded.Theme)),
		zap.Bool("auto_open", loaded.AutoOpenFolder),
		zap.String("mp3_quality", loaded.AudioBitrateKbps.String()))

	s := &Services{
		Config:   config,
		Settings: settings,
		Journal:  journal,
		Logger:   log,
	}

	opts := app.CoordinatorOptions{
		Engine:           infrastructure.NewYTDLPEngine(&config.Engine, config.Storage.LogsDir, journal, log),
		Settings:         settings,
		Revealer:         infrastructure.NewOSFolderRevealer(),
		Journal:          journal,
		Logger:           log,
		DefaultOutputDir: config.Storage.DefaultOutputDir,
	}

	repo, err := infrastructure.NewSQLiteJobRepository(config.Storage.HistoryDB)
	if err != nil {
		log.Warn("Job history disabled", zap.String("path", config.Storage.HistoryDB), zap.Error(err))
		journal.LogAppError("history database unavailable", zap.Error(err))
	} else {
		s.Repository = repo
		opts.Repository = repo
	}

	if config.Notification.Enabled {
		opts.Notifier = infrastructure.NewNotificationService(&config.Notification, log)
	}

	s.Coordinator = app.NewJobCoordinator(opts)
	return s, nil
}

// History returns the repository as a port, or nil when history is disabled
func (s *Services) History() domain.JobRepository {
	if s.Repository == nil {
		return nil
	}
	return s.Repository
}

// Close waits for a running job and releases the database and log files
func (s *Services) Close() error {
	s.Coordinator.Wait()

	var firstErr error
	if s.Repository != nil {
		if err := s.Repository.Close(); err != nil {
			firstErr = err
		}
	}
	if err := s.Journal.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}
