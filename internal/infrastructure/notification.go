package infrastructure

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/novastream/novastream-go/internal/domain"
	"go.uber.org/zap"
)

// commandRunner runs an external command to completion
type commandRunner func(name string, args ...string) error

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// NotificationService sends desktop notifications for finished jobs
type NotificationService struct {
	config *domain.NotificationConfig
	logger *zap.Logger
	run    commandRunner
}

// NewNotificationService creates a new notification service
func NewNotificationService(config *domain.NotificationConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		config: config,
		logger: logger,
		run:    runCommand,
	}
}

// Send sends a notification
func (n *NotificationService) Send(title, message string) error {
	if !n.config.Enabled {
		n.logger.Debug("Notifications disabled, skipping",
			zap.String("title", title),
			zap.String("message", message))
		return nil
	}

	var err error
	switch n.config.Method {
	case "osascript":
		err = n.run("osascript", "-e", appleScriptNotification(title, message, n.config.Sound))
	case "notify-send":
		err = n.run("notify-send", "--app-name=NovaStream", title, message)
	default:
		n.logger.Warn("Unknown notification method", zap.String("method", n.config.Method))
		return nil
	}

	if err != nil {
		n.logger.Error("Failed to send notification",
			zap.String("method", n.config.Method),
			zap.Error(err))
		return err
	}

	n.logger.Debug("Notification sent",
		zap.String("title", title),
		zap.String("message", message))
	return nil
}

// NotifyJobSucceeded announces a finished download
func (n *NotificationService) NotifyJobSucceeded(job *domain.Job) error {
	name := truncateString(job.URL, 40)
	if job.FilePath != "" {
		name = filepath.Base(job.FilePath)
	}
	return n.Send("Download Completed", "Saved "+name)
}

// NotifyJobFailed announces a failed download
func (n *NotificationService) NotifyJobFailed(job *domain.Job) error {
	return n.Send("Download Failed", fmt.Sprintf("%s: %s",
		truncateString(job.URL, 40), truncateString(job.ErrorMessage, 80)))
}

// appleScriptNotification builds a display-notification script with both
// strings escaped as AppleScript literals.
func appleScriptNotification(title, message string, sound bool) string {
	script := fmt.Sprintf(`display notification %s with title %s`,
		appleScriptString(message), appleScriptString(title))
	if sound {
		script += ` sound name "Glass"`
	}
	return script
}

func appleScriptString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `"`, `\"`)
	return `"` + s + `"`
}

// truncateString truncates a string to at most maxLen runes
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
