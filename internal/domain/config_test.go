package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	assert.NotNil(t, config)
	assert.Equal(t, "localhost", config.Server.Host)
	assert.Equal(t, 8080, config.Server.Port)
	assert.Equal(t, "yt-dlp", config.Engine.YTDLPBinary)
	assert.Empty(t, config.Engine.FFmpegLocation)
	assert.Equal(t, "$HOME/.novastream_settings.json", config.Storage.SettingsFile)
	assert.Equal(t, "$HOME/Downloads", config.Storage.DefaultOutputDir)
	assert.False(t, config.Notification.Enabled)
	assert.Equal(t, "info", config.Logging.Level)
}
