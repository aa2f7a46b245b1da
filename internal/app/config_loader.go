package app

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/spf13/viper"
)

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*domain.Config, error) {
	config := domain.DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.novastream")
		v.AddConfigPath("/etc/novastream")
	}

	v.SetEnvPrefix("NOVASTREAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindDefaults(v, config)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found, use defaults
	}

	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = expandPaths(config)

	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// bindDefaults registers every key with the values in config. LoadConfig uses
// it so AutomaticEnv sees keys absent from the file; SaveConfig uses it to
// write the file with the mapstructure key names.
func bindDefaults(v *viper.Viper, config *domain.Config) {
	v.SetDefault("server.host", config.Server.Host)
	v.SetDefault("server.port", config.Server.Port)
	v.SetDefault("engine.ytdlp_binary", config.Engine.YTDLPBinary)
	v.SetDefault("engine.ffmpeg_location", config.Engine.FFmpegLocation)
	v.SetDefault("engine.extra_quiet", config.Engine.ExtraQuiet)
	v.SetDefault("storage.settings_file", config.Storage.SettingsFile)
	v.SetDefault("storage.history_db", config.Storage.HistoryDB)
	v.SetDefault("storage.logs_dir", config.Storage.LogsDir)
	v.SetDefault("storage.default_output_dir", config.Storage.DefaultOutputDir)
	v.SetDefault("notification.enabled", config.Notification.Enabled)
	v.SetDefault("notification.sound", config.Notification.Sound)
	v.SetDefault("notification.method", config.Notification.Method)
	v.SetDefault("logging.level", config.Logging.Level)
	v.SetDefault("logging.format", config.Logging.Format)
	v.SetDefault("logging.output_path", config.Logging.OutputPath)
}

// expandPaths expands environment variables in path configurations
func expandPaths(config *domain.Config) *domain.Config {
	config.Storage.SettingsFile = expandPath(config.Storage.SettingsFile)
	config.Storage.HistoryDB = expandPath(config.Storage.HistoryDB)
	config.Storage.LogsDir = expandPath(config.Storage.LogsDir)
	config.Storage.DefaultOutputDir = expandPath(config.Storage.DefaultOutputDir)
	config.Engine.FFmpegLocation = expandPath(config.Engine.FFmpegLocation)

	if config.Logging.OutputPath != "stdout" && config.Logging.OutputPath != "stderr" {
		config.Logging.OutputPath = expandPath(config.Logging.OutputPath)
	}

	return config
}

// expandPath expands environment variables and ~ in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") || path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}

	// $HOME first so it works even when the variable is unset
	if strings.Contains(path, "$HOME") {
		if home, err := os.UserHomeDir(); err == nil {
			path = strings.ReplaceAll(path, "$HOME", home)
		}
	}

	return os.ExpandEnv(path)
}

// validateConfig validates the configuration
func validateConfig(config *domain.Config) error {
	if config.Server.Port < 1 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	if config.Engine.YTDLPBinary == "" {
		return fmt.Errorf("yt-dlp binary not configured")
	}

	if config.Storage.SettingsFile == "" {
		return fmt.Errorf("settings file path not configured")
	}

	if config.Storage.HistoryDB == "" {
		return fmt.Errorf("history database path not configured")
	}

	if config.Storage.LogsDir == "" {
		return fmt.Errorf("logs directory not configured")
	}

	if config.Logging.Level == "" {
		config.Logging.Level = "info"
	}

	return nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *domain.Config, path string) error {
	v := viper.New()
	v.SetConfigType("yaml")

	bindDefaults(v, config)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
