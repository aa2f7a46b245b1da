package domain

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Storage      StorageConfig      `mapstructure:"storage"`
	Notification NotificationConfig `mapstructure:"notification"`
	Logging      LoggingConfig      `mapstructure:"logging"`
}

// ServerConfig contains server-related configuration
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

// EngineConfig configures the yt-dlp process
type EngineConfig struct {
	YTDLPBinary    string `mapstructure:"ytdlp_binary"`
	FFmpegLocation string `mapstructure:"ffmpeg_location"` // empty = let yt-dlp find ffmpeg
	ExtraQuiet     bool   `mapstructure:"extra_quiet"`     // suppress yt-dlp warnings
}

// StorageConfig holds every on-disk location the application uses
type StorageConfig struct {
	SettingsFile     string `mapstructure:"settings_file"`
	HistoryDB        string `mapstructure:"history_db"`
	LogsDir          string `mapstructure:"logs_dir"`
	DefaultOutputDir string `mapstructure:"default_output_dir"`
}

// NotificationConfig contains notification-related configuration
type NotificationConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   bool   `mapstructure:"sound"`
	Method  string `mapstructure:"method"` // osascript, notify-send
}

// LoggingConfig contains logging-related configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`       // debug, info, warn, error
	Format     string `mapstructure:"format"`      // json, console
	OutputPath string `mapstructure:"output_path"` // stdout, stderr, or file path
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 8080,
		},
		Engine: EngineConfig{
			YTDLPBinary:    "yt-dlp",
			FFmpegLocation: "",
			ExtraQuiet:     false,
		},
		Storage: StorageConfig{
			SettingsFile:     "$HOME/.novastream_settings.json",
			HistoryDB:        "$HOME/.novastream/history.db",
			LogsDir:          "$HOME/.novastream/logs",
			DefaultOutputDir: "$HOME/Downloads",
		},
		Notification: NotificationConfig{
			Enabled: false,
			Sound:   true,
			Method:  "osascript",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "console",
			OutputPath: "stdout",
		},
	}
}
