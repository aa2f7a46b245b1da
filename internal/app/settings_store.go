package app

import (
	"encoding/json"
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"sync"

	"github.com/novastream/novastream-go/internal/domain"
	"go.uber.org/zap"
)

// SettingsStore owns the user's preferences. Every mutation is flushed to the
// persistence synchronously; write failures are logged and swallowed.
type SettingsStore struct {
	persistence domain.SettingsPersistence
	logger      *zap.Logger
	current     domain.Settings
	mu          sync.RWMutex

	// saveMu orders mutations with their flushes so the file always holds
	// the latest record. Readers only take mu.
	saveMu sync.Mutex
}

// NewSettingsStore creates a store holding the defaults. Call Load to read the
// persisted record.
func NewSettingsStore(persistence domain.SettingsPersistence, logger *zap.Logger) *SettingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsStore{
		persistence: persistence,
		logger:      logger,
		current:     domain.DefaultSettings(),
	}
}

// Load reads the persisted record. Missing, unreadable or corrupt files yield
// the defaults; unrecognized values fall back to the default for that field only.
func (s *SettingsStore) Load() domain.Settings {
	settings := domain.DefaultSettings()

	data, err := s.persistence.Load()
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.logger.Debug("Settings file not found, using defaults", zap.String("path", s.persistence.Path()))
	case err != nil:
		s.logger.Warn("Failed to read settings, using defaults",
			zap.Error(&domain.SettingsIOError{Op: "read", Path: s.persistence.Path(), Err: err}))
	default:
		settings = decodeSettings(data, s.logger)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	return settings
}

// Save replaces the current record and flushes it
func (s *SettingsStore) Save(settings domain.Settings) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	s.flush(settings)
}

// Get returns a snapshot of the current settings
func (s *SettingsStore) Get() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Update sets one key from its string form and persists the result.
// Unknown keys and unrecognized values are rejected with a ValidationError.
func (s *SettingsStore) Update(key, value string) (domain.Settings, error) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	next := s.current
	if err := applySetting(&next, key, value); err != nil {
		s.mu.Unlock()
		return s.Get(), err
	}
	s.current = next
	s.mu.Unlock()

	s.flush(next)
	return next, nil
}

func (s *SettingsStore) flush(settings domain.Settings) {
	data, err := encodeSettings(settings)
	if err == nil {
		err = s.persistence.Save(data)
	}
	if err != nil {
		s.logger.Warn("Failed to persist settings",
			zap.Error(&domain.SettingsIOError{Op: "write", Path: s.persistence.Path(), Err: err}))
	}
}

// applySetting parses value for key into settings
func applySetting(settings *domain.Settings, key, value string) error {
	value = strings.TrimSpace(value)

	switch key {
	case domain.SettingTheme:
		if !domain.IsValidTheme(domain.Theme(value)) {
			return domain.NewValidationError(key, "unknown theme "+strconv.Quote(value))
		}
		settings.Theme = domain.Theme(value)
	case domain.SettingPalette:
		if !domain.IsValidPalette(domain.Palette(value)) {
			return domain.NewValidationError(key, "unknown palette "+strconv.Quote(value))
		}
		settings.Palette = domain.Palette(value)
	case domain.SettingLanguage:
		if !domain.IsValidLanguage(domain.Language(value)) {
			return domain.NewValidationError(key, "unknown language "+strconv.Quote(value))
		}
		settings.Language = domain.Language(value)
	case domain.SettingAutoOpen, domain.SettingShowSpeed:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return domain.NewValidationError(key, "must be true or false")
		}
		if key == domain.SettingAutoOpen {
			settings.AutoOpenFolder = b
		} else {
			settings.ShowSpeed = b
		}
	case domain.SettingBitrate:
		b, ok := domain.ParseAudioBitrate(value)
		if !ok {
			return domain.NewValidationError(key, "must be one of 96, 128, 192, 320")
		}
		settings.AudioBitrateKbps = b
	default:
		return domain.NewValidationError("setting", "unknown key "+strconv.Quote(key))
	}
	return nil
}

// decodeSettings recovers each field independently. A document that is not a
// JSON object yields exactly the defaults.
func decodeSettings(data []byte, logger *zap.Logger) domain.Settings {
	settings := domain.DefaultSettings()

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		logger.Warn("Settings file is corrupt, using defaults", zap.Error(err))
		return settings
	}

	for _, key := range domain.SettingKeys {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		value, ok := scalarString(raw)
		if !ok {
			logger.Warn("Ignoring non-scalar setting", zap.String("key", key))
			continue
		}
		if err := applySetting(&settings, key, value); err != nil {
			logger.Warn("Ignoring unrecognized setting", zap.String("key", key), zap.Error(err))
		}
	}

	return settings
}

// scalarString accepts a JSON string, bool or number and returns its text form
func scalarString(raw json.RawMessage) (string, bool) {
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch t := v.(type) {
	case string:
		return t, true
	case bool:
		return strconv.FormatBool(t), true
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true
	default:
		return "", false
	}
}

// persistedSettings is the on-disk shape. Unknown keys are dropped on save.
type persistedSettings struct {
	Theme     string `json:"theme"`
	Palette   string `json:"palette"`
	Language  string `json:"language"`
	AutoOpen  bool   `json:"auto_open"`
	ShowSpeed bool   `json:"show_speed"`
	Bitrate   string `json:"mp3_quality"`
}

func encodeSettings(settings domain.Settings) ([]byte, error) {
	return json.MarshalIndent(persistedSettings{
		Theme:     string(settings.Theme),
		Palette:   string(settings.Palette),
		Language:  string(settings.Language),
		AutoOpen:  settings.AutoOpenFolder,
		ShowSpeed: settings.ShowSpeed,
		Bitrate:   settings.AudioBitrateKbps.String(),
	}, "", "  ")
}
