package domain

// Theme is the UI colour scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Palette is the accent colour set used by the front ends
type Palette string

const (
	PaletteBlueishWhite  Palette = "blueish-white"
	PaletteGreenishWhite Palette = "greenish-white"
	PaletteDarkPink      Palette = "dark-pink"
	PaletteDarkOrange    Palette = "dark-orange"
)

// Language is the UI string table
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageFrench  Language = "fr"
)

var (
	Themes    = []Theme{ThemeDark, ThemeLight}
	Palettes  = []Palette{PaletteBlueishWhite, PaletteGreenishWhite, PaletteDarkPink, PaletteDarkOrange}
	Languages = []Language{LanguageEnglish, LanguageFrench}
)

// Setting keys as they appear in the persisted document and in updateSetting
const (
	SettingTheme     = "theme"
	SettingPalette   = "palette"
	SettingLanguage  = "language"
	SettingAutoOpen  = "auto_open"
	SettingShowSpeed = "show_speed"
	SettingBitrate   = "mp3_quality"
)

// SettingKeys lists every recognized key in persisted order
var SettingKeys = []string{
	SettingTheme, SettingPalette, SettingLanguage,
	SettingAutoOpen, SettingShowSpeed, SettingBitrate,
}

// Settings is the user's preferences record. It is a plain value: copying it
// yields an independent snapshot.
type Settings struct {
	Theme            Theme        `json:"theme"`
	Palette          Palette      `json:"palette"`
	Language         Language     `json:"language"`
	AutoOpenFolder   bool         `json:"auto_open"`
	ShowSpeed        bool         `json:"show_speed"`
	AudioBitrateKbps AudioBitrate `json:"mp3_quality"`
}

// DefaultSettings returns the built-in preferences
func DefaultSettings() Settings {
	return Settings{
		Theme:            ThemeDark,
		Palette:          PaletteBlueishWhite,
		Language:         LanguageEnglish,
		AutoOpenFolder:   false,
		ShowSpeed:        true,
		AudioBitrateKbps: Bitrate128,
	}
}

// IsValidTheme checks if a theme is recognized
func IsValidTheme(t Theme) bool {
	for _, v := range Themes {
		if v == t {
			return true
		}
	}
	return false
}

// IsValidPalette checks if a palette is recognized
func IsValidPalette(p Palette) bool {
	for _, v := range Palettes {
		if v == p {
			return true
		}
	}
	return false
}

// IsValidLanguage checks if a language is recognized
func IsValidLanguage(l Language) bool {
	for _, v := range Languages {
		if v == l {
			return true
		}
	}
	return false
}

// IsValidBitrate checks if a bitrate is one of the enumerated values
func IsValidBitrate(b AudioBitrate) bool {
	for _, v := range AudioBitrates {
		if v == b {
			return true
		}
	}
	return false
}

// Valid reports whether every enumerated field holds a recognized value
func (s Settings) Valid() bool {
	return IsValidTheme(s.Theme) &&
		IsValidPalette(s.Palette) &&
		IsValidLanguage(s.Language) &&
		IsValidBitrate(s.AudioBitrateKbps)
}
