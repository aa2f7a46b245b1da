package domain

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Mode selects between a muxed video download and an audio-only extraction
type Mode string

const (
	ModeVideo Mode = "video"
	ModeAudio Mode = "audio"
)

// ParseMode accepts "video" or "audio" (case-insensitive)
func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeVideo, "":
		return ModeVideo, nil
	case ModeAudio:
		return ModeAudio, nil
	default:
		return "", NewValidationError("mode", "must be video or audio")
	}
}

// QualityBest means no ceiling on video height
const QualityBest = 0

// QualityChoices are the presets offered to the user. Any positive height is accepted.
var QualityChoices = []string{"best", "1080", "720", "480", "360", "240"}

// ParseQuality converts "best", "720" or "720p" into a height ceiling.
// QualityBest (0) means unconstrained.
func ParseQuality(raw string) (int, error) {
	q := strings.ToLower(strings.TrimSpace(raw))
	if q == "" || q == "best" {
		return QualityBest, nil
	}

	q = strings.TrimSuffix(q, "p")
	height, err := strconv.Atoi(q)
	if err != nil || height <= 0 {
		return 0, NewValidationError("quality", "must be best or a positive pixel height")
	}
	return height, nil
}

// AudioBitrate is the mp3 transcoding bitrate in kbps
type AudioBitrate int

const (
	Bitrate96  AudioBitrate = 96
	Bitrate128 AudioBitrate = 128
	Bitrate192 AudioBitrate = 192
	Bitrate320 AudioBitrate = 320
)

// AudioBitrates lists the accepted bitrates in ascending order
var AudioBitrates = []AudioBitrate{Bitrate96, Bitrate128, Bitrate192, Bitrate320}

// ParseAudioBitrate accepts "192", "192k" or "192 kbps"
func ParseAudioBitrate(raw string) (AudioBitrate, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.TrimSuffix(s, "kbps")
	s = strings.TrimSuffix(strings.TrimSpace(s), "k")
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	for _, b := range AudioBitrates {
		if int(b) == n {
			return b, true
		}
	}
	return 0, false
}

func (b AudioBitrate) String() string {
	return strconv.Itoa(int(b))
}

// SubtitleChoices are the subtitle languages offered by the front ends
var SubtitleChoices = []string{"en", "fr"}

var langCodePattern = regexp.MustCompile(`^[a-z]{2,3}(-[A-Za-z0-9]{2,8})?$`)

// NormalizeSubtitleLangs validates language codes and returns them as a sorted,
// de-duplicated set. An empty input yields nil.
func NormalizeSubtitleLangs(raw []string) ([]string, error) {
	seen := make(map[string]bool, len(raw))
	var langs []string
	for _, r := range raw {
		code := strings.TrimSpace(r)
		if code == "" {
			continue
		}
		if !langCodePattern.MatchString(code) {
			return nil, NewValidationError("subtitles", "unsupported language code "+strconv.Quote(code))
		}
		if !seen[code] {
			seen[code] = true
			langs = append(langs, code)
		}
	}
	sort.Strings(langs)
	return langs, nil
}

// DownloadRequest is a validated, engine-agnostic description of one job.
// It is built fresh for every submission and treated as immutable afterwards.
type DownloadRequest struct {
	URL              string       `json:"url"`
	OutputDir        string       `json:"output_dir"`
	Mode             Mode         `json:"mode"`
	QualityCeiling   int          `json:"quality_ceiling"` // 0 = best
	SubtitleLangs    []string     `json:"subtitle_langs,omitempty"`
	AudioBitrateKbps AudioBitrate `json:"audio_bitrate_kbps"`
}

// QualityLabel renders the quality ceiling the way users choose it
func (r DownloadRequest) QualityLabel() string {
	if r.QualityCeiling == QualityBest {
		return "best"
	}
	return strconv.Itoa(r.QualityCeiling)
}

// Postprocessor is a single engine post-processing directive
type Postprocessor struct {
	Key              string `json:"key"`
	PreferredCodec   string `json:"preferred_codec,omitempty"`
	PreferredQuality string `json:"preferred_quality,omitempty"`
}

// PostprocessorExtractAudio transcodes the downloaded stream to an audio file
const PostprocessorExtractAudio = "FFmpegExtractAudio"

// EngineOptions is a DownloadRequest lowered into engine terms. Every value in
// it has passed validation or is a fixed literal.
type EngineOptions struct {
	URL               string          `json:"url"`
	Format            string          `json:"format"`
	OutputTemplate    string          `json:"output_template"`
	MergeOutputFormat string          `json:"merge_output_format,omitempty"`
	Postprocessors    []Postprocessor `json:"postprocessors,omitempty"`
	WriteSubtitles    bool            `json:"write_subtitles,omitempty"`
	SubtitleLangs     []string        `json:"subtitle_langs,omitempty"`
}
