package app

import (
	"fmt"
	"path/filepath"

	"github.com/novastream/novastream-go/internal/domain"
)

// SubmitInput carries the raw, untrusted strings from a front end
type SubmitInput struct {
	RawURL    string   `json:"url"`
	RawPath   string   `json:"output_dir"`
	Mode      string   `json:"mode"`
	Quality   string   `json:"quality"`
	Subtitles []string `json:"subtitles"`
}

// Output template placed under the validated directory
const outputTemplateName = "%(title)s.%(ext)s"

// mergeContainer is the container used for muxed video downloads
const mergeContainer = "mp4"

// audioCodec is the codec audio-only downloads are transcoded to
const audioCodec = "mp3"

// BuildRequest validates raw input and combines it with a settings snapshot
// into a DownloadRequest. Quality is ignored for audio downloads.
func BuildRequest(in SubmitInput, settings domain.Settings) (domain.DownloadRequest, error) {
	url, err := domain.ValidateURL(in.RawURL)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	dir, err := domain.ValidatePath(in.RawPath)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	mode, err := domain.ParseMode(in.Mode)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	quality := domain.QualityBest
	if mode == domain.ModeVideo {
		quality, err = domain.ParseQuality(in.Quality)
		if err != nil {
			return domain.DownloadRequest{}, err
		}
	}

	langs, err := domain.NormalizeSubtitleLangs(in.Subtitles)
	if err != nil {
		return domain.DownloadRequest{}, err
	}

	bitrate := settings.AudioBitrateKbps
	if !domain.IsValidBitrate(bitrate) {
		bitrate = domain.DefaultSettings().AudioBitrateKbps
	}

	return domain.DownloadRequest{
		URL:              url,
		OutputDir:        dir,
		Mode:             mode,
		QualityCeiling:   quality,
		SubtitleLangs:    langs,
		AudioBitrateKbps: bitrate,
	}, nil
}

// LowerOptions turns a DownloadRequest into engine options
func LowerOptions(req domain.DownloadRequest) (domain.EngineOptions, error) {
	if req.URL == "" || req.OutputDir == "" {
		return domain.EngineOptions{}, fmt.Errorf("request is missing url or output directory")
	}

	opts := domain.EngineOptions{
		URL:            req.URL,
		OutputTemplate: filepath.Join(req.OutputDir, outputTemplateName),
	}

	switch req.Mode {
	case domain.ModeVideo:
		opts.Format = videoFormatSelector(req.QualityCeiling)
		opts.MergeOutputFormat = mergeContainer
	case domain.ModeAudio:
		if !domain.IsValidBitrate(req.AudioBitrateKbps) {
			return domain.EngineOptions{}, fmt.Errorf("unsupported audio bitrate: %d", req.AudioBitrateKbps)
		}
		opts.Format = "bestaudio/best"
		opts.Postprocessors = []domain.Postprocessor{{
			Key:              domain.PostprocessorExtractAudio,
			PreferredCodec:   audioCodec,
			PreferredQuality: req.AudioBitrateKbps.String(),
		}}
	default:
		return domain.EngineOptions{}, fmt.Errorf("unsupported mode: %q", req.Mode)
	}

	// An empty selection must not set the subtitle flag at all.
	if len(req.SubtitleLangs) > 0 {
		opts.WriteSubtitles = true
		opts.SubtitleLangs = append([]string(nil), req.SubtitleLangs...)
	}

	return opts, nil
}

// videoFormatSelector builds the three-tier mp4-preferring fallback chain,
// constrained to height <= ceiling at every tier unless ceiling is QualityBest.
func videoFormatSelector(ceiling int) string {
	video := "bestvideo"
	if ceiling != domain.QualityBest {
		video = fmt.Sprintf("bestvideo[height<=%d]", ceiling)
	}
	return video + "[ext=mp4]+bestaudio[ext=m4a]/" +
		video + "[ext=mp4]+bestaudio/" +
		video + "+bestaudio/best"
}
