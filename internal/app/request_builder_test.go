package app

import (
	"path/filepath"
	"testing"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOptions(t *testing.T, in SubmitInput, settings domain.Settings) domain.EngineOptions {
	t.Helper()
	req, err := BuildRequest(in, settings)
	require.NoError(t, err)
	opts, err := LowerOptions(req)
	require.NoError(t, err)
	return opts
}

func TestBuildRequest_Video720(t *testing.T) {
	dir := t.TempDir()
	opts := buildOptions(t, SubmitInput{
		RawURL:  "https://example.com/v",
		RawPath: dir,
		Mode:    "video",
		Quality: "720",
	}, domain.DefaultSettings())

	assert.Equal(t,
		"bestvideo[height<=720][ext=mp4]+bestaudio[ext=m4a]/bestvideo[height<=720][ext=mp4]+bestaudio/bestvideo[height<=720]+bestaudio/best",
		opts.Format)
	assert.Equal(t, "mp4", opts.MergeOutputFormat)
	assert.Empty(t, opts.Postprocessors)
	assert.Equal(t, "https://example.com/v", opts.URL)
}

func TestBuildRequest_VideoBest(t *testing.T) {
	opts := buildOptions(t, SubmitInput{
		RawURL:  "https://example.com/v",
		RawPath: t.TempDir(),
		Mode:    "video",
		Quality: "best",
	}, domain.DefaultSettings())

	assert.Equal(t,
		"bestvideo[ext=mp4]+bestaudio[ext=m4a]/bestvideo[ext=mp4]+bestaudio/bestvideo+bestaudio/best",
		opts.Format)
}

func TestBuildRequest_Audio192(t *testing.T) {
	settings := domain.DefaultSettings()
	settings.AudioBitrateKbps = domain.Bitrate192

	req, err := BuildRequest(SubmitInput{
		RawURL:  "https://example.com/v",
		RawPath: t.TempDir(),
		Mode:    "audio",
		Quality: "720",
	}, settings)
	require.NoError(t, err)
	assert.Equal(t, domain.QualityBest, req.QualityCeiling)
	assert.Equal(t, domain.Bitrate192, req.AudioBitrateKbps)

	opts, err := LowerOptions(req)
	require.NoError(t, err)

	assert.Equal(t, "bestaudio/best", opts.Format)
	assert.Empty(t, opts.MergeOutputFormat)
	require.Len(t, opts.Postprocessors, 1)
	assert.Equal(t, domain.Postprocessor{
		Key:              "FFmpegExtractAudio",
		PreferredCodec:   "mp3",
		PreferredQuality: "192",
	}, opts.Postprocessors[0])
}

func TestBuildRequest_AudioIgnoresInvalidQuality(t *testing.T) {
	_, err := BuildRequest(SubmitInput{
		RawURL:  "https://example.com/v",
		RawPath: t.TempDir(),
		Mode:    "audio",
		Quality: "garbage",
	}, domain.DefaultSettings())
	assert.NoError(t, err)
}

func TestBuildRequest_Subtitles(t *testing.T) {
	in := SubmitInput{RawURL: "https://example.com/v", RawPath: t.TempDir(), Mode: "video"}

	opts := buildOptions(t, in, domain.DefaultSettings())
	assert.False(t, opts.WriteSubtitles)
	assert.Nil(t, opts.SubtitleLangs)

	in.Subtitles = []string{}
	opts = buildOptions(t, in, domain.DefaultSettings())
	assert.False(t, opts.WriteSubtitles)

	in.Subtitles = []string{"fr", "en"}
	opts = buildOptions(t, in, domain.DefaultSettings())
	assert.True(t, opts.WriteSubtitles)
	assert.Equal(t, []string{"en", "fr"}, opts.SubtitleLangs)
}

func TestBuildRequest_OutputTemplate(t *testing.T) {
	dir, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)

	opts := buildOptions(t, SubmitInput{RawURL: "https://example.com/v", RawPath: dir}, domain.DefaultSettings())
	assert.Equal(t, filepath.Join(dir, "%(title)s.%(ext)s"), opts.OutputTemplate)
}

func TestBuildRequest_ValidationErrors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		in   SubmitInput
	}{
		{"bad url", SubmitInput{RawURL: "https://example.com/v;rm -rf", RawPath: dir}},
		{"bad scheme", SubmitInput{RawURL: "ftp://example.com/v", RawPath: dir}},
		{"null path", SubmitInput{RawURL: "https://example.com/v", RawPath: "/tmp/\x00"}},
		{"bad mode", SubmitInput{RawURL: "https://example.com/v", RawPath: dir, Mode: "gif"}},
		{"bad quality", SubmitInput{RawURL: "https://example.com/v", RawPath: dir, Quality: "hd"}},
		{"bad subtitle", SubmitInput{RawURL: "https://example.com/v", RawPath: dir, Subtitles: []string{"--exec"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildRequest(tt.in, domain.DefaultSettings())
			require.Error(t, err)
			assert.True(t, domain.IsValidationError(err))
		})
	}
}

func TestLowerOptions_RejectsIncompleteRequest(t *testing.T) {
	_, err := LowerOptions(domain.DownloadRequest{})
	assert.Error(t, err)

	_, err = LowerOptions(domain.DownloadRequest{URL: "https://example.com", OutputDir: "/tmp", Mode: "gif"})
	assert.Error(t, err)
}
