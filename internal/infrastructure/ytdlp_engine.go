package infrastructure

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/h2non/filetype"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/pkg/logger"
	"go.uber.org/zap"
)

// Line prefixes emitted through --progress-template and --print
const (
	progressPrefix = "novastream-progress|"
	filePrefix     = "novastream-file|"
	errorPrefix    = "ERROR:"
)

const progressTemplate = "download:" + progressPrefix +
	"%(progress.status)s|%(progress._percent_str)s|%(progress._speed_str)s"

const filePrintTemplate = "after_move:" + filePrefix + "%(filepath)s"

// maxLineSize bounds a single line of yt-dlp output
const maxLineSize = 1024 * 1024

// YTDLPEngine implements domain.Engine by running the yt-dlp binary
type YTDLPEngine struct {
	config      *domain.EngineConfig
	logsDir     string
	eventLogger *logger.MultiLogger
	logger      *zap.Logger
}

// NewYTDLPEngine creates a new yt-dlp engine. Raw process output is appended
// to download-YYYYMMDD.log under logsDir when logsDir is set.
func NewYTDLPEngine(config *domain.EngineConfig, logsDir string, eventLogger *logger.MultiLogger, log *zap.Logger) *YTDLPEngine {
	if log == nil {
		log = zap.NewNop()
	}
	return &YTDLPEngine{
		config:      config,
		logsDir:     logsDir,
		eventLogger: eventLogger,
		logger:      log,
	}
}

// BuildArgs turns engine options into a yt-dlp argv. The URL always follows
// "--" so it can never be read as an option.
func (e *YTDLPEngine) BuildArgs(opts domain.EngineOptions) ([]string, error) {
	if opts.URL == "" || opts.Format == "" || opts.OutputTemplate == "" {
		return nil, fmt.Errorf("incomplete engine options")
	}

	args := []string{
		"--newline",
		"--progress",
		"--no-colors",
		"--no-simulate",
		"--progress-template", progressTemplate,
		"--print", filePrintTemplate,
		"-f", opts.Format,
		"-o", opts.OutputTemplate,
	}

	if opts.MergeOutputFormat != "" {
		args = append(args, "--merge-output-format", opts.MergeOutputFormat)
	}

	for _, pp := range opts.Postprocessors {
		switch pp.Key {
		case domain.PostprocessorExtractAudio:
			args = append(args, "-x")
			if pp.PreferredCodec != "" {
				args = append(args, "--audio-format", pp.PreferredCodec)
			}
			if pp.PreferredQuality != "" {
				if _, err := strconv.Atoi(pp.PreferredQuality); err != nil {
					return nil, fmt.Errorf("invalid audio quality %q", pp.PreferredQuality)
				}
				args = append(args, "--audio-quality", pp.PreferredQuality+"K")
			}
		default:
			return nil, fmt.Errorf("unsupported postprocessor %q", pp.Key)
		}
	}

	if opts.WriteSubtitles && len(opts.SubtitleLangs) > 0 {
		args = append(args, "--write-subs", "--sub-langs", strings.Join(opts.SubtitleLangs, ","))
	}

	if e.config.FFmpegLocation != "" {
		args = append(args, "--ffmpeg-location", e.config.FFmpegLocation)
	}

	if e.config.ExtraQuiet {
		args = append(args, "--no-warnings")
	}

	return append(args, "--", opts.URL), nil
}

// Download runs yt-dlp to completion, forwarding progress lines to hook.
// Hook calls are serialized and all happen before Download returns.
func (e *YTDLPEngine) Download(ctx context.Context, opts domain.EngineOptions, hook domain.ProgressHook) (domain.EngineResult, error) {
	args, err := e.BuildArgs(opts)
	if err != nil {
		return domain.EngineResult{}, &domain.EngineError{Detail: err.Error(), Err: err}
	}

	cmdLine := FormatCommandLine(e.config.YTDLPBinary, args...)
	e.logger.Debug("Running yt-dlp", zap.String("command", cmdLine))

	downloadLog := e.openLogFile()
	if downloadLog != nil {
		defer downloadLog.Close()
		writeLogHeader(downloadLog, cmdLine)
	}

	cmd := exec.CommandContext(ctx, e.config.YTDLPBinary, args...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return domain.EngineResult{}, &domain.EngineError{Detail: "failed to attach to yt-dlp", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return domain.EngineResult{}, &domain.EngineError{Detail: "failed to attach to yt-dlp", Err: err}
	}

	if err := cmd.Start(); err != nil {
		detail := fmt.Sprintf("failed to start %s: %v", e.config.YTDLPBinary, err)
		if downloadLog != nil {
			writeLogFooter(downloadLog, false, detail)
		}
		return domain.EngineResult{}, &domain.EngineError{Detail: detail, Err: err}
	}

	out := &outputCollector{hook: hook, log: downloadLog}
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		out.consume(stdout)
	}()
	go func() {
		defer wg.Done()
		out.consume(stderr)
	}()
	wg.Wait()

	if err := cmd.Wait(); err != nil {
		detail := out.lastError
		if detail == "" {
			detail = fmt.Sprintf("yt-dlp failed: %v", err)
		}
		if downloadLog != nil {
			writeLogFooter(downloadLog, false, detail)
		}
		e.eventLogger.LogAppError("yt-dlp failed",
			zap.String("url", opts.URL),
			zap.String("detail", detail),
			zap.Error(err))
		return domain.EngineResult{}, &domain.EngineError{Detail: detail, Err: err}
	}

	result := domain.EngineResult{FilePath: out.filePath}
	if result.FilePath != "" {
		result.MediaType = sniffMediaType(result.FilePath)
	}

	if downloadLog != nil {
		writeLogFooter(downloadLog, true, "Downloaded: "+result.FilePath)
	}
	return result, nil
}

// outputCollector parses yt-dlp output from both pipes
type outputCollector struct {
	mu        sync.Mutex
	hook      domain.ProgressHook
	log       io.Writer
	filePath  string
	lastError string
}

func (c *outputCollector) consume(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	for scanner.Scan() {
		c.handleLine(scanner.Text())
	}
	// Drain whatever is left so the process never blocks on a full pipe.
	io.Copy(io.Discard, r)
}

func (c *outputCollector) handleLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.log != nil {
		io.WriteString(c.log, line+"\n")
	}

	trimmed := strings.TrimSpace(line)
	switch {
	case strings.HasPrefix(trimmed, progressPrefix):
		if raw, ok := parseProgressLine(trimmed); ok && c.hook != nil {
			c.hook(raw)
		}
	case strings.HasPrefix(trimmed, filePrefix):
		c.filePath = strings.TrimPrefix(trimmed, filePrefix)
	case strings.HasPrefix(trimmed, errorPrefix):
		c.lastError = trimmed
	}
}

// parseProgressLine splits "novastream-progress|status|percent|speed"
func parseProgressLine(line string) (domain.RawProgress, bool) {
	parts := strings.SplitN(strings.TrimPrefix(line, progressPrefix), "|", 3)
	if len(parts) != 3 {
		return domain.RawProgress{}, false
	}
	return domain.RawProgress{
		Status:     strings.TrimSpace(parts[0]),
		PercentStr: parts[1],
		SpeedStr:   parts[2],
	}, true
}

// sniffMediaType reads the file's magic bytes. Unknown types yield "".
func sniffMediaType(path string) string {
	kind, err := filetype.MatchFile(path)
	if err != nil || kind == filetype.Unknown {
		return ""
	}
	return kind.MIME.Value
}

// openLogFile opens today's raw download log, or returns nil when disabled
func (e *YTDLPEngine) openLogFile() *os.File {
	if e.logsDir == "" {
		return nil
	}
	if err := os.MkdirAll(e.logsDir, 0755); err != nil {
		e.logger.Warn("Failed to create logs directory", zap.Error(err))
		return nil
	}

	path := filepath.Join(e.logsDir, "download-"+time.Now().Format("20060102")+".log")
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		e.logger.Warn("Failed to open download log", zap.String("path", path), zap.Error(err))
		return nil
	}
	return file
}

// writeLogHeader writes the download start marker
func writeLogHeader(w io.Writer, cmdLine string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(w, "\n=== [%s] Download ===\n$ %s\n", timestamp, cmdLine)
}

// writeLogFooter writes the download end marker
func writeLogFooter(w io.Writer, success bool, message string) {
	timestamp := time.Now().Format("2006-01-02 15:04:05")
	status := "SUCCESS"
	if !success {
		status = "FAILED"
	}
	fmt.Fprintf(w, "[%s] %s: %s\n=== END ===\n\n", timestamp, status, message)
}
