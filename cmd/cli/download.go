package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/bootstrap"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// tickInterval is how often the progress line is redrawn; one event is
// consumed per tick.
const tickInterval = 100 * time.Millisecond

var downloadCmd = &cobra.Command{
	Use:     "download [url]",
	Aliases: []string{"dl"},
	Short:   "Download a video or its audio track",
	Long: `Download a link with yt-dlp. When no URL is given, the clipboard is used.

Video is muxed to mp4 at the best quality up to --quality. Audio mode extracts
an mp3 at the bitrate from settings (mp3_quality).`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode, _ := cmd.Flags().GetString("mode")
		quality, _ := cmd.Flags().GetString("quality")
		subs, _ := cmd.Flags().GetStringSlice("sub")
		output, _ := cmd.Flags().GetString("output")

		var url string
		if len(args) == 1 {
			url = args[0]
		} else {
			fromClipboard, err := urlFromClipboard()
			if err != nil {
				exitWithError(err)
			}
			url = fromClipboard
			fmt.Println(FInfo("📋 URL from clipboard: " + url))
		}

		config, log := loadConfig()
		services, err := bootstrap.Build(config, log)
		if err != nil {
			exitWithError(err)
		}
		defer services.Close()

		in := app.SubmitInput{
			RawURL:    url,
			RawPath:   output,
			Mode:      mode,
			Quality:   quality,
			Subtitles: subs,
		}
		job, err := runDownload(services.Coordinator, in, isatty.IsTerminal(os.Stdout.Fd()))
		if err != nil {
			services.Close()
			exitWithError(err)
		}

		printResult(services, job.ID, log)
	},
}

func init() {
	downloadCmd.Flags().StringP("mode", "m", string(domain.ModeVideo), "Download mode (video, audio)")
	downloadCmd.Flags().StringP("quality", "q", "best", "Maximum video height (best, 1080, 720, 480, 360, 240)")
	downloadCmd.Flags().StringSliceP("sub", "s", nil, "Subtitle languages to fetch (e.g. en,fr)")
	downloadCmd.Flags().StringP("output", "o", "", "Output directory (default from config)")
}

// runDownload submits one job and renders its events until a terminal one
// arrives. It returns after the worker has written the job to history. A
// Failed job is returned as an error.
func runDownload(coord *app.JobCoordinator, in app.SubmitInput, interactive bool) (*domain.Job, error) {
	sub := coord.Subscribe()
	defer sub.Close()

	job, err := coord.Submit(in)
	if err != nil {
		return nil, err
	}

	fmt.Println(FHeader("Downloading") + " " + FDetail(job.URL))
	fmt.Println(FDetail("→ " + job.OutputDir))

	view := newProgressView(coord.Settings().Palette)
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	var lastPrinted string
	for range ticker.C {
		ev, ok := sub.Poll()
		if ok && ev.JobID != job.ID {
			continue
		}
		view.update(ev, ok)

		line := view.line()
		if interactive {
			fmt.Print("\r\033[K" + line)
		} else if ok && line != lastPrinted {
			fmt.Println(line)
			lastPrinted = line
		}

		if ok && ev.Phase.IsTerminal() {
			if interactive {
				fmt.Println()
			}
			coord.Wait()
			if ev.Phase == domain.StateFailed {
				detail := ev.ErrorDetail
				if detail == "" {
					detail = ev.Message
				}
				return job, errors.New(detail)
			}
			return job, nil
		}
	}
	return job, nil
}

// printResult shows where the file landed, read back from history
func printResult(services *bootstrap.Services, jobID string, log *zap.Logger) {
	repo := services.History()
	if repo == nil {
		return
	}
	job, err := repo.FindByID(jobID)
	if err != nil {
		log.Debug("Job not found in history", zap.String("id", jobID), zap.Error(err))
		return
	}
	if job.FilePath != "" {
		fmt.Println(FDetail("File: " + job.FilePath))
	}
	if d := job.Duration(); d > 0 {
		fmt.Println(FDetail("Took: " + d.Round(time.Second).String()))
	}
}
