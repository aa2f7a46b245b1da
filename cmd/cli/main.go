package main

import (
	"fmt"
	"os"

	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	configPath string
	verbose    bool
	rootCmd    = &cobra.Command{
		Use:   "novastream",
		Short: "NovaStream CLI - download video or audio from a link",
		Long: `A command-line front end for NovaStream. Downloads run in this process
through yt-dlp, one at a time, with live progress.`,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config.yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(settingsCmd)
	rootCmd.AddCommand(historyCmd)
}

// loadConfig reads the operational config and builds the stderr logger
func loadConfig() (*domain.Config, *zap.Logger) {
	config, err := app.LoadConfig(configPath)
	if err != nil {
		exitWithError(fmt.Errorf("failed to load config: %w", err))
	}

	level := "warn"
	if verbose {
		level = "debug"
	}
	return config, logger.NewCLI(level)
}

func exitWithError(err error) {
	fmt.Fprintln(os.Stderr, FError("Error: "+err.Error()))
	os.Exit(1)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
