package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/novastream/novastream-go/internal/app"
	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/internal/infrastructure"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change user settings",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store := openSettings()
		printSettings(os.Stdout, store.Get())
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Change one setting",
	Long: "Change one setting. Keys: " + strings.Join(domain.SettingKeys, ", ") + `.

  theme        dark, light
  palette      blueish-white, greenish-white, dark-pink, dark-orange
  language     en, fr
  auto_open    true, false (open the folder after a successful download)
  show_speed   true, false
  mp3_quality  96, 128, 192, 320`,
	Args: cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		store := openSettings()
		settings, err := store.Update(args[0], args[1])
		if err != nil {
			exitWithError(err)
		}
		fmt.Println(FSuccess("✓ " + args[0] + " updated"))
		printSettings(os.Stdout, settings)
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
}

func openSettings() *app.SettingsStore {
	config, log := loadConfig()
	store := app.NewSettingsStore(infrastructure.NewSettingsFile(config.Storage.SettingsFile), log)
	store.Load()
	return store
}

func printSettings(out io.Writer, s domain.Settings) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KEY\tVALUE")
	fmt.Fprintf(w, "%s\t%s\n", domain.SettingTheme, s.Theme)
	fmt.Fprintf(w, "%s\t%s\n", domain.SettingPalette, s.Palette)
	fmt.Fprintf(w, "%s\t%s\n", domain.SettingLanguage, s.Language)
	fmt.Fprintf(w, "%s\t%t\n", domain.SettingAutoOpen, s.AutoOpenFolder)
	fmt.Fprintf(w, "%s\t%t\n", domain.SettingShowSpeed, s.ShowSpeed)
	fmt.Fprintf(w, "%s\t%s\n", domain.SettingBitrate, s.AudioBitrateKbps)
	w.Flush()
}
