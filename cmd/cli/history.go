package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/novastream/novastream-go/internal/domain"
	"github.com/novastream/novastream-go/internal/infrastructure"
	"github.com/spf13/cobra"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past downloads",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		status, _ := cmd.Flags().GetString("status")
		showStats, _ := cmd.Flags().GetBool("stats")

		config, _ := loadConfig()
		repo, err := infrastructure.NewSQLiteJobRepository(config.Storage.HistoryDB)
		if err != nil {
			exitWithError(err)
		}
		defer repo.Close()

		if showStats {
			stats, err := repo.GetStats()
			if err != nil {
				exitWithError(err)
			}
			printStats(os.Stdout, stats)
			return
		}

		var jobs []*domain.Job
		if status != "" {
			jobs, err = repo.FindByStatus(domain.JobStatus(status))
			if len(jobs) > limit {
				jobs = jobs[:limit]
			}
		} else {
			jobs, err = repo.FindRecent(limit)
		}
		if err != nil {
			exitWithError(err)
		}
		printJobs(os.Stdout, jobs)
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Maximum number of jobs to show")
	historyCmd.Flags().StringP("status", "s", "", "Filter by status (running, succeeded, failed)")
	historyCmd.Flags().Bool("stats", false, "Show totals instead of the job list")
}

func printJobs(out io.Writer, jobs []*domain.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(out, "No downloads yet.")
		return
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSTATUS\tMODE\tQUALITY\tURL\tCREATED")
	for _, j := range jobs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			truncate(j.ID, 8),
			j.Status,
			j.Mode,
			j.Quality,
			truncate(j.URL, 48),
			j.CreatedAt.Local().Format(time.DateTime))
	}
	w.Flush()
}

func printStats(out io.Writer, stats *domain.JobStats) {
	fmt.Fprintln(out, "Download Statistics:")
	fmt.Fprintf(out, "  Total:     %d\n", stats.Total)
	fmt.Fprintf(out, "  Running:   %d\n", stats.Running)
	fmt.Fprintf(out, "  Succeeded: %d\n", stats.Succeeded)
	fmt.Fprintf(out, "  Failed:    %d\n", stats.Failed)
}
