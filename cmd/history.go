package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past validation runs",
	Long: `List runs stored in the history database (DATABASE_URL or MARIADB_DSN).
Without a database, history only lives for the duration of one process.`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().Int("limit", 20, "Maximum number of runs to show")
	historyCmd.Flags().Int("offset", 0, "Number of runs to skip")
	historyCmd.Flags().Bool("json", false, "Output as JSON")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	closeHistory, err := initHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	if !database.IsBackendInitialized() {
		fmt.Println("No history database configured (set DATABASE_URL or MARIADB_DSN)")
		return nil
	}

	ctx := context.Background()
	repo := database.GetRunRepository()
	runs, err := repo.List(ctx, mustGetInt(cmd, "limit"), mustGetInt(cmd, "offset"))
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if mustGetBool(cmd, "json") {
		total, err := repo.Count(ctx)
		if err != nil {
			return fmt.Errorf("failed to count runs: %w", err)
		}
		return outputJSON(struct {
			Runs  []database.StoredRun `json:"runs"`
			Total int                  `json:"total"`
		}{runs, total})
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded yet")
		return nil
	}
	fmt.Printf("%-36s  %-19s  %-9s  %6s  %6s  %7s  %s\n", "RUN", "STARTED", "STATUS", "VALID", "INVAL", "SECS", "DIRECTORY")
	for _, r := range runs {
		fmt.Printf("%-36s  %-19s  %-9s  %6d  %6d  %7.1f  %s\n",
			r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Status,
			r.ValidCount, r.InvalidCount, r.DurationSeconds, r.Directory)
	}
	return nil
}
