package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/placement"
)

var resultsCmd = &cobra.Command{
	Use:   "results <directory>",
	Short: "Show the failure log of a directory",
	Long: `Show every image the last run rejected, with its reasons.
Comment lines (run summaries) are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runResultsList,
}

var resultsClearCmd = &cobra.Command{
	Use:   "clear <directory>",
	Short: "Truncate the failure log",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsClear,
}

var resultsExportCmd = &cobra.Command{
	Use:   "export <directory>",
	Short: "Write a CSV report of valid and invalid images",
	Args:  cobra.ExactArgs(1),
	RunE:  runResultsExport,
}

var resultsArchiveCmd = &cobra.Command{
	Use:   "archive <directory>",
	Short: "Finalize a run: move held images to <directory>/invalid and archive the log",
	Long: `Move every image left in the holding directory to <directory>/invalid,
copy the failure log to <directory>/results.csv and clear it.`,
	Args: cobra.ExactArgs(1),
	RunE: runResultsArchive,
}

func init() {
	rootCmd.AddCommand(resultsCmd)
	resultsCmd.AddCommand(resultsClearCmd)
	resultsCmd.AddCommand(resultsExportCmd)
	resultsCmd.AddCommand(resultsArchiveCmd)

	resultsCmd.Flags().Bool("json", false, "Output as JSON")
	resultsExportCmd.Flags().StringP("output", "o", "", "Output file (default stdout)")
}

// resultsWriter opens the placement layout of an existing directory.
func resultsWriter(arg string) (*placement.Writer, error) {
	dir, err := filepath.Abs(arg)
	if err != nil {
		return nil, fmt.Errorf("invalid directory: %w", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("directory not found: %s", dir)
	}
	invalidDir, resultLog := config.Load().Validation.Paths(dir)
	return placement.NewWriter(dir, invalidDir, placement.NewLog(resultLog), slog.Default()), nil
}

func runResultsList(cmd *cobra.Command, args []string) error {
	w, err := resultsWriter(args[0])
	if err != nil {
		return err
	}
	rows, err := w.Log().Rows()
	if err != nil {
		return fmt.Errorf("failed to read result log: %w", err)
	}

	if mustGetBool(cmd, "json") {
		if rows == nil {
			rows = []placement.Row{}
		}
		return outputJSON(rows)
	}

	if len(rows) == 0 {
		fmt.Printf("No failures recorded in %s\n", w.Log().Path())
		return nil
	}
	fmt.Printf("%d invalid image(s) in %s\n\n", len(rows), w.Log().Path())
	for _, r := range rows {
		fmt.Printf("%s\n", r.Name)
		for _, reason := range r.Reasons {
			fmt.Printf("  - %s\n", reason)
		}
	}
	return nil
}

func runResultsClear(cmd *cobra.Command, args []string) error {
	w, err := resultsWriter(args[0])
	if err != nil {
		return err
	}
	if err := w.Log().Clear(); err != nil {
		return fmt.Errorf("failed to clear result log: %w", err)
	}
	fmt.Printf("Cleared %s\n", w.Log().Path())
	return nil
}

func runResultsExport(cmd *cobra.Command, args []string) error {
	w, err := resultsWriter(args[0])
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if path := mustGetString(cmd, "output"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer f.Close()
		out = f
	}
	return w.Export(out)
}

func runResultsArchive(cmd *cobra.Command, args []string) error {
	w, err := resultsWriter(args[0])
	if err != nil {
		return err
	}
	report, err := w.Archive()
	if err != nil {
		return fmt.Errorf("archive failed after moving %d image(s): %w", report.Moved, err)
	}
	fmt.Printf("Moved %d image(s) to %s\n", report.Moved, filepath.Join(filepath.Dir(report.LogCopy), "invalid"))
	fmt.Printf("Log archived to %s\n", report.LogCopy)
	return nil
}

var restoreCmd = &cobra.Command{
	Use:   "restore <directory> <image>...",
	Short: "Accept rejected images after manual review",
	Long: `Move the named images from the holding directory to <directory>/valid
and drop their rows from the failure log.

Example:
  photo-validator restore ./photos IMG_0012.jpg IMG_0040.jpg`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRestore,
}

func init() {
	rootCmd.AddCommand(restoreCmd)
}

func runRestore(cmd *cobra.Command, args []string) error {
	w, err := resultsWriter(args[0])
	if err != nil {
		return err
	}
	report, err := w.Restore(args[1:])

	if len(report.Restored) > 0 {
		fmt.Printf("Restored: %s\n", strings.Join(report.Restored, ", "))
	}
	if len(report.Missing) > 0 {
		fmt.Printf("Not in holding directory: %s\n", strings.Join(report.Missing, ", "))
	}
	fmt.Printf("Log rows removed: %d\n", report.RowsRemoved)
	return err
}
