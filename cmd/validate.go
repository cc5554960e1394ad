package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/checks"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/database"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/facedetect"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/progress"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/resources"
	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/validator"
)

var validateCmd = &cobra.Command{
	Use:   "validate <directory>",
	Short: "Validate every image in a directory",
	Long: `Run all enabled checks over the images in a directory.

Valid images are moved to <directory>/valid. Invalid images are moved to the
holding directory (INVALID_DIR, default <directory>/invalid) and their
reasons are appended to the result log (RESULT_LOG, default
<directory>/result.csv).

Examples:
  photo-validator validate ./photos
  photo-validator validate ./photos --workers 4 --adaptive=false
  photo-validator validate ./photos --config strict.yaml --json`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().Int("workers", 0, "Upper worker bound; with --adaptive=false the fixed pool size (0 = auto)")
	validateCmd.Flags().Bool("adaptive", true, "Resize the worker pool between batches from CPU and memory load")
	validateCmd.Flags().Int("batch-size", 0, "Images per batch (0 = BATCH_SIZE or default)")
	validateCmd.Flags().Bool("keep-log", false, "Append to the result log instead of truncating it")
	validateCmd.Flags().String("config", "", "Snapshot YAML file (overrides VALIDATION_CONFIG)")
	validateCmd.Flags().Bool("json", false, "Output the summary and per-image diagnostics as JSON")
	validateCmd.Flags().Bool("no-progress", false, "Disable the progress bar")
}

// ValidateOutput is the --json document.
type ValidateOutput struct {
	Summary *validator.Summary `json:"summary"`
	Error   string             `json:"error,omitempty"`
	Results []validator.Result `json:"results"`
}

// loadSnapshot resolves the snapshot from --config, then VALIDATION_CONFIG,
// then the embedded defaults.
func loadSnapshot(cmd *cobra.Command, cfg *config.Config) (config.Snapshot, string, error) {
	path := cfg.Validation.SnapshotPath
	if cmd.Flags().Lookup("config") != nil {
		if p := mustGetString(cmd, "config"); p != "" {
			path = p
		}
	}
	snap, err := config.LoadSnapshot(path)
	if err != nil {
		return config.Snapshot{}, path, err
	}
	return snap.Capture(time.Now()), path, nil
}

// newRegistry wires the face detector when one is configured.
func newRegistry(cfg *config.Config, logger *slog.Logger) *checks.Registry {
	if cfg.FaceDetector.URL == "" {
		return checks.NewRegistry(nil, logger)
	}
	return checks.NewRegistry(facedetect.NewClient(cfg.FaceDetector.URL), logger)
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	logger := slog.Default()
	jsonOutput := mustGetBool(cmd, "json")

	dir, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid directory: %w", err)
	}

	snap, snapPath, err := loadSnapshot(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if snap.Bypass.All() {
		logger.Warn("every check is bypassed, all images will be marked valid", "snapshot", snapPath)
	}

	closeHistory, err := initHistory(cfg)
	if err != nil {
		return err
	}
	defer closeHistory()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := validator.OptionsFor(cfg, dir, snap)
	if n := mustGetInt(cmd, "workers"); n > 0 {
		opts.MaxWorkers = n
		if n < opts.MinWorkers {
			opts.MinWorkers = n
		}
	}
	if n := mustGetInt(cmd, "batch-size"); n > 0 {
		opts.BatchSize = n
	}
	opts.Adaptive = mustGetBool(cmd, "adaptive")
	opts.KeepLog = mustGetBool(cmd, "keep-log")

	var results []validator.Result
	if jsonOutput {
		opts.OnResult = func(r validator.Result) { results = append(results, r) }
	}

	var bar *progressbar.ProgressBar
	if !jsonOutput && !mustGetBool(cmd, "no-progress") {
		opts.OnProgress = func(p progress.Snapshot) {
			if bar == nil {
				bar = progressbar.NewOptions(p.Total,
					progressbar.OptionSetDescription("Validating"),
					progressbar.OptionShowCount(),
					progressbar.OptionShowIts(),
					progressbar.OptionSetItsString("images"),
					progressbar.OptionShowElapsedTimeOnFinish(),
					progressbar.OptionSetPredictTime(true),
					progressbar.OptionFullWidth(),
				)
			}
			_ = bar.Set(p.Processed)
		}
	}

	runner := validator.NewRunner(newRegistry(cfg, logger), resources.HostProbe{}, logger)
	summary, runErr := runner.Run(ctx, dir, opts)
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	if summary == nil {
		return runErr
	}

	if err := database.GetRunRepository().Save(context.Background(), database.NewStoredRun(summary, runErr)); err != nil {
		logger.Warn("failed to store run history", "run_id", summary.RunID, "error", err)
	}

	if jsonOutput {
		out := ValidateOutput{Summary: summary, Results: results}
		if runErr != nil {
			out.Error = runErr.Error()
		}
		if err := outputJSON(out); err != nil {
			return err
		}
		return runErr
	}

	printSummary(summary, opts.InvalidDir, opts.Log.Path())
	if errors.Is(runErr, context.Canceled) {
		fmt.Println("\nRun cancelled, remaining images were left in place.")
		return nil
	}
	return runErr
}

func printSummary(s *validator.Summary, invalidDir, logPath string) {
	if s.Empty() {
		fmt.Printf("No images found in %s\n", s.Directory)
		return
	}
	fmt.Printf("Run %s\n", s.RunID)
	fmt.Printf("  Processed:  %d\n", s.TotalProcessed)
	fmt.Printf("  Valid:      %d -> %s\n", s.ValidCount, filepath.Join(s.Directory, "valid"))
	fmt.Printf("  Invalid:    %d -> %s\n", s.InvalidCount, invalidDir)
	fmt.Printf("  Duration:   %.2fs (%.1f images/s)\n", s.DurationSeconds, s.ItemsPerSecond)
	fmt.Printf("  Workers:    peak %d, final %d over %d batches\n", s.WorkersUsed, s.FinalWorkers, s.Batches)
	if s.PlacementErrors > 0 || s.LogErrors > 0 {
		fmt.Printf("  Errors:     %d placement, %d log\n", s.PlacementErrors, s.LogErrors)
	}
	if s.InvalidCount > 0 {
		fmt.Printf("  Reasons:    %s\n", logPath)
	}
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(data)
}
