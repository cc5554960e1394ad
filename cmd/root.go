package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	slogmulti "github.com/samber/slog-multi"
	"github.com/spf13/cobra"
)

var logFile *os.File

var rootCmd = &cobra.Command{
	Use:   "photo-validator",
	Short: "A CLI tool for validating ID photos in bulk",
	Long: `Photo Validator checks a directory of portrait photos against configurable
rules (format, size, dimensions, corruption, greyscale, blur, background,
head size, eyes and symmetry). Passing images are moved to <dir>/valid,
failing ones to a holding directory with their reasons in a CSV log.`,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logFile != nil {
			logFile.Close()
		}
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
	initLogging()
}

// initLogging installs the default logger: text on stderr, plus JSON lines
// in LOG_FILE when set.
func initLogging() {
	level := slog.LevelInfo
	if debug, _ := rootCmd.PersistentFlags().GetBool("debug"); debug || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	handlers := []slog.Handler{slog.NewTextHandler(os.Stderr, opts)}
	if path := os.Getenv("LOG_FILE"); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: cannot open log file %s: %v\n", path, err)
		} else {
			logFile = f
			handlers = append(handlers, slog.NewJSONHandler(f, opts))
		}
	}
	slog.SetDefault(slog.New(slogmulti.Fanout(handlers...)))
}
