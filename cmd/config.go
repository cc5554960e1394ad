package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ashish-Pandey62/Photo-Validation-System/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and create validation snapshots",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective snapshot",
	Long: `Print the thresholds, allowed formats and bypass flags a run would use.
The snapshot comes from --config, then VALIDATION_CONFIG, then the built-in
defaults.`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init <path>",
	Short: "Write the default snapshot to a YAML file",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigInit,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)

	configShowCmd.Flags().String("config", "", "Snapshot YAML file (overrides VALIDATION_CONFIG)")
	configShowCmd.Flags().Bool("json", false, "Output as JSON")
	configInitCmd.Flags().Bool("force", false, "Overwrite an existing file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	snap, path, err := loadSnapshot(cmd, cfg)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	if mustGetBool(cmd, "json") {
		return outputJSON(snap)
	}

	if path == "" {
		path = "built-in defaults"
	}
	fmt.Printf("# source: %s\n", path)
	data, err := snap.Marshal()
	if err != nil {
		return err
	}
	fmt.Print(string(data))

	if snap.Bypass.All() {
		fmt.Fprintln(os.Stderr, "Warning: every check is bypassed, all images will be marked valid")
	}
	return nil
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := args[0]
	if _, err := os.Stat(path); err == nil && !mustGetBool(cmd, "force") {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	if err := config.DefaultSnapshot().Save(path); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	fmt.Printf("Default snapshot written to %s\n", path)
	return nil
}
