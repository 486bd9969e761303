// Package cli implements the command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/aidanlsb/tendr/internal/config"
	"github.com/aidanlsb/tendr/internal/ui"
)

var (
	// Global flags
	gardenPathFlag string
	configPath     string
	verbose        bool

	// Resolved values
	resolvedGardenPath string
	cfg                *config.Config
	logger             *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tendr",
	Short: "tendr - tools for a markdown digital garden",
	Long: `tendr tends a garden of interlinked markdown documents.

It classifies documents into doctypes, lists the references between them
and renames documents or reference types across the whole garden while
keeping every [[wikilink]] consistent.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = newLogger(slog.LevelWarn)

		// Skip garden resolution for commands that don't need it
		switch cmd.Name() {
		case "init", "completion", "help", "version", "docs":
			return nil
		}
		if cmd.Parent() != nil && cmd.Parent().Name() == "completion" {
			return nil
		}

		root := gardenPathFlag
		if root == "" {
			wd, err := os.Getwd()
			if err != nil {
				return handleError(ErrGardenNotFound, err, "")
			}
			if root, err = config.FindRoot(wd); err != nil {
				return handleError(ErrGardenNotFound, err, "")
			}
		}
		info, err := os.Stat(root)
		if err != nil || !info.IsDir() {
			return handleErrorMsg(ErrGardenNotFound,
				fmt.Sprintf("garden not found: %s", root),
				fmt.Sprintf("Run 'tendr init %s' to create it", root))
		}
		resolvedGardenPath = root

		cfg, err = config.Load(root, configPath)
		if err != nil {
			return handleError(ErrConfigInvalid, err, "Fix config.toml or remove it to use defaults")
		}
		level := cfg.Log.SlogLevel()
		if verbose {
			level = slog.LevelDebug
		}
		logger = newLogger(level)
		logger.Debug("garden resolved", "root", root, "config", configPath)
		return nil
	},
}

func newLogger(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// Execute runs the CLI. Errors already reported as JSON are returned too so
// the process exits non-zero.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	if err == nil || errors.Is(err, errReported) {
		return err
	}
	if isJSONOutput() {
		outputErrorFromErr(ErrInvalidInput, err, "Run 'tendr --help' for usage")
	} else {
		fmt.Fprintln(os.Stderr, ui.Error(err.Error()))
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&gardenPathFlag, "garden", "g", "", "Path to the garden (default: nearest directory with config.toml)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: <garden>/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format (for agent/script use)")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug details to stderr")
}

// getGardenPath returns the resolved garden path.
func getGardenPath() string {
	return resolvedGardenPath
}
