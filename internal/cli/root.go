package cli

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/xlnarrate/internal/config"
	"github.com/roach88/xlnarrate/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool
	Format  string // "json" | "text"
	Config  string // path to a CUE config file
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the xlnarrate CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "xlnarrate",
		Short: "xlnarrate - narrate spreadsheet operation plans",
		Long: `Render an operation plan as a strategy overview, manual GUI steps and
spreadsheet-365 formulas, and keep a local record of failed generations.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "CUE config file")

	cmd.AddCommand(NewStrategyCommand(opts))
	cmd.AddCommand(NewManualCommand(opts))
	cmd.AddCommand(NewNarrateCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewBTrackCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// env is the per-invocation state shared by commands: the loaded config, the
// logger and the output formatter.
type env struct {
	cfg       config.Config
	log       *logging.Logger
	formatter *OutputFormatter
}

// newEnv loads the config named by --config and builds the logger. Logs go
// to the command's stderr so JSON output stays clean. The caller must close
// the env.
func newEnv(opts *RootOptions, cmd *cobra.Command) (*env, error) {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	cfg, err := LoadConfig(opts.Config)
	if err != nil {
		return nil, reportLoadError(formatter, err)
	}

	level := cfg.LogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger, err := logging.New(logging.Options{
		Level:  level,
		Writer: cmd.ErrOrStderr(),
		File:   cfg.Log.File,
	})
	if err != nil {
		_ = formatter.Error(ErrCodeConfig, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "logging", err)
	}

	return &env{cfg: cfg, log: logger, formatter: formatter}, nil
}

func (e *env) Close() error {
	return e.log.Close()
}
