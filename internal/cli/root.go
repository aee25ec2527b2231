// Package cli implements the hotsoonripper command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"hotsoonripper/internal/config"
	"hotsoonripper/internal/entity"
	"hotsoonripper/internal/errs"

	"github.com/spf13/cobra"
)

// RunFunc processes tokens with a fully resolved configuration.
type RunFunc func(ctx context.Context, cfg *config.Config, tokens []string) ([]entity.TargetReport, error)

type flags struct {
	logLevel    string
	logFormat   string
	workers     int
	targetsFile string
	downloads   string
}

// NewRootCommand builds the root command. Usage and the summary go to the command's error and output writers.
func NewRootCommand(run RunFunc) *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "hotsoonripper [number1,number2,...]",
		Short: "Download every video of hotsoon users",
		Long: "Download every video of the given hotsoon numbers into download/<user id>/.\n" +
			"Without arguments the numbers are read from user-number.txt.\n" +
			"Numbers starting with '#' are recorded and skipped.\n\n" + usageEN,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.New()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			if err := f.apply(cmd, cfg); err != nil {
				return err
			}

			tokens, err := targets(args, cfg.Dir.TargetsFile)
			if err != nil {
				PrintUsage(cmd.ErrOrStderr())

				return err
			}

			reports, err := run(cmd.Context(), cfg, tokens)
			if summary := RenderSummary(reports); summary != "" {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), summary)
			}

			return err
		},
	}

	cmd.Flags().StringVar(&f.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	cmd.Flags().StringVar(&f.logFormat, "log-format", "", "Log format: auto, text, json")
	cmd.Flags().IntVarP(&f.workers, "workers", "w", 0, "Number of concurrent downloads")
	cmd.Flags().StringVarP(&f.targetsFile, "file", "f", "", "File with numbers, used when no argument is given")
	cmd.Flags().StringVarP(&f.downloads, "dir", "d", "", "Download root directory")

	return cmd
}

// apply overrides environment configuration with the flags given on the command line.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) error {
	changed := cmd.Flags().Changed

	if changed("log-level") {
		cfg.App.LogLevel = f.logLevel
	}

	if changed("log-format") {
		cfg.App.LogFormat = f.logFormat
	}

	if changed("workers") {
		if f.workers <= 0 {
			return fmt.Errorf("--workers must be positive, got %d", f.workers)
		}

		cfg.Job.Workers = f.workers
	}

	if changed("file") {
		cfg.Dir.TargetsFile = f.targetsFile
	}

	if changed("dir") {
		cfg.Dir.Downloads = f.downloads
	}

	if err := cfg.Dir.SetAbsPaths(); err != nil {
		return fmt.Errorf("set absolute paths: %w", err)
	}

	return nil
}

// targets returns the tokens from args, or from the targets file when no argument is given.
func targets(args []string, file string) ([]string, error) {
	if len(args) > 0 {
		tokens := ParseArgs(args)
		if len(tokens) == 0 {
			return nil, errs.ErrNoTargets
		}

		return tokens, nil
	}

	tokens, err := ReadTargetsFile(file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s not found", errs.ErrNoTargets, file)
	}

	if err != nil {
		return nil, err
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", errs.ErrNoTargets, file)
	}

	return tokens, nil
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context, run RunFunc, args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCommand(run)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, errs.ErrNoTargets) && !errors.Is(err, context.Canceled) {
			_, _ = fmt.Fprintln(stderr, "error:", err)
		}

		return 1
	}

	return 0
}
