package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/agusx1211/structphoto/internal/photoflat"
	"github.com/agusx1211/structphoto/internal/plog"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
)

// version is set at build time with -ldflags="-X main.version=..."
var version = "dev"

type options struct {
	configPath string
	profile    string
	source     string
	target     string
	separator  string
	highlight  string
	ignoreFile string
	exclude    []string

	yes           bool
	printProgress bool
	logProgress   bool
	quiet         bool
	verbose       bool
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:   "structphoto",
		Short: "Structphoto flattens a nested photo tree into one level of hardlinks",
		Long: `Structphoto takes a deeply nested photo directory and mirrors it into a
single-level target directory. Every leaf directory becomes one target
directory named after its path, joined with a separator, and every photo is
hardlinked so no extra disk space is used.

Source and target must be on the same filesystem. Everything in the target
except excluded directories is deleted on every run.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if opts.verbose {
				plog.SetLevel(plog.LevelDebug)
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "Config file (default: ~/"+configFileName+" overlaid by ./"+configFileName+")")
	flags.StringVarP(&opts.profile, "profile", "p", "", "Profile from the config file")
	flags.StringVarP(&opts.source, "source", "s", "", "Source directory")
	flags.StringVarP(&opts.target, "target", "t", "", "Target directory")
	flags.StringVar(&opts.separator, "separator", "", "Separator joining nested directory names")
	flags.StringVar(&opts.highlight, "highlight", "", "Marker wrapped around status messages")
	flags.StringVar(&opts.ignoreFile, "ignore-file", "", "Gitignore-style file pruning the source walk")
	flags.StringArrayVarP(&opts.exclude, "exclude", "e", nil, "Directory name to exclude (repeatable, globs allowed)")
	flags.BoolVarP(&opts.yes, "yes", "y", false, "Do not ask for confirmation")
	flags.BoolVar(&opts.printProgress, "print", false, "Print progress lines to stdout")
	flags.BoolVar(&opts.logProgress, "log", false, "Write progress as structured log records")
	flags.BoolVarP(&opts.quiet, "quiet", "q", false, "Suppress progress and informational logs")
	flags.BoolVar(&opts.verbose, "verbose", false, "Enable debug logging")

	rootCmd.AddCommand(newCleanCmd(opts))
	rootCmd.AddCommand(newUpdateCmd(opts))
	rootCmd.AddCommand(newConfigCmd(opts))

	return rootCmd
}

func newCleanCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "clean",
		Short: "Delete everything in the target folder except excluded directories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, false)
		},
	}
}

func newUpdateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Clean the target folder and rebuild the hardlinks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOperation(cmd, opts, true)
		},
	}
}

func newConfigCmd(opts *options) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or change the configuration",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := resolveSettings(cmd, opts)
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(s)
			if err != nil {
				return fmt.Errorf("failed to render configuration: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "progress MODE",
		Short: "Set the default progress mode (print, log, or quiet) in ~/" + configFileName,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := writeHomeDefaultProgressMode(args[0])
			if err != nil {
				return fmt.Errorf("failed to save default progress mode: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Default progress mode written to: %s\n", path)
			return nil
		},
	})

	return configCmd
}

// resolveSettings merges config files with the flags the user actually set.
func resolveSettings(cmd *cobra.Command, opts *options) (settings, error) {
	s, err := loadSettings(opts.configPath, opts.profile)
	if err != nil {
		return s, err
	}

	flags := cmd.Flags()
	if flags.Changed("source") {
		s.Source = opts.source
	}
	if flags.Changed("target") {
		s.Target = opts.target
	}
	if flags.Changed("separator") {
		s.Separator = opts.separator
	}
	if flags.Changed("highlight") {
		s.Highlight = opts.highlight
	}
	if flags.Changed("ignore-file") {
		s.IgnoreFile = opts.ignoreFile
	}
	s.Exclude = appendUnique(s.Exclude, opts.exclude...)

	mode, err := resolveProgressMode(s.Progress, opts.printProgress, opts.logProgress, opts.quiet)
	if err != nil {
		return s, err
	}
	s.Progress = mode
	return s, nil
}

func runOperation(cmd *cobra.Command, opts *options, update bool) error {
	s, err := resolveSettings(cmd, opts)
	if err != nil {
		return err
	}
	if s.Progress == progressModeQuiet {
		plog.SetQuiet(true)
	}

	cfg, err := s.photoflatConfig()
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !opts.yes {
		ok, err := confirmDelete(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Aborted, nothing was changed.")
			return nil
		}
	}

	sink := progressSink(s.Progress, cmd.OutOrStdout())
	var job *photoflat.Job
	var verb string
	if update {
		job = photoflat.NewUpdateJob(cfg, sink)
		verb = "update hardlinks"
	} else {
		job = photoflat.NewCleanJob(cfg, sink)
		verb = "clean target"
	}

	if _, err := runJob(cmd.Context(), job); err != nil {
		if errors.Is(err, photoflat.ErrTerminated) {
			return err
		}
		return fmt.Errorf("failed to %s: %w", verb, err)
	}
	return nil
}

// runJob runs job on its own goroutine and stops it on SIGINT, SIGTERM or
// cancellation of ctx. The error is ErrTerminated for a stopped job and the
// job's error for a failed one.
func runJob(ctx context.Context, job *photoflat.Job) (photoflat.Result, error) {
	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := job.Start(ctx); err != nil {
		return photoflat.Result{}, err
	}

	var res photoflat.Result
	var g errgroup.Group
	g.Go(func() error {
		select {
		case <-sigCtx.Done():
			plog.Warn("Interrupt received, stopping", "run_id", job.ID)
			job.Stop()
		case <-job.Done():
		}
		return nil
	})
	g.Go(func() error {
		res = job.Wait()
		switch res.Outcome {
		case photoflat.Terminated:
			return photoflat.ErrTerminated
		case photoflat.Failed:
			return res.Err
		}
		return nil
	})
	err := g.Wait()
	return res, err
}

func main() {
	if err := fang.Execute(context.Background(), newRootCmd()); err != nil {
		if errors.Is(err, photoflat.ErrTerminated) {
			os.Exit(130)
		}
		os.Exit(1)
	}
}
