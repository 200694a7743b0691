package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/metcalfc/leaf/internal/app"
	"github.com/metcalfc/leaf/internal/config"
	"github.com/metcalfc/leaf/internal/logging"
)

// Version info (injected via ldflags)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// frontendOptions is what a front end needs to start.
type frontendOptions struct {
	DataDir string
	Logger  *slog.Logger
	// File is opened at startup when non-empty.
	File string
	// Page overrides the saved position of File.
	Page *int
}

// launcher starts a front end and blocks until it exits.
type launcher func(ctx context.Context, opts frontendOptions) error

type rootOptions struct {
	file string
	page int
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd(runFrontend).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "leaf: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(launch launcher) *cobra.Command {
	o := &rootOptions{}
	v := config.New()

	cmd := &cobra.Command{
		Use:   "leaf [flags] [file]",
		Short: "Read EPUB, Markdown and text documents one page at a time.",
		Long: `leaf opens a document and remembers the page you were on.

Reopening a document resumes at the saved page, or at the page after it,
depending on the open preference in settings.toml.`,
		Example: `  leaf book.epub
  leaf -f notes.md -p 3
  leaf recent`,
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			fo, err := o.complete(cmd, args)
			if err != nil {
				return err
			}
			cfg, err := config.Load(v)
			if err != nil {
				return err
			}
			logger, closer, err := logging.Open(logging.Options{
				Dir:    cfg.DataDir,
				Level:  cfg.LogLevel,
				Stderr: cfg.LogStderr,
			})
			if err != nil {
				return err
			}
			defer closer.Close()
			slog.SetDefault(logger)
			logger.Info("starting leaf",
				"version", version,
				"data_dir", cfg.DataDir,
				"config_file", cfg.File)

			fo.DataDir = cfg.DataDir
			fo.Logger = logger
			return launch(cmd.Context(), fo)
		},
	}
	cmd.SetVersionTemplate("leaf {{.Version}}\n")

	cmd.Flags().StringVarP(&o.file, "file", "f", "", "document to open")
	cmd.Flags().IntVarP(&o.page, "page", "p", 0, "zero-based page to open the document at, overriding the saved position")

	pf := cmd.PersistentFlags()
	pf.String("config-dir", "", "directory containing config.toml (default $XDG_CONFIG_HOME/leaf)")
	pf.String("data-dir", "", "directory for the progress database, settings and log (default $XDG_STATE_HOME/leaf)")
	pf.String("log-level", "", "log level: debug, info, warn or error")
	pf.Bool("log-stderr", false, "also write the log to stderr")
	bindFlags(v, cmd)

	cmd.AddCommand(newRecentCmd(v))
	return cmd
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	_ = v.BindPFlag(config.KeyConfigDir, pf.Lookup("config-dir"))
	_ = v.BindPFlag(config.KeyDataDir, pf.Lookup("data-dir"))
	_ = v.BindPFlag(config.KeyLogLevel, pf.Lookup("log-level"))
	_ = v.BindPFlag(config.KeyLogStderr, pf.Lookup("log-stderr"))
}

// complete validates the flags and resolves the document to open.
func (o *rootOptions) complete(cmd *cobra.Command, args []string) (frontendOptions, error) {
	var fo frontendOptions

	file := o.file
	if len(args) == 1 {
		if file != "" && file != args[0] {
			return fo, fmt.Errorf("both --file %q and argument %q given", file, args[0])
		}
		file = args[0]
	}

	if cmd.Flags().Changed("page") {
		if o.page < 0 {
			return fo, fmt.Errorf("--page must be >= 0, got %d", o.page)
		}
		if file == "" {
			return fo, fmt.Errorf("--page requires a file")
		}
		page := o.page
		fo.Page = &page
	}

	if file != "" {
		expanded, err := homedir.Expand(file)
		if err != nil {
			return fo, fmt.Errorf("expand %q: %w", file, err)
		}
		fo.File = expanded
	}
	return fo, nil
}

// runtimeFailed reports whether an error from app.Runtime.Run should be
// logged. Cancellation is the normal way out, and Run loses to a Shutdown
// that got there first.
func runtimeFailed(err error) bool {
	return err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, app.ErrRunning)
}
