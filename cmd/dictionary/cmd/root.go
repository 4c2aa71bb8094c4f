// Package cmd provides the CLI commands for the dictionary service.
package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dictionary/internal/config"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/logging"
	"github.com/Aman-CERP/dictionary/internal/profiling"
	"github.com/Aman-CERP/dictionary/pkg/version"
)

// skipSetup marks commands that run without configuration or logging.
const skipSetup = "skip_setup"

// rootOptions holds the persistent flags and the state built from them.
type rootOptions struct {
	configFile string
	debug      bool
	profile    profiling.Options

	cfg      *config.Config
	cleanup  func()
	profiler *profiling.Session
}

// NewRootCmd creates the root command for the dictionary CLI.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dictionary",
		Short: "Dictionary search service",
		Long: `Dictionary serves menus, forms, processes, browsers and windows from
per-tenant search indices over HTTP, and keeps those indices in sync with
the change events published on the message broker.`,
		Version:           version.Version,
		SilenceUsage:      true,
		PersistentPreRunE: opts.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return opts.teardown()
		},
	}

	cmd.SetVersionTemplate("dictionary version {{.Version}}\n")

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", "YAML config file (default: $CONFIG_FILE)")
	cmd.PersistentFlags().BoolVar(&opts.debug, "debug", false, "Enable debug logging")
	cmd.PersistentFlags().StringVar(&opts.profile.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&opts.profile.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newConsumeCmd(opts))
	cmd.AddCommand(newResolveCmd(opts))
	cmd.AddCommand(newIndicesCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	cmd.AddCommand(newCheckCmd(opts))
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// setup loads the configuration and installs the logger.
func (o *rootOptions) setup(cmd *cobra.Command, _ []string) error {
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	cfg, err := config.Load(config.LoadOptions{File: o.configFile})
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), serrors.FormatForCLI(err))
		return err
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = cfg.Logging.Level
	logCfg.FilePath = cfg.Logging.File
	logCfg.Stderr = cmd.ErrOrStderr()
	if o.debug {
		logCfg.Level = "debug"
	}

	cleanup, err := logging.Init(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	o.cfg = cfg
	o.cleanup = cleanup

	profiler, err := profiling.Start(o.profile)
	if err != nil {
		o.teardownLogging()
		return err
	}
	o.profiler = profiler

	slog.Debug("config_loaded",
		slog.String("command", cmd.Name()),
		slog.String("version", cfg.Version))
	cfg.LogDefaults()
	return nil
}

// teardown writes pending profiles and closes the log file.
func (o *rootOptions) teardown() error {
	var err error
	if o.profiler != nil {
		err = o.profiler.Stop()
		o.profiler = nil
	}
	o.teardownLogging()
	return err
}

func (o *rootOptions) teardownLogging() {
	if o.cleanup != nil {
		o.cleanup()
		o.cleanup = nil
	}
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// ExitCode maps a command error to a process exit status: 0 on success,
// 2 for fatal errors such as invalid configuration, 1 otherwise.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case serrors.IsFatal(err):
		return 2
	default:
		return 1
	}
}
