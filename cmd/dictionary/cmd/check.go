package cmd

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/dictionary/internal/preflight"
)

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var jsonOutput bool
	var verbose bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check that the service can start",
		Long: `Check verifies the data directory, file descriptor limit and broker
connectivity for the current configuration. It exits non-zero when a
required check fails.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := opts.cfg
			checker := preflight.New(
				preflight.WithOutput(cmd.OutOrStdout()),
				preflight.WithVerbose(verbose),
				preflight.WithDialTimeout(timeout),
			)
			results := checker.RunAll(cmd.Context(), preflight.Target{
				DataDir:      cfg.Search.DataDir,
				Backend:      cfg.Search.Backend,
				QueueEnabled: cfg.Queue.Enabled,
				QueueDriver:  cfg.Queue.Driver,
				Brokers:      cfg.Queue.Hosts,
				AMQPURL:      cfg.Queue.AMQPURL,
			})

			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				if err := enc.Encode(map[string]any{
					"status": checker.SummaryStatus(results),
					"checks": results,
				}); err != nil {
					return err
				}
			} else {
				checker.PrintResults(results)
			}

			if checker.HasCriticalFailures(results) {
				return errors.New("preflight checks failed")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output results as JSON")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Show details for each check")
	cmd.Flags().DurationVar(&timeout, "timeout", 2*time.Second, "Dial timeout for each broker")

	return cmd
}
