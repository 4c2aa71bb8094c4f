package cmd

import (
	"github.com/spf13/cobra"
)

func newConsumeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "consume",
		Short: "Run only the sync consumer",
		Long: `Consume applies dictionary change events to the search indices without
serving HTTP. It runs regardless of KAFKA_ENABLED.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			rt, err := openRuntime(ctx, opts.cfg)
			if err != nil {
				return err
			}
			defer rt.close()

			c, client, err := rt.consumer()
			if err != nil {
				return err
			}
			defer func() { _ = client.Close() }()

			return c.Run(ctx)
		},
	}
}
