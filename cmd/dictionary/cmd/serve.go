package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/Aman-CERP/dictionary/internal/consumer"
	"github.com/Aman-CERP/dictionary/internal/queue"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	var noConsumer bool
	var withPprof bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the sync consumer",
		Long: `Serve starts the HTTP query API and, when KAFKA_ENABLED is Y, the
consumer that applies dictionary change events to the search indices.
Both stop on SIGINT or SIGTERM.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return runServe(ctx, opts, !noConsumer, withPprof)
		},
	}

	cmd.Flags().BoolVar(&noConsumer, "no-consumer", false, "Serve queries only, even when the queue is enabled")
	cmd.Flags().BoolVar(&withPprof, "pprof", false, "Expose /debug/pprof/ on the API port")

	return cmd
}

func runServe(ctx context.Context, opts *rootOptions, withConsumer, withPprof bool) error {
	cfg := opts.cfg
	rt, err := openRuntime(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.close()

	var c *consumer.Consumer
	if withConsumer && cfg.Queue.Enabled {
		var client queue.Client
		c, client, err = rt.consumer()
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()
	} else {
		slog.Info("consumer_disabled")
	}

	g, gctx := errgroup.WithContext(ctx)

	addr := net.JoinHostPort("0.0.0.0", strconv.Itoa(cfg.Server.Port))
	srv := rt.httpServer(withPprof)
	g.Go(func() error {
		if err := srv.ListenAndServe(gctx, addr); err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	if c != nil {
		g.Go(func() error {
			if err := c.Run(gctx); err != nil {
				return fmt.Errorf("consumer: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}
