package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/Aman-CERP/dictionary/internal/api"
	"github.com/Aman-CERP/dictionary/internal/applier"
	"github.com/Aman-CERP/dictionary/internal/config"
	"github.com/Aman-CERP/dictionary/internal/consumer"
	serrors "github.com/Aman-CERP/dictionary/internal/errors"
	"github.com/Aman-CERP/dictionary/internal/profiling"
	"github.com/Aman-CERP/dictionary/internal/query"
	"github.com/Aman-CERP/dictionary/internal/queue"
	"github.com/Aman-CERP/dictionary/internal/store"
	"github.com/Aman-CERP/dictionary/internal/telemetry"
)

// runtime is the set of long-lived components shared by serve and consume.
type runtime struct {
	cfg     *config.Config
	gateway store.Gateway
	metrics *telemetry.Metrics
}

// The engine breaker opens after engineBreakerFailures consecutive failures
// and probes again after engineBreakerReset, shorter than the default so a
// recovered engine is noticed within a few redeliveries.
const (
	engineBreakerFailures = 5
	engineBreakerReset    = 15 * time.Second
)

// gatewayRetry bounds how long opening waits for a data directory held by
// another process.
var gatewayRetry = serrors.DefaultRetryConfig()

// openRuntime opens the search gateway described by cfg.
func openRuntime(ctx context.Context, cfg *config.Config) (*runtime, error) {
	gw, err := openGateway(ctx, cfg, gatewayRetry)
	if err != nil {
		return nil, err
	}
	return &runtime{
		cfg:     cfg,
		gateway: gw,
		metrics: telemetry.New(),
	}, nil
}

// openGateway opens the configured backend. A locked data directory is
// retried with backoff; any other failure is returned at once.
func openGateway(ctx context.Context, cfg *config.Config, retry serrors.RetryConfig) (store.Gateway, error) {
	gw, err := serrors.RetryWithResult(ctx, retry, func() (store.Gateway, error) {
		gw, err := store.NewGateway(store.Config{
			Backend:   cfg.Search.Backend,
			DataDir:   cfg.Search.DataDir,
			CacheSize: cfg.Search.CacheSize,
		})
		if err == nil {
			return gw, nil
		}
		if !serrors.IsRetryable(err) {
			return nil, serrors.Wrap(serrors.ErrCodeInternal, err)
		}
		attrs := append([]any{slog.String("data_dir", cfg.Search.DataDir)}, serrors.LogAttrs(err)...)
		slog.Warn("gateway_open_retry", attrs...)
		return nil, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open search gateway: %w", err)
	}
	slog.Info("gateway_opened",
		slog.String("backend", cfg.Search.Backend),
		slog.String("data_dir", cfg.Search.DataDir))
	return gw, nil
}

// httpServer builds the API server over the query service. With pprof the
// server also exposes /debug/pprof/.
func (r *runtime) httpServer(withPprof bool) *api.Server {
	svc := query.NewService(r.gateway, query.Options{
		DefaultPageSize: r.cfg.Search.DefaultPageSize,
		MaxPageSize:     r.cfg.Search.MaxPageSize,
		Observer:        r.metrics,
	})
	opts := api.Options{
		Version:       r.cfg.Version,
		KafkaEnabled:  r.cfg.Queue.Enabled,
		KafkaQueues:   r.cfg.QueueList(),
		AllowedOrigin: r.cfg.Server.AllowedOrigin,
		Metrics:       r.metrics.Handler(),
		Observer:      r.metrics,
	}
	if withPprof {
		opts.Debug = profiling.Handler()
	}
	return api.New(svc, opts)
}

// consumer connects the queue client and builds the sync consumer.
// The caller closes the returned client.
func (r *runtime) consumer() (*consumer.Consumer, queue.Client, error) {
	qcfg := queue.DefaultConfig()
	qcfg.Driver = r.cfg.Queue.Driver
	qcfg.Brokers = r.cfg.Queue.Hosts
	qcfg.Group = r.cfg.Queue.Group
	qcfg.URL = r.cfg.Queue.AMQPURL

	client, err := queue.New(qcfg)
	if err != nil {
		return nil, nil, err
	}
	slog.Info("queue_client_created", slog.String("driver", qcfg.Driver))

	breaker := serrors.NewCircuitBreaker("search-engine",
		serrors.WithMaxFailures(engineBreakerFailures),
		serrors.WithResetTimeout(engineBreakerReset))
	r.metrics.WatchBreaker(breaker)

	sink := applier.New(r.gateway,
		applier.WithBreaker(breaker),
		applier.WithObserver(r.metrics))
	c := consumer.New(client, sink, consumer.Options{
		Topics:   r.cfg.Queue.Topics,
		Observer: r.metrics,
	})
	return c, client, nil
}

func (r *runtime) close() {
	if err := r.gateway.Close(); err != nil {
		slog.Warn("gateway_close_failed", slog.String("error", err.Error()))
	}
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
}
