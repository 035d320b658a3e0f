package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/pharos/adapter"
	"github.com/justapithecus/pharos/adapter/redis"
	"github.com/justapithecus/pharos/adapter/webhook"
	"github.com/justapithecus/pharos/cli/config"
	"github.com/justapithecus/pharos/lease"
	"github.com/justapithecus/pharos/log"
	"github.com/justapithecus/pharos/metrics"
	"github.com/justapithecus/pharos/storage"
	"github.com/justapithecus/pharos/types"
)

// environment bundles the pieces every command needs: the loaded config,
// the seeded store, and a manager with the configured adapter attached.
type environment struct {
	cfg     *config.Config
	store   *storage.MemoryStore
	manager *lease.Manager
	metrics *metrics.Collector
	closers []func() error
}

// setup loads the config file, seeds the in-memory store, and wires a
// manager. The returned environment must be closed after use.
func setup(c *cli.Context) (*environment, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	store, err := cfg.Bootstrap()
	if err != nil {
		return nil, err
	}

	opts := []lease.Option{lease.WithLogger(log.NewLogger("pharos-cli"))}
	if cfg.Consumer != "" {
		opts = append(opts, lease.WithDefaultConsumer(cfg.Consumer))
	}
	manager := lease.New(store, opts...)

	collector := metrics.NewCollector("memory", "")
	manager.OnAcquire(func(ctx context.Context, event *types.AcquireEvent) error {
		if event.Lease != nil {
			collector.IncAcquireHit()
		} else {
			collector.IncAcquireMiss()
		}
		collector.AddExpiredSwept(int64(event.ExpiredSwept))
		return nil
	})
	manager.OnRelease(func(ctx context.Context, event *types.ReleaseEvent) error {
		collector.IncRelease()
		return nil
	})

	env := &environment{cfg: cfg, store: store, manager: manager, metrics: collector}

	if cfg.Adapter.Type != "" {
		a, err := buildAdapter(cfg)
		if err != nil {
			return nil, err
		}
		adapter.Attach(manager, a)
		env.closers = append(env.closers, a.Close)
	}

	return env, nil
}

func (e *environment) close() {
	for _, closeFn := range e.closers {
		_ = closeFn()
	}
}

// buildAdapter constructs the configured lease-event adapter.
func buildAdapter(cfg *config.Config) (adapter.Adapter, error) {
	retries := -1
	if cfg.Adapter.Retries != nil {
		retries = *cfg.Adapter.Retries
	}

	switch cfg.Adapter.Type {
	case "webhook":
		wcfg := webhook.Config{
			URL:     cfg.Adapter.URL,
			Headers: cfg.Adapter.Headers,
			Timeout: cfg.Adapter.Timeout.Duration,
		}
		if retries >= 0 {
			wcfg.Retries = retries
		} else {
			wcfg.Retries = webhook.DefaultRetries
		}
		return webhook.New(wcfg)

	case "redis":
		rcfg := redis.Config{
			URL:     cfg.Adapter.URL,
			Channel: cfg.Adapter.Channel,
			Timeout: cfg.Adapter.Timeout.Duration,
		}
		if retries >= 0 {
			rcfg.Retries = retries
		} else {
			rcfg.Retries = redis.DefaultRetries
		}
		return redis.New(rcfg)

	default:
		return nil, fmt.Errorf("unsupported adapter type: %s (must be webhook or redis)", cfg.Adapter.Type)
	}
}

// NewApp assembles the pharos CLI application.
func NewApp(version string) *cli.App {
	return &cli.App{
		Name:    "pharos",
		Usage:   "Proxy pool lease manager CLI",
		Version: version,
		Commands: []*cli.Command{
			AcquireCommand(),
			CheckCommand(),
			StatsCommand(),
			VersionCommand(),
		},
	}
}
