package cmd

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/pharos/lease"
	"github.com/justapithecus/pharos/types"
)

// AcquireResponse is the output of the acquire command.
type AcquireResponse struct {
	Acquired bool         `json:"acquired"`
	Strategy string       `json:"strategy"`
	Lease    *types.Lease `json:"lease,omitempty"`
	Proxy    string       `json:"proxy_url,omitempty"`
	Released bool         `json:"released"`
}

// AcquireCommand returns the acquire command: a single acquisition against
// the configured inventory, useful for smoke-testing pool setup. The lease
// is released before exit unless --hold is given.
func AcquireCommand() *cli.Command {
	return &cli.Command{
		Name:  "acquire",
		Usage: "Acquire a lease from a pool",
		Flags: append(CommonFlags(),
			PoolFlag,
			ConsumerFlag,
			&cli.DurationFlag{Name: "duration", Usage: "Lease duration", Value: 5 * time.Minute},
			&cli.StringFlag{Name: "strategy", Usage: "Selection strategy: first_available, least_used, round_robin"},
			&cli.StringFlag{Name: "country", Usage: "Filter: ISO country code"},
			&cli.StringFlag{Name: "source", Usage: "Filter: provider source label"},
			&cli.IntFlag{Name: "retries", Usage: "Retry attempts when the pool is exhausted", Value: 1},
			&cli.BoolFlag{Name: "hold", Usage: "Leave the lease active instead of releasing on exit"},
		),
		Action: acquireAction,
	}
}

func acquireAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	pool := c.String("pool")
	if pool == "" {
		return fmt.Errorf("--pool is required")
	}

	// Flags win over config; the pool's configured strategy and the lease
	// section fill in whatever the flags leave unset.
	strategyName := c.String("strategy")
	if strategyName == "" {
		strategyName = env.cfg.Pools[pool].Strategy
	}
	strategy, err := types.ParseStrategy(strategyName)
	if err != nil {
		return err
	}

	duration := c.Duration("duration")
	if !c.IsSet("duration") && env.cfg.Lease.Duration.Duration > 0 {
		duration = env.cfg.Lease.Duration.Duration
	}

	var filters *types.Filters
	if c.String("country") != "" || c.String("source") != "" {
		filters = &types.Filters{
			Country: c.String("country"),
			Source:  c.String("source"),
		}
	}

	req := lease.AcquireRequest{
		Pool:     pool,
		Consumer: c.String("consumer"),
		Duration: duration,
		Filters:  filters,
		Strategy: strategy,
	}

	retry := lease.DefaultRetryConfig()
	retry.MaxAttempts = c.Int("retries")
	if !c.IsSet("retries") && env.cfg.Lease.Retries != nil && *env.cfg.Lease.Retries > 0 {
		retry.MaxAttempts = *env.cfg.Lease.Retries
	}
	if env.cfg.Lease.Backoff.Duration > 0 {
		retry.Backoff = env.cfg.Lease.Backoff.Duration
	}
	if env.cfg.Lease.MaxBackoff.Duration > 0 {
		retry.MaxBackoff = env.cfg.Lease.MaxBackoff.Duration
	}

	granted, err := env.manager.AcquireWithRetry(c.Context, req, retry)
	if err != nil {
		return err
	}

	resp := AcquireResponse{Acquired: granted != nil, Strategy: string(strategy), Lease: granted}
	if granted != nil {
		if proxy := env.store.GetProxy(granted.ProxyID); proxy != nil {
			resp.Proxy = proxy.URL()
		}
		if !c.Bool("hold") {
			if err := env.manager.Release(c.Context, granted); err != nil {
				return err
			}
			resp.Released = true
		}
	}

	return renderJSON(c.App.Writer, resp)
}
