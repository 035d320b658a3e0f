package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/pharos/health"
	"github.com/justapithecus/pharos/log"
	"github.com/justapithecus/pharos/types"
)

// CheckResponse is the per-pool output of the check command.
type CheckResponse struct {
	Pool     string `json:"pool"`
	Checked  int    `json:"checked"`
	Active   int    `json:"active"`
	Slow     int    `json:"slow"`
	Inactive int    `json:"inactive"`
	Skipped  int    `json:"skipped,omitempty"`
}

// CheckReport is the full output of the check command.
type CheckReport struct {
	Pools  []CheckResponse  `json:"pools"`
	Totals map[string]int64 `json:"totals"`
}

// CheckCommand returns the check command: a health sweep over the
// configured inventory, applying classified results to the store.
func CheckCommand() *cli.Command {
	return &cli.Command{
		Name:   "check",
		Usage:  "Probe configured proxies and classify their health",
		Flags:  append(CommonFlags(), PoolFlag),
		Action: checkAction,
	}
}

func checkAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	pools := env.cfg.PoolNames()
	if name := c.String("pool"); name != "" {
		pools = []string{name}
	}

	checker := health.NewChecker(health.WithCheckerLogger(log.NewLogger("health")))
	monitor := health.NewMonitor(env.store, checker, health.WithMonitorLogger(log.NewLogger("health")))
	collector := env.metrics
	opts := env.cfg.CheckOptions()

	responses := make([]CheckResponse, 0, len(pools))
	for _, pool := range pools {
		proxies, err := env.store.ListProxies(pool)
		if err != nil {
			return fmt.Errorf("check pool %q: %w", pool, err)
		}

		summary, err := monitor.Sweep(c.Context, proxies, opts)
		if err != nil {
			return fmt.Errorf("check pool %q: %w", pool, err)
		}

		for i := 0; i < summary.Active; i++ {
			collector.IncCheck(string(types.ProxyStatusActive))
		}
		for i := 0; i < summary.Slow; i++ {
			collector.IncCheck(string(types.ProxyStatusSlow))
		}
		for i := 0; i < summary.Inactive; i++ {
			collector.IncCheck(string(types.ProxyStatusInactive))
		}

		responses = append(responses, CheckResponse{
			Pool:     pool,
			Checked:  summary.Checked,
			Active:   summary.Active,
			Slow:     summary.Slow,
			Inactive: summary.Inactive,
			Skipped:  summary.Skipped,
		})
	}

	return renderJSON(c.App.Writer, CheckReport{
		Pools:  responses,
		Totals: collector.Snapshot().ChecksByStatus,
	})
}
