package cmd

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/justapithecus/pharos/types"
)

// StatsCommand returns the stats command: aggregate snapshots of the
// configured pools.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:   "stats",
		Usage:  "Show pool statistics",
		Flags:  append(CommonFlags(), PoolFlag),
		Action: statsAction,
	}
}

func statsAction(c *cli.Context) error {
	env, err := setup(c)
	if err != nil {
		return err
	}
	defer env.close()

	pools := env.cfg.PoolNames()
	if name := c.String("pool"); name != "" {
		pools = []string{name}
	}

	snapshots := make([]*types.PoolStats, 0, len(pools))
	for _, pool := range pools {
		stats, err := env.manager.PoolStats(c.Context, pool)
		if err != nil {
			return fmt.Errorf("stats for pool %q: %w", pool, err)
		}
		snapshots = append(snapshots, stats)
	}

	return renderJSON(c.App.Writer, snapshots)
}
