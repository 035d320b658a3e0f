// Package cmd provides CLI commands for the pharos binary.
package cmd

import "github.com/urfave/cli/v2"

// Shared flags across commands.
var (
	// ConfigFlag points at the pharos.yaml inventory file.
	ConfigFlag = &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to pharos.yaml",
		Value:   "pharos.yaml",
	}

	// PoolFlag selects a pool by name.
	PoolFlag = &cli.StringFlag{
		Name:  "pool",
		Usage: "Pool name",
	}

	// ConsumerFlag overrides the configured consumer name.
	ConsumerFlag = &cli.StringFlag{
		Name:  "consumer",
		Usage: "Consumer name (default from config, else \"default\")",
	}
)

// CommonFlags returns the flags every command accepts.
func CommonFlags() []cli.Flag {
	return []cli.Flag{
		ConfigFlag,
	}
}
