// Package main provides the pharos CLI entrypoint.
//
// Usage:
//
//	pharos <command> [options]
//
// Commands operate on a pharos.yaml inventory file: check probes the
// configured proxies, stats reports pool snapshots, acquire smoke-tests
// a lease acquisition.
package main

import (
	"fmt"
	"os"

	"github.com/justapithecus/pharos/cli/cmd"
	"github.com/justapithecus/pharos/types"
)

func main() {
	app := cmd.NewApp(types.Version)

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
