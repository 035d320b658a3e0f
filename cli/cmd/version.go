package cmd

import (
	"github.com/urfave/cli/v2"

	"github.com/justapithecus/pharos/types"
)

// VersionResponse is the response for the version command.
type VersionResponse struct {
	Version string `json:"version"`
}

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Show version information",
		Action: versionAction,
	}
}

func versionAction(c *cli.Context) error {
	return renderJSON(c.App.Writer, VersionResponse{Version: types.Version})
}
