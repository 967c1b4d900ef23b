package node

import (
	"github.com/urfave/cli/v3"
)

const (
	listCommandCLIErrorMsg    = "failed to list Pipeline API run nodes"
	restartCommandCLIErrorMsg = "failed to restart Pipeline API run node"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:            "node",
		Usage:           "Inspect and restart the stages of Pipeline API runs",
		HideHelpCommand: true,
		UsageText:       "pipeline-api node <command> [options] [args]",
		Commands: []*cli.Command{
			listCommand(),
			restartCommand(),
		},
	}
}
