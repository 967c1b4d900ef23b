package server

import (
	"github.com/urfave/cli/v3"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:            "server",
		Usage:           "Run, control, and interrogate Pipeline API servers",
		HideHelpCommand: true,
		UsageText:       "pipeline-api server <command> [options] [args]",
		Commands: []*cli.Command{
			runCommand(),
		},
	}
}
