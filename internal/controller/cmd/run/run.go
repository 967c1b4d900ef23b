package run

import (
	"github.com/urfave/cli/v3"
)

const (
	deleteCommandCLIErrorMsg  = "failed to delete Pipeline API run"
	getCommandCLIErrorMsg     = "failed to get Pipeline API run detail"
	listCommandCLIErrorMsg    = "failed to list Pipeline API runs"
	triggerCommandCLIErrorMsg = "failed to trigger Pipeline API run"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:            "run",
		Usage:           "Trigger, read, and delete Pipeline API runs",
		HideHelpCommand: true,
		UsageText:       "pipeline-api run <command> [options] [args]",
		Commands: []*cli.Command{
			deleteCommand(),
			getCommand(),
			listCommand(),
			triggerCommand(),
		},
	}
}
