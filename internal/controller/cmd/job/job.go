package job

import (
	"github.com/urfave/cli/v3"
)

const (
	createCommandCLIErrorMsg = "failed to create Pipeline API job"
	deleteCommandCLIErrorMsg = "failed to delete Pipeline API job"
	getCommandCLIErrorMsg    = "failed to get Pipeline API job"
	listCommandCLIErrorMsg   = "failed to list Pipeline API jobs"
)

func Command() *cli.Command {
	return &cli.Command{
		Name:            "job",
		Usage:           "Create, read, and delete Pipeline API jobs",
		HideHelpCommand: true,
		UsageText:       "pipeline-api job <command> [options] [args]",
		Commands: []*cli.Command{
			createCommand(),
			deleteCommand(),
			getCommand(),
			listCommand(),
		},
	}
}
