package helper

import (
	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

const (
	addressCLIFlag = "address"
	jobCLIFlag     = "job"
)

func ClientFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Aliases: []string{"a"},
			Sources: cli.EnvVars("PIPELINE_API_ADDR"),
			Name:    addressCLIFlag,
			Value:   "http://127.0.0.1:8080",
			Usage:   "Pipeline API server address to make API requests to",
		},
	}
}

// JobFlag is used by commands which operate on the runs of a single job.
func JobFlag(required bool) cli.Flag {
	return &cli.StringFlag{
		Aliases:  []string{"j"},
		Name:     jobCLIFlag,
		Required: required,
		Usage:    "The ID of the job",
	}
}

func JobFromFlags(cmd *cli.Command) string { return cmd.String(jobCLIFlag) }

func ClientConfigFromFlags(cmd *cli.Command) *api.Config {

	defaultConfig := api.DefaultConfig()

	if addr := cmd.String(addressCLIFlag); addr != "" {
		defaultConfig.Address = addr
	}

	return defaultConfig
}
