package job

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func createCommand() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Category:  "job",
		Usage:     "Create a Pipeline API job from an HCL file",
		UsageText: "pipeline-api job create [options] [job-file]",
		Flags:     helper.ClientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(createCommandCLIErrorMsg, fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			job, err := api.ParseJobFile(cmd.Args().First())
			if err != nil {
				return cli.Exit(helper.FormatError(createCommandCLIErrorMsg, err), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.JobCreateReq{Job: job}

			resp, _, err := client.Jobs().Create(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(createCommandCLIErrorMsg, err), 1)
			}

			outputJob(resp.Job)
			return nil
		},
	}
}
