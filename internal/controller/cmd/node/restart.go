package node

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/run"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func restartCommand() *cli.Command {
	return &cli.Command{
		Name:      "restart",
		Category:  "node",
		Usage:     "Restart a Pipeline API run from one of its stages",
		UsageText: "pipeline-api node restart [options] [run-number] [node]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(true)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 2 {
				return cli.Exit(helper.FormatError(restartCommandCLIErrorMsg, fmt.Errorf("expected 2 arguments, got %v", numArgs)), 1)
			}

			number, err := helper.ParseRunNumber(cmd.Args().Get(0))
			if err != nil {
				return cli.Exit(helper.FormatError(restartCommandCLIErrorMsg, err), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.NodeRestartReq{
				JobID:  helper.JobFromFlags(cmd),
				Number: number,
				Node:   cmd.Args().Get(1),
			}

			resp, httpResp, err := client.Nodes().Restart(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(restartCommandCLIErrorMsg, err), 1)
			}

			run.OutputTriggerResp(cmd, resp, httpResp)
			return nil
		},
	}
}
