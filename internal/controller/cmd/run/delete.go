package run

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Category:  "run",
		Usage:     "Delete a Pipeline API run",
		UsageText: "pipeline-api run delete [options] [run-number]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(true)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(deleteCommandCLIErrorMsg,
					fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			number, err := helper.ParseRunNumber(cmd.Args().First())
			if err != nil {
				return cli.Exit(helper.FormatError(deleteCommandCLIErrorMsg, err), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.RunDeleteReq{JobID: helper.JobFromFlags(cmd), Number: number}

			if _, err := client.Runs().Delete(ctx, &req); err != nil {
				return cli.Exit(helper.FormatError(deleteCommandCLIErrorMsg, err), 1)
			}

			_, _ = fmt.Fprintf(cmd.Writer, "Successfully deleted run %v of job %q\n", number, req.JobID)
			return nil
		},
	}
}
