package job

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
		Category:  "job",
		Usage:     "Delete a Pipeline API job which has no runs",
		UsageText: "pipeline-api job delete [options] [job-id]",
		Flags:     helper.ClientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(deleteCommandCLIErrorMsg, fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.JobDeleteReq{ID: cmd.Args().First()}

			if _, err := client.Jobs().Delete(ctx, &req); err != nil {
				return cli.Exit(helper.FormatError(deleteCommandCLIErrorMsg, err), 1)
			}

			_, _ = fmt.Fprintf(cmd.Writer, "successfully deleted Pipeline API job %q\n", req.ID)
			return nil
		},
	}
}
