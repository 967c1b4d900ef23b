package job

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Category:  "job",
		Usage:     "List Pipeline API jobs",
		UsageText: "pipeline-api job list [options]",
		Flags:     helper.ClientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 0 {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, fmt.Errorf("expected 0 arguments, got %v", numArgs)), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			resp, _, err := client.Jobs().List(ctx, &api.JobListReq{})
			if err != nil {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, err), 1)
			}

			outputJobList(cmd, resp.Jobs)
			return nil
		},
	}
}

func outputJobList(cmd *cli.Command, jobs []*api.JobStub) {
	if len(jobs) == 0 {
		_, _ = fmt.Fprint(cmd.Writer, "No jobs found\n")
		return
	}

	out := pterm.TableData{{"ID", "Description", "Declarative", "Stages"}}

	for _, job := range jobs {
		out = append(out, []string{
			job.ID,
			job.Description,
			strconv.FormatBool(job.Declarative),
			strconv.Itoa(job.NumStages),
		})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
}
