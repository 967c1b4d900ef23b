package run

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
		Category:  "run",
		Usage:     "List Pipeline API runs, optionally filtered by job",
		UsageText: "pipeline-api run list [options]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(false)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 0 {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg,
					fmt.Errorf("expected 0 arguments, got %v", numArgs)), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.RunListReq{JobID: helper.JobFromFlags(cmd)}

			resp, _, err := client.Runs().List(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, err), 1)
			}

			outputRunList(cmd, resp.Runs)
			return nil
		},
	}
}

func outputRunList(cmd *cli.Command, runs []*api.RunStub) {
	if len(runs) == 0 {
		_, _ = fmt.Fprint(cmd.Writer, "No runs found\n")
		return
	}

	out := pterm.TableData{{"Job ID", "Number", "State", "Result", "Cause", "Enqueue Time"}}

	for _, run := range runs {
		out = append(out, []string{
			run.JobID,
			strconv.FormatInt(run.Number, 10),
			colouredRunState(run.State),
			colouredRunResult(run.Result),
			run.Cause,
			helper.FormatTime(run.EnqueueTime),
		})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
}
