package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

const listCommandCLIErrorMsg = "failed to list Pipeline API queue"

func Command() *cli.Command {
	return &cli.Command{
		Name:            "queue",
		Usage:           "Interrogate the Pipeline API run queue",
		HideHelpCommand: true,
		UsageText:       "pipeline-api queue <command> [options] [args]",
		Commands: []*cli.Command{
			listCommand(),
		},
	}
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:      "list",
		Category:  "queue",
		Usage:     "List runs which are queued but not yet visible",
		UsageText: "pipeline-api queue list [options]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(false)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 0 {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, fmt.Errorf("expected 0 arguments, got %v", numArgs)), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			resp, _, err := client.Queue().List(ctx, &api.QueueListReq{JobID: helper.JobFromFlags(cmd)})
			if err != nil {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, err), 1)
			}

			if len(resp.Items) == 0 {
				_, _ = fmt.Fprint(cmd.Writer, "No queued runs found\n")
				return nil
			}

			out := pterm.TableData{{"Queue ID", "Job ID", "Number", "Cause", "Enqueue Time"}}

			for _, item := range resp.Items {
				out = append(out, []string{
					item.ID.String(),
					item.JobID,
					strconv.FormatInt(item.Number, 10),
					item.Cause,
					helper.FormatTime(item.EnqueueTime),
				})
			}

			_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
			return nil
		},
	}
}
