package run

import (
	"context"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

const paramCLIFlag = "param"

func triggerCommand() *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Category:  "run",
		Usage:     "Trigger a new run of a Pipeline API job",
		UsageText: "pipeline-api run trigger [options] [job-id]",
		Flags: append(helper.ClientFlags(),
			&cli.StringMapFlag{
				Aliases: []string{"p"},
				Name:    paramCLIFlag,
				Usage:   "Set a run parameter, for example -param branch=main",
			},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(triggerCommandCLIErrorMsg,
					fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			// Parameter values are sent as strings and converted to the
			// declared parameter type by the server.
			params := make(map[string]any)
			for k, v := range cmd.StringMap(paramCLIFlag) {
				params[k] = v
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.RunTriggerReq{JobID: cmd.Args().First(), Parameters: params}

			resp, httpResp, err := client.Runs().Trigger(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(triggerCommandCLIErrorMsg, err), 1)
			}

			OutputTriggerResp(cmd, resp, httpResp)
			return nil
		},
	}
}

// OutputTriggerResp prints the result of a trigger or restart request.
func OutputTriggerResp(cmd *cli.Command, resp *api.RunTriggerResp, httpResp *api.Response) {
	if resp.Run != nil {
		outputRun(resp.Run)
		return
	}

	// The server accepted the request but the run was not yet written to
	// state.
	if httpResp != nil && httpResp.StatusCode == http.StatusAccepted && resp.QueueItem != nil {
		_, _ = fmt.Fprintf(cmd.Writer, "Run %v of job %q is queued (queue ID %s)\n",
			resp.QueueItem.Number, resp.QueueItem.JobID, resp.QueueItem.ID)
	}
}

