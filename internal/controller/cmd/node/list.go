package node

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
		Category:  "node",
		Usage:     "List the nodes of a Pipeline API run and whether each is restartable",
		UsageText: "pipeline-api node list [options] [run-number]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(true)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			number, err := helper.ParseRunNumber(cmd.Args().First())
			if err != nil {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, err), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.NodeListReq{JobID: helper.JobFromFlags(cmd), Number: number}

			resp, _, err := client.Nodes().List(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(listCommandCLIErrorMsg, err), 1)
			}

			outputNodeList(cmd, resp.Nodes)
			return nil
		},
	}
}

func outputNodeList(cmd *cli.Command, nodes []*api.Node) {
	if len(nodes) == 0 {
		_, _ = fmt.Fprint(cmd.Writer, "No nodes found\n")
		return
	}

	out := pterm.TableData{{"ID", "Name", "State", "Result", "Restartable"}}

	for _, n := range nodes {
		out = append(out, []string{
			n.ID,
			n.DisplayName,
			n.State,
			n.Result,
			strconv.FormatBool(n.Restartable),
		})
	}

	_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
}
