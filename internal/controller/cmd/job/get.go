package job

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Category:  "job",
		Usage:     "Get a Pipeline API job",
		UsageText: "pipeline-api job get [options] [job-id]",
		Flags:     helper.ClientFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(getCommandCLIErrorMsg, fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.JobGetReq{ID: cmd.Args().First()}

			resp, _, err := client.Jobs().Get(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(getCommandCLIErrorMsg, err), 1)
			}

			outputJob(resp.Job)
			return nil
		},
	}
}

func outputJob(j *api.Job) {

	pterm.DefaultBasicText.Print(helper.FormatKV([]string{
		fmt.Sprintf("ID|%s", j.ID),
		fmt.Sprintf("Description|%s", j.Description),
		fmt.Sprintf("Declarative|%v", j.Declarative),
		fmt.Sprintf("Schedule|%s", strings.Join(j.Schedule, ", ")),
	}))
	pterm.DefaultBasicText.Print("\n")

	if len(j.Parameters) > 0 {
		out := pterm.TableData{{"Name", "Type", "Default", "Required"}}

		for _, p := range j.Parameters {
			out = append(out, []string{
				p.Name,
				parameterTypeString(p.Type),
				parameterDefaultString(p.Default),
				strconv.FormatBool(p.Required),
			})
		}

		pterm.DefaultSection.Print("Parameters")
		_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
	}

	if len(j.Stages) > 0 {
		out := pterm.TableData{{"Name", "Restartable"}}

		for _, s := range j.Stages {
			out = append(out, []string{
				s.Name,
				strconv.FormatBool(s.Restartable),
			})
		}

		pterm.DefaultSection.Print("Stages")
		_ = pterm.DefaultTable.WithHasHeader().WithData(out).Render()
	}
}

func parameterTypeString(t string) string {
	if t == "" {
		return "<any>"
	}
	return t
}

func parameterDefaultString(v any) string {
	if v == nil {
		return "<none>"
	}
	return fmt.Sprintf("%v", v)
}
