package run

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func getCommand() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Category:  "run",
		Usage:     "Get the detail of a Pipeline API run",
		UsageText: "pipeline-api run get [options] [run-number]",
		Flags:     append(helper.ClientFlags(), helper.JobFlag(true)),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			if numArgs := cmd.Args().Len(); numArgs != 1 {
				return cli.Exit(helper.FormatError(getCommandCLIErrorMsg,
					fmt.Errorf("expected 1 argument, got %v", numArgs)), 1)
			}

			number, err := helper.ParseRunNumber(cmd.Args().First())
			if err != nil {
				return cli.Exit(helper.FormatError(getCommandCLIErrorMsg, err), 1)
			}

			client := api.NewClient(helper.ClientConfigFromFlags(cmd))

			req := api.RunGetReq{JobID: helper.JobFromFlags(cmd), Number: number}

			resp, _, err := client.Runs().Get(ctx, &req)
			if err != nil {
				return cli.Exit(helper.FormatError(getCommandCLIErrorMsg, err), 1)
			}

			outputRun(resp.Run)
			return nil
		},
	}
}

func outputRun(run *api.Run) {
	pterm.DefaultBasicText.Print(runHeader(run))
	pterm.DefaultBasicText.Print("\n")

	if runParams := runParameters(run); runParams != "" {
		pterm.DefaultSection.Print("Parameters")
		pterm.DefaultBasicText.Print(runParams)
	}

	pterm.DefaultSection.Print("Stages")
	pterm.DefaultBasicText.Print(runStages(run))
}

func runHeader(run *api.Run) string {
	kv := []string{
		fmt.Sprintf("Job ID|%s", run.JobID),
		fmt.Sprintf("Number|%v", run.Number),
		fmt.Sprintf("State|%s", colouredRunState(run.State)),
		fmt.Sprintf("Result|%s", colouredRunResult(run.Result)),
		fmt.Sprintf("Cause|%s", run.Cause),
	}

	if run.RestartOf != nil {
		kv = append(kv, fmt.Sprintf("Restart Of|%v (stage %s)", run.RestartOf.Number, run.RestartOf.Stage))
	}
	if run.Restart != nil {
		kv = append(kv, fmt.Sprintf("Restartable Stages|%s", strings.Join(run.Restart.RestartableStages, ", ")))
	}

	return helper.FormatKV(append(kv,
		fmt.Sprintf("Enqueue Time|%v", helper.FormatTime(run.EnqueueTime)),
		fmt.Sprintf("Start Time|%s", helper.FormatTime(run.StartTime)),
		fmt.Sprintf("End Time|%s", helper.FormatTime(run.EndTime)),
	))
}

func runParameters(run *api.Run) string {
	var body string

	if len(run.Parameters) > 0 {
		out := pterm.TableData{{"Name", "Value"}}

		keys := make([]string, 0, len(run.Parameters))
		for key := range run.Parameters {
			keys = append(keys, key)
		}
		slices.Sort(keys)

		for _, key := range keys {
			out = append(out, []string{
				key,
				fmt.Sprintf("%v", run.Parameters[key]),
			})
		}

		body, _ = pterm.DefaultTable.WithHasHeader().WithData(out).Srender()
	}

	return body
}

func runStages(run *api.Run) string {

	out := pterm.TableData{{"ID", "Name", "State", "Result", "Start Time", "End Time"}}

	for _, stage := range run.Stages {
		out = append(out, []string{
			stage.ID,
			stage.DisplayName,
			colouredRunState(stage.State),
			colouredRunResult(stage.Result),
			helper.FormatTime(stage.StartTime),
			helper.FormatTime(stage.EndTime),
		})
	}

	body, _ := pterm.DefaultTable.WithHasHeader().WithData(out).Srender()
	return body
}

func colouredRunState(state string) string {
	switch state {
	case "queued", "paused":
		return pterm.Yellow(state)
	case "running":
		return pterm.LightMagenta(state)
	case "finished":
		return pterm.Green(state)
	case "skipped", "not_built":
		return pterm.Gray(state)
	default:
		return state
	}
}

func colouredRunResult(result string) string {
	switch result {
	case "success":
		return pterm.Green(result)
	case "unstable":
		return pterm.Yellow(result)
	case "failure":
		return pterm.Red(result)
	case "aborted", "not_built":
		return pterm.Gray(result)
	default:
		return result
	}
}
