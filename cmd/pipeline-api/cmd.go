package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/job"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/node"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/queue"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/run"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/server"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/version"
)

func main() {

	cli.VersionPrinter = func(cmd *cli.Command) {
		_, _ = fmt.Fprint(cmd.Writer, helper.FormatKV([]string{
			fmt.Sprintf("Version|%s", cmd.Version),
			fmt.Sprintf("Build Time|%s", version.BuildTime),
			fmt.Sprintf("Build Commit|%s", version.BuildCommit),
		}))
		_, _ = fmt.Fprint(cmd.Writer, "\n")
	}

	cliApp := cli.Command{
		Commands: []*cli.Command{
			job.Command(),
			node.Command(),
			queue.Command(),
			run.Command(),
			server.Command(),
		},
		Name:  "pipeline-api",
		Usage: "Trigger and restart pipeline runs",
		Description: strings.TrimSpace(`
Pipeline API stores pipeline jobs and their runs, triggers new runs on demand
or on a schedule, and restarts runs from a chosen stage when the job declares
that stage as restartable.`),
		Version:         version.Get(),
		HideHelpCommand: true,
	}

	if err := cliApp.Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprint(os.Stderr, err.Error()+"\n")
		os.Exit(1)
	}
}
