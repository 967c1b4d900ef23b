package server

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/cmd/helper"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
)

const runCommandCLIErrorMsg = "failed to run a Pipeline API server"

func runCommand() *cli.Command {
	return &cli.Command{
		Name:     "run",
		Category: "server",
		Usage:    "Run a Pipeline API server",
		Flags:    append(logger.Flags(), server.Flags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {

			cfg, err := buildConfig(cmd)
			if err != nil {
				return cli.Exit(helper.FormatError(runCommandCLIErrorMsg, err), 1)
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return cli.Exit(helper.FormatError(runCommandCLIErrorMsg, err), 1)
			}
			if err := srv.Start(); err != nil {
				srv.Stop()
				return cli.Exit(helper.FormatError(runCommandCLIErrorMsg, err), 1)
			}
			srv.WaitForSignals()
			return nil
		},
	}
}

// buildConfig merges the server configuration in order of precedence: the
// defaults, then the optional config file, then CLI flags.
func buildConfig(cmd *cli.Command) (*server.Config, error) {

	cfg := server.DefaultConfig()

	if path := cmd.String("config"); path != "" {
		fileCfg, err := server.LoadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg = cfg.Merge(fileCfg)
	}

	return cfg.Merge(server.ConfigFromCLI(cmd)), nil
}
