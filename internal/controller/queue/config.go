package queue

import (
	"time"

	"github.com/urfave/cli/v3"
)

const DefaultMaterializeDelay = time.Second

type Config struct {
	MaterializeDelay time.Duration

	// MaterializeDelayHCL is the raw delay string from a config file. It is
	// parsed into MaterializeDelay once the file has been decoded.
	MaterializeDelayHCL string `hcl:"materialize_delay,optional"`
}

func DefaultConfig() *Config {
	return &Config{
		MaterializeDelay: DefaultMaterializeDelay,
	}
}

func (c *Config) Merge(other *Config) *Config {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}

	result := *c

	if other.MaterializeDelay != 0 {
		result.MaterializeDelay = other.MaterializeDelay
	}
	if other.MaterializeDelayHCL != "" {
		result.MaterializeDelayHCL = other.MaterializeDelayHCL
	}

	return &result
}

// Finalize parses the raw delay string, if one was supplied.
func (c *Config) Finalize() error {
	if c.MaterializeDelayHCL == "" {
		return nil
	}
	d, err := time.ParseDuration(c.MaterializeDelayHCL)
	if err != nil {
		return err
	}
	c.MaterializeDelay = d
	c.MaterializeDelayHCL = ""
	return nil
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.DurationFlag{
			Name:    "queue-materialize-delay",
			Usage:   "The time a queued run waits before it is written to state",
			Sources: cli.EnvVars("PIPELINE_API_QUEUE_MATERIALIZE_DELAY"),
		},
	}
}

func ConfigFromCLI(cmd *cli.Command) *Config {
	return &Config{
		MaterializeDelay: cmd.Duration("queue-materialize-delay"),
	}
}
