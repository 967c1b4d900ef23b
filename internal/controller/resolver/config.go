package resolver

import (
	"time"

	"github.com/urfave/cli/v3"
)

const (
	DefaultMaxAttempts = 10
	DefaultInterval    = 500 * time.Millisecond
)

type Config struct {
	MaxAttempts int           `hcl:"max_attempts,optional"`
	Interval    time.Duration

	// IntervalHCL is the raw interval string from a config file. It is
	// parsed into Interval once the file has been decoded.
	IntervalHCL string `hcl:"interval,optional"`
}

func DefaultConfig() *Config {
	return &Config{
		MaxAttempts: DefaultMaxAttempts,
		Interval:    DefaultInterval,
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

	if other.MaxAttempts != 0 {
		result.MaxAttempts = other.MaxAttempts
	}
	if other.Interval != 0 {
		result.Interval = other.Interval
	}
	if other.IntervalHCL != "" {
		result.IntervalHCL = other.IntervalHCL
	}

	return &result
}

// Finalize parses the raw interval string, if one was supplied.
func (c *Config) Finalize() error {
	if c.IntervalHCL == "" {
		return nil
	}
	d, err := time.ParseDuration(c.IntervalHCL)
	if err != nil {
		return err
	}
	c.Interval = d
	c.IntervalHCL = ""
	return nil
}

// attempts treats any budget below one as a single attempt.
func (c *Config) attempts() int {
	if c.MaxAttempts < 1 {
		return 1
	}
	return c.MaxAttempts
}

// MaxWait is the longest Resolve can spend waiting between lookups.
func (c *Config) MaxWait() time.Duration {
	return time.Duration(c.attempts()-1) * c.Interval
}

func Flags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:    "resolver-max-attempts",
			Usage:   "The number of times a queued run is looked up before it is reported as absent",
			Sources: cli.EnvVars("PIPELINE_API_RESOLVER_MAX_ATTEMPTS"),
		},
		&cli.DurationFlag{
			Name:    "resolver-interval",
			Usage:   "The wait between run lookup attempts",
			Sources: cli.EnvVars("PIPELINE_API_RESOLVER_INTERVAL"),
		},
	}
}

func ConfigFromCLI(cmd *cli.Command) *Config {
	return &Config{
		MaxAttempts: int(cmd.Int("resolver-max-attempts")),
		Interval:    cmd.Duration("resolver-interval"),
	}
}
