package server

import (
	"errors"
	"fmt"
	"maps"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/queue"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/resolver"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/http"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/hcl"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
)

type Config struct {
	Log      *logger.Config   `hcl:"log,block"`
	HTTP     *HTTPConfig      `hcl:"http,block"`
	Nomad    *NomadConfig     `hcl:"nomad,block"`
	RPC      *RPCConfig       `hcl:"rpc,block"`
	State    *state.Config    `hcl:"state,block"`
	Queue    *queue.Config    `hcl:"queue,block"`
	Resolver *resolver.Config `hcl:"resolver,block"`

	// Features seeds the feature flag store. Keys may be given with or
	// without the "features." prefix.
	Features map[string]string `hcl:"features,optional"`
}

type HTTPConfig struct {
	Addr           string `hcl:"addr,optional"`
	AccessLogLevel string `hcl:"access_log_level,optional"`
}

type RPCConfig struct {
	Addr string `hcl:"addr,optional"`
}

type NomadConfig struct {
	Addr      string `hcl:"addr,optional"`
	Token     string `hcl:"token,optional"`
	Namespace string `hcl:"namespace,optional"`
}

func DefaultConfig() *Config {
	return &Config{
		Log: logger.DefaultConfig(),
		HTTP: &HTTPConfig{
			Addr:           "http://localhost:8080",
			AccessLogLevel: zap.DebugLevel.String(),
		},
		Nomad: &NomadConfig{
			Addr: "http://localhost:4646",
		},
		RPC: &RPCConfig{
			Addr: "localhost:8081",
		},
		State:    state.DefaultConfig(),
		Queue:    queue.DefaultConfig(),
		Resolver: resolver.DefaultConfig(),
		Features: map[string]string{},
	}
}

func Flags() []cli.Flag {
	flags := []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Usage:   "The path to an HCL server configuration file",
			Sources: cli.EnvVars("PIPELINE_API_CONFIG"),
		},
		&cli.StringFlag{
			Name:    "http-addr",
			Usage:   "The HTTP server address",
			Sources: cli.EnvVars("PIPELINE_API_HTTP_ADDR"),
		},
		&cli.StringFlag{
			Name:    "http-access-log-level",
			Usage:   "The HTTP access log level (debug, info, warn)",
			Sources: cli.EnvVars("PIPELINE_API_HTTP_ACCESS_LOG_LEVEL"),
		},
		&cli.StringFlag{
			Name:    "nomad-addr",
			Usage:   "The Nomad server address",
			Sources: cli.EnvVars("NOMAD_ADDR"),
		},
		&cli.StringFlag{
			Name:    "nomad-token",
			Usage:   "The Nomad ACL token to use for HTTP requests",
			Sources: cli.EnvVars("NOMAD_TOKEN"),
		},
		&cli.StringFlag{
			Name:    "nomad-namespace",
			Usage:   "The Nomad namespace that state variables are written to",
			Sources: cli.EnvVars("NOMAD_NAMESPACE"),
		},
		&cli.StringFlag{
			Name:    "rpc-addr",
			Usage:   "The engine RPC server address",
			Sources: cli.EnvVars("PIPELINE_API_RPC_ADDR"),
		},
		&cli.StringFlag{
			Name:    "state-backend",
			Usage:   "The state backend to use (dev, nomad-vars)",
			Sources: cli.EnvVars("PIPELINE_API_STATE_BACKEND"),
		},
		&cli.BoolFlag{
			Name:    "state-nomad-vars-cache-enabled",
			Usage:   "Enable Nomad variables state backend read cache",
			Sources: cli.EnvVars("PIPELINE_API_STATE_NOMAD_VARS_CACHE_ENABLED"),
		},
		&cli.StringMapFlag{
			Name:  "feature",
			Usage: "Set a feature flag, for example DISABLE_RESTARTABLE_STAGES=true",
		},
	}

	flags = append(flags, queue.Flags()...)
	flags = append(flags, resolver.Flags()...)

	return flags
}

func ConfigFromCLI(cmd *cli.Command) *Config {
	cfg := &Config{
		Log: logger.ConfigFromCLI(cmd),
		HTTP: &HTTPConfig{
			Addr:           cmd.String("http-addr"),
			AccessLogLevel: cmd.String("http-access-log-level"),
		},
		Nomad: &NomadConfig{
			Addr:      cmd.String("nomad-addr"),
			Token:     cmd.String("nomad-token"),
			Namespace: cmd.String("nomad-namespace"),
		},
		RPC: &RPCConfig{
			Addr: cmd.String("rpc-addr"),
		},
		State: &state.Config{
			Backend: cmd.String("state-backend"),
		},
		Queue:    queue.ConfigFromCLI(cmd),
		Resolver: resolver.ConfigFromCLI(cmd),
		Features: cmd.StringMap("feature"),
	}

	if cmd.IsSet("state-nomad-vars-cache-enabled") {
		cacheEnabled := cmd.Bool("state-nomad-vars-cache-enabled")
		cfg.State.NVars = &state.NomadVarsConfig{CacheEnabled: &cacheEnabled}
	}

	return cfg
}

// LoadConfigFile decodes the HCL configuration file at path. Duration
// strings are parsed here, so that the file can be merged with other
// sources.
func LoadConfigFile(path string) (*Config, error) {
	var cfg Config
	if err := hcl.DecodeFile(path, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	var errs []error

	if cfg.Queue != nil {
		if err := cfg.Queue.Finalize(); err != nil {
			errs = append(errs, fmt.Errorf("invalid queue materialize delay: %w", err))
		}
	}
	if cfg.Resolver != nil {
		if err := cfg.Resolver.Finalize(); err != nil {
			errs = append(errs, fmt.Errorf("invalid resolver interval: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the merged configuration can be used to build a server.
func (c *Config) Validate() error {
	var errs []error

	if c.State != nil {
		if err := c.State.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if c.HTTP != nil {
		if err := http.ValidateAccessLogLevel(c.HTTP.AccessLogLevel); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Resolver != nil {
		if wait := c.Resolver.MaxWait(); wait >= http.WriteTimeout {
			errs = append(errs, fmt.Errorf(
				"resolver budget of %v must be below the HTTP write timeout of %v", wait, http.WriteTimeout))
		}
	}

	return errors.Join(errs...)
}

// FeatureProperties returns the configured feature flags keyed by their full
// property name.
func (c *Config) FeatureProperties() map[string]string {
	props := make(map[string]string, len(c.Features))
	for k, v := range c.Features {
		if !strings.HasPrefix(k, feature.KeyPrefix) {
			k = feature.KeyPrefix + k
		}
		props[k] = v
	}
	return props
}

func (c *Config) Merge(other *Config) *Config {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}

	result := *c

	if other.HTTP != nil {
		httpCfg := HTTPConfig{}
		if result.HTTP != nil {
			httpCfg = *result.HTTP
		}
		if other.HTTP.Addr != "" {
			httpCfg.Addr = other.HTTP.Addr
		}
		if other.HTTP.AccessLogLevel != "" {
			httpCfg.AccessLogLevel = other.HTTP.AccessLogLevel
		}
		result.HTTP = &httpCfg
	}

	if other.Nomad != nil {
		nomadCfg := NomadConfig{}
		if result.Nomad != nil {
			nomadCfg = *result.Nomad
		}
		if other.Nomad.Addr != "" {
			nomadCfg.Addr = other.Nomad.Addr
		}
		if other.Nomad.Token != "" {
			nomadCfg.Token = other.Nomad.Token
		}
		if other.Nomad.Namespace != "" {
			nomadCfg.Namespace = other.Nomad.Namespace
		}
		result.Nomad = &nomadCfg
	}

	if other.RPC != nil {
		rpcCfg := RPCConfig{}
		if result.RPC != nil {
			rpcCfg = *result.RPC
		}
		if other.RPC.Addr != "" {
			rpcCfg.Addr = other.RPC.Addr
		}
		result.RPC = &rpcCfg
	}

	result.State = result.State.Merge(other.State)
	result.Queue = result.Queue.Merge(other.Queue)
	result.Resolver = result.Resolver.Merge(other.Resolver)
	result.Log = result.Log.Merge(other.Log)

	if len(other.Features) > 0 {
		features := make(map[string]string, len(result.Features)+len(other.Features))
		maps.Copy(features, result.Features)
		maps.Copy(features, other.Features)
		result.Features = features
	}

	return &result
}
