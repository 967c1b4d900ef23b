package state

import (
	"fmt"

	"github.com/hashicorp/nomad/api"
	"github.com/hashicorp/nomad/helper/pointer"
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state/dev"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state/nvar"
)

const (
	BackendDev       = "dev"
	BackendNomadVars = "nomad-vars"
)

type Config struct {
	Backend string           `hcl:"backend,optional"`
	NVars   *NomadVarsConfig `hcl:"nomad_vars,block"`
}

type NomadVarsConfig struct {
	CacheEnabled *bool `hcl:"cache_enabled,optional"`
}

func (c *Config) Merge(other *Config) *Config {
	if c == nil {
		return other
	}
	if other == nil {
		return c
	}

	result := *c

	if other.Backend != "" {
		result.Backend = other.Backend
	}

	if other.NVars != nil {
		nvars := NomadVarsConfig{}
		if result.NVars != nil {
			nvars = *result.NVars
		}
		if other.NVars.CacheEnabled != nil {
			nvars.CacheEnabled = other.NVars.CacheEnabled
		}
		result.NVars = &nvars
	}

	return &result
}

func (c *Config) Validate() error {
	switch c.Backend {
	case BackendDev, BackendNomadVars:
		return nil
	default:
		return fmt.Errorf("unsupported state backend: %q", c.Backend)
	}
}

func DefaultConfig() *Config {
	return &Config{
		Backend: BackendDev,
		NVars: &NomadVarsConfig{
			CacheEnabled: pointer.Of(true),
		},
	}
}

// NewBackend builds the configured state backend. The Nomad client is only
// required by the nomad-vars backend.
func NewBackend(cfg *Config, logger *zap.Logger, client *api.Client) (state.State, error) {
	switch cfg.Backend {
	case BackendDev:
		return dev.New(), nil
	case BackendNomadVars:
		cache := cfg.NVars != nil && cfg.NVars.CacheEnabled != nil && *cfg.NVars.CacheEnabled
		return nvar.New(cache, logger, client)
	default:
		return nil, fmt.Errorf("unsupported state backend: %q", cfg.Backend)
	}
}
