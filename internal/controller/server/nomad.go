package server

import (
	"github.com/hashicorp/nomad/api"
)

// generateNomadClient builds the client used by the nomad-vars state backend.
// Unset values fall back to the Nomad API defaults, which also read the
// standard NOMAD_* environment variables.
func generateNomadClient(cfg *NomadConfig) (*api.Client, error) {

	nomadConfig := api.DefaultConfig()
	if cfg != nil {
		if cfg.Addr != "" {
			nomadConfig.Address = cfg.Addr
		}
		if cfg.Token != "" {
			nomadConfig.SecretID = cfg.Token
		}
		if cfg.Namespace != "" {
			nomadConfig.Namespace = cfg.Namespace
		}
	}

	return api.NewClient(nomadConfig)
}
