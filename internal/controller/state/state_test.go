package state

import (
	"testing"

	"github.com/hashicorp/nomad/helper/pointer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()

	merged := base.Merge(&Config{NVars: &NomadVarsConfig{CacheEnabled: pointer.Of(false)}})
	require.Equal(t, BackendDev, merged.Backend)
	require.False(t, *merged.NVars.CacheEnabled)

	// The receiver must not be modified by the merge.
	require.True(t, *base.NVars.CacheEnabled)

	merged = base.Merge(&Config{Backend: BackendNomadVars})
	require.Equal(t, BackendNomadVars, merged.Backend)
	require.True(t, *merged.NVars.CacheEnabled)

	require.Equal(t, base, base.Merge(nil))
}

func TestConfig_Validate(t *testing.T) {
	require.NoError(t, (&Config{Backend: BackendDev}).Validate())
	require.NoError(t, (&Config{Backend: BackendNomadVars}).Validate())
	require.Error(t, (&Config{Backend: "postgres"}).Validate())
}

func TestNewBackend(t *testing.T) {
	backend, err := NewBackend(DefaultConfig(), zap.NewNop(), nil)
	require.NoError(t, err)
	require.NotNil(t, backend)

	_, err = NewBackend(&Config{Backend: BackendNomadVars}, zap.NewNop(), nil)
	require.Error(t, err)

	_, err = NewBackend(&Config{Backend: "postgres"}, zap.NewNop(), nil)
	require.Error(t, err)
}
