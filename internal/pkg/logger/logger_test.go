package logger

import (
	"testing"

	"github.com/hashicorp/nomad/helper/pointer"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestConfig_Merge(t *testing.T) {

	base := DefaultConfig()

	merged := base.Merge(&Config{Level: "debug", JSON: pointer.Of(true)})
	require.Equal(t, "debug", merged.Level)
	require.True(t, *merged.JSON)
	require.False(t, *merged.IncludeLine)
	require.False(t, *merged.EnableStacktrace)

	// The receiver must not be modified by the merge.
	require.Equal(t, "info", base.Level)
	require.False(t, *base.JSON)

	require.Equal(t, base, base.Merge(nil))

	var nilCfg *Config
	require.Equal(t, base, nilCfg.Merge(base))
}

func TestNewZap(t *testing.T) {

	l, err := NewZap(DefaultConfig())
	require.NoError(t, err)
	require.NotNil(t, l)

	_, err = NewZap(DefaultConfig().Merge(&Config{Level: "loud"}))
	require.ErrorContains(t, err, `invalid log level "loud"`)

	// Partially set and missing configs fall back to the defaults.
	l, err = NewZap(&Config{Level: "debug"})
	require.NoError(t, err)
	require.True(t, l.Core().Enabled(zap.DebugLevel))

	l, err = NewZap(nil)
	require.NoError(t, err)
	require.False(t, l.Core().Enabled(zap.DebugLevel))
}
