package feature

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRestartableStagesEnabled(t *testing.T) {
	testCases := []struct {
		name     string
		store    Store
		expected bool
	}{
		{name: "disabled", store: Static{DisableRestartableStages: "true"}, expected: false},
		{name: "disabled upper case", store: Static{DisableRestartableStages: "TRUE"}, expected: false},
		{name: "disabled mixed case", store: Static{DisableRestartableStages: "True"}, expected: false},
		{name: "enabled", store: Static{DisableRestartableStages: "false"}, expected: true},
		{name: "typo", store: Static{DisableRestartableStages: "typo"}, expected: true},
		{name: "single letter", store: Static{DisableRestartableStages: "t"}, expected: true},
		{name: "empty", store: Static{DisableRestartableStages: ""}, expected: true},
		{name: "padded", store: Static{DisableRestartableStages: " true"}, expected: true},
		{name: "unset", store: Static{}, expected: true},
		{name: "nil store", store: nil, expected: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expected, RestartableStagesEnabled(tc.store))
		})
	}
}

func TestEnvName(t *testing.T) {
	require.Equal(t, "PIPELINE_API_FEATURES_DISABLE_RESTARTABLE_STAGES", EnvName(DisableRestartableStages))
	require.Equal(t, "PIPELINE_API_FEATURES_SOME_FLAG", EnvName("features.some.flag"))
}

func TestEnv(t *testing.T) {
	t.Setenv("PIPELINE_API_FEATURES_DISABLE_RESTARTABLE_STAGES", "true")
	require.False(t, RestartableStagesEnabled(Env()))

	t.Setenv("PIPELINE_API_FEATURES_DISABLE_RESTARTABLE_STAGES", "false")
	require.True(t, RestartableStagesEnabled(Env()))
}

func TestProperties(t *testing.T) {
	props := NewProperties(map[string]string{DisableRestartableStages: "true"})
	require.False(t, RestartableStagesEnabled(props))

	// Changes are visible on the next read.
	props.Set(DisableRestartableStages, "false")
	require.True(t, RestartableStagesEnabled(props))

	props.Set(DisableRestartableStages, "true")
	require.False(t, RestartableStagesEnabled(props))

	props.Clear(DisableRestartableStages)
	require.True(t, RestartableStagesEnabled(props))
}

func TestChain(t *testing.T) {
	store := Chain(
		nil,
		Static{"features.a": "1"},
		Static{"features.a": "2", "features.b": "3"},
	)

	val, ok := store.Lookup("features.a")
	require.True(t, ok)
	require.Equal(t, "1", val)

	val, ok = store.Lookup("features.b")
	require.True(t, ok)
	require.Equal(t, "3", val)

	_, ok = store.Lookup("features.c")
	require.False(t, ok)
}
