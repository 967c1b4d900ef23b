package node

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func finishedRun(restartable ...string) *state.Run {
	run := &state.Run{
		JobID:  "build",
		Number: 1,
		State:  state.RunStateFinished,
		Result: state.RunResultSuccess,
		Stages: []*state.Stage{
			{ID: "3", DisplayName: "stage one", State: state.RunStateFinished, Result: state.RunResultSuccess},
			{ID: "4", DisplayName: "stage two", State: state.RunStateRunning},
		},
	}
	if restartable != nil {
		run.Restart = &state.RestartDeclaration{RestartableStages: restartable}
	}
	return run
}

func flags(value string) feature.Store {
	return feature.Static{feature.DisableRestartableStages: value}
}

func TestIsRestartable(t *testing.T) {
	testCases := []struct {
		name  string
		flags feature.Store
		run   *state.Run
		stage string
		want  bool
	}{
		{
			name:  "feature disabled",
			flags: flags("true"),
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "feature disabled mixed case",
			flags: flags("TRUE"),
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "feature enabled explicitly",
			flags: flags("false"),
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  true,
		},
		{
			name:  "feature flag unset",
			flags: feature.Static{},
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  true,
		},
		{
			name:  "nil flag store",
			flags: nil,
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  true,
		},
		{
			name:  "non true flag value with empty declaration",
			flags: flags("t"),
			run:   finishedRun([]string{}...),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "non true flag value with declaration",
			flags: flags("t"),
			run:   finishedRun("stage one"),
			stage: "stage one",
			want:  true,
		},
		{
			name:  "no declaration",
			flags: flags("false"),
			run:   finishedRun(),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "stage not declared",
			flags: flags("false"),
			run:   finishedRun("stage two"),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "declaration match is case sensitive",
			flags: flags("false"),
			run:   finishedRun("Stage One"),
			stage: "stage one",
			want:  false,
		},
		{
			name:  "stage not finished",
			flags: flags("false"),
			run:   finishedRun("stage two"),
			stage: "stage two",
			want:  false,
		},
		{
			name:  "declared stage missing from run",
			flags: flags("false"),
			run:   finishedRun("stage three"),
			stage: "stage three",
			want:  false,
		},
		{
			name:  "nil run",
			flags: flags("false"),
			run:   nil,
			stage: "stage one",
			want:  false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, IsRestartable(tc.flags, tc.run, tc.stage))
		})
	}
}

func TestNode(t *testing.T) {
	run := finishedRun("stage one")
	props := feature.NewProperties(nil)

	nodes := List(run, props)
	require.Len(t, nodes, 2)

	require.Equal(t, "3", nodes[0].ID())
	require.Equal(t, "stage one", nodes[0].DisplayName())
	require.Equal(t, state.RunStateFinished, nodes[0].State())
	require.Same(t, run, nodes[0].Run())
	require.True(t, nodes[0].IsRestartable())
	require.False(t, nodes[1].IsRestartable())

	// The node evaluates against the live flag store.
	props.Set(feature.DisableRestartableStages, "true")
	require.False(t, nodes[0].IsRestartable())

	stubs := Stubs(run, feature.Static{})
	require.Len(t, stubs, 2)
	require.True(t, stubs[0].Restartable)
	require.Equal(t, state.RunResultSuccess, stubs[0].Result)
	require.False(t, stubs[1].Restartable)

	require.Nil(t, List(nil, props))
}

func TestFind(t *testing.T) {
	run := finishedRun("stage one")

	n := Find(run, "4", nil)
	require.NotNil(t, n)
	require.Equal(t, "stage two", n.DisplayName())

	n = Find(run, "stage one", nil)
	require.NotNil(t, n)
	require.Equal(t, "3", n.ID())

	require.Nil(t, Find(run, "missing", nil))
}
