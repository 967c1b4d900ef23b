package state

import (
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
)

func TestRun_Copy(t *testing.T) {

	orig := &Run{
		JobID:      "build",
		Number:     7,
		QueueID:    ulid.Make(),
		State:      RunStateFinished,
		Result:     RunResultFailure,
		Parameters: map[string]any{"branch": "main"},
		RestartOf:  &RunReference{Number: 3, Stage: "test"},
		Stages: []*Stage{
			{ID: "1", DisplayName: "checkout", State: RunStateFinished},
		},
		Restart: &RestartDeclaration{RestartableStages: []string{"checkout"}},
	}

	c := orig.Copy()
	require.Equal(t, orig, c)

	c.Parameters["branch"] = "dev"
	c.Stages[0].State = RunStateRunning
	c.Restart.RestartableStages[0] = "other"
	c.RestartOf.Stage = "other"

	require.Equal(t, "main", orig.Parameters["branch"])
	require.Equal(t, RunStateFinished, orig.Stages[0].State)
	require.Equal(t, "checkout", orig.Restart.RestartableStages[0])
	require.Equal(t, "test", orig.RestartOf.Stage)

	var nilRun *Run
	require.Nil(t, nilRun.Copy())
}

func TestRun_Stage(t *testing.T) {

	run := &Run{Stages: []*Stage{
		{ID: "1", DisplayName: "checkout"},
		nil,
		{ID: "2", DisplayName: "test"},
	}}

	require.Equal(t, "2", run.Stage("test").ID)
	require.Nil(t, run.Stage("Test"))
	require.Equal(t, "checkout", run.StageByID("1").DisplayName)
	require.Nil(t, run.StageByID("3"))

	var nilRun *Run
	require.Nil(t, nilRun.Stage("test"))
	require.Nil(t, nilRun.RestartDeclaration())
}

func TestRestartDeclaration_Contains(t *testing.T) {

	decl := &RestartDeclaration{RestartableStages: []string{"build", "deploy"}}

	require.True(t, decl.Contains("deploy"))
	require.False(t, decl.Contains("Deploy"))
	require.False(t, decl.Contains("test"))

	var nilDecl *RestartDeclaration
	require.False(t, nilDecl.Contains("build"))
}

func TestParseRunID(t *testing.T) {

	id, err := ParseRunID("42")
	require.NoError(t, err)
	require.Equal(t, RunID(42), id)
	require.Equal(t, "42", id.String())

	_, err = ParseRunID("forty-two")
	require.Error(t, err)
}

func TestJob_RestartDeclaration(t *testing.T) {

	job := &Job{
		ID:          "build",
		Declarative: true,
		Stages: []*StageDefinition{
			{Name: "checkout"},
			{Name: "test", Restartable: true},
			{Name: "deploy", Restartable: true},
		},
	}
	require.NoError(t, job.Validate())
	require.Equal(t, []string{"test", "deploy"}, job.RestartDeclaration().RestartableStages)
	require.True(t, job.HasStage("checkout"))
	require.False(t, job.HasStage("lint"))

	job.Stages[1].Restartable = false
	job.Stages[2].Restartable = false
	require.Nil(t, job.RestartDeclaration())

	scripted := &Job{ID: "script", Stages: []*StageDefinition{{Name: "a"}}}
	require.Nil(t, scripted.RestartDeclaration())
}

func TestJob_Validate(t *testing.T) {

	job := &Job{
		Stages: []*StageDefinition{
			{Name: "a", Restartable: true},
			{Name: "a"},
			{Name: ""},
		},
	}

	err := job.Validate()
	require.Error(t, err)
	require.ErrorContains(t, err, "job ID cannot be empty")
	require.ErrorContains(t, err, `duplicate stage name "a"`)
	require.ErrorContains(t, err, "stage name cannot be empty")
	require.ErrorContains(t, err, "non-declarative")
}

func TestRun_PreserveControllerFields(t *testing.T) {

	existing := &Run{
		JobID:      "build",
		Number:     2,
		QueueID:    ulid.Make(),
		Cause:      RunCauseRestart,
		Parameters: map[string]any{"branch": "main"},
		RestartOf:  &RunReference{Number: 1, Stage: "test"},
		Restart:    &RestartDeclaration{RestartableStages: []string{"test"}},
	}

	update := &Run{
		JobID:  "build",
		Number: 2,
		State:  RunStateFinished,
		Result: RunResultSuccess,
		Cause:  "engine",
	}
	update.PreserveControllerFields(existing)

	require.Equal(t, existing.QueueID, update.QueueID)
	require.Equal(t, RunCauseRestart, update.Cause)
	require.Equal(t, existing.Parameters, update.Parameters)
	require.Equal(t, existing.RestartOf, update.RestartOf)
	require.Equal(t, existing.Restart, update.Restart)
	require.Equal(t, RunStateFinished, update.State)
	require.Equal(t, RunResultSuccess, update.Result)
}

func TestSortRunStubs(t *testing.T) {

	stubs := []*RunStub{
		{JobID: "b", Number: 1},
		{JobID: "a", Number: 1},
		{JobID: "a", Number: 3},
		{JobID: "b", Number: 2},
	}
	SortRunStubs(stubs)

	var keys []RunKey
	for _, s := range stubs {
		keys = append(keys, RunKey{JobID: s.JobID, Number: s.Number})
	}

	require.Equal(t, []RunKey{
		{JobID: "a", Number: 3},
		{JobID: "a", Number: 1},
		{JobID: "b", Number: 2},
		{JobID: "b", Number: 1},
	}, keys)
}
