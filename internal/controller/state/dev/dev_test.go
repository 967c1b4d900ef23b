package dev

import (
	"testing"

	"github.com/stretchr/testify/require"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func TestJobs(t *testing.T) {

	s := New()

	_, err := s.Jobs().Create(&serverstate.JobsCreateReq{Job: &state.Job{ID: "build"}})
	require.Nil(t, err)
	_, err = s.Jobs().Create(&serverstate.JobsCreateReq{Job: &state.Job{ID: "deploy"}})
	require.Nil(t, err)

	_, err = s.Jobs().Create(&serverstate.JobsCreateReq{Job: &state.Job{ID: "build"}})
	require.NotNil(t, err)
	require.Equal(t, 409, err.StatusCode())

	getResp, err := s.Jobs().Get(&serverstate.JobsGetReq{ID: "build"})
	require.Nil(t, err)
	require.Equal(t, "build", getResp.Job.ID)

	listResp, err := s.Jobs().List(&serverstate.JobsListReq{})
	require.Nil(t, err)
	require.Len(t, listResp.Jobs, 2)
	require.Equal(t, "build", listResp.Jobs[0].ID)
	require.Equal(t, "deploy", listResp.Jobs[1].ID)

	_, err = s.Runs().Create(&serverstate.RunsCreateReq{Run: &state.Run{JobID: "build", Number: 1}})
	require.Nil(t, err)

	_, err = s.Jobs().Delete(&serverstate.JobsDeleteReq{ID: "build"})
	require.NotNil(t, err)
	require.Equal(t, 409, err.StatusCode())

	_, err = s.Jobs().Delete(&serverstate.JobsDeleteReq{ID: "deploy"})
	require.Nil(t, err)

	_, err = s.Jobs().Get(&serverstate.JobsGetReq{ID: "deploy"})
	require.True(t, err.IsNotFound())

	_, err = s.Jobs().Delete(&serverstate.JobsDeleteReq{ID: "deploy"})
	require.True(t, err.IsNotFound())
}

func TestRuns(t *testing.T) {

	s := New()

	run := &state.Run{
		JobID:      "build",
		Number:     1,
		State:      state.RunStateQueued,
		Cause:      state.RunCauseUser,
		Parameters: map[string]any{"branch": "main"},
		Restart:    &state.RestartDeclaration{RestartableStages: []string{"test"}},
	}

	_, err := s.Runs().Create(&serverstate.RunsCreateReq{Run: run})
	require.Nil(t, err)

	_, err = s.Runs().Create(&serverstate.RunsCreateReq{Run: run})
	require.Equal(t, 409, err.StatusCode())

	_, err = s.Runs().Create(&serverstate.RunsCreateReq{Run: &state.Run{JobID: "build", Number: 2}})
	require.Nil(t, err)
	_, err = s.Runs().Create(&serverstate.RunsCreateReq{Run: &state.Run{JobID: "other", Number: 1}})
	require.Nil(t, err)

	// Mutating a returned run must not affect stored state.
	getResp, err := s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.Nil(t, err)
	getResp.Run.State = state.RunStateFinished

	getResp, err = s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.Nil(t, err)
	require.Equal(t, state.RunStateQueued, getResp.Run.State)

	_, err = s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 3})
	require.True(t, err.IsNotFound())

	listResp, err := s.Runs().List(&serverstate.RunsListReq{JobID: "build"})
	require.Nil(t, err)
	require.Len(t, listResp.Runs, 2)
	require.Equal(t, state.RunID(2), listResp.Runs[0].Number)

	listResp, err = s.Runs().List(&serverstate.RunsListReq{})
	require.Nil(t, err)
	require.Len(t, listResp.Runs, 3)

	// The engine update must not clobber controller owned fields.
	_, err = s.Runs().Update(&serverstate.RunsUpdateReq{Run: &state.Run{
		JobID:  "build",
		Number: 1,
		State:  state.RunStateFinished,
		Result: state.RunResultSuccess,
	}})
	require.Nil(t, err)

	getResp, err = s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.Nil(t, err)
	require.Equal(t, state.RunStateFinished, getResp.Run.State)
	require.Equal(t, state.RunCauseUser, getResp.Run.Cause)
	require.Equal(t, "main", getResp.Run.Parameters["branch"])
	require.True(t, getResp.Run.RestartDeclaration().Contains("test"))

	_, err = s.Runs().Update(&serverstate.RunsUpdateReq{Run: &state.Run{JobID: "build", Number: 9}})
	require.True(t, err.IsNotFound())

	_, err = s.Runs().Delete(&serverstate.RunsDeleteReq{JobID: "build", Number: 1})
	require.Nil(t, err)
	_, err = s.Runs().Delete(&serverstate.RunsDeleteReq{JobID: "build", Number: 1})
	require.True(t, err.IsNotFound())
}
