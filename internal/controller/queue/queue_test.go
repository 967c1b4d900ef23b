package queue

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state/dev"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func testState(t *testing.T) serverstate.State {
	t.Helper()

	s := dev.New()

	_, errResp := s.Jobs().Create(&serverstate.JobsCreateReq{Job: &state.Job{
		ID:          "build",
		Declarative: true,
		Stages: []*state.StageDefinition{
			{Name: "checkout"},
			{Name: "test", Restartable: true},
		},
	}})
	require.Nil(t, errResp)

	return s
}

func TestQueue_Enqueue(t *testing.T) {
	s := testState(t)

	q := New(&Config{MaterializeDelay: 10 * time.Millisecond}, zap.NewNop(), s)
	defer q.Stop()

	first, err := q.Enqueue(&EnqueueReq{JobID: "build", Cause: state.RunCauseUser})
	require.NoError(t, err)
	require.Equal(t, state.RunID(1), first.Number)

	second, err := q.Enqueue(&EnqueueReq{JobID: "build", Cause: state.RunCauseUser})
	require.NoError(t, err)
	require.Equal(t, state.RunID(2), second.Number)
	require.NotEqual(t, first.ID, second.ID)

	require.Eventually(t, func() bool {
		return len(q.Pending("")) == 0
	}, 5*time.Second, 5*time.Millisecond)

	getResp, errResp := s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.Nil(t, errResp)

	run := getResp.Run
	require.Equal(t, state.RunStateQueued, run.State)
	require.Equal(t, first.ID, run.QueueID)
	require.Equal(t, state.RunCauseUser, run.Cause)
	require.Len(t, run.Stages, 2)
	require.Equal(t, "checkout", run.Stages[0].DisplayName)
	require.Equal(t, "1", run.Stages[0].ID)
	require.Equal(t, state.RunStateQueued, run.Stages[1].State)
	require.Equal(t, []string{"test"}, run.RestartDeclaration().RestartableStages)
}

func TestQueue_EnqueueUnknownJob(t *testing.T) {
	q := New(nil, zap.NewNop(), testState(t))
	defer q.Stop()

	_, err := q.Enqueue(&EnqueueReq{JobID: "deploy"})
	require.Error(t, err)

	var errResp *serverstate.ErrorResp
	require.ErrorAs(t, err, &errResp)
	require.True(t, errResp.IsNotFound())
}

func TestQueue_NumberSeededFromState(t *testing.T) {
	s := testState(t)

	_, errResp := s.Runs().Create(&serverstate.RunsCreateReq{
		Run: &state.Run{JobID: "build", Number: 41, State: state.RunStateFinished},
	})
	require.Nil(t, errResp)

	q := New(&Config{MaterializeDelay: time.Millisecond}, zap.NewNop(), s)
	defer q.Stop()

	item, err := q.Enqueue(&EnqueueReq{JobID: "build"})
	require.NoError(t, err)
	require.Equal(t, state.RunID(42), item.Number)
}

func TestQueue_Pending(t *testing.T) {
	s := testState(t)

	q := New(&Config{MaterializeDelay: time.Hour}, zap.NewNop(), s)

	first, err := q.Enqueue(&EnqueueReq{JobID: "build"})
	require.NoError(t, err)
	second, err := q.Enqueue(&EnqueueReq{
		JobID:     "build",
		Cause:     state.RunCauseRestart,
		RestartOf: &state.RunReference{Number: first.Number, Stage: "test"},
	})
	require.NoError(t, err)

	pending := q.Pending("build")
	require.Len(t, pending, 2)
	require.Equal(t, first.ID, pending[0].ID)
	require.Equal(t, second.ID, pending[1].ID)
	require.Empty(t, q.Pending("deploy"))

	// The run is not visible until it has been materialized.
	_, errResp := s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.True(t, errResp.IsNotFound())

	// Stopping flushes pending items to state.
	q.Stop()
	require.Empty(t, q.Pending(""))

	getResp, errResp := s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 2})
	require.Nil(t, errResp)
	require.Equal(t, &state.RunReference{Number: 1, Stage: "test"}, getResp.Run.RestartOf)

	_, err = q.Enqueue(&EnqueueReq{JobID: "build"})
	require.ErrorIs(t, err, ErrStopped)
}

func TestConfig(t *testing.T) {
	cfg := DefaultConfig().Merge(&Config{MaterializeDelayHCL: "250ms"})
	require.NoError(t, cfg.Finalize())
	require.Equal(t, 250*time.Millisecond, cfg.MaterializeDelay)

	require.Equal(t, time.Second, DefaultConfig().Merge(nil).MaterializeDelay)
}

func TestQueue_DeleteJob(t *testing.T) {
	s := testState(t)

	q := New(&Config{MaterializeDelay: time.Hour}, zap.NewNop(), s)
	defer q.Stop()

	_, err := q.Enqueue(&EnqueueReq{JobID: "build", Cause: state.RunCauseUser})
	require.NoError(t, err)

	var called bool
	err = q.DeleteJob("build", func() error {
		called = true
		return nil
	})
	require.False(t, called)

	var errResp *serverstate.ErrorResp
	require.ErrorAs(t, err, &errResp)
	require.Equal(t, http.StatusConflict, errResp.StatusCode())

	// Other jobs are unaffected by the pending item.
	require.NoError(t, q.DeleteJob("deploy", func() error {
		called = true
		return nil
	}))
	require.True(t, called)
}

func TestQueue_MaterializeDeletedJob(t *testing.T) {
	s := testState(t)

	q := New(&Config{MaterializeDelay: 20 * time.Millisecond}, zap.NewNop(), s)
	defer q.Stop()

	_, err := q.Enqueue(&EnqueueReq{JobID: "build", Cause: state.RunCauseUser})
	require.NoError(t, err)

	// Remove the job behind the queue's back, as another controller sharing
	// the state backend could.
	_, errResp := s.Jobs().Delete(&serverstate.JobsDeleteReq{ID: "build"})
	require.Nil(t, errResp)

	require.Eventually(t, func() bool {
		return len(q.Pending("")) == 0
	}, 5*time.Second, 5*time.Millisecond)

	listResp, errResp := s.Runs().List(&serverstate.RunsListReq{JobID: "build"})
	require.Nil(t, errResp)
	require.Empty(t, listResp.Runs)
}
