package rpc

import (
	"net/rpc/jsonrpc"
	"testing"

	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state/dev"
	intrpc "github.com/hashicorp-forge/pipeline-api/internal/pkg/rpc"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func TestServer_EngineRunUpdate(t *testing.T) {
	s := dev.New()

	queueID := ulid.Make()

	_, errResp := s.Runs().Create(&serverstate.RunsCreateReq{Run: &state.Run{
		JobID:      "build",
		Number:     1,
		QueueID:    queueID,
		State:      state.RunStateQueued,
		Cause:      state.RunCauseUser,
		Parameters: map[string]any{"branch": "main"},
		Restart:    &state.RestartDeclaration{RestartableStages: []string{"test"}},
		Stages: []*state.Stage{
			{ID: "1", DisplayName: "test", State: state.RunStateQueued},
		},
	}})
	require.Nil(t, errResp)

	srv, err := NewServer(&ServerReq{Logger: zap.NewNop(), RPCAddr: "127.0.0.1:0", State: s})
	require.NoError(t, err)
	srv.Start()
	defer srv.Stop()

	client, err := jsonrpc.Dial("tcp", srv.Addr().String())
	require.NoError(t, err)
	defer client.Close()

	// The engine does not know about controller owned fields.
	update := &state.Run{
		JobID:  "build",
		Number: 1,
		State:  state.RunStateFinished,
		Result: state.RunResultSuccess,
		Stages: []*state.Stage{
			{ID: "1", DisplayName: "test", State: state.RunStateFinished, Result: state.RunResultSuccess},
		},
	}

	var resp intrpc.EngineRunUpdateResp
	err = client.Call(intrpc.EngineRunUpdateMethodName, &intrpc.EngineRunUpdateReq{Run: update}, &resp)
	require.NoError(t, err)

	getResp, errResp := s.Runs().Get(&serverstate.RunsGetReq{JobID: "build", Number: 1})
	require.Nil(t, errResp)
	require.Equal(t, state.RunStateFinished, getResp.Run.State)
	require.Equal(t, state.RunStateFinished, getResp.Run.Stages[0].State)
	require.Equal(t, queueID, getResp.Run.QueueID)
	require.Equal(t, state.RunCauseUser, getResp.Run.Cause)
	require.Equal(t, "main", getResp.Run.Parameters["branch"])
	require.True(t, getResp.Run.RestartDeclaration().Contains("test"))

	// Unknown runs and invalid updates are rejected.
	update.Number = 2
	err = client.Call(intrpc.EngineRunUpdateMethodName, &intrpc.EngineRunUpdateReq{Run: update}, &resp)
	require.ErrorContains(t, err, "run not found")

	update.Number = 1
	update.State = "exploded"
	err = client.Call(intrpc.EngineRunUpdateMethodName, &intrpc.EngineRunUpdateReq{Run: update}, &resp)
	require.ErrorContains(t, err, "invalid run state")
}
