package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/queue"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/resolver"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/state/dev"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	sharedstate "github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type testServer struct {
	*httptest.Server
	state state.State
	flags *feature.Properties
}

func newTestServer(t *testing.T, delay time.Duration, attempts int) *testServer {
	t.Helper()

	s := dev.New()
	flags := feature.NewProperties(nil)

	c := coordinator.New(&coordinator.CoordinatorConfig{
		Logger:   zap.NewNop(),
		State:    s,
		Flags:    flags,
		Queue:    &queue.Config{MaterializeDelay: delay},
		Resolver: &resolver.Config{MaxAttempts: attempts, Interval: 2 * time.Millisecond},
	})

	srv := httptest.NewServer(newRouter(&ServerReq{
		Coordinator:        c,
		Logger:             zap.NewNop(),
		HTTPAccessLogLevel: zap.DebugLevel.String(),
		State:              s,
	}))

	t.Cleanup(func() {
		srv.Close()
		c.Stop()
	})

	return &testServer{Server: srv, state: s, flags: flags}
}

func (ts *testServer) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (ts *testServer) createJob(t *testing.T) {
	t.Helper()

	job := &sharedstate.Job{
		ID:          "build",
		Declarative: true,
		Stages: []*sharedstate.StageDefinition{
			{Name: "checkout"},
			{Name: "test", Restartable: true},
		},
	}

	var resp JobCreateResp
	code := ts.do(t, http.MethodPost, "/v1/jobs", JobCreateReq{Job: job}, &resp)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, "build", resp.Job.ID)
}

func (ts *testServer) finishRun(t *testing.T, number sharedstate.RunID) {
	t.Helper()

	getResp, errResp := ts.state.Runs().Get(&state.RunsGetReq{JobID: "build", Number: number})
	require.Nil(t, errResp)

	run := getResp.Run
	run.State = sharedstate.RunStateFinished
	for _, stage := range run.Stages {
		stage.State = sharedstate.RunStateFinished
	}
	_, errResp = ts.state.Runs().Update(&state.RunsUpdateReq{Run: run})
	require.Nil(t, errResp)
}

func TestRouter_jobs(t *testing.T) {
	ts := newTestServer(t, time.Millisecond, 100)
	ts.createJob(t)

	var errResp ResponseError
	code := ts.do(t, http.MethodPost, "/v1/jobs", JobCreateReq{Job: &sharedstate.Job{ID: "build"}}, &errResp)
	require.Equal(t, http.StatusConflict, code)
	require.Equal(t, http.StatusConflict, errResp.Code)

	code = ts.do(t, http.MethodPost, "/v1/jobs", JobCreateReq{}, nil)
	require.Equal(t, http.StatusBadRequest, code)

	var listResp JobListResp
	code = ts.do(t, http.MethodGet, "/v1/jobs", nil, &listResp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listResp.Jobs, 1)
	require.Equal(t, 2, listResp.Jobs[0].NumStages)

	var getResp JobGetResp
	code = ts.do(t, http.MethodGet, "/v1/jobs/build", nil, &getResp)
	require.Equal(t, http.StatusOK, code)
	require.True(t, getResp.Job.Declarative)

	code = ts.do(t, http.MethodGet, "/v1/jobs/deploy", nil, &errResp)
	require.Equal(t, http.StatusNotFound, code)

	code = ts.do(t, http.MethodDelete, "/v1/jobs/build", nil, nil)
	require.Equal(t, http.StatusOK, code)

	code = ts.do(t, http.MethodDelete, "/v1/jobs/build", nil, nil)
	require.Equal(t, http.StatusNotFound, code)
}

func TestRouter_runs(t *testing.T) {
	ts := newTestServer(t, time.Millisecond, 500)
	ts.createJob(t)

	var triggerResp RunTriggerResp
	code := ts.do(t, http.MethodPost, "/v1/jobs/build/runs", nil, &triggerResp)
	require.Equal(t, http.StatusCreated, code)
	require.NotNil(t, triggerResp.Run)
	require.Equal(t, sharedstate.RunID(1), triggerResp.Run.Number)
	require.Equal(t, triggerResp.QueueItem.ID, triggerResp.Run.QueueID)

	code = ts.do(t, http.MethodPost, "/v1/jobs/deploy/runs", RunTriggerReq{}, nil)
	require.Equal(t, http.StatusNotFound, code)

	code = ts.do(t, http.MethodPost, "/v1/jobs/build/runs", RunTriggerReq{Parameters: map[string]any{"x": 1}}, nil)
	require.Equal(t, http.StatusBadRequest, code)

	var getResp RunGetResp
	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1", nil, &getResp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, sharedstate.RunStateQueued, getResp.Run.State)

	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/abc", nil, nil)
	require.Equal(t, http.StatusBadRequest, code)

	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/2", nil, nil)
	require.Equal(t, http.StatusNotFound, code)

	var listResp RunListResp
	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs", nil, &listResp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listResp.Runs, 1)

	code = ts.do(t, http.MethodGet, "/v1/runs", nil, &listResp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listResp.Runs, 1)

	code = ts.do(t, http.MethodGet, "/v1/jobs/deploy/runs", nil, nil)
	require.Equal(t, http.StatusNotFound, code)

	code = ts.do(t, http.MethodDelete, "/v1/jobs/build", nil, nil)
	require.Equal(t, http.StatusConflict, code)

	code = ts.do(t, http.MethodDelete, "/v1/jobs/build/runs/1", nil, nil)
	require.Equal(t, http.StatusOK, code)
}

func TestRouter_runsAccepted(t *testing.T) {
	ts := newTestServer(t, time.Hour, 2)
	ts.createJob(t)

	var triggerResp RunTriggerResp
	code := ts.do(t, http.MethodPost, "/v1/jobs/build/runs", nil, &triggerResp)
	require.Equal(t, http.StatusAccepted, code)
	require.Nil(t, triggerResp.Run)
	require.Equal(t, sharedstate.RunID(1), triggerResp.QueueItem.Number)

	var queueResp QueueListResp
	code = ts.do(t, http.MethodGet, "/v1/queue", nil, &queueResp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, queueResp.Items, 1)
	require.Equal(t, triggerResp.QueueItem.ID, queueResp.Items[0].ID)

	code = ts.do(t, http.MethodGet, "/v1/queue?job=deploy", nil, &queueResp)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, queueResp.Items)
}

func TestRouter_nodes(t *testing.T) {
	ts := newTestServer(t, time.Millisecond, 500)
	ts.createJob(t)

	code := ts.do(t, http.MethodPost, "/v1/jobs/build/runs", nil, nil)
	require.Equal(t, http.StatusCreated, code)

	var listResp NodeListResp
	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1/nodes", nil, &listResp)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, listResp.Nodes, 2)
	require.False(t, listResp.Nodes[1].Restartable)

	code = ts.do(t, http.MethodPost, "/v1/jobs/build/runs/1/nodes/test/restart", nil, nil)
	require.Equal(t, http.StatusConflict, code)

	ts.finishRun(t, 1)

	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1/nodes", nil, &listResp)
	require.Equal(t, http.StatusOK, code)
	require.False(t, listResp.Nodes[0].Restartable)
	require.True(t, listResp.Nodes[1].Restartable)

	var getResp NodeGetResp
	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1/nodes/2", nil, &getResp)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "test", getResp.Node.DisplayName)
	require.True(t, getResp.Node.Restartable)

	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1/nodes/9", nil, nil)
	require.Equal(t, http.StatusNotFound, code)

	var restartResp RunTriggerResp
	code = ts.do(t, http.MethodPost, "/v1/jobs/build/runs/1/nodes/test/restart", nil, &restartResp)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, sharedstate.RunID(2), restartResp.Run.Number)
	require.Equal(t, sharedstate.RunCauseRestart, restartResp.Run.Cause)

	// Disabling the feature removes the annotation and blocks restarts.
	ts.flags.Set(feature.DisableRestartableStages, "true")

	code = ts.do(t, http.MethodGet, "/v1/jobs/build/runs/1/nodes/2", nil, &getResp)
	require.Equal(t, http.StatusOK, code)
	require.False(t, getResp.Node.Restartable)

	code = ts.do(t, http.MethodPost, "/v1/jobs/build/runs/1/nodes/test/restart", nil, nil)
	require.Equal(t, http.StatusConflict, code)
}

func TestValidateAccessLogLevel(t *testing.T) {
	require.NoError(t, ValidateAccessLogLevel("debug"))
	require.NoError(t, ValidateAccessLogLevel("info"))
	require.Error(t, ValidateAccessLogLevel("trace"))
}
