package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/queue"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	sharedstate "github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type runsEndpoint struct {
	coordinator *coordinator.Coordinator
	state       state.State
}

func (re runsEndpoint) routes() chi.Router {
	router := chi.NewRouter()

	router.Route("/", func(r chi.Router) {
		r.Get("/", re.list)
		r.Post("/", re.trigger)
	})

	router.Route("/{number}", func(r chi.Router) {
		r.Use(runNumberContext)
		r.Delete("/", re.delete)
		r.Get("/", re.get)

		r.Mount("/nodes", nodesEndpoint{
			coordinator: re.coordinator,
		}.routes())
	})

	return router
}

type RunTriggerReq struct {
	Parameters map[string]any `json:"parameters"`
}

// RunTriggerResp is returned when a run is triggered or a stage restarted.
// Run is only set when the run was written to state before the response was
// sent; otherwise the response status is 202 and only QueueItem is set.
type RunTriggerResp struct {
	Run                  *sharedstate.Run `json:"run,omitempty"`
	QueueItem            *queue.Item      `json:"queue_item"`
	internalResponseMeta `json:"-"`
}

func newRunTriggerResp(result *coordinator.TriggerResult) *RunTriggerResp {
	code := http.StatusCreated
	if result.Run == nil {
		code = http.StatusAccepted
	}
	return &RunTriggerResp{
		Run:                  result.Run,
		QueueItem:            result.Item,
		internalResponseMeta: newInternalResponseMeta(code),
	}
}

func (re runsEndpoint) trigger(w http.ResponseWriter, r *http.Request) {

	var req RunTriggerReq

	if err := decodeOptionalBody(r, &req); err != nil {
		httpWriteResponseError(w, NewResponseError(fmt.Errorf("failed to decode object: %w", err), http.StatusBadRequest))
		return
	}

	result, err := re.coordinator.TriggerRun(r.Context(), getJobParam(r), req.Parameters, sharedstate.RunCauseUser)
	if err != nil {
		httpWriteError(w, err)
		return
	}

	httpWriteResponse(w, newRunTriggerResp(result))
}

type RunListResp struct {
	Runs                 []*sharedstate.RunStub `json:"runs"`
	internalResponseMeta `json:"-"`
}

func (re runsEndpoint) list(w http.ResponseWriter, r *http.Request) {

	jobID := getJobParam(r)

	if _, err := re.state.Jobs().Get(&state.JobsGetReq{ID: jobID}); err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
		return
	}

	listRuns(re.state, jobID, w)
}

// listRuns writes the runs of the job, or of every job when the job ID is
// empty.
func listRuns(s state.State, jobID string, w http.ResponseWriter) {
	stateResp, err := s.Runs().List(&state.RunsListReq{JobID: jobID})
	if err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
	} else {
		resp := RunListResp{
			Runs:                 stateResp.Runs,
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}

type RunDeleteResp struct {
	internalResponseMeta `json:"-"`
}

func (re runsEndpoint) delete(w http.ResponseWriter, r *http.Request) {

	_, err := re.state.Runs().Delete(&state.RunsDeleteReq{
		JobID:  getJobParam(r),
		Number: getRunNumber(r),
	})
	if err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
	} else {
		resp := RunDeleteResp{
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}

type RunGetResp struct {
	Run                  *sharedstate.Run `json:"run"`
	internalResponseMeta `json:"-"`
}

func (re runsEndpoint) get(w http.ResponseWriter, r *http.Request) {

	stateResp, err := re.state.Runs().Get(&state.RunsGetReq{
		JobID:  getJobParam(r),
		Number: getRunNumber(r),
	})
	if err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
	} else {
		resp := RunGetResp{
			Run:                  stateResp.Run,
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}

// allRunsEndpoint lists runs across every job.
type allRunsEndpoint struct {
	state state.State
}

func (a allRunsEndpoint) routes() chi.Router {
	router := chi.NewRouter()
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		listRuns(a.state, r.URL.Query().Get(jobQueryParam), w)
	})
	return router
}
