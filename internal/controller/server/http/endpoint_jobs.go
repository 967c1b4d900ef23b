package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/coordinator"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	sharedstate "github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type jobsEndpoint struct {
	coordinator *coordinator.Coordinator
	state       state.State
}

func (j jobsEndpoint) routes() chi.Router {
	router := chi.NewRouter()

	router.Route("/", func(r chi.Router) {
		r.Post("/", j.create)
		r.Get("/", j.list)
	})

	router.Route("/{job}", func(r chi.Router) {
		r.Delete("/", j.delete)
		r.Get("/", j.get)

		r.Mount("/runs", runsEndpoint{
			coordinator: j.coordinator,
			state:       j.state,
		}.routes())
	})

	return router
}

type JobCreateReq struct {
	Job *sharedstate.Job `json:"job"`
}

type JobCreateResp struct {
	Job                  *sharedstate.Job `json:"job"`
	internalResponseMeta `json:"-"`
}

func (j jobsEndpoint) create(w http.ResponseWriter, r *http.Request) {

	var req JobCreateReq

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpWriteResponseError(w, NewResponseError(fmt.Errorf("failed to decode object: %w", err), http.StatusBadRequest))
		return
	}

	if req.Job == nil {
		httpWriteResponseError(w, NewResponseError(errors.New("job not provided"), http.StatusBadRequest))
		return
	}

	if err := j.coordinator.CreateJob(req.Job); err != nil {
		httpWriteError(w, err)
		return
	}

	resp := JobCreateResp{
		Job:                  req.Job,
		internalResponseMeta: newInternalResponseMeta(http.StatusCreated),
	}
	httpWriteResponse(w, &resp)
}

type JobListResp struct {
	Jobs                 []*sharedstate.JobStub `json:"jobs"`
	internalResponseMeta `json:"-"`
}

func (j jobsEndpoint) list(w http.ResponseWriter, _ *http.Request) {
	stateResp, err := j.state.Jobs().List(&state.JobsListReq{})
	if err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
	} else {
		resp := JobListResp{
			Jobs:                 stateResp.Jobs,
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}

type JobDeleteResp struct {
	internalResponseMeta `json:"-"`
}

func (j jobsEndpoint) delete(w http.ResponseWriter, r *http.Request) {
	if err := j.coordinator.DeleteJob(getJobParam(r)); err != nil {
		httpWriteError(w, err)
	} else {
		resp := JobDeleteResp{
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}

type JobGetResp struct {
	Job                  *sharedstate.Job `json:"job"`
	internalResponseMeta `json:"-"`
}

func (j jobsEndpoint) get(w http.ResponseWriter, r *http.Request) {
	stateResp, err := j.state.Jobs().Get(&state.JobsGetReq{ID: getJobParam(r)})
	if err != nil {
		httpWriteResponseError(w, NewResponseError(err.Err(), err.StatusCode()))
	} else {
		resp := JobGetResp{
			Job:                  stateResp.Job,
			internalResponseMeta: newInternalResponseMeta(http.StatusOK),
		}
		httpWriteResponse(w, &resp)
	}
}
