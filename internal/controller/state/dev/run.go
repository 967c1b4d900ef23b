package dev

import (
	"errors"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	sharedstate "github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func (s *State) Runs() state.Runs {
	return &Runs{s: s}
}

type Runs struct {
	s *State
}

func (r *Runs) Create(req *state.RunsCreateReq) (*state.RunsCreateResp, *state.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	k := req.Run.Key()

	if _, ok := r.s.runs[k]; ok {
		return nil, state.NewErrorResp(errors.New("run already exists"), 409)
	}

	r.s.runs[k] = req.Run.Copy()
	return &state.RunsCreateResp{}, nil
}

func (r *Runs) Delete(req *state.RunsDeleteReq) (*state.RunsDeleteResp, *state.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	k := sharedstate.RunKey{JobID: req.JobID, Number: req.Number}

	if _, ok := r.s.runs[k]; !ok {
		return nil, state.NewErrorResp(errors.New("run not found"), 404)
	}

	delete(r.s.runs, k)
	return &state.RunsDeleteResp{}, nil
}

func (r *Runs) Get(req *state.RunsGetReq) (*state.RunsGetResp, *state.ErrorResp) {
	r.s.runsLock.RLock()
	defer r.s.runsLock.RUnlock()

	if run, ok := r.s.runs[sharedstate.RunKey{JobID: req.JobID, Number: req.Number}]; !ok {
		return nil, state.NewErrorResp(errors.New("run not found"), 404)
	} else {
		return &state.RunsGetResp{Run: run.Copy()}, nil
	}
}

func (r *Runs) List(req *state.RunsListReq) (*state.RunsListResp, *state.ErrorResp) {
	r.s.runsLock.RLock()
	defer r.s.runsLock.RUnlock()

	var runs []*sharedstate.RunStub

	for k, run := range r.s.runs {
		if req.JobID == "" || k.JobID == req.JobID {
			runs = append(runs, run.Stub())
		}
	}

	sharedstate.SortRunStubs(runs)

	return &state.RunsListResp{Runs: runs}, nil
}

func (r *Runs) Update(req *state.RunsUpdateReq) (*state.RunsUpdateResp, *state.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	k := req.Run.Key()

	existing, ok := r.s.runs[k]
	if !ok {
		return nil, state.NewErrorResp(errors.New("run not found"), 404)
	}

	updated := req.Run.Copy()
	updated.PreserveControllerFields(existing)

	r.s.runs[k] = updated
	return &state.RunsUpdateResp{}, nil
}

