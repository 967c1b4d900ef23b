package dev

import (
	"errors"
	"sort"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
)

func (s *State) Jobs() state.Jobs {
	return &Jobs{s: s}
}

type Jobs struct {
	s *State
}

func (j *Jobs) Create(req *state.JobsCreateReq) (*state.JobsCreateResp, *state.ErrorResp) {
	j.s.jobsLock.Lock()
	defer j.s.jobsLock.Unlock()

	if _, ok := j.s.jobs[req.Job.ID]; ok {
		return nil, state.NewErrorResp(errors.New("job already exists"), 409)
	}

	j.s.jobs[req.Job.ID] = req.Job
	return &state.JobsCreateResp{Job: req.Job}, nil
}

func (j *Jobs) Delete(req *state.JobsDeleteReq) (*state.JobsDeleteResp, *state.ErrorResp) {

	// Check if the job still has runs recorded against it.
	j.s.runsLock.RLock()
	for k := range j.s.runs {
		if k.JobID == req.ID {
			j.s.runsLock.RUnlock()
			return nil, state.NewErrorResp(errors.New("cannot delete job with existing runs"), 409)
		}
	}
	j.s.runsLock.RUnlock()

	j.s.jobsLock.Lock()
	defer j.s.jobsLock.Unlock()

	if _, ok := j.s.jobs[req.ID]; !ok {
		return nil, state.NewErrorResp(errors.New("job not found"), 404)
	}

	delete(j.s.jobs, req.ID)
	return &state.JobsDeleteResp{}, nil
}

func (j *Jobs) Get(req *state.JobsGetReq) (*state.JobsGetResp, *state.ErrorResp) {
	j.s.jobsLock.RLock()
	defer j.s.jobsLock.RUnlock()

	if job, ok := j.s.jobs[req.ID]; !ok {
		return nil, state.NewErrorResp(errors.New("job not found"), 404)
	} else {
		return &state.JobsGetResp{Job: job}, nil
	}
}

func (j *Jobs) List(_ *state.JobsListReq) (*state.JobsListResp, *state.ErrorResp) {
	j.s.jobsLock.RLock()
	defer j.s.jobsLock.RUnlock()

	resp := state.JobsListResp{}

	for _, job := range j.s.jobs {
		resp.Jobs = append(resp.Jobs, job.Stub())
	}

	sort.Slice(resp.Jobs, func(a, b int) bool { return resp.Jobs[a].ID < resp.Jobs[b].ID })

	return &resp, nil
}
