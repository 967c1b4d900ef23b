package nvar

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type Jobs struct {
	s *State
}

func (j *Jobs) Create(req *serverstate.JobsCreateReq) (*serverstate.JobsCreateResp, *serverstate.ErrorResp) {
	j.s.jobsLock.Lock()
	defer j.s.jobsLock.Unlock()

	if j.s.enableCache {
		if _, ok := j.s.jobsCache[req.Job.ID]; ok {
			return nil, serverstate.NewErrorResp(errors.New("job already exists"), 409)
		}
	} else {
		if _, err := j.s.getVariable(jobVarPath(req.Job.ID)); err == nil {
			return nil, serverstate.NewErrorResp(errors.New("job already exists"), 409)
		}
	}

	v, err := encodeToVariable(jobVarPath(req.Job.ID), req.Job)
	if err != nil {
		j.s.logger.Error("failed to encode job", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to encode job: %w", err), 500)
	}

	if err := j.s.putVariable(v); err != nil {
		j.s.logger.Error("failed to store job in Nomad Variables", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to store job: %w", err), 500)
	}

	if j.s.enableCache {
		j.s.jobsCache[req.Job.ID] = req.Job
	}

	j.s.logger.Debug("job created", zap.String("job_id", req.Job.ID))

	return &serverstate.JobsCreateResp{Job: req.Job}, nil
}

func (j *Jobs) Delete(req *serverstate.JobsDeleteReq) (*serverstate.JobsDeleteResp, *serverstate.ErrorResp) {

	// Check if the job still has runs recorded against it.
	j.s.runsLock.RLock()
	if j.s.enableCache {
		for k := range j.s.runsCache {
			if k.JobID == req.ID {
				j.s.runsLock.RUnlock()
				return nil, serverstate.NewErrorResp(errors.New("cannot delete job with existing runs"), 409)
			}
		}
	} else {
		runVars, err := j.s.listVariablesByPrefix(fmt.Sprintf("%s/%s/", runsPathPrefix, req.ID))
		if err != nil && !isNotFoundError(err) {
			j.s.runsLock.RUnlock()
			j.s.logger.Error("failed to list runs for job", zap.Error(err))
			return nil, serverstate.NewErrorResp(fmt.Errorf("failed to check runs: %w", err), 500)
		}
		if len(runVars) > 0 {
			j.s.runsLock.RUnlock()
			return nil, serverstate.NewErrorResp(errors.New("cannot delete job with existing runs"), 409)
		}
	}
	j.s.runsLock.RUnlock()

	j.s.jobsLock.Lock()
	defer j.s.jobsLock.Unlock()

	if j.s.enableCache {
		if _, ok := j.s.jobsCache[req.ID]; !ok {
			return nil, serverstate.NewErrorResp(errors.New("job not found"), 404)
		}
	} else {
		if _, err := j.s.getVariable(jobVarPath(req.ID)); err != nil {
			return nil, serverstate.NewErrorResp(errors.New("job not found"), 404)
		}
	}

	if err := j.s.deleteVariable(jobVarPath(req.ID)); err != nil {
		j.s.logger.Error("failed to delete job from Nomad Variables", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to delete job: %w", err), 500)
	}

	if j.s.enableCache {
		delete(j.s.jobsCache, req.ID)
	}

	j.s.logger.Debug("job deleted", zap.String("job_id", req.ID))

	return &serverstate.JobsDeleteResp{}, nil
}

func (j *Jobs) Get(req *serverstate.JobsGetReq) (*serverstate.JobsGetResp, *serverstate.ErrorResp) {
	j.s.jobsLock.RLock()
	defer j.s.jobsLock.RUnlock()

	if j.s.enableCache {
		if job, ok := j.s.jobsCache[req.ID]; ok {
			return &serverstate.JobsGetResp{Job: job}, nil
		}
		return nil, serverstate.NewErrorResp(errors.New("job not found"), 404)
	}

	v, err := j.s.getVariable(jobVarPath(req.ID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, serverstate.NewErrorResp(errors.New("job not found"), 404)
		}
		j.s.logger.Error("failed to get job from Nomad Variables", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to get job: %w", err), 500)
	}

	var job state.Job
	if err := decodeFromVariable(v, &job); err != nil {
		j.s.logger.Error("failed to decode job", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to decode job: %w", err), 500)
	}

	return &serverstate.JobsGetResp{Job: &job}, nil
}

func (j *Jobs) List(_ *serverstate.JobsListReq) (*serverstate.JobsListResp, *serverstate.ErrorResp) {
	j.s.jobsLock.RLock()
	defer j.s.jobsLock.RUnlock()

	var jobs []*state.JobStub

	if j.s.enableCache {
		for _, job := range j.s.jobsCache {
			jobs = append(jobs, job.Stub())
		}
	} else {
		vars, err := j.s.listVariablesByPrefix(jobsPathPrefix + "/")
		if err != nil && !isNotFoundError(err) {
			j.s.logger.Error("failed to list jobs from Nomad Variables", zap.Error(err))
			return nil, serverstate.NewErrorResp(fmt.Errorf("failed to list jobs: %w", err), 500)
		}

		for _, varMeta := range vars {
			v, err := j.s.getVariable(varMeta.Path)
			if err != nil {
				j.s.logger.Warn("failed to get job", zap.String("path", varMeta.Path), zap.Error(err))
				continue
			}

			var job state.Job
			if err := decodeFromVariable(v, &job); err != nil {
				j.s.logger.Warn("failed to decode job", zap.String("path", varMeta.Path), zap.Error(err))
				continue
			}

			jobs = append(jobs, job.Stub())
		}
	}

	sort.Slice(jobs, func(a, b int) bool { return jobs[a].ID < jobs[b].ID })

	return &serverstate.JobsListResp{Jobs: jobs}, nil
}

// loadJobsCache loads all jobs into the cache
func (s *State) loadJobsCache() error {
	s.jobsLock.Lock()
	defer s.jobsLock.Unlock()

	vars, err := s.listVariablesByPrefix(jobsPathPrefix + "/")
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return err
	}

	for _, varMeta := range vars {
		v, err := s.getVariable(varMeta.Path)
		if err != nil {
			s.logger.Warn("failed to get job for cache", zap.String("path", varMeta.Path), zap.Error(err))
			continue
		}

		var job state.Job
		if err := decodeFromVariable(v, &job); err != nil {
			s.logger.Warn("failed to decode job for cache", zap.String("path", varMeta.Path), zap.Error(err))
			continue
		}

		s.jobsCache[job.ID] = &job
	}

	s.logger.Debug("loaded jobs into cache", zap.Int("count", len(s.jobsCache)))
	return nil
}
