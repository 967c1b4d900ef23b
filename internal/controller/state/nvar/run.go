package nvar

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type Runs struct {
	s *State
}

func (r *Runs) Create(req *serverstate.RunsCreateReq) (*serverstate.RunsCreateResp, *serverstate.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	k := req.Run.Key()

	if r.s.enableCache {
		if _, ok := r.s.runsCache[k]; ok {
			return nil, serverstate.NewErrorResp(errors.New("run already exists"), 409)
		}
	} else {
		if _, err := r.s.getVariable(runVarPath(k.JobID, k.Number)); err == nil {
			return nil, serverstate.NewErrorResp(errors.New("run already exists"), 409)
		}
	}

	if err := r.store(req.Run); err != nil {
		return nil, err
	}

	r.s.logger.Debug("run created",
		zap.String("job_id", k.JobID),
		zap.Stringer("number", k.Number))

	return &serverstate.RunsCreateResp{}, nil
}

func (r *Runs) Delete(req *serverstate.RunsDeleteReq) (*serverstate.RunsDeleteResp, *serverstate.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	k := state.RunKey{JobID: req.JobID, Number: req.Number}

	if r.s.enableCache {
		if _, ok := r.s.runsCache[k]; !ok {
			return nil, serverstate.NewErrorResp(errors.New("run not found"), 404)
		}
	} else {
		if _, err := r.s.getVariable(runVarPath(k.JobID, k.Number)); err != nil {
			return nil, serverstate.NewErrorResp(errors.New("run not found"), 404)
		}
	}

	if err := r.s.deleteVariable(runVarPath(k.JobID, k.Number)); err != nil {
		r.s.logger.Error("failed to delete run from Nomad Variables", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to delete run: %w", err), 500)
	}

	if r.s.enableCache {
		delete(r.s.runsCache, k)
	}

	r.s.logger.Debug("run deleted",
		zap.String("job_id", k.JobID),
		zap.Stringer("number", k.Number))

	return &serverstate.RunsDeleteResp{}, nil
}

func (r *Runs) Get(req *serverstate.RunsGetReq) (*serverstate.RunsGetResp, *serverstate.ErrorResp) {
	r.s.runsLock.RLock()
	defer r.s.runsLock.RUnlock()

	run, errResp := r.get(state.RunKey{JobID: req.JobID, Number: req.Number})
	if errResp != nil {
		return nil, errResp
	}
	return &serverstate.RunsGetResp{Run: run.Copy()}, nil
}

func (r *Runs) List(req *serverstate.RunsListReq) (*serverstate.RunsListResp, *serverstate.ErrorResp) {
	r.s.runsLock.RLock()
	defer r.s.runsLock.RUnlock()

	var runs []*state.RunStub

	if r.s.enableCache {
		for k, run := range r.s.runsCache {
			if req.JobID == "" || k.JobID == req.JobID {
				runs = append(runs, run.Stub())
			}
		}
	} else {
		prefix := runsPathPrefix + "/"
		if req.JobID != "" {
			prefix = fmt.Sprintf("%s/%s/", runsPathPrefix, req.JobID)
		}

		vars, err := r.s.listVariablesByPrefix(prefix)
		if err != nil && !isNotFoundError(err) {
			r.s.logger.Error("failed to list runs from Nomad Variables", zap.Error(err))
			return nil, serverstate.NewErrorResp(fmt.Errorf("failed to list runs: %w", err), 500)
		}

		for _, varMeta := range vars {
			v, err := r.s.getVariable(varMeta.Path)
			if err != nil {
				r.s.logger.Warn("failed to get run", zap.String("path", varMeta.Path), zap.Error(err))
				continue
			}

			var run state.Run
			if err := decodeFromVariable(v, &run); err != nil {
				r.s.logger.Warn("failed to decode run", zap.String("path", varMeta.Path), zap.Error(err))
				continue
			}

			// Prefix matching on "jobs/a/" cannot catch "jobs/ab/", but the
			// all-jobs listing can include anything under the root.
			if req.JobID == "" || run.JobID == req.JobID {
				runs = append(runs, run.Stub())
			}
		}
	}

	state.SortRunStubs(runs)

	return &serverstate.RunsListResp{Runs: runs}, nil
}

func (r *Runs) Update(req *serverstate.RunsUpdateReq) (*serverstate.RunsUpdateResp, *serverstate.ErrorResp) {
	r.s.runsLock.Lock()
	defer r.s.runsLock.Unlock()

	existing, errResp := r.get(req.Run.Key())
	if errResp != nil {
		return nil, errResp
	}

	updated := req.Run.Copy()
	updated.PreserveControllerFields(existing)

	if err := r.store(updated); err != nil {
		return nil, err
	}

	r.s.logger.Debug("run updated",
		zap.String("job_id", updated.JobID),
		zap.Stringer("number", updated.Number),
		zap.String("state", updated.State))

	return &serverstate.RunsUpdateResp{}, nil
}

// get reads a single run, from the cache when enabled. The caller must hold
// the runs lock.
func (r *Runs) get(k state.RunKey) (*state.Run, *serverstate.ErrorResp) {
	if r.s.enableCache {
		if run, ok := r.s.runsCache[k]; ok {
			return run, nil
		}
		return nil, serverstate.NewErrorResp(errors.New("run not found"), 404)
	}

	v, err := r.s.getVariable(runVarPath(k.JobID, k.Number))
	if err != nil {
		if isNotFoundError(err) {
			return nil, serverstate.NewErrorResp(errors.New("run not found"), 404)
		}
		r.s.logger.Error("failed to get run from Nomad Variables", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to get run: %w", err), 500)
	}

	var run state.Run
	if err := decodeFromVariable(v, &run); err != nil {
		r.s.logger.Error("failed to decode run", zap.Error(err))
		return nil, serverstate.NewErrorResp(fmt.Errorf("failed to decode run: %w", err), 500)
	}
	return &run, nil
}

// store writes the run to Nomad Variables and the cache. The caller must hold
// the runs lock.
func (r *Runs) store(run *state.Run) *serverstate.ErrorResp {
	v, err := encodeToVariable(runVarPath(run.JobID, run.Number), run)
	if err != nil {
		r.s.logger.Error("failed to encode run", zap.Error(err))
		return serverstate.NewErrorResp(fmt.Errorf("failed to encode run: %w", err), 500)
	}

	if err := r.s.putVariable(v); err != nil {
		r.s.logger.Error("failed to store run in Nomad Variables", zap.Error(err))
		return serverstate.NewErrorResp(fmt.Errorf("failed to store run: %w", err), 500)
	}

	if r.s.enableCache {
		r.s.runsCache[run.Key()] = run.Copy()
	}
	return nil
}

// loadRunsCache loads all runs into the cache
func (s *State) loadRunsCache() error {
	s.runsLock.Lock()
	defer s.runsLock.Unlock()

	vars, err := s.listVariablesByPrefix(runsPathPrefix + "/")
	if err != nil {
		if isNotFoundError(err) {
			return nil
		}
		return err
	}

	for _, varMeta := range vars {
		v, err := s.getVariable(varMeta.Path)
		if err != nil {
			s.logger.Warn("failed to get run for cache", zap.String("path", varMeta.Path), zap.Error(err))
			continue
		}

		var run state.Run
		if err := decodeFromVariable(v, &run); err != nil {
			s.logger.Warn("failed to decode run for cache", zap.String("path", varMeta.Path), zap.Error(err))
			continue
		}

		s.runsCache[run.Key()] = &run
	}

	s.logger.Debug("loaded runs into cache", zap.Int("count", len(s.runsCache)))
	return nil
}
