package rpc

import (
	"errors"
	"fmt"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

const (
	EngineRunUpdateMethodName = "Engine.RunUpdate"
)

var validRunStates = map[string]struct{}{
	state.RunStateQueued:   {},
	state.RunStateRunning:  {},
	state.RunStatePaused:   {},
	state.RunStateSkipped:  {},
	state.RunStateNotBuilt: {},
	state.RunStateFinished: {},
}

// EngineRunUpdateReq is sent by the execution engine whenever the state of a
// run or one of its stages changes.
type EngineRunUpdateReq struct {
	Run *state.Run
}

func (r *EngineRunUpdateReq) Validate() error {
	if r.Run == nil {
		return errors.New("empty run object")
	}
	if r.Run.JobID == "" {
		return errors.New("empty job ID")
	}
	if r.Run.Number < 1 {
		return fmt.Errorf("invalid run number %d", r.Run.Number)
	}
	if _, ok := validRunStates[r.Run.State]; !ok {
		return fmt.Errorf("invalid run state %q", r.Run.State)
	}

	var errs []error

	for i, stage := range r.Run.Stages {
		if stage == nil {
			errs = append(errs, fmt.Errorf("stage %d is empty", i))
			continue
		}
		if stage.DisplayName == "" {
			errs = append(errs, fmt.Errorf("stage %d has no display name", i))
		}
		if _, ok := validRunStates[stage.State]; !ok {
			errs = append(errs, fmt.Errorf("stage %q has invalid state %q", stage.DisplayName, stage.State))
		}
	}

	return errors.Join(errs...)
}

type EngineRunUpdateResp struct{}
