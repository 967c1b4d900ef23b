package rpc

import (
	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	intrpc "github.com/hashicorp-forge/pipeline-api/internal/pkg/rpc"
)

// EngineEndpoint receives run progress from the execution engine.
type EngineEndpoint struct {
	logger *zap.Logger
	state  state.State
}

func (e *EngineEndpoint) RunUpdate(
	req *intrpc.EngineRunUpdateReq,
	_ *intrpc.EngineRunUpdateResp,
) error {

	if err := req.Validate(); err != nil {
		return err
	}

	if _, err := e.state.Runs().Update(&state.RunsUpdateReq{Run: req.Run}); err != nil {
		return err
	}

	e.logger.Debug("run updated by engine",
		zap.String("job_id", req.Run.JobID),
		zap.Stringer("number", req.Run.Number),
		zap.String("state", req.Run.State),
		zap.String("result", req.Run.Result))

	return nil
}
