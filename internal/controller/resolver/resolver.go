// Package resolver looks up pipeline runs that may still be materializing out
// of the build queue. A run number is handed out as soon as a run is queued,
// but the run itself only becomes visible once the queue has written it to
// state, so lookups are retried for a bounded number of attempts.
package resolver

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

// Lookup fetches a single run. A nil run and nil error means the run does not
// exist yet.
type Lookup interface {
	Lookup(ctx context.Context, jobID string, number state.RunID) (*state.Run, error)
}

// LookupFunc adapts an ordinary function to the Lookup interface.
type LookupFunc func(ctx context.Context, jobID string, number state.RunID) (*state.Run, error)

func (f LookupFunc) Lookup(ctx context.Context, jobID string, number state.RunID) (*state.Run, error) {
	return f(ctx, jobID, number)
}

// StateLookup returns a Lookup backed by the runs state. A not found response
// is reported as an absent run, all other state errors are returned.
func StateLookup(runs serverstate.Runs) Lookup {
	return LookupFunc(func(_ context.Context, jobID string, number state.RunID) (*state.Run, error) {
		resp, errResp := runs.Get(&serverstate.RunsGetReq{JobID: jobID, Number: number})
		if errResp != nil {
			if errResp.IsNotFound() {
				return nil, nil
			}
			return nil, errResp
		}
		return resp.Run, nil
	})
}

type Resolver struct {
	cfg    *Config
	lookup Lookup
	logger *zap.Logger
}

func New(cfg *Config, lookup Lookup, zLogger *zap.Logger) *Resolver {
	return &Resolver{
		cfg:    DefaultConfig().Merge(cfg),
		lookup: lookup,
		logger: zLogger.Named(logger.ComponentNameResolver),
	}
}

// Resolve returns the run identified by the job and number, retrying the
// lookup while the run is absent. When the attempt budget is exhausted without
// finding the run, a nil run and nil error are returned.
func (r *Resolver) Resolve(ctx context.Context, jobID string, number state.RunID) (*state.Run, error) {

	attempts := r.cfg.attempts()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		run, err := r.lookup.Lookup(ctx, jobID, number)
		if err != nil {
			return nil, fmt.Errorf("failed to lookup run %s#%s: %w", jobID, number, err)
		}
		if run != nil {
			return run, nil
		}

		r.logger.Debug("run not found",
			zap.String("job_id", jobID),
			zap.Stringer("number", number),
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", attempts))

		if attempt == attempts {
			break
		}

		if timer == nil {
			timer = time.NewTimer(r.cfg.Interval)
		} else {
			timer.Reset(r.cfg.Interval)
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	r.logger.Info("run not found after exhausting lookup attempts",
		zap.String("job_id", jobID),
		zap.Stringer("number", number),
		zap.Int("attempts", attempts))

	return nil, nil
}
