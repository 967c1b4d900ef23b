package coordinator

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/node"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/queue"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/resolver"
	"github.com/hashicorp-forge/pipeline-api/internal/controller/schedule"
	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type Coordinator struct {
	logger    *zap.Logger
	state     serverstate.State
	flags     feature.Store
	queue     *queue.Queue
	resolver  *resolver.Resolver
	scheduler *schedule.Scheduler
}

type CoordinatorConfig struct {
	Logger   *zap.Logger
	State    serverstate.State
	Flags    feature.Store
	Queue    *queue.Config
	Resolver *resolver.Config
}

func New(cfg *CoordinatorConfig) *Coordinator {
	c := &Coordinator{
		logger: cfg.Logger.Named(logger.ComponentNameCoordinator),
		state:  cfg.State,
		flags:  cfg.Flags,
		queue:  queue.New(cfg.Queue, cfg.Logger, cfg.State),
	}

	c.resolver = resolver.New(cfg.Resolver, resolver.StateLookup(cfg.State.Runs()), cfg.Logger)

	c.scheduler = schedule.New(&schedule.Config{
		Logger: cfg.Logger,
		State:  cfg.State,
		RunFn:  c.runFromSchedule,
	})

	return c
}

// Start starts the coordinator and its scheduler
func (c *Coordinator) Start() error {
	if err := c.scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	return nil
}

// Stop gracefully stops the coordinator. Pending queue items are written to
// state before it returns.
func (c *Coordinator) Stop() {
	c.scheduler.Stop()
	c.queue.Stop()
}

// Flags returns the feature flag store used to evaluate nodes.
func (c *Coordinator) Flags() feature.Store { return c.flags }

// Pending returns the queue items not yet written to state.
func (c *Coordinator) Pending(jobID string) []*queue.Item { return c.queue.Pending(jobID) }

// TriggerResult describes a triggered run. Run is nil when the run was not
// written to state within the resolver's lookup budget; the caller should
// then report the queue item.
type TriggerResult struct {
	Item *queue.Item
	Run  *state.Run
}

func (c *Coordinator) TriggerRun(
	ctx context.Context,
	jobID string,
	params map[string]any,
	cause string,
) (*TriggerResult, error) {

	stateResp, stateErr := c.state.Jobs().Get(&serverstate.JobsGetReq{ID: jobID})
	if stateErr != nil {
		return nil, stateErr
	}

	runParams, err := generateParameters(stateResp.Job, params)
	if err != nil {
		return nil, serverstate.NewErrorResp(err, http.StatusBadRequest)
	}

	return c.enqueueAndResolve(ctx, &queue.EnqueueReq{
		JobID:      jobID,
		Cause:      cause,
		Parameters: runParams,
	})
}

// runFromSchedule is called by the scheduler to trigger a job. Scheduled runs
// use the job's default parameters and are not resolved.
func (c *Coordinator) runFromSchedule(_ context.Context, jobID string) error {

	stateResp, stateErr := c.state.Jobs().Get(&serverstate.JobsGetReq{ID: jobID})
	if stateErr != nil {
		return stateErr
	}

	runParams, err := generateParameters(stateResp.Job, nil)
	if err != nil {
		return err
	}

	item, err := c.queue.Enqueue(&queue.EnqueueReq{
		JobID:      jobID,
		Cause:      state.RunCauseSchedule,
		Parameters: runParams,
	})
	if err != nil {
		return err
	}

	c.logger.Debug("scheduled run enqueued",
		zap.String("job_id", item.JobID),
		zap.Stringer("number", item.Number))
	return nil
}

// RestartStage starts a new run of the job which resumes from the named stage
// of an existing run. The stage must be restartable.
func (c *Coordinator) RestartStage(
	ctx context.Context,
	jobID string,
	number state.RunID,
	stage string,
) (*TriggerResult, error) {

	n, err := c.Node(jobID, number, stage)
	if err != nil {
		return nil, err
	}

	if !n.IsRestartable() {
		return nil, serverstate.NewErrorResp(
			fmt.Errorf("stage %q of run %s#%s is not restartable", n.DisplayName(), jobID, number),
			http.StatusConflict,
		)
	}

	c.logger.Info("restarting stage",
		zap.String("job_id", jobID),
		zap.Stringer("number", number),
		zap.String("stage", n.DisplayName()))

	return c.enqueueAndResolve(ctx, &queue.EnqueueReq{
		JobID:      jobID,
		Cause:      state.RunCauseRestart,
		Parameters: n.Run().Parameters,
		RestartOf:  &state.RunReference{Number: number, Stage: n.DisplayName()},
	})
}

func (c *Coordinator) enqueueAndResolve(ctx context.Context, req *queue.EnqueueReq) (*TriggerResult, error) {
	item, err := c.queue.Enqueue(req)
	if err != nil {
		return nil, fmt.Errorf("failed to enqueue run: %w", err)
	}

	run, err := c.resolver.Resolve(ctx, item.JobID, item.Number)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve run: %w", err)
	}

	return &TriggerResult{Item: item, Run: run}, nil
}

// Nodes returns the nodes of the run, one per stage.
func (c *Coordinator) Nodes(jobID string, number state.RunID) ([]*node.Node, error) {
	run, err := c.getRun(jobID, number)
	if err != nil {
		return nil, err
	}
	return node.List(run, c.flags), nil
}

// Node returns a single node of the run, identified by its ID or display
// name.
func (c *Coordinator) Node(jobID string, number state.RunID, nodeID string) (*node.Node, error) {
	run, err := c.getRun(jobID, number)
	if err != nil {
		return nil, err
	}

	n := node.Find(run, nodeID, c.flags)
	if n == nil {
		return nil, serverstate.NewErrorResp(
			fmt.Errorf("node %q not found in run %s#%s", nodeID, jobID, number),
			http.StatusNotFound,
		)
	}
	return n, nil
}

func (c *Coordinator) getRun(jobID string, number state.RunID) (*state.Run, error) {
	resp, stateErr := c.state.Runs().Get(&serverstate.RunsGetReq{JobID: jobID, Number: number})
	if stateErr != nil {
		return nil, stateErr
	}
	return resp.Run, nil
}

func (c *Coordinator) CreateJob(job *state.Job) error {

	if err := errors.Join(job.Validate(), schedule.Validate(job)); err != nil {
		return serverstate.NewErrorResp(err, http.StatusBadRequest)
	}

	if _, stateErr := c.state.Jobs().Create(&serverstate.JobsCreateReq{Job: job}); stateErr != nil {
		return stateErr
	}

	if err := c.scheduler.Add(job); err != nil {
		c.logger.Error("failed to schedule job",
			zap.String("job_id", job.ID),
			zap.Error(err))
		return fmt.Errorf("failed to schedule job: %w", err)
	}

	c.logger.Info("successfully created job",
		zap.String("job_id", job.ID),
		zap.Int("num_stages", len(job.Stages)),
		zap.Strings("schedule", job.Schedule))

	return nil
}

func (c *Coordinator) DeleteJob(id string) error {

	err := c.queue.DeleteJob(id, func() error {
		if _, stateErr := c.state.Jobs().Delete(&serverstate.JobsDeleteReq{ID: id}); stateErr != nil {
			return stateErr
		}
		return nil
	})
	if err != nil {
		return err
	}

	c.scheduler.Remove(id)

	c.logger.Info("successfully deleted job", zap.String("job_id", id))

	return nil
}
