// Package queue implements the build queue. Enqueued runs are assigned their
// run number immediately, but only become visible in state once the queue
// materializes them after a delay.
package queue

import (
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

var ErrStopped = errors.New("queue is stopped")

type EnqueueReq struct {
	JobID      string
	Cause      string
	Parameters map[string]any
	RestartOf  *state.RunReference
}

// Item is a run which has been accepted by the queue.
type Item struct {
	ID          ulid.ULID           `json:"id"`
	JobID       string              `json:"job_id"`
	Number      state.RunID         `json:"number"`
	Cause       string              `json:"cause"`
	Parameters  map[string]any      `json:"parameters,omitempty"`
	RestartOf   *state.RunReference `json:"restart_of,omitempty"`
	EnqueueTime time.Time           `json:"enqueue_time"`
}

type Queue struct {
	cfg    *Config
	logger *zap.Logger
	state  serverstate.State

	// counters holds the last run number handed out per job.
	counters map[string]state.RunID

	pending map[ulid.ULID]*Item
	lock    sync.Mutex

	stopped bool
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(cfg *Config, zLogger *zap.Logger, s serverstate.State) *Queue {
	return &Queue{
		cfg:      DefaultConfig().Merge(cfg),
		logger:   zLogger.Named(logger.ComponentNameQueue),
		state:    s,
		counters: make(map[string]state.RunID),
		pending:  make(map[ulid.ULID]*Item),
		stopCh:   make(chan struct{}),
	}
}

// Enqueue accepts a run of the job and assigns its number. The run is written
// to state asynchronously.
func (q *Queue) Enqueue(req *EnqueueReq) (*Item, error) {

	q.lock.Lock()
	defer q.lock.Unlock()

	if q.stopped {
		return nil, ErrStopped
	}

	// The job is read under the lock so it cannot be deleted between the
	// check and the item becoming pending.
	jobResp, errResp := q.state.Jobs().Get(&serverstate.JobsGetReq{ID: req.JobID})
	if errResp != nil {
		return nil, errResp
	}

	number, err := q.nextNumber(req.JobID)
	if err != nil {
		return nil, err
	}

	item := &Item{
		ID:          ulid.Make(),
		JobID:       req.JobID,
		Number:      number,
		Cause:       req.Cause,
		Parameters:  req.Parameters,
		RestartOf:   req.RestartOf,
		EnqueueTime: time.Now().UTC(),
	}

	q.pending[item.ID] = item

	q.wg.Add(1)
	go q.materialize(item, jobResp.Job)

	q.logger.Info("run enqueued",
		zap.String("job_id", item.JobID),
		zap.Stringer("number", item.Number),
		zap.Stringer("queue_id", item.ID),
		zap.String("cause", item.Cause))

	return item, nil
}

// nextNumber must be called with the lock held.
func (q *Queue) nextNumber(jobID string) (state.RunID, error) {
	last, ok := q.counters[jobID]
	if !ok {
		listResp, errResp := q.state.Runs().List(&serverstate.RunsListReq{JobID: jobID})
		if errResp != nil {
			return 0, fmt.Errorf("failed to list runs: %w", errResp)
		}
		for _, run := range listResp.Runs {
			if run.Number > last {
				last = run.Number
			}
		}
	}

	last++
	q.counters[jobID] = last
	return last, nil
}

func (q *Queue) materialize(item *Item, job *state.Job) {
	defer q.wg.Done()

	timer := time.NewTimer(q.cfg.MaterializeDelay)
	defer timer.Stop()

	// Stopping the queue flushes pending items rather than dropping the run
	// numbers they were handed.
	select {
	case <-timer.C:
	case <-q.stopCh:
	}

	errResp := q.create(item, job)

	q.lock.Lock()
	delete(q.pending, item.ID)
	q.lock.Unlock()

	if errResp != nil {
		q.logger.Error("failed to materialize queued run",
			zap.String("job_id", item.JobID),
			zap.Stringer("number", item.Number),
			zap.Error(errResp))
		return
	}

	q.logger.Debug("queued run materialized",
		zap.String("job_id", item.JobID),
		zap.Stringer("number", item.Number))
}

// create writes the run of item to state, provided its job still exists.
func (q *Queue) create(item *Item, job *state.Job) *serverstate.ErrorResp {
	if _, errResp := q.state.Jobs().Get(&serverstate.JobsGetReq{ID: item.JobID}); errResp != nil {
		return errResp
	}
	_, errResp := q.state.Runs().Create(&serverstate.RunsCreateReq{Run: newRun(item, job)})
	return errResp
}

func newRun(item *Item, job *state.Job) *state.Run {
	run := &state.Run{
		JobID:       item.JobID,
		Number:      item.Number,
		QueueID:     item.ID,
		State:       state.RunStateQueued,
		Cause:       item.Cause,
		Parameters:  item.Parameters,
		RestartOf:   item.RestartOf,
		Restart:     job.RestartDeclaration(),
		EnqueueTime: item.EnqueueTime,
		Stages:      make([]*state.Stage, 0, len(job.Stages)),
	}

	for i, stage := range job.Stages {
		run.Stages = append(run.Stages, &state.Stage{
			ID:          strconv.Itoa(i + 1),
			DisplayName: stage.Name,
			State:       state.RunStateQueued,
		})
	}

	return run
}

// Pending returns the items which have not yet been written to state, oldest
// first. An empty job ID returns the items of every job.
func (q *Queue) Pending(jobID string) []*Item {
	q.lock.Lock()
	defer q.lock.Unlock()

	items := make([]*Item, 0, len(q.pending))
	for _, item := range q.pending {
		if jobID == "" || item.JobID == jobID {
			items = append(items, item)
		}
	}

	slices.SortFunc(items, func(a, b *Item) int { return a.ID.Compare(b.ID) })
	return items
}

// DeleteJob calls deleteFn, which removes the job from state, unless the job
// has items in the queue. The queue lock is held throughout, so no item of the
// job can be enqueued while it is deleted.
func (q *Queue) DeleteJob(jobID string, deleteFn func() error) error {
	q.lock.Lock()
	defer q.lock.Unlock()

	var n int
	for _, item := range q.pending {
		if item.JobID == jobID {
			n++
		}
	}

	if n > 0 {
		return serverstate.NewErrorResp(
			fmt.Errorf("job %q has %d queued runs", jobID, n), http.StatusConflict)
	}

	if err := deleteFn(); err != nil {
		return err
	}

	// A job created later with the same ID starts numbering from state.
	delete(q.counters, jobID)
	return nil
}

// Stop rejects further items and waits for pending items to be written.
func (q *Queue) Stop() {
	q.lock.Lock()
	if q.stopped {
		q.lock.Unlock()
		return
	}
	q.stopped = true
	close(q.stopCh)
	q.lock.Unlock()

	q.wg.Wait()
	q.logger.Info("queue stopped")
}
