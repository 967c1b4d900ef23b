// Package schedule triggers runs of jobs which carry cron schedules.
package schedule

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/cronexpr"
	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

// RunFunc triggers a run of the identified job.
type RunFunc func(ctx context.Context, jobID string) error

// Scheduler manages scheduled job execution using a heap-based priority queue
// ordered by next fire time.
type Scheduler struct {
	logger *zap.Logger
	state  serverstate.State
	runFn  RunFunc

	heap *entryHeap
	lock sync.RWMutex

	// entries maps a job ID to the scheduled entries of that job, one per
	// cron expression.
	entries map[string][]*entry

	// now is replaceable so tests can drive the clock.
	now func() time.Time

	stopCh   chan struct{}
	updateCh chan struct{}
	wg       sync.WaitGroup
}

type Config struct {
	Logger *zap.Logger
	State  serverstate.State
	RunFn  RunFunc
}

func New(cfg *Config) *Scheduler {
	h := &entryHeap{}
	heap.Init(h)

	return &Scheduler{
		logger:   cfg.Logger.Named(logger.ComponentNameScheduler),
		state:    cfg.State,
		runFn:    cfg.RunFn,
		heap:     h,
		entries:  make(map[string][]*entry),
		now:      time.Now,
		stopCh:   make(chan struct{}),
		updateCh: make(chan struct{}, 1),
	}
}

func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if err := s.loadJobsFromState(); err != nil {
		return fmt.Errorf("failed to load jobs from state: %w", err)
	}

	s.wg.Add(1)
	go s.run()

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	close(s.stopCh)
	s.wg.Wait()
	s.logger.Info("scheduler stopped")
}

// Validate checks every cron expression of the job can be parsed.
func Validate(job *state.Job) error {
	var errs []error
	for _, cron := range job.Schedule {
		if _, err := cronexpr.Parse(cron); err != nil {
			errs = append(errs, fmt.Errorf("failed to parse cron expression %q: %w", cron, err))
		}
	}
	return errors.Join(errs...)
}

// Add schedules the job. Any existing schedule of the job is replaced. Jobs
// without cron expressions are ignored.
func (s *Scheduler) Add(job *state.Job) error {
	if err := Validate(job); err != nil {
		return err
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	s.removeLocked(job.ID)

	if len(job.Schedule) == 0 {
		return nil
	}

	now := s.now()

	for _, cron := range job.Schedule {
		cronExpr := cronexpr.MustParse(cron)

		e := &entry{
			jobID:    job.ID,
			cron:     cron,
			nextRun:  cronExpr.Next(now),
			cronExpr: cronExpr,
		}

		s.entries[job.ID] = append(s.entries[job.ID], e)
		heap.Push(s.heap, e)

		s.logger.Info("added job schedule",
			zap.String("job_id", job.ID),
			zap.String("cron", cron),
			zap.Time("next_run", e.nextRun),
		)
	}

	s.signalUpdate()

	return nil
}

// Remove unschedules the job. Removing a job which is not scheduled is a
// no-op.
func (s *Scheduler) Remove(jobID string) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.removeLocked(jobID) {
		s.logger.Info("removed job schedule", zap.String("job_id", jobID))
		s.signalUpdate()
	}
}

func (s *Scheduler) removeLocked(jobID string) bool {
	entries, ok := s.entries[jobID]
	if !ok {
		return false
	}

	for _, e := range entries {
		if e.index >= 0 && e.index < s.heap.Len() {
			heap.Remove(s.heap, e.index)
		}
	}

	delete(s.entries, jobID)
	return true
}

// NextRun returns the earliest scheduled fire time of the job.
func (s *Scheduler) NextRun(jobID string) (time.Time, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	entries, ok := s.entries[jobID]
	if !ok {
		return time.Time{}, fmt.Errorf("job %s is not scheduled", jobID)
	}

	var next time.Time
	for _, e := range entries {
		if next.IsZero() || e.nextRun.Before(next) {
			next = e.nextRun
		}
	}
	return next, nil
}

// run is the main scheduling loop
func (s *Scheduler) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.checkAndExecute()
		case <-s.updateCh:
			s.checkAndExecute()
		}
	}
}

// checkAndExecute fires every entry which is due and reschedules it.
func (s *Scheduler) checkAndExecute() {
	now := s.now()

	s.lock.Lock()
	defer s.lock.Unlock()

	for s.heap.Len() > 0 {
		e := (*s.heap)[0]

		if e.nextRun.After(now) {
			break
		}

		heap.Pop(s.heap)

		s.execute(e)

		e.nextRun = e.cronExpr.Next(now)
		if e.nextRun.IsZero() {
			// The expression has no future matches.
			continue
		}
		heap.Push(s.heap, e)

		s.logger.Debug("rescheduled job",
			zap.String("job_id", e.jobID),
			zap.String("cron", e.cron),
			zap.Time("next_run", e.nextRun),
		)
	}
}

// execute triggers the job in a separate goroutine to avoid blocking the
// scheduling loop.
func (s *Scheduler) execute(e *entry) {
	s.logger.Info("executing scheduled job",
		zap.String("job_id", e.jobID),
		zap.String("cron", e.cron),
		zap.Time("scheduled_time", e.nextRun),
	)

	s.wg.Add(1)
	go func(jobID string) {
		defer s.wg.Done()

		if err := s.runFn(context.Background(), jobID); err != nil {
			s.logger.Error("failed to trigger scheduled run",
				zap.String("job_id", jobID),
				zap.Error(err),
			)
		} else {
			s.logger.Info("successfully triggered scheduled run",
				zap.String("job_id", jobID),
			)
		}
	}(e.jobID)
}

// signalUpdate signals the scheduler to check for updates
func (s *Scheduler) signalUpdate() {
	select {
	case s.updateCh <- struct{}{}:
	default:
		// Channel already has a pending update signal
	}
}

// loadJobsFromState schedules every stored job which has a cron schedule.
func (s *Scheduler) loadJobsFromState() error {
	s.logger.Info("loading job schedules from state backend")

	listResp, errResp := s.state.Jobs().List(&serverstate.JobsListReq{})
	if errResp != nil {
		return fmt.Errorf("failed to list jobs: %w", errResp.Err())
	}

	loadedCount := 0
	errorCount := 0

	for _, stub := range listResp.Jobs {
		getResp, errResp := s.state.Jobs().Get(&serverstate.JobsGetReq{ID: stub.ID})
		if errResp != nil {
			s.logger.Warn("failed to get job details",
				zap.String("job_id", stub.ID),
				zap.Error(errResp.Err()))
			errorCount++
			continue
		}

		if len(getResp.Job.Schedule) == 0 {
			continue
		}

		if err := s.Add(getResp.Job); err != nil {
			s.logger.Warn("failed to add job to scheduler",
				zap.String("job_id", stub.ID),
				zap.Error(err))
			errorCount++
			continue
		}

		loadedCount++
	}

	s.logger.Info("finished loading job schedules from state",
		zap.Int("loaded", loadedCount),
		zap.Int("errors", errorCount),
		zap.Int("total", len(listResp.Jobs)))

	return nil
}
