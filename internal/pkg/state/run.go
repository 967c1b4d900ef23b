package state

import (
	"cmp"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

// RunID identifies a run within the history of a single job. Numbers are
// assigned once by the queue and never reused.
type RunID int64

func (r RunID) String() string { return strconv.FormatInt(int64(r), 10) }

func ParseRunID(s string) (RunID, error) {
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return RunID(i), nil
}

const (
	RunStateQueued   = "queued"
	RunStateRunning  = "running"
	RunStatePaused   = "paused"
	RunStateSkipped  = "skipped"
	RunStateNotBuilt = "not_built"
	RunStateFinished = "finished"
)

const (
	RunResultSuccess  = "success"
	RunResultUnstable = "unstable"
	RunResultFailure  = "failure"
	RunResultNotBuilt = "not_built"
	RunResultAborted  = "aborted"
	RunResultUnknown  = "unknown"
)

const (
	RunCauseUser     = "user"
	RunCauseSchedule = "schedule"
	RunCauseRestart  = "restart"
)

type RunKey struct {
	JobID  string
	Number RunID
}

type Run struct {
	JobID   string    `json:"job_id"`
	Number  RunID     `json:"number"`
	QueueID ulid.ULID `json:"queue_id"`
	State   string    `json:"state"`
	Result  string    `json:"result"`
	Cause   string    `json:"cause"`

	Parameters map[string]any `json:"parameters"`

	// RestartOf is set when the run was created by restarting a stage of an
	// earlier run.
	RestartOf *RunReference `json:"restart_of,omitempty"`

	Stages  []*Stage            `json:"stages"`
	Restart *RestartDeclaration `json:"restart,omitempty"`

	EnqueueTime time.Time `json:"enqueue_time"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type RunReference struct {
	Number RunID  `json:"number"`
	Stage  string `json:"stage"`
}

type Stage struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	Result      string    `json:"result"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

// RestartDeclaration is attached to runs of declarative jobs and lists, in
// order, the display names of the stages which may be restarted.
type RestartDeclaration struct {
	RestartableStages []string `json:"restartable_stages"`
}

// Contains reports whether name exactly matches a restartable stage.
func (r *RestartDeclaration) Contains(name string) bool {
	if r == nil {
		return false
	}
	return slices.Contains(r.RestartableStages, name)
}

type RunStub struct {
	JobID       string    `json:"job_id"`
	Number      RunID     `json:"number"`
	State       string    `json:"state"`
	Result      string    `json:"result"`
	Cause       string    `json:"cause"`
	EnqueueTime time.Time `json:"enqueue_time"`
}

func (r *Run) Key() RunKey { return RunKey{JobID: r.JobID, Number: r.Number} }

func (r *Run) Stub() *RunStub {
	return &RunStub{
		JobID:       r.JobID,
		Number:      r.Number,
		State:       r.State,
		Result:      r.Result,
		Cause:       r.Cause,
		EnqueueTime: r.EnqueueTime,
	}
}

// RestartDeclaration returns the restart metadata of the run, or nil when the
// run has none.
func (r *Run) RestartDeclaration() *RestartDeclaration {
	if r == nil {
		return nil
	}
	return r.Restart
}

// Stage returns the stage with the given display name, or nil.
func (r *Run) Stage(displayName string) *Stage {
	if r == nil {
		return nil
	}
	for _, stage := range r.Stages {
		if stage != nil && stage.DisplayName == displayName {
			return stage
		}
	}
	return nil
}

// StageByID returns the stage with the given ID, or nil.
func (r *Run) StageByID(id string) *Stage {
	if r == nil {
		return nil
	}
	for _, stage := range r.Stages {
		if stage != nil && stage.ID == id {
			return stage
		}
	}
	return nil
}

func (r *Run) IsFinished() bool { return r.State == RunStateFinished }

func (r *Run) Copy() *Run {
	if r == nil {
		return nil
	}

	c := &Run{
		JobID:       r.JobID,
		Number:      r.Number,
		QueueID:     r.QueueID,
		State:       r.State,
		Result:      r.Result,
		Cause:       r.Cause,
		Parameters:  make(map[string]any, len(r.Parameters)),
		EnqueueTime: r.EnqueueTime,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
	}

	maps.Copy(c.Parameters, r.Parameters)

	if r.RestartOf != nil {
		ref := *r.RestartOf
		c.RestartOf = &ref
	}

	if r.Restart != nil {
		c.Restart = &RestartDeclaration{
			RestartableStages: slices.Clone(r.Restart.RestartableStages),
		}
	}

	if r.Stages != nil {
		c.Stages = make([]*Stage, len(r.Stages))
		for i, stage := range r.Stages {
			if stage != nil {
				s := *stage
				c.Stages[i] = &s
			}
		}
	}

	return c
}

// PreserveControllerFields copies the fields owned by the controller from
// existing, so that updates reported by the execution engine cannot
// overwrite them.
func (r *Run) PreserveControllerFields(existing *Run) {
	if existing == nil {
		return
	}
	r.QueueID = existing.QueueID
	r.Cause = existing.Cause
	r.Parameters = existing.Parameters
	r.RestartOf = existing.RestartOf
	r.Restart = existing.Restart
	r.EnqueueTime = existing.EnqueueTime
}

// SortRunStubs orders stubs by job ID and then by descending run number, so
// the most recent run of each job is listed first.
func SortRunStubs(stubs []*RunStub) {
	slices.SortFunc(stubs, func(a, b *RunStub) int {
		if c := cmp.Compare(a.JobID, b.JobID); c != 0 {
			return c
		}
		return cmp.Compare(b.Number, a.Number)
	})
}
