package state

import (
	sharedstate "github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

type State interface {
	Jobs() Jobs
	Runs() Runs
}

type Jobs interface {
	Create(*JobsCreateReq) (*JobsCreateResp, *ErrorResp)
	Delete(*JobsDeleteReq) (*JobsDeleteResp, *ErrorResp)
	Get(*JobsGetReq) (*JobsGetResp, *ErrorResp)
	List(*JobsListReq) (*JobsListResp, *ErrorResp)
}

type JobsCreateReq struct {
	Job *sharedstate.Job
}

type JobsCreateResp struct {
	Job *sharedstate.Job
}

type JobsDeleteReq struct {
	ID string
}

type JobsDeleteResp struct{}

type JobsGetReq struct {
	ID string
}

type JobsGetResp struct {
	Job *sharedstate.Job
}

type JobsListReq struct{}

type JobsListResp struct {
	Jobs []*sharedstate.JobStub
}

type Runs interface {
	Create(*RunsCreateReq) (*RunsCreateResp, *ErrorResp)
	Delete(*RunsDeleteReq) (*RunsDeleteResp, *ErrorResp)
	Get(*RunsGetReq) (*RunsGetResp, *ErrorResp)
	List(*RunsListReq) (*RunsListResp, *ErrorResp)
	Update(*RunsUpdateReq) (*RunsUpdateResp, *ErrorResp)
}

type RunsCreateReq struct {
	Run *sharedstate.Run `json:"run"`
}

type RunsCreateResp struct{}

type RunsDeleteReq struct {
	JobID  string            `json:"job_id"`
	Number sharedstate.RunID `json:"number"`
}

type RunsDeleteResp struct{}

type RunsGetReq struct {
	JobID  string            `json:"job_id"`
	Number sharedstate.RunID `json:"number"`
}

type RunsGetResp struct {
	Run *sharedstate.Run `json:"run"`
}

// RunsListReq filters runs by job. An empty JobID lists the runs of all jobs.
type RunsListReq struct {
	JobID string
}

type RunsListResp struct {
	Runs []*sharedstate.RunStub `json:"runs"`
}

type RunsUpdateReq struct {
	Run *sharedstate.Run `json:"run"`
}

type RunsUpdateResp struct{}

type ErrorResp struct {
	ErrorBody `json:"error"`
}

type ErrorBody struct {
	Msg  string `json:"message"`
	Code int    `json:"code"`
	err  error
}

func NewErrorResp(e error, c int) *ErrorResp {
	return &ErrorResp{
		ErrorBody: ErrorBody{
			err:  e,
			Code: c,
			Msg:  e.Error(),
		},
	}
}

func (e *ErrorResp) Error() string { return e.Msg }

func (e *ErrorResp) Err() error { return e.err }

func (e *ErrorResp) Unwrap() error { return e.err }

func (e *ErrorResp) StatusCode() int { return e.Code }

func (e *ErrorResp) String() string { return e.Msg }

// IsNotFound reports whether e represents a missing object.
func (e *ErrorResp) IsNotFound() bool { return e != nil && e.Code == 404 }
