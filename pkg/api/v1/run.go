package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/oklog/ulid/v2"
)

type Run struct {
	JobID   string    `json:"job_id"`
	Number  int64     `json:"number"`
	QueueID ulid.ULID `json:"queue_id"`
	State   string    `json:"state"`
	Result  string    `json:"result"`
	Cause   string    `json:"cause"`

	Parameters map[string]any `json:"parameters"`
	RestartOf  *RunReference  `json:"restart_of,omitempty"`

	Stages  []*Stage            `json:"stages"`
	Restart *RestartDeclaration `json:"restart,omitempty"`

	EnqueueTime time.Time `json:"enqueue_time"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
}

type RunReference struct {
	Number int64  `json:"number"`
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

type RestartDeclaration struct {
	RestartableStages []string `json:"restartable_stages"`
}

type RunStub struct {
	JobID       string    `json:"job_id"`
	Number      int64     `json:"number"`
	State       string    `json:"state"`
	Result      string    `json:"result"`
	Cause       string    `json:"cause"`
	EnqueueTime time.Time `json:"enqueue_time"`
}

func runPath(jobID string, number int64) string {
	return "/v1/jobs/" + jobID + "/runs/" + strconv.FormatInt(number, 10)
}

type Runs struct {
	client *Client
}

func (c *Client) Runs() *Runs {
	return &Runs{client: c}
}

type RunTriggerReq struct {
	JobID      string         `json:"-"`
	Parameters map[string]any `json:"parameters"`
}

// RunTriggerResp is returned when a run is triggered or a stage restarted.
// Run is nil when the server accepted the request but the run was not yet
// visible; QueueItem identifies it in that case.
type RunTriggerResp struct {
	Run       *Run       `json:"run,omitempty"`
	QueueItem *QueueItem `json:"queue_item"`
}

func (r *Runs) Trigger(ctx context.Context, req *RunTriggerReq) (*RunTriggerResp, *Response, error) {

	var resp RunTriggerResp

	httpReq, err := r.client.NewRequest(http.MethodPost, "/v1/jobs/"+req.JobID+"/runs", req)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := r.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

type RunDeleteReq struct {
	JobID  string `json:"job_id"`
	Number int64  `json:"number"`
}

func (r *Runs) Delete(ctx context.Context, req *RunDeleteReq) (*Response, error) {

	httpReq, err := r.client.NewRequest(http.MethodDelete, runPath(req.JobID, req.Number), nil)
	if err != nil {
		return nil, err
	}

	return r.client.Do(ctx, httpReq, nil)
}

type RunGetReq struct {
	JobID  string `json:"job_id"`
	Number int64  `json:"number"`
}

type RunGetResp struct {
	Run *Run `json:"run"`
}

func (r *Runs) Get(ctx context.Context, req *RunGetReq) (*RunGetResp, *Response, error) {

	var resp RunGetResp

	httpReq, err := r.client.NewRequest(http.MethodGet, runPath(req.JobID, req.Number), nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := r.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

// RunListReq lists the runs of a single job when JobID is set, otherwise the
// runs of every job.
type RunListReq struct {
	JobID string `json:"job_id"`
}

type RunListResp struct {
	Runs []*RunStub `json:"runs"`
}

func (r *Runs) List(ctx context.Context, req *RunListReq) (*RunListResp, *Response, error) {

	var resp RunListResp

	path := "/v1/runs"
	if req != nil && req.JobID != "" {
		path = "/v1/jobs/" + req.JobID + "/runs"
	}

	httpReq, err := r.client.NewRequest(http.MethodGet, path, nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := r.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}
