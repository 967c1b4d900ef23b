package api

import (
	"context"
	"net/http"
	"time"

	"github.com/oklog/ulid/v2"
)

type QueueItem struct {
	ID          ulid.ULID      `json:"id"`
	JobID       string         `json:"job_id"`
	Number      int64          `json:"number"`
	Cause       string         `json:"cause"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	RestartOf   *RunReference  `json:"restart_of,omitempty"`
	EnqueueTime time.Time      `json:"enqueue_time"`
}

type Queue struct {
	client *Client
}

func (c *Client) Queue() *Queue {
	return &Queue{client: c}
}

type QueueListReq struct {
	JobID string
}

type QueueListResp struct {
	Items []*QueueItem `json:"items"`
}

// List returns the items which have been enqueued but not yet written to
// state, optionally filtered by job.
func (q *Queue) List(ctx context.Context, req *QueueListReq) (*QueueListResp, *Response, error) {

	var resp QueueListResp

	var opts []RequestOption
	if req != nil {
		opts = append(opts, WithQueryParam("job", req.JobID))
	}

	httpReq, err := q.client.NewRequest(http.MethodGet, "/v1/queue", nil, opts...)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := q.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}
