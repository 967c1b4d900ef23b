package api

import (
	"context"
	"net/http"
	"time"
)

// Node is a stage of a run as exposed to clients, along with whether it can
// currently be restarted.
type Node struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	Result      string    `json:"result"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Restartable bool      `json:"restartable"`
}

type Nodes struct {
	client *Client
}

func (c *Client) Nodes() *Nodes {
	return &Nodes{client: c}
}

type NodeListReq struct {
	JobID  string
	Number int64
}

type NodeListResp struct {
	Nodes []*Node `json:"nodes"`
}

func (n *Nodes) List(ctx context.Context, req *NodeListReq) (*NodeListResp, *Response, error) {

	var resp NodeListResp

	httpReq, err := n.client.NewRequest(http.MethodGet, runPath(req.JobID, req.Number)+"/nodes", nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := n.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

// NodeGetReq identifies a node by its ID or display name.
type NodeGetReq struct {
	JobID  string
	Number int64
	Node   string
}

type NodeGetResp struct {
	Node *Node `json:"node"`
}

func (n *Nodes) Get(ctx context.Context, req *NodeGetReq) (*NodeGetResp, *Response, error) {

	var resp NodeGetResp

	httpReq, err := n.client.NewRequest(http.MethodGet, runPath(req.JobID, req.Number)+"/nodes/"+req.Node, nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := n.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

type NodeRestartReq struct {
	JobID  string
	Number int64
	Node   string
}

// Restart requests a new run starting from the node. The server responds with
// a conflict error when the node is not restartable.
func (n *Nodes) Restart(ctx context.Context, req *NodeRestartReq) (*RunTriggerResp, *Response, error) {

	var resp RunTriggerResp

	path := runPath(req.JobID, req.Number) + "/nodes/" + req.Node + "/restart"

	httpReq, err := n.client.NewRequest(http.MethodPost, path, nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := n.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}
