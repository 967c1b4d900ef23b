package api

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/ext/typeexpr"
	"github.com/hashicorp/hcl/v2/hclsyntax"

	inthcl "github.com/hashicorp-forge/pipeline-api/internal/pkg/hcl"
)

type Job struct {
	ID          string `hcl:"id,label" json:"id"`
	Description string `hcl:"description,optional" json:"description"`
	Declarative bool   `hcl:"declarative,optional" json:"declarative"`

	Stages     []*StageDefinition `hcl:"stage,block" json:"stages"`
	Parameters []*Parameter       `hcl:"parameter,block" json:"parameters"`
	Schedule   []string           `hcl:"schedule,optional" json:"schedule"`
}

type StageDefinition struct {
	Name        string `hcl:"name,label" json:"name"`
	Restartable bool   `hcl:"restartable,optional" json:"restartable"`
}

type Parameter struct {
	Name string `hcl:"name,label" json:"name"`

	Type     string         `json:"type"`
	TypeExpr hcl.Expression `hcl:"type,optional" json:"-"`

	Required bool `hcl:"required,optional" json:"required"`

	Default     any            `json:"default"`
	DefaultExpr hcl.Expression `hcl:"default,optional" json:"-"`
}

type JobStub struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Declarative bool   `json:"declarative"`
	NumStages   int    `json:"num_stages"`
}

// ParseJobFile reads and decodes a job definition from an HCL file. The file
// must contain a single job block.
func ParseJobFile(path string) (*Job, error) {

	if ext := filepath.Ext(path); ext != ".hcl" {
		return nil, fmt.Errorf("unsupported file extension: %q", ext)
	}

	// Use a wrapped object to decode the job block, which keeps the job
	// struct itself flat.
	decodeObj := struct {
		Job *Job `hcl:"job,block"`
	}{}

	if err := inthcl.DecodeFile(path, &decodeObj); err != nil {
		return nil, err
	}

	for _, p := range decodeObj.Job.Parameters {
		if err := p.postDecodeProcessing(); err != nil {
			return nil, fmt.Errorf("failed to decode parameter %q: %w", p.Name, err)
		}
	}

	return decodeObj.Job, nil
}

func (p *Parameter) postDecodeProcessing() error {
	if p.DefaultExpr != nil {
		val, diags := p.DefaultExpr.Value(nil)
		if diags.HasErrors() {
			return diags
		}

		var err error
		p.Default, err = inthcl.CtyToGo(val)
		if err != nil {
			return fmt.Errorf("failed to convert default value: %w", err)
		}
	}

	// Missing optional expressions are decoded as static null values, which
	// are not type expressions and are skipped.
	if _, ok := p.TypeExpr.(hclsyntax.Expression); ok {
		ty, diags := typeexpr.TypeConstraint(p.TypeExpr)
		if diags.HasErrors() {
			return diags
		}
		p.Type = inthcl.TypeString(ty)
	}

	return nil
}

type Jobs struct {
	client *Client
}

func (c *Client) Jobs() *Jobs {
	return &Jobs{client: c}
}

type JobCreateReq struct {
	Job *Job `json:"job"`
}

type JobCreateResp struct {
	Job *Job `json:"job"`
}

func (j *Jobs) Create(ctx context.Context, req *JobCreateReq) (*JobCreateResp, *Response, error) {

	var resp JobCreateResp

	httpReq, err := j.client.NewRequest(http.MethodPost, "/v1/jobs", req)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := j.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

type JobDeleteReq struct {
	ID string `json:"id"`
}

func (j *Jobs) Delete(ctx context.Context, req *JobDeleteReq) (*Response, error) {

	httpReq, err := j.client.NewRequest(http.MethodDelete, "/v1/jobs/"+req.ID, nil)
	if err != nil {
		return nil, err
	}

	return j.client.Do(ctx, httpReq, nil)
}

type JobGetReq struct {
	ID string `json:"id"`
}

type JobGetResp struct {
	Job *Job `json:"job"`
}

func (j *Jobs) Get(ctx context.Context, req *JobGetReq) (*JobGetResp, *Response, error) {

	var resp JobGetResp

	httpReq, err := j.client.NewRequest(http.MethodGet, "/v1/jobs/"+req.ID, nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := j.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}

type JobListReq struct{}

type JobListResp struct {
	Jobs []*JobStub `json:"jobs"`
}

func (j *Jobs) List(ctx context.Context, _ *JobListReq) (*JobListResp, *Response, error) {

	var resp JobListResp

	httpReq, err := j.client.NewRequest(http.MethodGet, "/v1/jobs", nil)
	if err != nil {
		return nil, nil, err
	}

	httpResp, err := j.client.Do(ctx, httpReq, &resp)
	if err != nil {
		return nil, httpResp, err
	}

	return &resp, httpResp, nil
}
