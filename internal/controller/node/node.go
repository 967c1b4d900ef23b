// Package node presents the stages of a run as pipeline nodes and decides
// whether each node may be restarted.
package node

import (
	"time"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/feature"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

// IsRestartable reports whether the named stage of the run may be restarted.
// The restartable stages feature must be enabled, the run must carry a
// restart declaration listing the stage, and the stage must have finished.
func IsRestartable(flags feature.Store, run *state.Run, stageDisplayName string) bool {
	if !feature.RestartableStagesEnabled(flags) {
		return false
	}

	decl := run.RestartDeclaration()
	if decl == nil {
		return false
	}

	if !decl.Contains(stageDisplayName) {
		return false
	}

	stage := run.Stage(stageDisplayName)
	if stage == nil {
		return false
	}
	return stage.State == state.RunStateFinished
}

// Node is a single stage of a run. It keeps a reference to the run so that
// restartability can be evaluated against the run's declaration.
type Node struct {
	run   *state.Run
	stage *state.Stage
	flags feature.Store
}

func New(run *state.Run, stage *state.Stage, flags feature.Store) *Node {
	return &Node{run: run, stage: stage, flags: flags}
}

func (n *Node) ID() string { return n.stage.ID }

func (n *Node) DisplayName() string { return n.stage.DisplayName }

func (n *Node) State() string { return n.stage.State }

func (n *Node) Run() *state.Run { return n.run }

func (n *Node) IsRestartable() bool {
	return IsRestartable(n.flags, n.run, n.stage.DisplayName)
}

// Stub is the API representation of a node.
type Stub struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	State       string    `json:"state"`
	Result      string    `json:"result"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Restartable bool      `json:"restartable"`
}

func (n *Node) Stub() *Stub {
	return &Stub{
		ID:          n.stage.ID,
		DisplayName: n.stage.DisplayName,
		State:       n.stage.State,
		Result:      n.stage.Result,
		StartTime:   n.stage.StartTime,
		EndTime:     n.stage.EndTime,
		Restartable: n.IsRestartable(),
	}
}

// List builds a node for every stage of the run, in stage order.
func List(run *state.Run, flags feature.Store) []*Node {
	if run == nil {
		return nil
	}

	nodes := make([]*Node, 0, len(run.Stages))
	for _, stage := range run.Stages {
		if stage == nil {
			continue
		}
		nodes = append(nodes, New(run, stage, flags))
	}
	return nodes
}

// Stubs is a convenience wrapper converting the nodes of a run into their API
// representation.
func Stubs(run *state.Run, flags feature.Store) []*Stub {
	nodes := List(run, flags)
	stubs := make([]*Stub, len(nodes))
	for i, n := range nodes {
		stubs[i] = n.Stub()
	}
	return stubs
}

// Find returns the node of the run with the given ID, falling back to a match
// on display name. It returns nil if the run has no such stage.
func Find(run *state.Run, id string, flags feature.Store) *Node {
	if stage := run.StageByID(id); stage != nil {
		return New(run, stage, flags)
	}
	if stage := run.Stage(id); stage != nil {
		return New(run, stage, flags)
	}
	return nil
}
