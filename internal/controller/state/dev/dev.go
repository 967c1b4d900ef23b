package dev

import (
	"sync"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

// State is an in-memory state backend. It is not persisted and is intended
// for development and testing.
type State struct {
	jobs     map[string]*state.Job
	jobsLock sync.RWMutex

	runs     map[state.RunKey]*state.Run
	runsLock sync.RWMutex
}

func New() serverstate.State {
	return &State{
		jobs: make(map[string]*state.Job),
		runs: make(map[state.RunKey]*state.Run),
	}
}
