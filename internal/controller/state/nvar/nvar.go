package nvar

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/hashicorp/nomad/api"
	"go.uber.org/zap"

	serverstate "github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/logger"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

const (
	// Nomad Variables path prefixes for different resource types
	variablePathPrefix = "pipeline-api"
	jobsPathPrefix     = variablePathPrefix + "/jobs"
	runsPathPrefix     = variablePathPrefix + "/runs"
)

// variables is the subset of the Nomad Variables API used by the backend.
type variables interface {
	Read(path string, qo *api.QueryOptions) (*api.Variable, *api.QueryMeta, error)
	Update(v *api.Variable, qo *api.WriteOptions) (*api.Variable, *api.WriteMeta, error)
	Delete(path string, qo *api.WriteOptions) (*api.WriteMeta, error)
	PrefixList(prefix string, qo *api.QueryOptions) ([]*api.VariableMetadata, *api.QueryMeta, error)
}

// State implements the serverstate.State interface using Nomad Variables
// for persistent storage. This allows the state to be shared across multiple
// controller instances and survives controller restarts.
type State struct {
	vars   variables
	logger *zap.Logger

	// enableCache indicates whether local caching is enabled. When enabled, the
	// maps and locks below are used to cache state data in memory for faster
	// read access.
	enableCache bool

	jobsCache map[string]*state.Job
	jobsLock  sync.RWMutex

	runsCache map[state.RunKey]*state.Run
	runsLock  sync.RWMutex
}

// New creates a new Nomad Variables-backed state implementation
func New(cache bool, zLogger *zap.Logger, client *api.Client) (serverstate.State, error) {
	if client == nil {
		return nil, errors.New("nomad client is required")
	}
	return newState(cache, zLogger, client.Variables()), nil
}

func newState(cache bool, zLogger *zap.Logger, vars variables) *State {

	s := &State{
		vars:        vars,
		enableCache: cache,
		logger:      zLogger.Named(logger.ComponentNameState),
		jobsCache:   make(map[string]*state.Job),
		runsCache:   make(map[state.RunKey]*state.Run),
	}

	// Initialize the state by loading all data into cache if caching is enabled
	if s.enableCache {
		if err := s.loadCache(); err != nil {
			s.logger.Warn("failed to load initial cache", zap.Error(err))
		}
	}

	return s
}

// loadCache loads all state data from Nomad Variables into the local cache
func (s *State) loadCache() error {
	s.logger.Debug("loading cache from Nomad Variables")

	if err := s.loadJobsCache(); err != nil {
		return fmt.Errorf("failed to load jobs: %w", err)
	}

	if err := s.loadRunsCache(); err != nil {
		return fmt.Errorf("failed to load runs: %w", err)
	}

	s.logger.Debug("cache loaded successfully")
	return nil
}

func (s *State) Jobs() serverstate.Jobs {
	return &Jobs{s: s}
}

func (s *State) Runs() serverstate.Runs {
	return &Runs{s: s}
}

func jobVarPath(id string) string {
	return fmt.Sprintf("%s/%s", jobsPathPrefix, id)
}

func runVarPath(jobID string, number state.RunID) string {
	return fmt.Sprintf("%s/%s/%s", runsPathPrefix, jobID, number)
}

func encodeToVariable(path string, data any) (*api.Variable, error) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal data: %w", err)
	}

	return &api.Variable{
		Path: path,
		Items: map[string]string{
			"data": string(jsonData),
		},
	}, nil
}

func decodeFromVariable(v *api.Variable, target any) error {
	data, ok := v.Items["data"]
	if !ok {
		return fmt.Errorf("variable missing 'data' field")
	}

	if err := json.Unmarshal([]byte(data), target); err != nil {
		return fmt.Errorf("failed to unmarshal data: %w", err)
	}

	return nil
}

// getVariable retrieves a variable from Nomad. The Nomad API returns a nil
// variable and a nil error for some missing paths, so that case is mapped to
// a not found error here.
func (s *State) getVariable(path string) (*api.Variable, error) {
	v, _, err := s.vars.Read(path, &api.QueryOptions{})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, api.ErrVariablePathNotFound
	}
	return v, nil
}

func (s *State) putVariable(v *api.Variable) error {
	_, _, err := s.vars.Update(v, &api.WriteOptions{})
	return err
}

func (s *State) deleteVariable(path string) error {
	_, err := s.vars.Delete(path, &api.WriteOptions{})
	return err
}

func (s *State) listVariablesByPrefix(prefix string) ([]*api.VariableMetadata, error) {
	vars, _, err := s.vars.PrefixList(prefix, &api.QueryOptions{})
	if err != nil {
		return nil, err
	}
	return vars, nil
}

func isNotFoundError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, api.ErrVariablePathNotFound) {
		return true
	}
	errStr := err.Error()
	return errStr == "Unexpected response code: 404" || errStr == "variable not found"
}
