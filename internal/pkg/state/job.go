package state

import (
	"errors"
	"fmt"
	"slices"
)

type Job struct {
	ID          string `json:"id"`
	Description string `json:"description"`

	// Declarative jobs are authored as a fixed list of stages and are the
	// only jobs which can carry restartable stage metadata.
	Declarative bool `json:"declarative"`

	Stages     []*StageDefinition `json:"stages"`
	Parameters []*Parameter       `json:"parameters"`
	Schedule   []string           `json:"schedule"`
}

type StageDefinition struct {
	Name        string `json:"name"`
	Restartable bool   `json:"restartable"`
}

type Parameter struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Default  any    `json:"default"`
	Required bool   `json:"required"`
}

type JobStub struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Declarative bool   `json:"declarative"`
	NumStages   int    `json:"num_stages"`
}

func (j *Job) Stub() *JobStub {
	return &JobStub{
		ID:          j.ID,
		Description: j.Description,
		Declarative: j.Declarative,
		NumStages:   len(j.Stages),
	}
}

// RestartDeclaration builds the restart metadata runs of this job carry. It
// returns nil for scripted jobs and for declarative jobs that do not mark
// any stage as restartable.
func (j *Job) RestartDeclaration() *RestartDeclaration {
	if !j.Declarative {
		return nil
	}

	var names []string

	for _, stage := range j.Stages {
		if stage.Restartable {
			names = append(names, stage.Name)
		}
	}

	if len(names) == 0 {
		return nil
	}
	return &RestartDeclaration{RestartableStages: names}
}

func (j *Job) Validate() error {

	var errs []error

	if j.ID == "" {
		errs = append(errs, errors.New("job ID cannot be empty"))
	}

	seen := make(map[string]struct{}, len(j.Stages))

	for _, stage := range j.Stages {
		if stage.Name == "" {
			errs = append(errs, errors.New("stage name cannot be empty"))
			continue
		}
		if _, ok := seen[stage.Name]; ok {
			errs = append(errs, fmt.Errorf("duplicate stage name %q", stage.Name))
		}
		seen[stage.Name] = struct{}{}

		if stage.Restartable && !j.Declarative {
			errs = append(errs, fmt.Errorf(
				"stage %q cannot be restartable in a non-declarative job", stage.Name))
		}
	}

	return errors.Join(errs...)
}

// StageNames returns the job's stage names in definition order.
func (j *Job) StageNames() []string {
	names := make([]string, 0, len(j.Stages))
	for _, stage := range j.Stages {
		names = append(names, stage.Name)
	}
	return names
}

func (j *Job) HasStage(name string) bool {
	return slices.Contains(j.StageNames(), name)
}
