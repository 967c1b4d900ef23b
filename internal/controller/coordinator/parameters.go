package coordinator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/hcl"
	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

// generateParameters builds the parameter map of a run. It starts with the
// default values defined by the job and then overrides them with any provided
// runtime values, converting each to the parameter's declared type. Unknown
// and missing required parameters are reported as errors.
func generateParameters(job *state.Job, params map[string]any) (map[string]any, error) {

	var errs []error

	result := make(map[string]any, len(job.Parameters))
	known := make(map[string]struct{}, len(job.Parameters))

	for _, p := range job.Parameters {
		known[p.Name] = struct{}{}

		// Set any default values first, so that if they are not present in
		// the runtime parameters, they will still be set.
		if p.Default != nil {
			result[p.Name] = p.Default
		}

		val, ok := params[p.Name]
		if !ok {
			if p.Required {
				errs = append(errs, fmt.Errorf("missing required parameter: %s", p.Name))
			}
			continue
		}

		converted, err := hcl.Coerce(p.Type, val)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid value for parameter %s: %w", p.Name, err))
			continue
		}
		result[p.Name] = converted
	}

	var unknown []string
	for name := range params {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	slices.Sort(unknown)
	for _, name := range unknown {
		errs = append(errs, fmt.Errorf("unknown parameter: %s", name))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return result, nil
}
