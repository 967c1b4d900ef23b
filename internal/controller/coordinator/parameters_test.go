package coordinator

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

func Test_generateParameters(t *testing.T) {
	job := &state.Job{
		Parameters: []*state.Parameter{
			{Name: "branch", Type: "string", Default: "main"},
			{Name: "verbose", Type: "bool", Default: false},
			{Name: "target", Required: true},
		},
	}

	testCases := []struct {
		name      string
		params    map[string]any
		want      map[string]any
		wantError string
	}{
		{
			name:   "defaults applied",
			params: map[string]any{"target": "prod"},
			want:   map[string]any{"branch": "main", "verbose": false, "target": "prod"},
		},
		{
			name:   "values coerced",
			params: map[string]any{"target": "prod", "verbose": "true", "branch": float64(7)},
			want:   map[string]any{"branch": "7", "verbose": true, "target": "prod"},
		},
		{
			name:      "missing required",
			params:    map[string]any{"branch": "dev"},
			wantError: "missing required parameter: target",
		},
		{
			name:      "unknown parameter",
			params:    map[string]any{"target": "prod", "colour": "blue"},
			wantError: "unknown parameter: colour",
		},
		{
			name:      "invalid type",
			params:    map[string]any{"target": "prod", "verbose": "sometimes"},
			wantError: "invalid value for parameter verbose",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := generateParameters(job, tc.params)
			if tc.wantError != "" {
				require.ErrorContains(t, err, tc.wantError)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}
