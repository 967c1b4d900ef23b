package api

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseJobFile(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
job "build" {
  description = "build and test"
  declarative = true
  schedule    = ["@daily"]

  parameter "branch" {
    type    = string
    default = "main"
  }

  parameter "retries" {
    type     = number
    required = true
  }

  parameter "tags" {
    type    = list(string)
    default = ["a", "b"]
  }

  parameter "anything" {}

  stage "compile" {}

  stage "test" {
    restartable = true
  }
}
`), 0o600))

	job, err := ParseJobFile(path)
	require.NoError(t, err)

	require.Equal(t, "build", job.ID)
	require.Equal(t, "build and test", job.Description)
	require.True(t, job.Declarative)
	require.Equal(t, []string{"@daily"}, job.Schedule)

	require.Len(t, job.Stages, 2)
	require.Equal(t, &StageDefinition{Name: "compile"}, job.Stages[0])
	require.Equal(t, &StageDefinition{Name: "test", Restartable: true}, job.Stages[1])

	require.Len(t, job.Parameters, 4)

	require.Equal(t, "string", job.Parameters[0].Type)
	require.Equal(t, "main", job.Parameters[0].Default)

	require.Equal(t, "number", job.Parameters[1].Type)
	require.True(t, job.Parameters[1].Required)
	require.Nil(t, job.Parameters[1].Default)

	require.Equal(t, "list(string)", job.Parameters[2].Type)
	require.Equal(t, []any{"a", "b"}, job.Parameters[2].Default)

	require.Empty(t, job.Parameters[3].Type)
	require.Nil(t, job.Parameters[3].Default)
}

func TestParseJobFile_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ParseJobFile(filepath.Join(dir, "job.yaml"))
	require.ErrorContains(t, err, "unsupported file extension")

	_, err = ParseJobFile(filepath.Join(dir, "missing.hcl"))
	require.Error(t, err)

	path := filepath.Join(dir, "bad.hcl")
	require.NoError(t, os.WriteFile(path, []byte(`
job "bad" {
  parameter "x" {
    type = not_a_type
  }
}
`), 0o600))

	_, err = ParseJobFile(path)
	require.ErrorContains(t, err, `failed to decode parameter "x"`)
}
