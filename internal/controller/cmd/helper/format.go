package helper

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/ryanuber/columnize"

	"github.com/hashicorp-forge/pipeline-api/pkg/api/v1"
)

func FormatKV(in []string) string {
	columnConf := columnize.DefaultConfig()
	columnConf.Empty = "<none>"
	columnConf.Glue = " = "
	return columnize.Format(in, columnConf)
}

func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format(time.RFC3339)
}

func FormatError(cliMsg string, err error) string {

	var (
		code    int
		respErr *api.ResponseError
		urlErr  *url.Error
	)

	switch {
	case errors.As(err, &respErr):
		code = respErr.ErrorBody.Code
	case errors.As(err, &urlErr):
		code = 500
	default:
		code = 400
	}

	return FormatKV([]string{
		fmt.Sprintf("Description|%s", cliMsg),
		fmt.Sprintf("Error|%s", err),
		fmt.Sprintf("Code|%v", code),
	})
}

// ParseRunNumber parses a run number given as a CLI argument.
func ParseRunNumber(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("run number is required")
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 1 {
		return 0, fmt.Errorf("invalid run number %q", s)
	}
	return n, nil
}
