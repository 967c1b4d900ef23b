package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hashicorp-forge/pipeline-api/internal/pkg/state"
)

const (
	jobURLParam    = "job"
	numberURLParam = "number"
	nodeURLParam   = "node"

	jobQueryParam = "job"
)

type contextKey string

const runNumberContextKey contextKey = "run_number"

func getJobParam(r *http.Request) string { return chi.URLParam(r, jobURLParam) }

func getNodeParam(r *http.Request) string { return chi.URLParam(r, nodeURLParam) }

func getRunNumber(r *http.Request) state.RunID {
	return r.Context().Value(runNumberContextKey).(state.RunID)
}

// runNumberContext parses the run number URL parameter and stores it on the
// request context.
func runNumberContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		number, err := state.ParseRunID(chi.URLParam(r, numberURLParam))
		if err != nil || number < 1 {
			httpWriteResponseError(w, NewResponseError(
				fmt.Errorf("invalid run number %q", chi.URLParam(r, numberURLParam)),
				http.StatusBadRequest,
			))
			return
		}

		ctx := context.WithValue(r.Context(), runNumberContextKey, number)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// decodeOptionalBody decodes a JSON request body into obj. An empty body is
// not an error.
func decodeOptionalBody(r *http.Request, obj any) error {
	if err := json.NewDecoder(r.Body).Decode(obj); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func chiRouteContext(r *http.Request) *chi.Context { return chi.RouteContext(r.Context()) }
