package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/hashicorp-forge/pipeline-api/internal/controller/server/state"
)

func httpWriteResponse(w http.ResponseWriter, obj any) {

	code := http.StatusInternalServerError

	if respMeta, ok := obj.(internalResponseMeta); ok {
		code = respMeta.StatusCode()
	}

	if code == http.StatusNoContent || obj == nil {
		w.WriteHeader(code)
		return
	}

	objBytes, err := json.Marshal(obj)
	if err != nil {
		httpWriteResponseError(w, fmt.Errorf("failed to marshal JSON response: %w", err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(objBytes)
}

func httpWriteResponseError(w http.ResponseWriter, err error) {
	var (
		code int
		resp []byte
	)

	codedErr, ok := err.(*ResponseError)
	if !ok {
		code = http.StatusInternalServerError
		resp = []byte(err.Error())
	} else {
		code = codedErr.StatusCode()

		objBytes, err := json.Marshal(codedErr)
		if err != nil {
			return
		}
		resp = objBytes
		w.Header().Set("Content-Type", "application/json")
	}

	// Write the status code header.
	w.WriteHeader(code)
	_, _ = w.Write(resp)
}

// httpWriteError writes err as a ResponseError. Errors carrying a state
// status code keep it, everything else is an internal server error.
func httpWriteError(w http.ResponseWriter, err error) {
	var stateErr *state.ErrorResp
	if errors.As(err, &stateErr) {
		httpWriteResponseError(w, NewResponseError(err, stateErr.StatusCode()))
		return
	}
	httpWriteResponseError(w, NewResponseError(err, http.StatusInternalServerError))
}

type internalResponseMeta interface {
	StatusCode() int
}

type internalResponseMetaImpl struct {
	code int
}

func newInternalResponseMeta(c int) internalResponseMetaImpl {
	return internalResponseMetaImpl{
		code: c,
	}
}

func (r internalResponseMetaImpl) StatusCode() int {
	return r.code
}

type ResponseError struct {
	ErrorBody `json:"error"`
}

type ErrorBody struct {
	Msg  string `json:"message"`
	Code int    `json:"code"`
}

func NewResponseError(e error, c int) *ResponseError {
	return &ResponseError{
		ErrorBody: ErrorBody{
			Msg:  e.Error(),
			Code: c,
		},
	}
}

func (e *ResponseError) StatusCode() int { return e.Code }

func (e *ResponseError) Error() string { return e.Msg }

func (e *ResponseError) String() string { return e.Msg }
