package service

import (
	"net/http"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// HTTPErrorResponse is the body of every failed request.
type HTTPErrorResponse struct {
	StatusCode int    `json:"statuscode" description:"the http status code of this error"`
	Message    string `json:"message" description:"the error message"`
}

// NewHTTPError creates an error response with the given status code.
func NewHTTPError(code int, err error) *HTTPErrorResponse {
	return &HTTPErrorResponse{
		StatusCode: code,
		Message:    err.Error(),
	}
}

// BadRequest creates an error response for malformed request payloads.
func BadRequest(err error) *HTTPErrorResponse {
	return NewHTTPError(http.StatusBadRequest, err)
}

// defaultError maps domain errors onto their http status codes.
func defaultError(err error) *HTTPErrorResponse {
	switch {
	case topo.IsNotFound(err):
		return NewHTTPError(http.StatusNotFound, err)
	case topo.IsConflict(err):
		return NewHTTPError(http.StatusConflict, err)
	default:
		return NewHTTPError(http.StatusInternalServerError, err)
	}
}
