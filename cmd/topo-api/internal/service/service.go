// Package service implements the northbound rest api of the controller.
package service

import (
	"log/slog"
	"strings"

	restful "github.com/emicklei/go-restful/v3"
)

// BasePath is the url prefix all webservices are mounted under.
const BasePath = "/"

// RequestLogger returns a filter logging one line per handled request.
func RequestLogger(log *slog.Logger) restful.FilterFunction {
	return func(req *restful.Request, resp *restful.Response, chain *restful.FilterChain) {
		chain.ProcessFilter(req, resp)
		log.Info("rest call",
			"remoteaddr", strings.Split(req.Request.RemoteAddr, ":")[0],
			"method", req.Request.Method,
			"uri", req.Request.URL.RequestURI(),
			"protocol", req.Request.Proto,
			"status", resp.StatusCode(),
			"content-length", resp.ContentLength(),
		)
	}
}

type webResource struct {
	log *slog.Logger
}

func (w *webResource) send(request *restful.Request, response *restful.Response, status int, body any) {
	if err := response.WriteHeaderAndEntity(status, body); err != nil {
		w.log.Error("cannot send response", "error", err)
	}
}

func (w *webResource) sendError(request *restful.Request, response *restful.Response, herr *HTTPErrorResponse) {
	w.log.Error("service error", "path", request.Request.URL.Path, "status", herr.StatusCode, "message", herr.Message)
	if err := response.WriteHeaderAndEntity(herr.StatusCode, herr); err != nil {
		w.log.Error("cannot send error response", "error", err)
	}
}
