package service

import (
	"log/slog"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"
)

// HealthCheck reports whether the application is able to serve.
type HealthCheck func() error

type healthStatus struct {
	Message string `json:"message"`
}

type healthResource struct {
	webResource
	check HealthCheck
}

// NewHealth returns a webservice for healthchecks.
func NewHealth(log *slog.Logger, check HealthCheck) *restful.WebService {
	r := healthResource{
		webResource: webResource{
			log: log,
		},
		check: check,
	}
	return r.webService()
}

func (r *healthResource) webService() *restful.WebService {
	ws := new(restful.WebService)
	ws.
		Path("/health").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	tags := []string{"health"}

	ws.Route(ws.GET("/").
		To(r.health).
		Operation("health").
		Doc("perform a healthcheck").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Returns(http.StatusOK, "OK", healthStatus{}).
		Returns(http.StatusInternalServerError, "Unhealthy", healthStatus{}))

	return ws
}

func (r *healthResource) health(request *restful.Request, response *restful.Response) {
	if err := r.check(); err != nil {
		r.log.Error("unhealthy", "error", err)
		r.send(request, response, http.StatusInternalServerError, healthStatus{Message: err.Error()})
		return
	}

	r.send(request, response, http.StatusOK, healthStatus{Message: "OK"})
}
