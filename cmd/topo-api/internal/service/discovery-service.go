package service

import (
	"log/slog"
	"net/http"

	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/discovery"
	v1 "github.com/sdn-stack/topo-api/cmd/topo-api/internal/service/v1"
)

type discoveryResource struct {
	webResource
	prober *discovery.Prober
}

// NewDiscovery returns a webservice for discovery specific endpoints.
func NewDiscovery(log *slog.Logger, prober *discovery.Prober) *restful.WebService {
	r := discoveryResource{
		webResource: webResource{
			log: log,
		},
		prober: prober,
	}
	return r.webService()
}

func (r *discoveryResource) webService() *restful.WebService {
	ws := new(restful.WebService)
	ws.
		Path(BasePath + "v1/discovery").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	tags := []string{"discovery"}

	ws.Route(ws.GET("/").
		To(r.status).
		Operation("discoveryStatus").
		Doc("get the current link discovery status").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(v1.DiscoveryStatusResponse{}).
		Returns(http.StatusOK, "OK", v1.DiscoveryStatusResponse{}).
		DefaultReturns("Error", HTTPErrorResponse{}))

	ws.Route(ws.POST("/probe").
		To(r.probe).
		Operation("triggerProbe").
		Doc("trigger one probe cycle outside the regular interval").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(v1.DiscoveryStatusResponse{}).
		Returns(http.StatusOK, "OK", v1.DiscoveryStatusResponse{}).
		DefaultReturns("Error", HTTPErrorResponse{}))

	return ws
}

func (r *discoveryResource) status(request *restful.Request, response *restful.Response) {
	r.send(request, response, http.StatusOK, v1.NewDiscoveryStatusResponse(r.prober.Status()))
}

func (r *discoveryResource) probe(request *restful.Request, response *restful.Response) {
	r.prober.Probe()

	r.send(request, response, http.StatusOK, v1.NewDiscoveryStatusResponse(r.prober.Status()))
}
