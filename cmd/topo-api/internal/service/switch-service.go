package service

import (
	"log/slog"
	"net/http"

	"github.com/avast/retry-go/v4"
	restfulspec "github.com/emicklei/go-restful-openapi/v2"
	restful "github.com/emicklei/go-restful/v3"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	v1 "github.com/sdn-stack/topo-api/cmd/topo-api/internal/service/v1"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

type switchResource struct {
	webResource
	inventory *inventory.Store
}

// NewSwitch returns a webservice for switch specific endpoints.
func NewSwitch(log *slog.Logger, inv *inventory.Store) *restful.WebService {
	r := switchResource{
		webResource: webResource{
			log: log,
		},
		inventory: inv,
	}
	return r.webService()
}

func (r *switchResource) webService() *restful.WebService {
	ws := new(restful.WebService)
	ws.
		Path(BasePath + "v1/switch").
		Consumes(restful.MIME_JSON).
		Produces(restful.MIME_JSON)

	tags := []string{"switch"}

	ws.Route(ws.GET("/{id}").
		To(r.findSwitch).
		Operation("findSwitch").
		Doc("get switch by id").
		Param(ws.PathParameter("id", "identifier of the switch").DataType("string")).
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes(v1.SwitchResponse{}).
		Returns(http.StatusOK, "OK", v1.SwitchResponse{}).
		DefaultReturns("Error", HTTPErrorResponse{}))

	ws.Route(ws.GET("/").
		To(r.listSwitches).
		Operation("listSwitches").
		Doc("get all switches").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Writes([]v1.SwitchResponse{}).
		Returns(http.StatusOK, "OK", []v1.SwitchResponse{}).
		DefaultReturns("Error", HTTPErrorResponse{}))

	ws.Route(ws.POST("/").
		To(r.updateSwitch).
		Operation("updateSwitch").
		Doc("updates a switch. if the switch was changed since this one was read, a conflict is returned").
		Metadata(restfulspec.KeyOpenAPITags, tags).
		Reads(v1.SwitchUpdateRequest{}).
		Returns(http.StatusOK, "OK", v1.SwitchResponse{}).
		Returns(http.StatusConflict, "Conflict", HTTPErrorResponse{}).
		DefaultReturns("Error", HTTPErrorResponse{}))

	return ws
}

func (r *switchResource) findSwitch(request *restful.Request, response *restful.Response) {
	id := request.PathParameter("id")

	s, err := r.inventory.FindSwitch(id)
	if err != nil {
		r.sendError(request, response, defaultError(err))
		return
	}

	r.send(request, response, http.StatusOK, v1.NewSwitchResponse(s))
}

func (r *switchResource) listSwitches(request *restful.Request, response *restful.Response) {
	ss := r.inventory.ListSwitches()

	r.send(request, response, http.StatusOK, v1.NewSwitchResponseList(ss))
}

func (r *switchResource) updateSwitch(request *restful.Request, response *restful.Response) {
	var requestPayload v1.SwitchUpdateRequest
	err := request.ReadEntity(&requestPayload)
	if err != nil {
		r.sendError(request, response, BadRequest(err))
		return
	}

	var updated *topo.Switch
	err = retry.Do(
		func() error {
			old, err := r.inventory.FindSwitch(requestPayload.ID)
			if err != nil {
				return err
			}

			newSwitch := *old
			if requestPayload.Name != nil {
				newSwitch.Name = *requestPayload.Name
			}
			if requestPayload.Description != nil {
				newSwitch.Description = *requestPayload.Description
			}

			err = r.inventory.UpdateSwitch(old, &newSwitch)
			if err != nil {
				return err
			}
			updated = &newSwitch
			return nil
		},
		retry.Attempts(10),
		retry.RetryIf(func(err error) bool {
			return topo.IsConflict(err)
		}),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		r.sendError(request, response, defaultError(err))
		return
	}

	r.send(request, response, http.StatusOK, v1.NewSwitchResponse(updated))
}
