package v1

import (
	"time"

	"github.com/samber/lo"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

type SwitchPort struct {
	No         uint16 `json:"no" description:"the switch-scoped port number"`
	MacAddress string `json:"mac" description:"the mac address of this port"`
	Name       string `json:"name" description:"the interface name as reported by the switch"`
	Up         bool   `json:"up" description:"whether the link on this port is up"`
}

type SwitchPorts []SwitchPort

type SwitchResponse struct {
	Common
	DPID         string      `json:"dpid" description:"the datapath identifier of this switch"`
	ConnectionID string      `json:"connection_id,omitempty" description:"the id of the current southbound connection" optional:"true"`
	Connected    bool        `json:"connected" description:"whether the switch is currently connected"`
	Version      string      `json:"version" description:"the negotiated protocol version"`
	Ports        SwitchPorts `json:"ports" description:"the ports of this switch"`
	LastSeen     time.Time   `json:"last_seen" description:"the last time a message arrived from this switch" readOnly:"true"`
	Timestamps
}

type SwitchUpdateRequest struct {
	Common
}

func NewSwitchResponse(s *topo.Switch) *SwitchResponse {
	if s == nil {
		return nil
	}

	name := s.Name
	description := s.Description

	return &SwitchResponse{
		Common: Common{
			Identifiable: Identifiable{ID: s.ID},
			Describable:  Describable{Name: &name, Description: &description},
		},
		DPID:         s.DPID.String(),
		ConnectionID: s.ConnectionID,
		Connected:    s.Connected,
		Version:      s.Version.String(),
		Ports: lo.Map(s.Ports, func(p topo.Port, _ int) SwitchPort {
			return SwitchPort{
				No:         uint16(p.No),
				MacAddress: string(p.MacAddress),
				Name:       p.Name,
				Up:         p.Up,
			}
		}),
		LastSeen: s.LastSeen,
		Timestamps: Timestamps{
			Created: s.Created,
			Changed: s.Changed,
		},
	}
}

func NewSwitchResponseList(ss topo.Switches) []SwitchResponse {
	return lo.Map(ss, func(s topo.Switch, _ int) SwitchResponse {
		return *NewSwitchResponse(&s)
	})
}
