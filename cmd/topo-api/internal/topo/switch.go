package topo

import (
	"net"
	"time"
)

// Version is the negotiated OpenFlow wire protocol version of a switch
// connection. The zero value means the version was not negotiated (yet).
type Version uint8

// The protocol versions this controller speaks.
const (
	VersionUnknown Version = 0x00
	OF10           Version = 0x01
	OF13           Version = 0x04
)

// String implements the Stringer interface.
func (v Version) String() string {
	switch v {
	case OF10:
		return "OF1.0"
	case OF13:
		return "OF1.3"
	default:
		return "unknown"
	}
}

// Supported returns true for versions the probing engine can build packets for.
func (v Version) Supported() bool {
	return v == OF10 || v == OF13
}

// PortNo is a switch-scoped port number.
type PortNo uint16

// PortLocal is the reserved number of the switch-internal ("local") port.
// It never takes part in probing.
const PortLocal PortNo = 0xfffe

// A MacAddress is the type for mac adresses. When using a
// custom type, we cannot use strings directly.
type MacAddress string

// HardwareAddr parses the mac address into its 6-byte hardware form.
func (m MacAddress) HardwareAddr() (net.HardwareAddr, error) {
	return net.ParseMAC(string(m))
}

// Port is a physical network interface on a switch.
type Port struct {
	No         PortNo     `json:"no" description:"the switch-scoped port number"`
	MacAddress MacAddress `json:"macAddress" description:"the mac address of this port"`
	Name       string     `json:"name" description:"the interface name as reported by the switch"`
	Up         bool       `json:"up" description:"whether the link on this port is up"`
}

// Ports is a list of ports.
type Ports []Port

// PortMap is an indexed map of ports with the port number as the index.
type PortMap map[PortNo]*Port

// ByNo creates an indexed map from a port list.
func (ps Ports) ByNo() PortMap {
	res := make(PortMap)
	for i, p := range ps {
		res[p.No] = &ps[i]
	}
	return res
}

// Switch is the controller's view of one datapath. It is registered when
// the connection handshake completes and carries the live port table; a
// disconnect only flips the Connected flag so the entry keeps its history
// until the switch registers again.
type Switch struct {
	Base
	DPID         DPID      `json:"dpid" description:"the datapath identifier as integer"`
	ConnectionID string    `json:"connection_id" description:"the id of the current southbound connection" optional:"true"`
	Connected    bool      `json:"connected" description:"whether the switch is currently connected"`
	Version      Version   `json:"-"`
	Ports        Ports     `json:"ports" description:"the ports of this switch"`
	LastSeen     time.Time `json:"last_seen" description:"the last time a message arrived from this switch" optional:"true" readOnly:"true"`
}

// Switches is a list of switches.
type Switches []Switch

// NewSwitch creates a new switch with the given data fields.
func NewSwitch(dpid DPID, connectionID string, version Version, ports Ports) *Switch {
	if ports == nil {
		ports = make(Ports, 0)
	}
	return &Switch{
		Base: Base{
			ID:      dpid.String(),
			Name:    dpid.String(),
			Created: getNow(),
			Changed: getNow(),
		},
		DPID:         dpid,
		ConnectionID: connectionID,
		Connected:    true,
		Version:      version,
		Ports:        ports,
		LastSeen:     getNow(),
	}
}

// SetPort adds or replaces a port, keyed by its number.
func (s *Switch) SetPort(port Port) {
	for i := range s.Ports {
		if s.Ports[i].No == port.No {
			s.Ports[i] = port
			return
		}
	}
	s.Ports = append(s.Ports, port)
}

// RemovePort deletes the port with the given number, if present.
func (s *Switch) RemovePort(no PortNo) {
	for i := range s.Ports {
		if s.Ports[i].No == no {
			s.Ports = append(s.Ports[:i], s.Ports[i+1:]...)
			return
		}
	}
}
