package topo

// LinkEndpoint is one end of a discovered link.
type LinkEndpoint struct {
	SwitchID string `json:"switch" description:"the id of the switch at this end"`
	Port     PortNo `json:"port" description:"the port number at this end"`
}

// LinkEvent is propagated for every correlated probe, one event per
// received frame. The pair is unordered, consumers own deduplication.
type LinkEvent struct {
	EndpointA LinkEndpoint `json:"endpoint_a"`
	EndpointB LinkEndpoint `json:"endpoint_b"`
}

// SwitchEvent is propagated when a switch connects, disconnects or
// changes its port table.
type SwitchEvent struct {
	Type     EventType `json:"type"`
	SwitchID string    `json:"switch"`
	Version  string    `json:"version"`
	Ports    int       `json:"ports"`
}

// FrameEvent carries one raw frame received from a switch and where it
// arrived. The transport hands it to its packet-in subscribers with the
// protocol version already normalized away.
type FrameEvent struct {
	ConnectionID string
	SwitchID     string
	InPort       PortNo
	Data         []byte
}
