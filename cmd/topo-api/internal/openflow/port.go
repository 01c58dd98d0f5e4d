package openflow

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"net"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

const (
	portLength10 = 48
	portLength13 = 64

	configPortDown = 1 << 0
	stateLinkDown  = 1 << 0
)

// Port status reasons.
const (
	PortAdd    uint8 = 0
	PortDelete uint8 = 1
	PortModify uint8 = 2
)

// MultipartPortDesc is the multipart subtype carrying the port table of
// a 1.3 switch, which no longer ships it in the features reply.
const MultipartPortDesc uint16 = 13

// MultipartReplyMore flags a multipart reply as partial, more parts of
// the same table follow in further replies.
const MultipartReplyMore uint16 = 1 << 0

// FeaturesReply is the identity a switch announces during the handshake.
type FeaturesReply struct {
	DPID         topo.DPID
	NBuffers     uint32
	NTables      uint8
	AuxiliaryID  uint8
	Capabilities uint32
	Ports        topo.Ports
}

// ParseFeaturesReply decodes a features reply body. For 1.0 this
// includes the port table, 1.3 delivers ports via port-desc instead.
func ParseFeaturesReply(version topo.Version, payload []byte) (*FeaturesReply, error) {
	if len(payload) < 24 {
		return nil, fmt.Errorf("features reply too short: %d bytes", len(payload))
	}
	dpid, err := topo.DPIDFromBytes(payload[0:8])
	if err != nil {
		return nil, err
	}
	reply := &FeaturesReply{
		DPID:         dpid,
		NBuffers:     binary.BigEndian.Uint32(payload[8:12]),
		NTables:      payload[12],
		Capabilities: binary.BigEndian.Uint32(payload[16:20]),
		Ports:        topo.Ports{},
	}

	switch version {
	case topo.OF10:
		ports, err := parsePorts(payload[24:], portLength10, parsePort10)
		if err != nil {
			return nil, err
		}
		reply.Ports = ports
	case topo.OF13:
		reply.AuxiliaryID = payload[13]
	default:
		return nil, ErrUnsupportedVersion
	}
	return reply, nil
}

// BuildPortDescRequest builds the multipart request for the port table
// of a 1.3 switch.
func BuildPortDescRequest(xid uint32) []byte {
	body := make([]byte, 8)
	binary.BigEndian.PutUint16(body[0:2], MultipartPortDesc)
	return encodeMessage(topo.OF13, TypeMultipartReq, xid, body)
}

// MultipartReply is a decoded multipart reply envelope.
type MultipartReply struct {
	Type  uint16
	Flags uint16
	Body  []byte
}

// ParseMultipartReply decodes the multipart envelope, the body stays raw.
func ParseMultipartReply(payload []byte) (*MultipartReply, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("multipart reply too short: %d bytes", len(payload))
	}
	return &MultipartReply{
		Type:  binary.BigEndian.Uint16(payload[0:2]),
		Flags: binary.BigEndian.Uint16(payload[2:4]),
		Body:  payload[8:],
	}, nil
}

// ParsePortDescPorts decodes the port list of a port-desc multipart body.
func ParsePortDescPorts(body []byte) (topo.Ports, error) {
	return parsePorts(body, portLength13, parsePort13)
}

// PortStatus announces a change to a single port.
type PortStatus struct {
	Reason uint8
	Port   topo.Port
}

// ParsePortStatus decodes a port status body of either supported version.
func ParsePortStatus(version topo.Version, payload []byte) (*PortStatus, error) {
	if len(payload) < 8 {
		return nil, fmt.Errorf("port status too short: %d bytes", len(payload))
	}
	status := &PortStatus{Reason: payload[0]}

	var (
		port topo.Port
		err  error
	)
	switch version {
	case topo.OF10:
		port, err = parsePort10(payload[8:])
	case topo.OF13:
		port, err = parsePort13(payload[8:])
	default:
		return nil, ErrUnsupportedVersion
	}
	if err != nil {
		return nil, err
	}
	status.Port = port
	return status, nil
}

func parsePorts(b []byte, portLength int, parse func([]byte) (topo.Port, error)) (topo.Ports, error) {
	if len(b)%portLength != 0 {
		return nil, fmt.Errorf("port list length %d is no multiple of %d", len(b), portLength)
	}
	ports := make(topo.Ports, 0, len(b)/portLength)
	for o := 0; o < len(b); o += portLength {
		port, err := parse(b[o : o+portLength])
		if err != nil {
			return nil, err
		}
		ports = append(ports, port)
	}
	return ports, nil
}

func parsePort10(b []byte) (topo.Port, error) {
	if len(b) < portLength10 {
		return topo.Port{}, fmt.Errorf("port too short: %d bytes", len(b))
	}
	config := binary.BigEndian.Uint32(b[24:28])
	state := binary.BigEndian.Uint32(b[28:32])
	return topo.Port{
		No:         topo.PortNo(binary.BigEndian.Uint16(b[0:2])),
		MacAddress: topo.MacAddress(net.HardwareAddr(b[2:8]).String()),
		Name:       portName(b[8:24]),
		Up:         config&configPortDown == 0 && state&stateLinkDown == 0,
	}, nil
}

func parsePort13(b []byte) (topo.Port, error) {
	if len(b) < portLength13 {
		return topo.Port{}, fmt.Errorf("port too short: %d bytes", len(b))
	}
	no, err := NormalizePortNo(binary.BigEndian.Uint32(b[0:4]))
	if err != nil {
		return topo.Port{}, err
	}
	config := binary.BigEndian.Uint32(b[32:36])
	state := binary.BigEndian.Uint32(b[36:40])
	return topo.Port{
		No:         no,
		MacAddress: topo.MacAddress(net.HardwareAddr(b[8:14]).String()),
		Name:       portName(b[16:32]),
		Up:         config&configPortDown == 0 && state&stateLinkDown == 0,
	}, nil
}

func portName(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	return string(b)
}
