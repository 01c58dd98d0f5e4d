// Package lldp builds and parses the probe frames the discovery engine
// sends through the network. A probe is a minimal LLDP frame whose
// chassis-id carries the origin switch's dpid and whose port-id carries
// the origin port number, both with locally-assigned subtypes. Full LLDP
// semantics are out of scope, anything not matching this encoding is
// rejected as foreign.
package lldp

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// DestinationMAC is the multicast address probes are sent to. The
// 01:80:c2:00:00:0e group is link-local, so a probe never travels
// further than the directly attached neighbor.
var DestinationMAC = net.HardwareAddr{0x01, 0x80, 0xc2, 0x00, 0x00, 0x0e}

// TTL is the time-to-live in seconds announced in outgoing probes.
const TTL uint16 = 120

const portIDLength = 2

var (
	// ErrNotLLDP is returned for frames with a non-lldp ethertype.
	ErrNotLLDP = errors.New("not an lldp frame")
	// ErrForeignFrame is returned for lldp frames whose chassis-id or
	// port-id does not use this controller's probe encoding.
	ErrForeignFrame = errors.New("lldp frame does not carry a probe")
)

// Probe identifies the (switch, port) a probe frame was sent out of.
type Probe struct {
	DPID topo.DPID
	Port topo.PortNo
}

// BuildFrame serializes a probe into an Ethernet+LLDP frame originating
// from the given source mac.
func BuildFrame(dpid topo.DPID, port topo.PortNo, src net.HardwareAddr) ([]byte, error) {
	if len(src) != 6 {
		return nil, fmt.Errorf("invalid source mac address: %q", src)
	}

	portID := make([]byte, portIDLength)
	binary.BigEndian.PutUint16(portID, uint16(port))

	eth := &layers.Ethernet{
		SrcMAC:       src,
		DstMAC:       DestinationMAC,
		EthernetType: layers.EthernetTypeLinkLayerDiscovery,
	}
	probe := &layers.LinkLayerDiscovery{
		ChassisID: layers.LLDPChassisID{
			Subtype: layers.LLDPChassisIDSubTypeLocal,
			ID:      dpid.Bytes(),
		},
		PortID: layers.LLDPPortID{
			Subtype: layers.LLDPPortIDSubtypeLocal,
			ID:      portID,
		},
		TTL: TTL,
	}

	buf := gopacket.NewSerializeBuffer()
	err := gopacket.SerializeLayers(buf, gopacket.SerializeOptions{FixLengths: true}, eth, probe)
	if err != nil {
		return nil, fmt.Errorf("unable to serialize probe frame: %w", err)
	}
	return buf.Bytes(), nil
}

// ParseFrame decodes a received frame and extracts the probe it carries.
// Frames of other ethertypes yield ErrNotLLDP, lldp traffic of other
// agents and malformed payloads yield ErrForeignFrame. Both are expected
// during normal operation and must not be treated as failures by callers.
func ParseFrame(frame []byte) (*Probe, error) {
	pkt := gopacket.NewPacket(frame, layers.LayerTypeEthernet, gopacket.Default)

	ethLayer := pkt.Layer(layers.LayerTypeEthernet)
	if ethLayer == nil {
		return nil, ErrNotLLDP
	}
	eth, _ := ethLayer.(*layers.Ethernet)
	if eth == nil || eth.EthernetType != layers.EthernetTypeLinkLayerDiscovery {
		return nil, ErrNotLLDP
	}

	lldpLayer := pkt.Layer(layers.LayerTypeLinkLayerDiscovery)
	if lldpLayer == nil {
		return nil, ErrForeignFrame
	}
	disc, _ := lldpLayer.(*layers.LinkLayerDiscovery)
	if disc == nil {
		return nil, ErrForeignFrame
	}

	if disc.ChassisID.Subtype != layers.LLDPChassisIDSubTypeLocal || len(disc.ChassisID.ID) != topo.DPIDLength {
		return nil, ErrForeignFrame
	}
	if disc.PortID.Subtype != layers.LLDPPortIDSubtypeLocal || len(disc.PortID.ID) != portIDLength {
		return nil, ErrForeignFrame
	}

	dpid, err := topo.DPIDFromBytes(disc.ChassisID.ID)
	if err != nil {
		return nil, ErrForeignFrame
	}

	return &Probe{
		DPID: dpid,
		Port: topo.PortNo(binary.BigEndian.Uint16(disc.PortID.ID)),
	}, nil
}
