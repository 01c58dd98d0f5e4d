package openflow

import (
	"encoding/binary"
	"fmt"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

const (
	oxmClassOpenflowBasic = 0x8000
	oxmFieldInPort        = 0

	// port number sentinels, the reserved range starts at max
	portMax10 = 0xff00
	portMax13 = 0xffffff00
)

// PacketIn is a frame a switch punted to the controller, normalized
// across protocol versions.
type PacketIn struct {
	BufferID uint32
	TotalLen uint16
	Reason   uint8
	InPort   topo.PortNo
	Data     []byte
}

// ParsePacketIn decodes a packet-in body of either supported version.
func ParsePacketIn(version topo.Version, payload []byte) (*PacketIn, error) {
	switch version {
	case topo.OF10:
		return parsePacketIn10(payload)
	case topo.OF13:
		return parsePacketIn13(payload)
	default:
		return nil, ErrUnsupportedVersion
	}
}

func parsePacketIn10(p []byte) (*PacketIn, error) {
	if len(p) < 10 {
		return nil, fmt.Errorf("packet-in too short: %d bytes", len(p))
	}
	return &PacketIn{
		BufferID: binary.BigEndian.Uint32(p[0:4]),
		TotalLen: binary.BigEndian.Uint16(p[4:6]),
		InPort:   topo.PortNo(binary.BigEndian.Uint16(p[6:8])),
		Reason:   p[8],
		Data:     p[10:],
	}, nil
}

// parsePacketIn13 walks the oxm match to find the mandatory in_port
// field. The frame data follows the 8-byte-aligned match plus two pad
// bytes.
func parsePacketIn13(p []byte) (*PacketIn, error) {
	if len(p) < 24 {
		return nil, fmt.Errorf("packet-in too short: %d bytes", len(p))
	}
	pi := &PacketIn{
		BufferID: binary.BigEndian.Uint32(p[0:4]),
		TotalLen: binary.BigEndian.Uint16(p[4:6]),
		Reason:   p[6],
	}

	match := p[16:]
	matchLength := int(binary.BigEndian.Uint16(match[2:4]))
	if matchLength < 4 || matchLength > len(match) {
		return nil, fmt.Errorf("invalid match length %d", matchLength)
	}

	inPort, err := matchInPort(match[4:matchLength])
	if err != nil {
		return nil, err
	}
	pi.InPort = inPort

	paddedMatch := (matchLength + 7) / 8 * 8
	dataStart := 16 + paddedMatch + 2
	if dataStart > len(p) {
		return nil, fmt.Errorf("packet-in match exceeds message: %d bytes", len(p))
	}
	pi.Data = p[dataStart:]
	return pi, nil
}

func matchInPort(oxms []byte) (topo.PortNo, error) {
	for len(oxms) >= 4 {
		class := binary.BigEndian.Uint16(oxms[0:2])
		field := oxms[2] >> 1
		hasMask := oxms[2]&0x1 != 0
		length := int(oxms[3])
		if len(oxms) < 4+length {
			return 0, fmt.Errorf("truncated oxm field %d", field)
		}
		if class == oxmClassOpenflowBasic && field == oxmFieldInPort && !hasMask && length == 4 {
			return NormalizePortNo(binary.BigEndian.Uint32(oxms[4:8]))
		}
		oxms = oxms[4+length:]
	}
	return 0, fmt.Errorf("packet-in match carries no in_port")
}

// NormalizePortNo maps a 32-bit port number of OpenFlow 1.3 onto the
// 16-bit port model. Reserved ports keep their 1.0 sentinel in the low
// 16 bits, physical numbers must fit as is.
func NormalizePortNo(p uint32) (topo.PortNo, error) {
	if p >= portMax13 {
		return topo.PortNo(p & 0xffff), nil
	}
	if p > portMax10 {
		return 0, fmt.Errorf("port number %d not representable", p)
	}
	return topo.PortNo(p), nil
}
