package openflow

import (
	"encoding/binary"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

const (
	noBuffer = 0xffffffff

	// packet-out in_port when the frame does not come from a buffer
	portNone10       = 0xffff
	portController13 = 0xfffffffd

	actionTypeOutput = 0
	actionLength10   = 8
	actionLength13   = 16
)

type packetOutBuilder func(xid uint32, outPort topo.PortNo, frame []byte) []byte

// packetOutBuilders maps every supported protocol version to its wire
// format. Adding a version is an insertion here plus a builder func,
// callers never branch on the version themselves.
var packetOutBuilders = map[topo.Version]packetOutBuilder{
	topo.OF10: buildPacketOut10,
	topo.OF13: buildPacketOut13,
}

// BuildPacketOut wraps a serialized frame into a packet-out message with
// a single output action targeting the given port. Versions without a
// registered wire format yield ErrUnsupportedVersion, which callers are
// expected to treat as skip, not as failure.
func BuildPacketOut(version topo.Version, outPort topo.PortNo, frame []byte) ([]byte, error) {
	builder, ok := packetOutBuilders[version]
	if !ok {
		return nil, ErrUnsupportedVersion
	}
	return builder(NextXID(), outPort, frame), nil
}

func buildPacketOut10(xid uint32, outPort topo.PortNo, frame []byte) []byte {
	body := make([]byte, 8+actionLength10, 8+actionLength10+len(frame))
	binary.BigEndian.PutUint32(body[0:4], noBuffer)
	binary.BigEndian.PutUint16(body[4:6], portNone10)
	binary.BigEndian.PutUint16(body[6:8], actionLength10)

	action := body[8:]
	binary.BigEndian.PutUint16(action[0:2], actionTypeOutput)
	binary.BigEndian.PutUint16(action[2:4], actionLength10)
	binary.BigEndian.PutUint16(action[4:6], uint16(outPort))
	binary.BigEndian.PutUint16(action[6:8], 0) // max_len, unused for concrete ports

	body = append(body, frame...)
	return encodeMessage(topo.OF10, TypePacketOut, xid, body)
}

func buildPacketOut13(xid uint32, outPort topo.PortNo, frame []byte) []byte {
	body := make([]byte, 16+actionLength13, 16+actionLength13+len(frame))
	binary.BigEndian.PutUint32(body[0:4], noBuffer)
	binary.BigEndian.PutUint32(body[4:8], portController13)
	binary.BigEndian.PutUint16(body[8:10], actionLength13)
	// body[10:16] is padding

	action := body[16:]
	binary.BigEndian.PutUint16(action[0:2], actionTypeOutput)
	binary.BigEndian.PutUint16(action[2:4], actionLength13)
	binary.BigEndian.PutUint32(action[4:8], uint32(outPort))
	binary.BigEndian.PutUint16(action[8:10], 0) // max_len, unused for concrete ports
	// action[10:16] is padding

	body = append(body, frame...)
	return encodeMessage(topo.OF13, TypePacketOut, xid, body)
}
