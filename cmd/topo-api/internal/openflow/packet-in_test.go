package openflow

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

func packetIn10Payload(inPort uint16, data []byte) []byte {
	p := make([]byte, 10)
	binary.BigEndian.PutUint32(p[0:4], 0xffffffff)
	binary.BigEndian.PutUint16(p[4:6], uint16(len(data)))
	binary.BigEndian.PutUint16(p[6:8], inPort)
	p[8] = 1
	return append(p, data...)
}

func oxm(class uint16, field uint8, value []byte) []byte {
	b := make([]byte, 4, 4+len(value))
	binary.BigEndian.PutUint16(b[0:2], class)
	b[2] = field << 1
	b[3] = byte(len(value))
	return append(b, value...)
}

func packetIn13Payload(oxms [][]byte, data []byte) []byte {
	fixed := make([]byte, 16)
	binary.BigEndian.PutUint32(fixed[0:4], 0xffffffff)
	binary.BigEndian.PutUint16(fixed[4:6], uint16(len(data)))
	fixed[6] = 1

	match := make([]byte, 4)
	binary.BigEndian.PutUint16(match[0:2], 1)
	for _, o := range oxms {
		match = append(match, o...)
	}
	binary.BigEndian.PutUint16(match[2:4], uint16(len(match)))
	for len(match)%8 != 0 {
		match = append(match, 0)
	}

	payload := append(fixed, match...)
	payload = append(payload, 0, 0)
	return append(payload, data...)
}

func TestParsePacketIn10(t *testing.T) {
	data := []byte{0xaa, 0xbb, 0xcc}
	pi, err := ParsePacketIn(topo.OF10, packetIn10Payload(7, data))
	require.NoError(t, err)

	require.Equal(t, topo.PortNo(7), pi.InPort)
	require.Equal(t, uint32(0xffffffff), pi.BufferID)
	require.Equal(t, uint16(3), pi.TotalLen)
	require.Equal(t, uint8(1), pi.Reason)
	require.Equal(t, data, pi.Data)
}

func TestParsePacketIn13(t *testing.T) {
	data := []byte{0xaa, 0xbb, 0xcc, 0xdd}
	inPort := oxm(0x8000, 0, []byte{0x00, 0x00, 0x00, 0x07})

	pi, err := ParsePacketIn(topo.OF13, packetIn13Payload([][]byte{inPort}, data))
	require.NoError(t, err)

	require.Equal(t, topo.PortNo(7), pi.InPort)
	require.Equal(t, uint8(1), pi.Reason)
	require.Equal(t, data, pi.Data)
}

func TestParsePacketIn13SkipsOtherMatchFields(t *testing.T) {
	data := []byte{0x01}
	phyPort := oxm(0x8000, 1, []byte{0x00, 0x00, 0x00, 0x09})
	inPort := oxm(0x8000, 0, []byte{0x00, 0x00, 0x00, 0x03})

	pi, err := ParsePacketIn(topo.OF13, packetIn13Payload([][]byte{phyPort, inPort}, data))
	require.NoError(t, err)

	require.Equal(t, topo.PortNo(3), pi.InPort)
	require.Equal(t, data, pi.Data)
}

func TestParsePacketIn13WithoutInPort(t *testing.T) {
	phyPort := oxm(0x8000, 1, []byte{0x00, 0x00, 0x00, 0x09})
	_, err := ParsePacketIn(topo.OF13, packetIn13Payload([][]byte{phyPort}, nil))
	require.Error(t, err)
}

func TestParsePacketInTruncated(t *testing.T) {
	_, err := ParsePacketIn(topo.OF10, []byte{0x01, 0x02})
	require.Error(t, err)

	_, err = ParsePacketIn(topo.OF13, []byte{0x01, 0x02, 0x03})
	require.Error(t, err)

	inPort := oxm(0x8000, 0, []byte{0x00, 0x00, 0x00, 0x07})
	payload := packetIn13Payload([][]byte{inPort}, nil)
	_, err = ParsePacketIn(topo.OF13, payload[:20])
	require.Error(t, err)
}

func TestParsePacketInUnsupportedVersion(t *testing.T) {
	_, err := ParsePacketIn(topo.VersionUnknown, packetIn10Payload(1, nil))
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}
