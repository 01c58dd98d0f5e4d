package openflow

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

func TestBuildPacketOut10(t *testing.T) {
	frame := []byte{0xde, 0xad, 0xbe, 0xef}

	msg, err := BuildPacketOut(topo.OF10, 3, frame)
	require.NoError(t, err)
	require.Len(t, msg, 24+len(frame))

	require.Equal(t, byte(0x01), msg[0])
	require.Equal(t, byte(TypePacketOut), msg[1])
	require.Equal(t, uint16(len(msg)), binary.BigEndian.Uint16(msg[2:4]))

	require.Equal(t, uint32(0xffffffff), binary.BigEndian.Uint32(msg[8:12]), "buffer_id must be no-buffer")
	require.Equal(t, uint16(0xffff), binary.BigEndian.Uint16(msg[12:14]), "in_port must be none")
	require.Equal(t, uint16(8), binary.BigEndian.Uint16(msg[14:16]), "actions_len")

	action := msg[16:24]
	require.Equal(t, uint16(0), binary.BigEndian.Uint16(action[0:2]), "action type output")
	require.Equal(t, uint16(8), binary.BigEndian.Uint16(action[2:4]), "action length")
	require.Equal(t, uint16(3), binary.BigEndian.Uint16(action[4:6]), "output port")
	require.Equal(t, uint16(0), binary.BigEndian.Uint16(action[6:8]), "max_len")

	require.Equal(t, frame, msg[24:])
}

func TestBuildPacketOut13(t *testing.T) {
	frame := []byte{0xde, 0xad, 0xbe, 0xef}

	msg, err := BuildPacketOut(topo.OF13, 7, frame)
	require.NoError(t, err)
	require.Len(t, msg, 40+len(frame))

	require.Equal(t, byte(0x04), msg[0])
	require.Equal(t, byte(TypePacketOut), msg[1])
	require.Equal(t, uint16(len(msg)), binary.BigEndian.Uint16(msg[2:4]))

	require.Equal(t, uint32(0xffffffff), binary.BigEndian.Uint32(msg[8:12]), "buffer_id must be no-buffer")
	require.Equal(t, uint32(0xfffffffd), binary.BigEndian.Uint32(msg[12:16]), "in_port must be controller")
	require.Equal(t, uint16(16), binary.BigEndian.Uint16(msg[16:18]), "actions_len")
	require.Equal(t, make([]byte, 6), msg[18:24], "padding")

	action := msg[24:40]
	require.Equal(t, uint16(0), binary.BigEndian.Uint16(action[0:2]), "action type output")
	require.Equal(t, uint16(16), binary.BigEndian.Uint16(action[2:4]), "action length")
	require.Equal(t, uint32(7), binary.BigEndian.Uint32(action[4:8]), "output port")
	require.Equal(t, uint16(0), binary.BigEndian.Uint16(action[8:10]), "max_len")
	require.Equal(t, make([]byte, 6), action[10:16], "padding")

	require.Equal(t, frame, msg[40:])
}

func TestBuildPacketOutUnsupportedVersion(t *testing.T) {
	_, err := BuildPacketOut(topo.VersionUnknown, 3, []byte{0x01})
	require.ErrorIs(t, err, ErrUnsupportedVersion)

	_, err = BuildPacketOut(topo.Version(0x05), 3, []byte{0x01})
	require.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestBuildPacketOutXIDsDiffer(t *testing.T) {
	first, err := BuildPacketOut(topo.OF13, 1, nil)
	require.NoError(t, err)
	second, err := BuildPacketOut(topo.OF13, 1, nil)
	require.NoError(t, err)

	require.NotEqual(t, binary.BigEndian.Uint32(first[4:8]), binary.BigEndian.Uint32(second[4:8]))
}
