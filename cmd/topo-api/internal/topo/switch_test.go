package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSwitch(t *testing.T) {
	s := NewSwitch(0x1, "conn-1", OF13, nil)

	require.Equal(t, "00:00:00:00:00:00:00:01", s.ID)
	require.Equal(t, DPID(0x1), s.DPID)
	require.Equal(t, "conn-1", s.ConnectionID)
	require.True(t, s.Connected)
	require.Equal(t, OF13, s.Version)
	require.NotNil(t, s.Ports)
	require.Empty(t, s.Ports)
	require.False(t, s.Created.IsZero())
}

func TestSwitchSetPort(t *testing.T) {
	s := NewSwitch(0x1, "conn-1", OF10, Ports{
		{No: 1, Name: "eth1"},
		{No: 2, Name: "eth2"},
	})

	s.SetPort(Port{No: 2, Name: "renamed", Up: true})
	s.SetPort(Port{No: 3, Name: "eth3"})

	byNo := s.Ports.ByNo()
	require.Len(t, s.Ports, 3)
	require.Equal(t, "renamed", byNo[2].Name)
	require.True(t, byNo[2].Up)
	require.Equal(t, "eth3", byNo[3].Name)
}

func TestSwitchRemovePort(t *testing.T) {
	s := NewSwitch(0x1, "conn-1", OF10, Ports{
		{No: 1, Name: "eth1"},
		{No: 2, Name: "eth2"},
	})

	s.RemovePort(1)
	s.RemovePort(42)

	require.Len(t, s.Ports, 1)
	require.Equal(t, PortNo(2), s.Ports[0].No)
}

func TestVersionSupported(t *testing.T) {
	assert.True(t, OF10.Supported())
	assert.True(t, OF13.Supported())
	assert.False(t, VersionUnknown.Supported())
	assert.False(t, Version(0x05).Supported())
}

func TestVersionString(t *testing.T) {
	assert.Equal(t, "OF1.0", OF10.String())
	assert.Equal(t, "OF1.3", OF13.String())
	assert.Equal(t, "unknown", VersionUnknown.String())
}

func TestMacAddressHardwareAddr(t *testing.T) {
	hw, err := MacAddress("aa:bb:cc:dd:ee:01").HardwareAddr()
	require.NoError(t, err)
	require.Equal(t, []byte{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0x01}, []byte(hw))

	_, err = MacAddress("not a mac").HardwareAddr()
	require.Error(t, err)
}
