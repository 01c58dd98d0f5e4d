package topo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDPIDString(t *testing.T) {
	tests := []struct {
		name string
		dpid DPID
		want string
	}{
		{
			name: "one",
			dpid: 0x1,
			want: "00:00:00:00:00:00:00:01",
		},
		{
			name: "all octets used",
			dpid: 0x0102030405060708,
			want: "01:02:03:04:05:06:07:08",
		},
		{
			name: "max",
			dpid: 0xffffffffffffffff,
			want: "ff:ff:ff:ff:ff:ff:ff:ff",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tt.dpid.String())

			parsed, err := ParseDPID(tt.want)
			require.NoError(t, err)
			require.Equal(t, tt.dpid, parsed)
		})
	}
}

func TestParseDPIDInvalid(t *testing.T) {
	tests := []struct {
		name string
		s    string
	}{
		{name: "empty", s: ""},
		{name: "too few octets", s: "00:00:01"},
		{name: "too many octets", s: "00:00:00:00:00:00:00:00:01"},
		{name: "no hex", s: "00:00:00:00:00:00:00:zz"},
		{name: "octet out of range", s: "00:00:00:00:00:00:00:100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDPID(tt.s)
			require.Error(t, err)
		})
	}
}

func TestDPIDBytes(t *testing.T) {
	d := DPID(0x1)
	require.Equal(t, []byte{0, 0, 0, 0, 0, 0, 0, 1}, d.Bytes())

	back, err := DPIDFromBytes(d.Bytes())
	require.NoError(t, err)
	require.Equal(t, d, back)
}

func TestDPIDFromBytesWrongWidth(t *testing.T) {
	_, err := DPIDFromBytes([]byte{0, 1})
	assert.Error(t, err)

	_, err = DPIDFromBytes(nil)
	assert.Error(t, err)

	_, err = DPIDFromBytes(make([]byte, 9))
	assert.Error(t, err)
}
