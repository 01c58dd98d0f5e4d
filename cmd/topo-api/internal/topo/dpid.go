package topo

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
)

// DPIDLength is the width of a datapath identifier in bytes.
const DPIDLength = 8

// A DPID is the persistent datapath identifier of a switch. On the wire
// it is a fixed-width big-endian integer, its canonical string form is
// eight colon-separated hex bytes ("00:00:00:00:00:00:00:01").
type DPID uint64

// String implements the Stringer interface.
func (d DPID) String() string {
	b := d.Bytes()
	parts := make([]string, 0, DPIDLength)
	for _, octet := range b {
		parts = append(parts, fmt.Sprintf("%02x", octet))
	}
	return strings.Join(parts, ":")
}

// Bytes returns the big-endian wire encoding of the dpid.
func (d DPID) Bytes() []byte {
	b := make([]byte, DPIDLength)
	binary.BigEndian.PutUint64(b, uint64(d))
	return b
}

// ParseDPID parses the canonical colon-separated string form of a dpid.
func ParseDPID(s string) (DPID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != DPIDLength {
		return 0, fmt.Errorf("invalid dpid %q: expected %d octets, got %d", s, DPIDLength, len(parts))
	}
	var d uint64
	for _, part := range parts {
		octet, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return 0, fmt.Errorf("invalid dpid %q: %w", s, err)
		}
		d = d<<8 | octet
	}
	return DPID(d), nil
}

// DPIDFromBytes decodes a dpid from its big-endian wire encoding. The
// input must be exactly eight bytes wide, everything else is rejected.
func DPIDFromBytes(b []byte) (DPID, error) {
	if len(b) != DPIDLength {
		return 0, fmt.Errorf("invalid dpid encoding: expected %d bytes, got %d", DPIDLength, len(b))
	}
	return DPID(binary.BigEndian.Uint64(b)), nil
}
