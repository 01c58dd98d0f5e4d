// Package openflow implements the subset of the OpenFlow 1.0 (wire 0x01)
// and 1.3 (wire 0x04) protocols this controller speaks: the handshake
// messages, echo keepalive, packet-in/packet-out and the port table
// messages. Message type codes happen to be identical in both versions
// for everything used here, only the body layouts differ.
package openflow

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// MessageType identifies an OpenFlow message within a version.
type MessageType uint8

const (
	TypeHello           MessageType = 0
	TypeError           MessageType = 1
	TypeEchoRequest     MessageType = 2
	TypeEchoReply       MessageType = 3
	TypeFeaturesRequest MessageType = 5
	TypeFeaturesReply   MessageType = 6
	TypePacketIn        MessageType = 10
	TypePortStatus      MessageType = 12
	TypePacketOut       MessageType = 13
	TypeMultipartReq    MessageType = 18
	TypeMultipartReply  MessageType = 19
)

// String implements the Stringer interface.
func (t MessageType) String() string {
	switch t {
	case TypeHello:
		return "hello"
	case TypeError:
		return "error"
	case TypeEchoRequest:
		return "echo_request"
	case TypeEchoReply:
		return "echo_reply"
	case TypeFeaturesRequest:
		return "features_request"
	case TypeFeaturesReply:
		return "features_reply"
	case TypePacketIn:
		return "packet_in"
	case TypePortStatus:
		return "port_status"
	case TypePacketOut:
		return "packet_out"
	case TypeMultipartReq:
		return "multipart_request"
	case TypeMultipartReply:
		return "multipart_reply"
	default:
		return fmt.Sprintf("type_%d", uint8(t))
	}
}

// headerLength is the fixed width of the message header, shared by all
// protocol versions.
const headerLength = 8

// maxMessageLength caps what ReadMessage accepts, a switch announcing
// more is talking garbage.
const maxMessageLength = 1 << 16

// ErrUnsupportedVersion is returned when no wire format exists for the
// requested protocol version.
var ErrUnsupportedVersion = errors.New("unsupported protocol version")

// Header is the version-independent prefix of every message.
type Header struct {
	Version topo.Version
	Type    MessageType
	Length  uint16
	XID     uint32
}

func (h Header) encode() []byte {
	b := make([]byte, headerLength)
	b[0] = byte(h.Version)
	b[1] = byte(h.Type)
	binary.BigEndian.PutUint16(b[2:4], h.Length)
	binary.BigEndian.PutUint32(b[4:8], h.XID)
	return b
}

func decodeHeader(b []byte) (Header, error) {
	if len(b) < headerLength {
		return Header{}, fmt.Errorf("message header too short: %d bytes", len(b))
	}
	return Header{
		Version: topo.Version(b[0]),
		Type:    MessageType(b[1]),
		Length:  binary.BigEndian.Uint16(b[2:4]),
		XID:     binary.BigEndian.Uint32(b[4:8]),
	}, nil
}

// Message is one received message, header plus undecoded body.
type Message struct {
	Header
	Payload []byte
}

// ReadMessage reads exactly one length-prefixed message from the stream.
func ReadMessage(r io.Reader) (*Message, error) {
	hdr := make([]byte, headerLength)
	if _, err := io.ReadFull(r, hdr); err != nil {
		return nil, err
	}
	h, err := decodeHeader(hdr)
	if err != nil {
		return nil, err
	}
	if h.Length < headerLength || int(h.Length) > maxMessageLength {
		return nil, fmt.Errorf("invalid message length %d", h.Length)
	}
	payload := make([]byte, int(h.Length)-headerLength)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, err
	}
	return &Message{Header: h, Payload: payload}, nil
}

var xidCounter uint32

// NextXID returns a process-wide unique transaction id.
func NextXID() uint32 {
	return atomic.AddUint32(&xidCounter, 1)
}

func encodeMessage(version topo.Version, t MessageType, xid uint32, body []byte) []byte {
	h := Header{
		Version: version,
		Type:    t,
		Length:  uint16(headerLength + len(body)),
		XID:     xid,
	}
	return append(h.encode(), body...)
}

// BuildHello builds a version announcement. Hello elements of newer
// versions are not emitted, a bare header is valid in both versions.
func BuildHello(version topo.Version, xid uint32) []byte {
	return encodeMessage(version, TypeHello, xid, nil)
}

// BuildFeaturesRequest builds the datapath identity request sent after
// the hello exchange.
func BuildFeaturesRequest(version topo.Version, xid uint32) []byte {
	return encodeMessage(version, TypeFeaturesRequest, xid, nil)
}

// BuildEchoRequest builds a keepalive request.
func BuildEchoRequest(version topo.Version, xid uint32) []byte {
	return encodeMessage(version, TypeEchoRequest, xid, nil)
}

// BuildEchoReply answers a keepalive of the switch, echoing its payload.
func BuildEchoReply(version topo.Version, xid uint32, payload []byte) []byte {
	return encodeMessage(version, TypeEchoReply, xid, payload)
}

// Error type and code emitted when version negotiation fails.
const (
	ErrTypeHelloFailed  uint16 = 0
	ErrCodeIncompatible uint16 = 0
)

// BuildError builds an error message reporting a failure to the switch.
func BuildError(version topo.Version, xid uint32, errType uint16, code uint16, data []byte) []byte {
	body := make([]byte, 4+len(data))
	binary.BigEndian.PutUint16(body[0:2], errType)
	binary.BigEndian.PutUint16(body[2:4], code)
	copy(body[4:], data)
	return encodeMessage(version, TypeError, xid, body)
}

// ErrorMessage is a failure report of the switch.
type ErrorMessage struct {
	Type uint16
	Code uint16
	Data []byte
}

// ParseError decodes the body of an error message.
func ParseError(payload []byte) (*ErrorMessage, error) {
	if len(payload) < 4 {
		return nil, fmt.Errorf("error message too short: %d bytes", len(payload))
	}
	return &ErrorMessage{
		Type: binary.BigEndian.Uint16(payload[0:2]),
		Code: binary.BigEndian.Uint16(payload[2:4]),
		Data: payload[4:],
	}, nil
}
