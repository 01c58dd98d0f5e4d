package transport

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/looplab/fsm"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/openflow"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

const (
	// handshakeTimeout bounds the whole handshake, a switch not
	// established by then is cut off.
	handshakeTimeout = 10 * time.Second

	writeTimeout = 5 * time.Second
)

// connection is one switch connection. All message handling runs on the
// single read goroutine, the keepalive goroutine and the hub only write.
type connection struct {
	id     string
	server *Server
	conn   net.Conn
	log    *slog.Logger

	machine *fsm.FSM

	writeMu sync.Mutex

	mu       sync.Mutex
	version  topo.Version
	dpid     topo.DPID
	switchID string
	ports    topo.Ports

	closeOnce sync.Once
	closed    chan struct{}
}

func newConnection(id string, server *Server, conn net.Conn) *connection {
	c := &connection{
		id:     id,
		server: server,
		conn:   conn,
		log:    server.log.With("connection", id, "remote", conn.RemoteAddr().String()),
		closed: make(chan struct{}),
	}
	c.machine = newHandshakeFSM(c)
	return c
}

// serve greets the switch and then reads messages until the connection
// dies. It owns the connection teardown.
func (c *connection) serve() {
	defer c.close()

	c.log.Info("switch connected")

	_ = c.conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	if err := c.send(openflow.BuildHello(topo.OF13, openflow.NextXID())); err != nil {
		c.log.Warn("cannot greet switch", "error", err)
		return
	}

	go c.keepalive()

	for {
		msg, err := openflow.ReadMessage(c.conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.log.Debug("connection read ended", "error", err)
			}
			return
		}
		c.handle(msg)
	}
}

// send writes one serialized message. Writes of the read loop, the
// keepalive loop and the hub are serialized here.
func (c *connection) send(message []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	_, err := c.conn.Write(message)
	return err
}

// keepalive sends periodic echo requests once the connection is
// established. Dead peers are detected by the read deadline, which only
// moves when messages actually arrive.
func (c *connection) keepalive() {
	ticker := time.NewTicker(c.server.echoInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			if !c.machine.Is(stateEstablished) {
				continue
			}
			if err := c.send(openflow.BuildEchoRequest(c.negotiatedVersion(), openflow.NextXID())); err != nil {
				c.log.Debug("echo request failed, closing connection", "error", err)
				c.close()
				return
			}
		}
	}
}

func (c *connection) handle(msg *openflow.Message) {
	if c.machine.Is(stateEstablished) {
		_ = c.conn.SetReadDeadline(time.Now().Add(3 * c.server.echoInterval))
	}

	switch msg.Type {
	case openflow.TypeHello:
		c.handleHello(msg)
	case openflow.TypeEchoRequest:
		if err := c.send(openflow.BuildEchoReply(msg.Version, msg.XID, msg.Payload)); err != nil {
			c.log.Debug("cannot answer echo request", "error", err)
		}
	case openflow.TypeEchoReply:
	case openflow.TypeError:
		c.handleError(msg)
	case openflow.TypeFeaturesReply:
		c.handleFeaturesReply(msg)
	case openflow.TypeMultipartReply:
		c.handleMultipartReply(msg)
	case openflow.TypePacketIn:
		c.handlePacketIn(msg)
	case openflow.TypePortStatus:
		c.handlePortStatus(msg)
	default:
		c.log.Debug("ignoring message", "type", msg.Type.String())
	}

	if id := c.registeredSwitchID(); id != "" {
		c.server.inventory.MarkSeen(id)
	}
}

// handleHello negotiates the protocol version. Without hello elements
// the negotiated version is the smaller of both announcements, anything
// outside the supported set is answered with a hello failure.
func (c *connection) handleHello(msg *openflow.Message) {
	if err := c.machine.Event(eventHello); err != nil {
		c.fail("unexpected hello", err)
		return
	}

	version := msg.Version
	if version > topo.OF13 {
		version = topo.OF13
	}
	if !version.Supported() {
		c.log.Warn("no common protocol version with switch", "announced", fmt.Sprintf("%#x", uint8(msg.Version)))
		_ = c.send(openflow.BuildError(msg.Version, msg.XID, openflow.ErrTypeHelloFailed, openflow.ErrCodeIncompatible, []byte("unsupported version")))
		c.fail("version negotiation failed", openflow.ErrUnsupportedVersion)
		return
	}

	c.mu.Lock()
	c.version = version
	c.mu.Unlock()
	c.log.Debug("negotiated protocol version", "version", version.String())

	if err := c.send(openflow.BuildFeaturesRequest(version, openflow.NextXID())); err != nil {
		c.fail("cannot request features", err)
	}
}

// handleFeaturesReply learns the datapath identity. A 1.0 switch ships
// its port table inline and is established right away, a 1.3 switch
// gets asked for its ports separately.
func (c *connection) handleFeaturesReply(msg *openflow.Message) {
	if err := c.machine.Event(eventIdentify); err != nil {
		c.fail("unexpected features reply", err)
		return
	}

	version := c.negotiatedVersion()
	features, err := openflow.ParseFeaturesReply(version, msg.Payload)
	if err != nil {
		c.fail("cannot parse features reply", err)
		return
	}

	c.mu.Lock()
	c.dpid = features.DPID
	c.ports = features.Ports
	c.mu.Unlock()

	switch version {
	case topo.OF10:
		if err := c.machine.Event(eventEstablish); err != nil {
			c.fail("cannot establish connection", err)
		}
	case topo.OF13:
		if err := c.send(openflow.BuildPortDescRequest(openflow.NextXID())); err != nil {
			c.fail("cannot request port table", err)
		}
	}
}

// handleMultipartReply collects the port table parts of a 1.3 switch.
// The switch may split the table over several replies, the connection is
// established with the last part.
func (c *connection) handleMultipartReply(msg *openflow.Message) {
	if c.machine.Is(stateEstablished) {
		c.log.Debug("ignoring multipart reply on established connection")
		return
	}

	mp, err := openflow.ParseMultipartReply(msg.Payload)
	if err != nil {
		c.fail("cannot parse multipart reply", err)
		return
	}
	if mp.Type != openflow.MultipartPortDesc {
		c.log.Debug("ignoring multipart reply", "multipart-type", mp.Type)
		return
	}

	ports, err := openflow.ParsePortDescPorts(mp.Body)
	if err != nil {
		c.fail("cannot parse port table", err)
		return
	}

	c.mu.Lock()
	c.ports = append(c.ports, ports...)
	c.mu.Unlock()

	if mp.Flags&openflow.MultipartReplyMore != 0 {
		return
	}
	if err := c.machine.Event(eventEstablish); err != nil {
		c.fail("cannot establish connection", err)
	}
}

// established registers the switch in the inventory and announces it.
// Runs as state machine callback on entering the established state.
func (c *connection) established(_ *fsm.Event) {
	c.mu.Lock()
	sw := topo.NewSwitch(c.dpid, c.id, c.version, c.ports)
	c.mu.Unlock()

	stored := c.server.inventory.UpsertSwitch(sw)

	c.mu.Lock()
	c.switchID = stored.ID
	c.mu.Unlock()

	_ = c.conn.SetReadDeadline(time.Now().Add(3 * c.server.echoInterval))
	c.server.switchConnected(stored)
	c.log.Info("switch established", "switch", stored.ID, "version", stored.Version.String(), "ports", len(stored.Ports))
}

func (c *connection) handlePacketIn(msg *openflow.Message) {
	if !c.machine.Is(stateEstablished) {
		c.log.Debug("dropping packet-in during handshake")
		return
	}

	pi, err := openflow.ParsePacketIn(c.negotiatedVersion(), msg.Payload)
	if err != nil {
		c.log.Debug("dropping malformed packet-in", "error", err)
		return
	}

	c.server.dispatchPacketIn(topo.FrameEvent{
		ConnectionID: c.id,
		SwitchID:     c.registeredSwitchID(),
		InPort:       pi.InPort,
		Data:         pi.Data,
	})
}

func (c *connection) handlePortStatus(msg *openflow.Message) {
	if !c.machine.Is(stateEstablished) {
		c.log.Debug("dropping port status during handshake")
		return
	}

	status, err := openflow.ParsePortStatus(c.negotiatedVersion(), msg.Payload)
	if err != nil {
		c.log.Debug("dropping malformed port status", "error", err)
		return
	}

	id := c.registeredSwitchID()
	switch status.Reason {
	case openflow.PortDelete:
		err = c.server.inventory.RemovePort(id, status.Port.No)
	default:
		err = c.server.inventory.SetPort(id, status.Port)
	}
	if err != nil {
		c.log.Warn("cannot apply port status", "switch", id, "port", status.Port.No, "error", err)
		return
	}

	c.log.Debug("applied port status", "switch", id, "port", status.Port.No, "reason", status.Reason)
	c.server.switchUpdated(id)
}

// handleError logs failure reports. During the handshake an error from
// the switch means the handshake cannot complete.
func (c *connection) handleError(msg *openflow.Message) {
	report, err := openflow.ParseError(msg.Payload)
	if err != nil {
		c.log.Debug("dropping malformed error message", "error", err)
		return
	}

	if c.machine.Is(stateEstablished) {
		c.log.Warn("switch reported error", "error-type", report.Type, "error-code", report.Code)
		return
	}
	c.fail("handshake rejected by switch", fmt.Errorf("error type %d code %d", report.Type, report.Code))
}

// fail marks the connection failed and tears it down.
func (c *connection) fail(reason string, err error) {
	c.log.Warn(reason, "state", c.machine.Current(), "error", err)
	_ = c.machine.Event(eventFail)
	c.close()
}

// close tears the connection down exactly once. A registered switch is
// marked disconnected unless a newer connection took over in between.
func (c *connection) close() {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		c.server.removeConnection(c)

		if id := c.registeredSwitchID(); id != "" {
			c.server.switchDisconnected(id, c.id)
		}
		c.log.Info("switch connection closed")
	})
}

func (c *connection) negotiatedVersion() topo.Version {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// registeredSwitchID returns the inventory id of the switch behind this
// connection, empty until the handshake completed.
func (c *connection) registeredSwitchID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.switchID
}
