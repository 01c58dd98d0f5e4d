// Package transport runs the southbound side of the controller: a TCP
// server switches connect to. Every connection is handshaked through a
// small state machine, registered in the inventory and kept alive with
// echo requests. Received frames are normalized across protocol
// versions and fanned out to the registered packet-in handlers, so
// consumers never see version specifics.
package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/eventbus"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/metrics"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

const defaultEchoInterval = 15 * time.Second

// PacketInHandler consumes one received frame event. Handlers run on
// the read goroutine of the delivering connection, events of different
// switches arrive concurrently.
type PacketInHandler func(topo.FrameEvent) error

// ServerConfig carries the collaborators and settings of the server.
type ServerConfig struct {
	Logger       *slog.Logger
	Inventory    *inventory.Store
	Publisher    eventbus.Publisher
	BindAddress  string
	EchoInterval time.Duration
}

// Server accepts and manages switch connections. It is the send hub the
// prober addresses connections through.
type Server struct {
	log          *slog.Logger
	inventory    *inventory.Store
	publisher    eventbus.Publisher
	bindAddress  string
	echoInterval time.Duration

	mu       sync.RWMutex
	listener net.Listener
	conns    map[string]*connection
	handlers []PacketInHandler
}

// NewServer creates a southbound server.
func NewServer(cfg *ServerConfig) *Server {
	if cfg.EchoInterval <= 0 {
		cfg.EchoInterval = defaultEchoInterval
	}
	return &Server{
		log:          cfg.Logger,
		inventory:    cfg.Inventory,
		publisher:    cfg.Publisher,
		bindAddress:  cfg.BindAddress,
		echoInterval: cfg.EchoInterval,
		conns:        make(map[string]*connection),
	}
}

// RegisterPacketInHandler subscribes a handler to received frames. Must
// be called before Serve.
func (s *Server) RegisterPacketInHandler(h PacketInHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers = append(s.handlers, h)
}

// Serve listens for switch connections until the context is canceled.
// Open connections are torn down on shutdown.
func (s *Server) Serve(ctx context.Context) error {
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", s.bindAddress)
	if err != nil {
		return fmt.Errorf("cannot listen on %q: %w", s.bindAddress, err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	s.log.Info("southbound server listening", "address", listener.Addr().String())

	go func() {
		<-ctx.Done()
		_ = listener.Close()
		for _, c := range s.connections() {
			c.close()
		}
	}()

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("cannot accept connection: %w", err)
		}

		c := newConnection(uuid.New().String(), s, conn)
		s.addConnection(c)
		go c.serve()
	}
}

// Addr returns the address the server listens on, nil until Serve has
// bound its listener.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Send delivers a message to the switch behind the given connection.
func (s *Server) Send(connectionID string, message []byte) error {
	s.mu.RLock()
	c, ok := s.conns[connectionID]
	s.mu.RUnlock()

	if !ok {
		return topo.NotFound("no connection with id %q found", connectionID)
	}
	return c.send(message)
}

func (s *Server) addConnection(c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conns[c.id] = c
}

func (s *Server) removeConnection(c *connection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, c.id)
}

func (s *Server) connections() []*connection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	conns := make([]*connection, 0, len(s.conns))
	for _, c := range s.conns {
		conns = append(conns, c)
	}
	return conns
}

// dispatchPacketIn hands one frame event to all registered handlers.
// Handler errors are logged, one broken frame must not affect the
// connection it arrived on.
func (s *Server) dispatchPacketIn(ev topo.FrameEvent) {
	s.mu.RLock()
	handlers := s.handlers
	s.mu.RUnlock()

	for _, h := range handlers {
		if err := h(ev); err != nil {
			s.log.Warn("packet-in handler failed", "switch", ev.SwitchID, "port", ev.InPort, "error", err)
		}
	}
}

func (s *Server) switchConnected(sw *topo.Switch) {
	s.publishSwitchEvent(topo.CONNECT, sw.ID, sw.Version.String(), len(sw.Ports))
	metrics.ProvideConnectedSwitches(s.inventory.ConnectedCount())
}

func (s *Server) switchDisconnected(id string, connectionID string) {
	if err := s.inventory.SetConnected(id, connectionID, false); err != nil {
		s.log.Warn("cannot mark switch disconnected", "switch", id, "error", err)
		return
	}

	sw, err := s.inventory.FindSwitch(id)
	if err != nil || sw.Connected {
		// a newer connection owns the switch now, nothing to announce
		metrics.ProvideConnectedSwitches(s.inventory.ConnectedCount())
		return
	}

	s.publishSwitchEvent(topo.DISCONNECT, sw.ID, sw.Version.String(), len(sw.Ports))
	metrics.ProvideConnectedSwitches(s.inventory.ConnectedCount())
}

func (s *Server) switchUpdated(id string) {
	sw, err := s.inventory.FindSwitch(id)
	if err != nil {
		return
	}
	s.publishSwitchEvent(topo.UPDATE, sw.ID, sw.Version.String(), len(sw.Ports))
}

func (s *Server) publishSwitchEvent(t topo.EventType, id string, version string, ports int) {
	evt := topo.SwitchEvent{
		Type:     t,
		SwitchID: id,
		Version:  version,
		Ports:    ports,
	}
	if err := s.publisher.Publish(string(topo.TopicSwitch), evt); err != nil {
		s.log.Error("cannot publish switch event", "type", t, "switch", id, "error", err)
	}
}
