// Package inventory keeps the controller's switch inventory. It is the
// single source of truth about which datapaths are connected, which
// protocol version they negotiated and which ports they expose.
//
// The store is in-memory on purpose: every entry mirrors a live
// southbound connection, after a restart those connections are gone and
// the switches re-register within one handshake. Durable storage would
// only resurrect state that no longer exists.
package inventory

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// Store is a thread-safe switch inventory. Reads hand out copies so
// callers can work lock-free on their snapshot.
type Store struct {
	mu       sync.RWMutex
	switches map[string]*topo.Switch
	log      *slog.Logger
}

// New creates an empty inventory.
func New(log *slog.Logger) *Store {
	return &Store{
		switches: make(map[string]*topo.Switch),
		log:      log,
	}
}

// FindSwitch returns a switch for a given id.
func (s *Store) FindSwitch(id string) (*topo.Switch, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sw, ok := s.switches[id]
	if !ok {
		return nil, topo.NotFound("no switch with id %q found", id)
	}
	return copySwitch(sw), nil
}

// FindSwitchByDPID returns a switch for a given datapath identifier.
func (s *Store) FindSwitchByDPID(dpid topo.DPID) (*topo.Switch, error) {
	return s.FindSwitch(dpid.String())
}

// ListSwitches returns all known switches, ordered by id.
func (s *Store) ListSwitches() topo.Switches {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ss := make(topo.Switches, 0, len(s.switches))
	for _, sw := range s.switches {
		ss = append(ss, *copySwitch(sw))
	}
	sort.Slice(ss, func(i, j int) bool { return ss[i].ID < ss[j].ID })
	return ss
}

// ConnectedCount returns the number of currently connected switches.
func (s *Store) ConnectedCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, sw := range s.switches {
		if sw.Connected {
			count++
		}
	}
	return count
}

// CreateSwitch creates a new switch.
func (s *Store) CreateSwitch(sw *topo.Switch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.switches[sw.ID]; ok {
		return topo.Conflict("switch with id %q already exists", sw.ID)
	}
	s.switches[sw.ID] = copySwitch(sw)
	return nil
}

// UpsertSwitch registers a switch after a completed handshake. A known
// datapath is reconnected in place so it keeps its history, an unknown
// one is created. The stored state is returned.
func (s *Store) UpsertSwitch(sw *topo.Switch) *topo.Switch {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.switches[sw.ID]
	if !ok {
		s.switches[sw.ID] = copySwitch(sw)
		s.log.Debug("registered new switch", "switch", sw.ID, "version", sw.Version)
		return copySwitch(sw)
	}

	cur.ConnectionID = sw.ConnectionID
	cur.Connected = true
	cur.Version = sw.Version
	if sw.Ports != nil {
		cur.Ports = append(topo.Ports{}, sw.Ports...)
	}
	cur.LastSeen = time.Now()
	cur.Changed = time.Now()
	s.log.Debug("reconnected switch", "switch", sw.ID, "version", sw.Version)
	return copySwitch(cur)
}

// UpdateSwitch updates a switch. The update is optimistic, it only
// succeeds when the stored entity was not changed in the meantime.
func (s *Store) UpdateSwitch(old *topo.Switch, new *topo.Switch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.switches[old.ID]
	if !ok {
		return topo.NotFound("no switch with id %q found", old.ID)
	}
	if !cur.Changed.Equal(old.Changed) {
		return topo.Conflict("cannot update switch (%s): the switch was changed in the meantime", old.ID)
	}
	new.Changed = time.Now()
	s.switches[new.ID] = copySwitch(new)
	return nil
}

// DeleteSwitch deletes a switch.
func (s *Store) DeleteSwitch(sw *topo.Switch) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.switches[sw.ID]; !ok {
		return topo.NotFound("no switch with id %q found", sw.ID)
	}
	delete(s.switches, sw.ID)
	return nil
}

// SetConnected flips the connectivity state of a switch. Disconnecting
// only applies when the given connection still owns the entry, a stale
// connection closing late must not mark a reconnected switch dead.
func (s *Store) SetConnected(id string, connectionID string, connected bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.switches[id]
	if !ok {
		return topo.NotFound("no switch with id %q found", id)
	}
	if !connected && cur.ConnectionID != connectionID {
		return nil
	}
	cur.Connected = connected
	cur.Changed = time.Now()
	return nil
}

// SetPort adds or replaces a port on a switch.
func (s *Store) SetPort(id string, port topo.Port) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.switches[id]
	if !ok {
		return topo.NotFound("no switch with id %q found", id)
	}
	cur.SetPort(port)
	cur.Changed = time.Now()
	return nil
}

// RemovePort deletes a port from a switch.
func (s *Store) RemovePort(id string, no topo.PortNo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.switches[id]
	if !ok {
		return topo.NotFound("no switch with id %q found", id)
	}
	cur.RemovePort(no)
	cur.Changed = time.Now()
	return nil
}

// MarkSeen updates the last-seen timestamp of a switch.
func (s *Store) MarkSeen(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.switches[id]; ok {
		cur.LastSeen = time.Now()
	}
}

func copySwitch(sw *topo.Switch) *topo.Switch {
	c := *sw
	c.Ports = append(topo.Ports{}, sw.Ports...)
	return &c
}
