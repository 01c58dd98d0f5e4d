// Package discovery implements lldp based link discovery. The Prober
// periodically floods probe frames out of every eligible switch port,
// the Correlator recognizes probes arriving on other switches and turns
// them into link events. Both sides are stateless, a link is reported
// exactly when a probe actually came back, there is no pending table
// and no expiry.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/lldp"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/metrics"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/openflow"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// Sender delivers a serialized control message to a specific switch
// connection. Implemented by the southbound transport, sends are
// fire-and-forget from the prober's point of view.
type Sender interface {
	Send(connectionID string, message []byte) error
}

// Status is a point-in-time view on the prober, for the rest api.
type Status struct {
	Interval    time.Duration
	LastCycle   time.Time
	CyclesTotal uint64
	ProbesSent  uint64
}

// Prober emits one probe per eligible (switch, port) pair on a fixed
// interval. Every cycle works on a fresh inventory snapshot, so the
// loop self-heals against switches and ports coming and going.
type Prober struct {
	log       *slog.Logger
	inventory *inventory.Store
	sender    Sender
	interval  time.Duration

	mu     sync.Mutex
	status Status
}

// NewProber creates a prober over the given inventory and sender.
func NewProber(log *slog.Logger, inv *inventory.Store, sender Sender, interval time.Duration) *Prober {
	return &Prober{
		log:       log,
		inventory: inv,
		sender:    sender,
		interval:  interval,
		status:    Status{Interval: interval},
	}
}

// Run probes immediately and then once per interval until the context
// is canceled. Cycles are read-only against the inventory and only
// publish towards the sender, so a cycle overlapping with a manually
// triggered one is harmless.
func (p *Prober) Run(ctx context.Context) {
	p.Probe()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe()
		}
	}
}

// Probe runs a single probe cycle over the current inventory snapshot.
func (p *Prober) Probe() {
	sent := uint64(0)
	for _, sw := range p.inventory.ListSwitches() {
		if !sw.Connected || !sw.Version.Supported() {
			continue
		}
		sent += p.probeSwitch(sw)
	}

	metrics.ProbeCycle()
	p.mu.Lock()
	p.status.LastCycle = time.Now()
	p.status.CyclesTotal++
	p.status.ProbesSent += sent
	p.mu.Unlock()
}

// Status returns a snapshot of the probing counters.
func (p *Prober) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// probeSwitch probes all eligible ports of one switch. A failing port
// must not keep the remaining ports or switches from being probed, so
// errors are logged and swallowed here.
func (p *Prober) probeSwitch(sw topo.Switch) uint64 {
	sent := uint64(0)
	for _, port := range sw.Ports {
		if port.No == topo.PortLocal {
			continue
		}
		if err := p.probePort(sw, port); err != nil {
			p.log.Warn("cannot probe port", "switch", sw.ID, "port", port.No, "error", err)
			continue
		}
		sent++
	}
	return sent
}

func (p *Prober) probePort(sw topo.Switch, port topo.Port) error {
	mac, err := port.MacAddress.HardwareAddr()
	if err != nil {
		return fmt.Errorf("port has no usable mac address: %w", err)
	}

	frame, err := lldp.BuildFrame(sw.DPID, port.No, mac)
	if err != nil {
		return err
	}

	msg, err := openflow.BuildPacketOut(sw.Version, port.No, frame)
	if err != nil {
		if errors.Is(err, openflow.ErrUnsupportedVersion) {
			// cannot happen for switches passing the eligibility
			// filter, skip instead of failing the cycle
			p.log.Debug("no packet-out format for switch", "switch", sw.ID, "version", sw.Version)
			return nil
		}
		return err
	}

	if err := p.sender.Send(sw.ConnectionID, msg); err != nil {
		return fmt.Errorf("cannot send probe: %w", err)
	}

	metrics.ProbeSent(sw.Version.String())
	return nil
}
