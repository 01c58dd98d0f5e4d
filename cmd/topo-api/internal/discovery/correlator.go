package discovery

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/eventbus"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/inventory"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/lldp"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/metrics"
	"github.com/sdn-stack/topo-api/cmd/topo-api/internal/topo"
)

// Correlator turns received frames back into links. Every frame is
// handled independently, concurrent Handle calls are safe because the
// correlator only reads the inventory and publishes results.
type Correlator struct {
	log       *slog.Logger
	inventory *inventory.Store
	publisher eventbus.Publisher
}

// NewCorrelator creates a correlator over the given inventory and
// event publisher.
func NewCorrelator(log *slog.Logger, inv *inventory.Store, publisher eventbus.Publisher) *Correlator {
	return &Correlator{
		log:       log,
		inventory: inv,
		publisher: publisher,
	}
}

// Handle inspects one received frame. Frames that are not probes of
// ours are dropped without error, switches receive all kinds of lldp
// traffic from unrelated agents. A recognized probe is resolved
// against the inventory and published as a link event pairing the
// receiving switch and port with the originating switch and port.
func (c *Correlator) Handle(ev topo.FrameEvent) error {
	probe, err := lldp.ParseFrame(ev.Data)
	if err != nil {
		switch {
		case errors.Is(err, lldp.ErrForeignFrame):
			metrics.PacketIn(metrics.ResultForeign)
		default:
			metrics.PacketIn(metrics.ResultOther)
		}
		return nil
	}

	origin, err := c.inventory.FindSwitchByDPID(probe.DPID)
	if err != nil {
		// a probe from a switch we no longer know, typically one
		// that disconnected between sending and receiving
		c.log.Debug("dropping probe from unknown switch", "dpid", probe.DPID, "received-on", ev.SwitchID, "port", ev.InPort)
		metrics.PacketIn(metrics.ResultMiss)
		return nil
	}

	link := topo.LinkEvent{
		EndpointA: topo.LinkEndpoint{SwitchID: ev.SwitchID, Port: ev.InPort},
		EndpointB: topo.LinkEndpoint{SwitchID: origin.ID, Port: probe.Port},
	}

	if err := c.publisher.Publish(string(topo.TopicLink), link); err != nil {
		return fmt.Errorf("cannot publish link event: %w", err)
	}

	metrics.PacketIn(metrics.ResultProbe)
	metrics.LinkDiscovered()
	c.log.Debug("link discovered", "switch-a", link.EndpointA.SwitchID, "port-a", link.EndpointA.Port, "switch-b", link.EndpointB.SwitchID, "port-b", link.EndpointB.Port)
	return nil
}
