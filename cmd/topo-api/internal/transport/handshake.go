package transport

import (
	"github.com/looplab/fsm"
)

// Connection handshake states. A connection starts out created, greets
// with the hello exchange, identifies the datapath via the features
// reply and is established once the port table is complete. Anything
// going wrong on the way ends in failed, which is terminal.
const (
	stateCreated     = "created"
	stateGreeted     = "greeted"
	stateIdentified  = "identified"
	stateEstablished = "established"
	stateFailed      = "failed"
)

const (
	eventHello     = "hello"
	eventIdentify  = "identify"
	eventEstablish = "establish"
	eventFail      = "fail"
)

func handshakeEvents() fsm.Events {
	return fsm.Events{
		{
			Name: eventHello,
			Src:  []string{stateCreated},
			Dst:  stateGreeted,
		},
		{
			Name: eventIdentify,
			Src:  []string{stateGreeted},
			Dst:  stateIdentified,
		},
		{
			Name: eventEstablish,
			Src:  []string{stateIdentified},
			Dst:  stateEstablished,
		},
		{
			Name: eventFail,
			Src:  []string{stateCreated, stateGreeted, stateIdentified, stateEstablished},
			Dst:  stateFailed,
		},
	}
}

// newHandshakeFSM creates the state machine driving one connection
// handshake. Out-of-order protocol messages surface as invalid event
// errors, the connection treats those as protocol violations.
func newHandshakeFSM(c *connection) *fsm.FSM {
	return fsm.NewFSM(
		stateCreated,
		handshakeEvents(),
		fsm.Callbacks{
			"enter_" + stateEstablished: c.established,
		},
	)
}
