package topo

import "time"

// EventType is the type for event types.
type EventType string

// NSQTopic is the type for nsq topic names.
type NSQTopic string

// Some enums.
const (
	CONNECT    EventType = "connect"
	DISCONNECT EventType = "disconnect"
	UPDATE     EventType = "update"

	TopicLink   NSQTopic = "link"
	TopicSwitch NSQTopic = "switch"
)

var (
	// Topics is a list of topics of which the topo-api is a producer.
	// topo-api will make sure these topics exist when it is started.
	Topics = []NSQTopic{
		TopicLink,
		TopicSwitch,
	}

	getNow = time.Now
)

// Base implements common fields for most basic entity types (not all).
type Base struct {
	ID          string    `json:"id" description:"a unique ID" unique:"true"`
	Name        string    `json:"name" description:"the readable name" optional:"true"`
	Description string    `json:"description,omitempty" description:"a description for this entity" optional:"true"`
	Created     time.Time `json:"created" description:"the creation time of this entity" optional:"true" readOnly:"true"`
	Changed     time.Time `json:"changed" description:"the last changed timestamp" optional:"true" readOnly:"true"`
}
