package value_object

import "fmt"

// EventKind classifies one reply line from the control daemon.
type EventKind byte

const (
	EventUnrecognized EventKind = iota
	EventVersionInfo
	EventServiceID
	EventPrivateKey
	EventCommandOK
)

func (k EventKind) String() string {
	switch k {
	case EventUnrecognized:
		return "unrecognized"
	case EventVersionInfo:
		return "version-info"
	case EventServiceID:
		return "service-id"
	case EventPrivateKey:
		return "private-key"
	case EventCommandOK:
		return "command-ok"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// ControlEvent is a classified reply line. Value holds the payload after the
// prefix; Raw always holds the line as received, minus the line terminator.
type ControlEvent struct {
	Kind  EventKind
	Value string
	Raw   string
}
