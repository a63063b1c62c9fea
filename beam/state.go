package beam

import "fmt"

type State uint32

const (
	StateDisconnected State = iota // transport closed or not configured yet
	StateConnected                 // usb link up, device id unknown
	StateIdentified                // device id acquired, sync required before data
	StateSynced                    // ready for data requests
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "Disconnected"
	case StateConnected:
		return "Connected"
	case StateIdentified:
		return "Identified"
	case StateSynced:
		return "Synced"
	}
	return fmt.Sprintf("State(%d)", uint32(s))
}
