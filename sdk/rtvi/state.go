package rtvi

import "fmt"

// TransportState is the lifecycle state reported by a Transport.
type TransportState int

const (
	StateIdle TransportState = iota
	StateInitializing
	StateInitialized
	StateAuthorizing
	StateConnecting
	StateConnected
	StateReady
	StateDisconnected
	StateError
)

var stateNames = [...]string{
	StateIdle:         "idle",
	StateInitializing: "initializing",
	StateInitialized:  "initialized",
	StateAuthorizing:  "authorizing",
	StateConnecting:   "connecting",
	StateConnected:    "connected",
	StateReady:        "ready",
	StateDisconnected: "disconnected",
	StateError:        "error",
}

func (s TransportState) String() string {
	if s >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// AllStates lists every state in declaration order.
func AllStates() []TransportState {
	out := make([]TransportState, len(stateNames))
	for i := range stateNames {
		out[i] = TransportState(i)
	}
	return out
}

// connectedOrReady reports whether messages can go over the live transport.
func (s TransportState) connectedOrReady() bool {
	return s == StateConnected || s == StateReady
}
