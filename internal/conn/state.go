package conn

// State is the connection manager's lifecycle state.
type State int

const (
	// Idle means no connection has been attempted yet.
	Idle State = iota
	// Connecting means a dial to the current endpoint is in flight.
	Connecting
	// Open means the session is established and sends are transmitted.
	Open
	// Closed means the session ended gracefully or was closed locally.
	Closed
	// Error means the last attempt failed. A retry may be pending.
	Error
)

// String returns the state name as shown to users.
func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Connecting:
		return "CONNECTING"
	case Open:
		return "OPEN"
	case Closed:
		return "CLOSED"
	case Error:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Status is published on every state transition.
type Status struct {
	State    State
	Endpoint string
	// Attempt counts dials since the manager was created.
	Attempt int
	// Text is a human-readable description of the transition.
	Text string
	// Err is set for Error transitions.
	Err error
	// RetryPending reports whether an automatic reconnect is scheduled.
	RetryPending bool
}

// Handler receives manager output. All callbacks run on the event loop.
type Handler struct {
	OnStatus  func(Status)
	OnOpen    func()
	OnMessage func(data []byte)
}

// MarshalText renders the state name so published snapshots serialize
// readably.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}
