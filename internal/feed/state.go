package feed

// ConnState is the phase of the live connection, mirroring the ready
// states of a browser WebSocket.
type ConnState int

const (
	Uninstantiated ConnState = iota
	Connecting
	Open
	Closing
	Closed
)

func (s ConnState) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Closing:
		return "closing"
	case Closed:
		return "closed"
	default:
		return "uninstantiated"
	}
}
