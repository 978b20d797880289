package server

// State is the lifecycle stage of one connection
type State int

const (
	StateAwaitName State = iota // name not yet allocated
	StateIdle                   // connected, not in a session
	StateInLobby                // in a session that has not started
	StateInGame                 // in a session whose match has started
	StateClosed                 // cleaned up, connection closed
)

func (s State) String() string {
	switch s {
	case StateAwaitName:
		return "await_name"
	case StateIdle:
		return "idle"
	case StateInLobby:
		return "in_lobby"
	case StateInGame:
		return "in_game"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
