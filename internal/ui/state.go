package ui

import "fmt"

// State is the screen the application is on.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "LOGGED_OUT"
	case LoggedIn:
		return "LOGGED_IN"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// transition validates from -> to and returns the new state.
// Only LoggedOut -> LoggedIn (login) and LoggedIn -> LoggedOut (logout) are allowed.
func transition(cur, from, to State) (State, error) {
	if cur != from {
		return cur, fmt.Errorf("invalid transition: expected %s, got %s", from, cur)
	}
	if !isAllowedTransition(from, to) {
		return cur, fmt.Errorf("disallowed transition: %s -> %s", from, to)
	}
	return to, nil
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case LoggedOut:
		return to == LoggedIn
	case LoggedIn:
		return to == LoggedOut
	default:
		return false
	}
}
