package tui

import "github.com/fakeyudi/hats/internal/session"

// View is the screen shown for a controller state.
type View int

const (
	ViewInput View = iota
	ViewProgress
	ViewResults
)

func (v View) String() string {
	switch v {
	case ViewInput:
		return "input"
	case ViewProgress:
		return "progress"
	case ViewResults:
		return "results"
	}
	return "unknown"
}

// Dispatch maps a controller state to the screen that presents it. It looks
// only at the session id and the results, never at the status.
func Dispatch(s session.Snapshot) View {
	switch {
	case s.Results != nil:
		return ViewResults
	case s.SessionID != "":
		return ViewProgress
	default:
		return ViewInput
	}
}
