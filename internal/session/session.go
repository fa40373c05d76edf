package session

import (
	"fmt"
	"strings"
	"time"

	"github.com/fakeyudi/hats/internal/hats"
)

// Status is the lifecycle state of one analysis session.
type Status string

const (
	StatusIdle       Status = "idle"
	StatusInitiated  Status = "initiated"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// ParseStatus maps a status reported by the analysis service. The service
// reports "initialized" for a session whose analysis has not been picked up
// yet; it is read as initiated.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "initiated", "initialized":
		return StatusInitiated, nil
	case "processing":
		return StatusProcessing, nil
	case "completed":
		return StatusCompleted, nil
	case "failed":
		return StatusFailed, nil
	}
	return "", fmt.Errorf("unknown session status %q", s)
}

// Active reports whether a job is in flight.
func (s Status) Active() bool {
	return s == StatusInitiated || s == StatusProcessing
}

// Terminal reports whether the job has finished, successfully or not.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Rank orders statuses along the lifecycle. Idle ranks lowest and both
// terminal states share the highest rank.
func (s Status) Rank() int {
	switch s {
	case StatusInitiated:
		return 1
	case StatusProcessing:
		return 2
	case StatusCompleted, StatusFailed:
		return 3
	default:
		return 0
	}
}

// Input is the user-supplied text for one analysis.
type Input struct {
	ProblemStatement  string `json:"problem_statement" yaml:"problem_statement"`
	BackgroundContext string `json:"background_context" yaml:"background_context"`
}

// Validate rejects an input whose problem statement is blank.
func (in Input) Validate() error {
	if strings.TrimSpace(in.ProblemStatement) == "" {
		return &ValidationError{Field: "problem_statement", Err: ErrEmptyProblem}
	}
	return nil
}

// IsZero reports whether no text has been entered.
func (in Input) IsZero() bool {
	return in.ProblemStatement == "" && in.BackgroundContext == ""
}

// Progress is a single progress report for a running session.
type Progress struct {
	Status       Status
	ErrorMessage string
	Completed    []hats.Perspective // perspectives finished so far
	Pending      []hats.Perspective
}

// Snapshot is the observable state of the session controller at one point
// in time. Results is shared, never mutated after it is stored.
type Snapshot struct {
	SessionID    string
	Status       Status
	ErrorMessage string
	Input        Input
	Results      *ResultBundle
	Completed    []hats.Perspective
	PollActive   bool
	Revision     uint64
	UpdatedAt    time.Time
}

// Settled reports whether the run needs nothing more from the service:
// results are present, it failed, or nothing was submitted.
func (s Snapshot) Settled() bool {
	return s.Results != nil || s.Status == StatusFailed || s.Status == StatusIdle
}
