package jobclient

import (
	"errors"
	"fmt"
)

var (
	// ErrTransport matches every TransportError via errors.Is.
	ErrTransport = errors.New("transport failure")

	ErrUnavailable = errors.New("service unreachable")
	ErrRejected    = errors.New("request rejected (4xx)")
	ErrServerError = errors.New("service error (5xx)")
	ErrBadResponse = errors.New("invalid response from service")
)

// TransportError reports a failed exchange with the analysis service: a
// network failure, a non-2xx status, or a 2xx body that could not be decoded.
// A "failed" session status is a normal response, not a TransportError.
type TransportError struct {
	Op       string // "create session", "start analysis", ...
	Sentinel error
	Status   int    // HTTP status, 0 when no response was received
	Detail   string // service-provided detail, for logs only
	Err      error  // lower-level cause
}

func (e *TransportError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Sentinel)
	if e.Status > 0 {
		msg = fmt.Sprintf("%s (HTTP %d)", msg, e.Status)
	}
	if e.Detail != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Detail)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *TransportError) Unwrap() []error {
	errs := []error{ErrTransport, e.Sentinel}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func statusSentinel(code int) error {
	if code >= 500 {
		return ErrServerError
	}
	return ErrRejected
}
