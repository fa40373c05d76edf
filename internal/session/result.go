package session

import (
	"time"

	"github.com/fakeyudi/hats/internal/hats"
)

// PerspectiveResult is the output of one hat's analyzer.
type PerspectiveResult struct {
	AgentName       string   `json:"agent_name" yaml:"agent_name"`
	ConfidenceLevel string   `json:"confidence_level" yaml:"confidence_level"` // opaque, e.g. "high" or "0.8"
	KeyInsights     []string `json:"key_insights" yaml:"key_insights"`
	Recommendations []string `json:"recommendations" yaml:"recommendations"`
	ExecutionTimeMs float64  `json:"execution_time_ms" yaml:"execution_time_ms"`
}

// ResultBundle is the complete output of a finished session. It is treated as
// immutable once received.
type ResultBundle struct {
	SessionID         string                                 `json:"session_id" yaml:"session_id"`
	ProblemStatement  string                                 `json:"problem_statement" yaml:"problem_statement"`
	BackgroundContext string                                 `json:"background_context,omitempty" yaml:"background_context,omitempty"`
	CreatedAt         time.Time                              `json:"created_at" yaml:"created_at"`
	Perspectives      map[hats.Perspective]PerspectiveResult `json:"results" yaml:"results"`
	ErrorMessage      string                                 `json:"error_message,omitempty" yaml:"error_message,omitempty"`
}

// Lookup returns the result for p if the service produced one.
func (b *ResultBundle) Lookup(p hats.Perspective) (PerspectiveResult, bool) {
	if b == nil || b.Perspectives == nil {
		return PerspectiveResult{}, false
	}
	r, ok := b.Perspectives[p]
	return r, ok
}

// Available returns the present perspectives in canonical order.
func (b *ResultBundle) Available() []hats.Perspective {
	var out []hats.Perspective
	for _, p := range hats.Order {
		if _, ok := b.Lookup(p); ok {
			out = append(out, p)
		}
	}
	return out
}

// Partial reports a degraded run: fewer than six perspectives or an error
// message from the service.
func (b *ResultBundle) Partial() bool {
	return len(b.Available()) < hats.Count || b.ErrorMessage != ""
}

// Normalize drops perspective keys outside the six-element set, for bundles
// decoded from files the client did not write itself.
func (b *ResultBundle) Normalize() {
	for p := range b.Perspectives {
		if !p.Valid() {
			delete(b.Perspectives, p)
		}
	}
}
