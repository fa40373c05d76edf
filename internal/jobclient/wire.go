package jobclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

// Wire shapes of the analysis service. Only the fields the client reads are
// declared; the service sends more (timestamps, hat_color, ...).

type createSessionRequest struct {
	ProblemStatement  string `json:"problem_statement"`
	BackgroundContext string `json:"background_context"`
}

type createSessionResponse struct {
	SessionID string `json:"session_id"`
}

type progressResponse struct {
	Status          string   `json:"status"`
	ErrorMessage    *string  `json:"error_message"`
	AgentsCompleted []string `json:"agents_completed"`
	AgentsPending   []string `json:"agents_pending"`
}

type perspectiveResponse struct {
	AgentName       string     `json:"agent_name"`
	ConfidenceLevel confidence `json:"confidence_level"`
	KeyInsights     []string   `json:"key_insights"`
	Recommendations []string   `json:"recommendations"`
	ExecutionTimeMs float64    `json:"execution_time_ms"`
}

type resultsResponse struct {
	SessionID         string                          `json:"session_id"`
	ProblemStatement  string                          `json:"problem_statement"`
	BackgroundContext string                          `json:"background_context"`
	CreatedAt         string                          `json:"created_at"`
	Results           map[string]*perspectiveResponse `json:"results"`
	ErrorMessage      *string                         `json:"error_message"`
}

type errorResponse struct {
	Detail json.RawMessage `json:"detail"`
}

// confidence accepts either a string ("high") or a number (0.82).
type confidence string

func (c *confidence) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*c = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = confidence(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("confidence_level: %w", err)
	}
	*c = confidence(strconv.FormatFloat(f, 'f', -1, 64))
	return nil
}

// Layouts accepted for created_at. The reference service emits naive ISO-8601
// timestamps without a zone; those are read as UTC.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}

func parsePerspectives(keys []string) []hats.Perspective {
	var out []hats.Perspective
	for _, k := range keys {
		if p, ok := hats.Parse(k); ok {
			out = append(out, p)
		}
	}
	return out
}

func (r *progressResponse) toProgress() (session.Progress, error) {
	status, err := session.ParseStatus(r.Status)
	if err != nil {
		return session.Progress{}, err
	}
	p := session.Progress{
		Status:    status,
		Completed: parsePerspectives(r.AgentsCompleted),
		Pending:   parsePerspectives(r.AgentsPending),
	}
	if r.ErrorMessage != nil {
		p.ErrorMessage = *r.ErrorMessage
	}
	return p, nil
}

func (r *resultsResponse) toBundle() (*session.ResultBundle, error) {
	created, err := parseTimestamp(r.CreatedAt)
	if err != nil {
		return nil, err
	}
	b := &session.ResultBundle{
		SessionID:         r.SessionID,
		ProblemStatement:  r.ProblemStatement,
		BackgroundContext: r.BackgroundContext,
		CreatedAt:         created,
		Perspectives:      make(map[hats.Perspective]session.PerspectiveResult, len(r.Results)),
	}
	if r.ErrorMessage != nil {
		b.ErrorMessage = *r.ErrorMessage
	}
	for key, res := range r.Results {
		p, ok := hats.Parse(key)
		if !ok || res == nil {
			continue
		}
		b.Perspectives[p] = session.PerspectiveResult{
			AgentName:       res.AgentName,
			ConfidenceLevel: string(res.ConfidenceLevel),
			KeyInsights:     res.KeyInsights,
			Recommendations: res.Recommendations,
			ExecutionTimeMs: res.ExecutionTimeMs,
		}
	}
	return b, nil
}

// detailText renders a FastAPI-style detail field, which may be a string or
// a validation error list.
func detailText(body []byte) string {
	var er errorResponse
	if err := json.Unmarshal(body, &er); err == nil && len(er.Detail) > 0 {
		var s string
		if json.Unmarshal(er.Detail, &s) == nil {
			return s
		}
		return string(er.Detail)
	}
	return strings.TrimSpace(string(body))
}
