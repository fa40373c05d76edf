// Package fakeservice is an in-memory implementation of the six-hats analysis
// service HTTP contract. Progress advances one step per progress request, so
// runs are deterministic without background workers. It backs the client
// tests and the mock-server command.
package fakeservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/fakeyudi/hats/internal/hats"
)

// Endpoint names one route of the service, for fault injection and counters.
type Endpoint string

const (
	EndpointCreate   Endpoint = "create"
	EndpointAnalyze  Endpoint = "analyze"
	EndpointProgress Endpoint = "progress"
	EndpointResults  Endpoint = "results"
	EndpointHealth   Endpoint = "health"
)

// minProblemLength matches the deployed service's request validation.
const minProblemLength = 10

// Options shapes how sessions progress.
type Options struct {
	// PollsUntilDone is the number of progress requests after analysis
	// starts before the session reports completed (or failed). Earlier
	// requests report processing. Defaults to 2.
	PollsUntilDone int
	// Perspectives lists the hats that produce a result. Defaults to all six.
	Perspectives []hats.Perspective
	// JobError, when set, makes every job end failed with this message.
	JobError string
	// ResultError is attached to result bundles as error_message.
	ResultError string
	// Delay is added before every response.
	Delay time.Duration
}

type record struct {
	id         string
	problem    string
	background string
	createdAt  time.Time
	started    bool
	polls      int
	status     string
	errMsg     string
}

type fault struct {
	status int
	times  int // remaining; <0 means forever
}

// Service is the fake analysis service.
type Service struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*record
	faults   map[Endpoint]*fault
	counts   map[Endpoint]int
}

// New returns a Service with opts applied over defaults.
func New(opts Options) *Service {
	if opts.PollsUntilDone <= 0 {
		opts.PollsUntilDone = 2
	}
	if opts.Perspectives == nil {
		opts.Perspectives = hats.Order[:]
	}
	return &Service{
		opts:     opts,
		sessions: make(map[string]*record),
		faults:   make(map[Endpoint]*fault),
		counts:   make(map[Endpoint]int),
	}
}

// Handler returns the service routes rooted at "/". Mount it under a prefix
// such as /api to match a deployed service.
func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", s.wrap(EndpointHealth, s.handleHealth))
	r.Post("/sessions", s.wrap(EndpointCreate, s.handleCreate))
	r.Route("/sessions/{id}", func(r chi.Router) {
		r.Post("/analyze", s.wrap(EndpointAnalyze, s.handleAnalyze))
		r.Get("/progress", s.wrap(EndpointProgress, s.handleProgress))
		r.Get("/results", s.wrap(EndpointResults, s.handleResults))
	})
	return r
}

// Fail makes the next times requests to ep answer with status. A negative
// times fails every request until Heal is called.
func (s *Service) Fail(ep Endpoint, status, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults[ep] = &fault{status: status, times: times}
}

// Heal removes any fault injected on ep.
func (s *Service) Heal(ep Endpoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.faults, ep)
}

// Requests returns how many requests reached ep, faulted ones included.
func (s *Service) Requests(ep Endpoint) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts[ep]
}

// Sessions returns the number of sessions created so far.
func (s *Service) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Service) wrap(ep Endpoint, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.Delay > 0 {
			select {
			case <-time.After(s.opts.Delay):
			case <-r.Context().Done():
				return
			}
		}
		s.mu.Lock()
		s.counts[ep]++
		f := s.faults[ep]
		status := 0
		if f != nil && f.times != 0 {
			status = f.status
			if f.times > 0 {
				f.times--
			}
		}
		s.mu.Unlock()

		if status != 0 {
			writeDetail(w, status, "injected failure")
			return
		}
		h(w, r)
	}
}

func (s *Service) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (s *Service) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ProblemStatement  string  `json:"problem_statement"`
		BackgroundContext *string `json:"background_context"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid JSON body")
		return
	}
	if len(strings.TrimSpace(req.ProblemStatement)) < minProblemLength {
		writeDetail(w, http.StatusUnprocessableEntity,
			fmt.Sprintf("problem_statement should have at least %d characters", minProblemLength))
		return
	}

	rec := &record{
		id:        uuid.NewString(),
		problem:   req.ProblemStatement,
		createdAt: time.Now().UTC(),
		status:    "initialized",
	}
	if req.BackgroundContext != nil {
		rec.background = *req.BackgroundContext
	}

	s.mu.Lock()
	s.sessions[rec.id] = rec
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{
		"session_id":        rec.id,
		"status":            rec.status,
		"problem_statement": rec.problem,
		"created_at":        isoformat(rec.createdAt),
		"updated_at":        isoformat(rec.createdAt),
	})
}

func (s *Service) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	if rec.status == "processing" {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Analysis already in progress")
		return
	}
	rec.started = true
	rec.polls = 0
	rec.status = "processing"
	rec.errMsg = ""
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{
		"session_id": id,
		"status":     "initiated",
		"message":    "Analysis started",
	})
}

func (s *Service) handleProgress(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	if rec.started && rec.status == "processing" {
		rec.polls++
		if rec.polls >= s.opts.PollsUntilDone {
			if s.opts.JobError != "" {
				rec.status = "failed"
				rec.errMsg = s.opts.JobError
			} else {
				rec.status = "completed"
			}
		}
	}
	completed, pending := s.agentSplit(rec)
	resp := map[string]any{
		"session_id":        id,
		"status":            rec.status,
		"agents_completed":  completed,
		"agents_processing": []string{},
		"agents_pending":    pending,
		"error_message":     nullable(rec.errMsg),
		"timestamp":         isoformat(time.Now().UTC()),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

// agentSplit spreads the produced perspectives across the polls so that
// progress shows hats finishing one after another. Callers hold s.mu.
func (s *Service) agentSplit(rec *record) (completed, pending []string) {
	done := 0
	switch rec.status {
	case "completed":
		done = len(s.opts.Perspectives)
	case "processing":
		done = rec.polls * len(s.opts.Perspectives) / s.opts.PollsUntilDone
	}
	completed, pending = []string{}, []string{}
	for i, p := range s.opts.Perspectives {
		if i < done {
			completed = append(completed, string(p))
		} else {
			pending = append(pending, string(p))
		}
	}
	return completed, pending
}

func (s *Service) handleResults(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	s.mu.Lock()
	rec, ok := s.sessions[id]
	if !ok {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Session not found")
		return
	}
	if rec.status != "completed" {
		status := rec.status
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Analysis not completed. Current status: "+status)
		return
	}
	results := make(map[string]any, len(s.opts.Perspectives))
	for i, p := range s.opts.Perspectives {
		results[string(p)] = cannedResult(p, rec.problem, i)
	}
	resp := map[string]any{
		"session_id":         rec.id,
		"problem_statement":  rec.problem,
		"background_context": rec.background,
		"status":             rec.status,
		"results":            results,
		"error_message":      nullable(s.opts.ResultError),
		"created_at":         isoformat(rec.createdAt),
		"updated_at":         isoformat(time.Now().UTC()),
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, resp)
}

func cannedResult(p hats.Perspective, problem string, i int) map[string]any {
	return map[string]any{
		"hat_color":  string(p),
		"agent_name": p.Label() + " Thinker",
		"key_insights": []string{
			fmt.Sprintf("%s view on %q", p.Focus(), problem),
			"Second observation from the " + strings.ToLower(p.Label()),
		},
		"recommendations": []string{
			"Recommendation from the " + strings.ToLower(p.Label()),
		},
		"confidence_level":  "medium",
		"execution_time_ms": 1200.5 + float64(i)*100,
	}
}

// isoformat matches the naive timestamps of the reference service.
func isoformat(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000000")
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
