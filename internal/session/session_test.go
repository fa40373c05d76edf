package session_test

import (
	"errors"
	"testing"

	"pgregory.net/rapid"

	"github.com/fakeyudi/hats/internal/hats"
	"github.com/fakeyudi/hats/internal/session"
)

func TestParseStatus(t *testing.T) {
	cases := map[string]session.Status{
		"initiated":   session.StatusInitiated,
		"initialized": session.StatusInitiated,
		"processing":  session.StatusProcessing,
		"Completed":   session.StatusCompleted,
		" failed ":    session.StatusFailed,
	}
	for in, want := range cases {
		got, err := session.ParseStatus(in)
		if err != nil {
			t.Errorf("ParseStatus(%q): %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseStatus(%q) = %q, want %q", in, got, want)
		}
	}
	if _, err := session.ParseStatus("idle"); err == nil {
		t.Error("idle is client-side only and must not parse from the wire")
	}
}

func TestStatusRank(t *testing.T) {
	order := []session.Status{
		session.StatusIdle,
		session.StatusInitiated,
		session.StatusProcessing,
		session.StatusCompleted,
	}
	for i := 1; i < len(order); i++ {
		if order[i].Rank() <= order[i-1].Rank() {
			t.Errorf("%s ranks %d, not above %s (%d)", order[i], order[i].Rank(), order[i-1], order[i-1].Rank())
		}
	}
	if session.StatusFailed.Rank() != session.StatusCompleted.Rank() {
		t.Error("both terminal states should share a rank")
	}
}

func TestValidateRejectsBlankProblem(t *testing.T) {
	for _, ps := range []string{"", "   ", "\n\t"} {
		err := session.Input{ProblemStatement: ps, BackgroundContext: "ctx"}.Validate()
		if err == nil {
			t.Fatalf("Validate(%q) = nil, want error", ps)
		}
		var ve *session.ValidationError
		if !errors.As(err, &ve) {
			t.Errorf("expected *ValidationError, got %T", err)
		}
		if !errors.Is(err, session.ErrEmptyProblem) {
			t.Errorf("expected ErrEmptyProblem, got %v", err)
		}
	}
	if err := (session.Input{ProblemStatement: "Should we migrate to microservices?"}).Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

// Feature: hats, Property 1: Available perspectives follow canonical order
func TestAvailableCanonicalOrder(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		b := &session.ResultBundle{Perspectives: map[hats.Perspective]session.PerspectiveResult{}}
		present := map[hats.Perspective]bool{}
		for _, p := range hats.Order {
			if rapid.Bool().Draw(t, string(p)) {
				b.Perspectives[p] = session.PerspectiveResult{AgentName: p.Label()}
				present[p] = true
			}
		}

		got := b.Available()
		if len(got) != len(present) {
			t.Fatalf("Available() returned %d perspectives, want %d", len(got), len(present))
		}
		for i := 1; i < len(got); i++ {
			if got[i-1].Index() >= got[i].Index() {
				t.Fatalf("Available() out of order: %v", got)
			}
		}
		if wantPartial := len(present) < hats.Count; b.Partial() != wantPartial {
			t.Fatalf("Partial() = %v with %d perspectives", b.Partial(), len(present))
		}
	})
}

func TestPartialWithErrorMessage(t *testing.T) {
	b := &session.ResultBundle{Perspectives: map[hats.Perspective]session.PerspectiveResult{}}
	for _, p := range hats.Order {
		b.Perspectives[p] = session.PerspectiveResult{}
	}
	if b.Partial() {
		t.Fatal("full bundle without error reported as partial")
	}
	b.ErrorMessage = "green agent timed out"
	if !b.Partial() {
		t.Fatal("bundle with error message must be partial")
	}
}

func TestNormalizeDropsUnknownKeys(t *testing.T) {
	b := &session.ResultBundle{Perspectives: map[hats.Perspective]session.PerspectiveResult{
		hats.White:                  {},
		hats.Perspective("solution"): {},
	}}
	b.Normalize()
	if len(b.Perspectives) != 1 {
		t.Fatalf("expected 1 perspective after Normalize, got %d", len(b.Perspectives))
	}
	if _, ok := b.Lookup(hats.White); !ok {
		t.Fatal("white perspective dropped")
	}
}

func TestLookupNilBundle(t *testing.T) {
	var b *session.ResultBundle
	if _, ok := b.Lookup(hats.Blue); ok {
		t.Fatal("nil bundle must report no perspectives")
	}
}

func TestSnapshotSettled(t *testing.T) {
	cases := []struct {
		snap session.Snapshot
		want bool
	}{
		{session.Snapshot{Status: session.StatusIdle}, true},
		{session.Snapshot{Status: session.StatusInitiated}, false},
		{session.Snapshot{Status: session.StatusProcessing}, false},
		{session.Snapshot{Status: session.StatusFailed}, true},
		{session.Snapshot{Status: session.StatusCompleted, Results: &session.ResultBundle{}}, true},
	}
	for _, c := range cases {
		if got := c.snap.Settled(); got != c.want {
			t.Errorf("Settled() for %q = %v, want %v", c.snap.Status, got, c.want)
		}
	}
}
