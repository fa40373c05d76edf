package hats

import "testing"

func TestParseRejectsUnknownKeys(t *testing.T) {
	for _, p := range Order {
		got, ok := Parse(string(p))
		if !ok || got != p {
			t.Errorf("Parse(%q) = %q, %v; want %q, true", p, got, ok, p)
		}
	}
	for _, bad := range []string{"", "solution", "White", "purple"} {
		if _, ok := Parse(bad); ok {
			t.Errorf("Parse(%q) accepted an unknown key", bad)
		}
	}
}

func TestOrderIsCanonical(t *testing.T) {
	want := []Perspective{White, Red, Black, Yellow, Green, Blue}
	if len(Order) != len(want) {
		t.Fatalf("len(Order) = %d, want %d", len(Order), len(want))
	}
	for i, p := range want {
		if Order[i] != p {
			t.Errorf("Order[%d] = %q, want %q", i, Order[i], p)
		}
		if p.Index() != i {
			t.Errorf("%q.Index() = %d, want %d", p, p.Index(), i)
		}
	}
}

func TestMetadata(t *testing.T) {
	if got := Green.Label(); got != "Green Hat" {
		t.Errorf("Green.Label() = %q", got)
	}
	if got := Yellow.Title(); got != "Yellow" {
		t.Errorf("Yellow.Title() = %q", got)
	}
	if got := Perspective("solution").Label(); got != "solution" {
		t.Errorf("unknown label = %q, want raw key", got)
	}
	for _, p := range Order {
		if p.Focus() == "" || p.Emoji() == "" {
			t.Errorf("%q missing metadata", p)
		}
	}
}
