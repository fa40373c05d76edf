// Package hats defines the closed set of six thinking-hat perspectives and
// their static display metadata.
package hats

// Perspective is one of the six fixed analytical viewpoints.
type Perspective string

const (
	White  Perspective = "white"
	Red    Perspective = "red"
	Black  Perspective = "black"
	Yellow Perspective = "yellow"
	Green  Perspective = "green"
	Blue   Perspective = "blue"
)

// Order is the canonical display order. Blue comes last because it
// synthesizes the other five.
var Order = [...]Perspective{White, Red, Black, Yellow, Green, Blue}

// Count is the size of the perspective set.
const Count = len(Order)

type meta struct {
	label string
	emoji string
	focus string
}

var metadata = map[Perspective]meta{
	White:  {"White Hat", "⚪", "Objective facts and data"},
	Red:    {"Red Hat", "🔴", "Emotions and intuitions"},
	Black:  {"Black Hat", "⚫", "Critical analysis and risks"},
	Yellow: {"Yellow Hat", "🟡", "Positive vision and opportunities"},
	Green:  {"Green Hat", "💚", "Creative alternatives and ideas"},
	Blue:   {"Blue Hat", "🔵", "Synthesis and decision framework"},
}

// Parse maps a wire key to a Perspective. Keys outside the six-element set
// are rejected.
func Parse(s string) (Perspective, bool) {
	p := Perspective(s)
	_, ok := metadata[p]
	return p, ok
}

// Valid reports whether p belongs to the perspective set.
func (p Perspective) Valid() bool {
	_, ok := metadata[p]
	return ok
}

// Index returns p's position in Order, or -1.
func (p Perspective) Index() int {
	for i, o := range Order {
		if o == p {
			return i
		}
	}
	return -1
}

// Label returns the display label, e.g. "White Hat".
func (p Perspective) Label() string {
	if m, ok := metadata[p]; ok {
		return m.label
	}
	return string(p)
}

func (p Perspective) Emoji() string { return metadata[p].emoji }

// Focus describes what the perspective looks at.
func (p Perspective) Focus() string { return metadata[p].focus }

// Title returns the capitalized key, e.g. "White".
func (p Perspective) Title() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return string(s[0]-'a'+'A') + s[1:]
}
