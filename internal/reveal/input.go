package reveal

import (
	"unicode"
	"unicode/utf8"
)

// Source identifies where an input event came from.
type Source int

const (
	// Keyboard is a physical key press.
	Keyboard Source = iota
	// Touch is a tap on a touch screen.
	Touch
)

// String returns the source name.
func (s Source) String() string {
	switch s {
	case Keyboard:
		return "keyboard"
	case Touch:
		return "touch"
	}
	return "unknown"
}

// Named keys that the engine reacts to.
const (
	KeyEnter     = "Enter"
	KeyBackspace = "Backspace"
)

// DefaultTapIncrement is how many characters a single tap reveals. Touch
// actors cannot type the exact number of characters, so a tap keeps pace by
// revealing several at once.
const DefaultTapIncrement = 3

// Input is one raw input event. Key holds either a single printable character
// or a named key such as "Enter"; it is ignored for touch events.
type Input struct {
	Source Source `json:"source"`
	Key    string `json:"key,omitempty"`
}

// Policy maps raw inputs onto engine transitions.
type Policy struct {
	TapIncrement int
}

// DefaultPolicy returns the policy with the default tap increment.
func DefaultPolicy() Policy { return Policy{TapIncrement: DefaultTapIncrement} }

// Apply feeds in into e and reports whether the engine state changed.
// Modifiers and other non-printable keys are ignored.
func (p Policy) Apply(e *Engine, in Input) bool {
	if in.Source == Touch {
		step := p.TapIncrement
		if step < 1 {
			step = DefaultTapIncrement
		}
		return e.Advance(step)
	}
	switch in.Key {
	case KeyEnter:
		return e.ForceComplete()
	case KeyBackspace:
		return e.Retreat()
	}
	if IsPrintable(in.Key) {
		return e.Advance(1)
	}
	return false
}

// IsPrintable reports whether key is exactly one printable character.
func IsPrintable(key string) bool {
	if utf8.RuneCountInString(key) != 1 {
		return false
	}
	r, _ := utf8.DecodeRuneInString(key)
	return r != utf8.RuneError && unicode.IsPrint(r)
}
