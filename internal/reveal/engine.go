// Package reveal implements "magic typing": a fixed target string revealed one
// step at a time in response to discrete input events.
package reveal

// Engine reveals a target string character by character. A character is a
// Unicode code point. The zero value is a complete engine over "".
type Engine struct {
	target   []rune
	revealed int
}

// New returns an engine over target with nothing revealed.
func New(target string) *Engine {
	e := &Engine{}
	e.Reset(target)
	return e
}

// Reset switches to a new target and hides everything.
func (e *Engine) Reset(target string) {
	e.target = []rune(target)
	e.revealed = 0
}

// Advance reveals k more characters, saturating at the end of the target.
// Non-positive k is ignored. It reports whether anything changed.
func (e *Engine) Advance(k int) bool {
	if k < 1 || e.revealed == len(e.target) {
		return false
	}
	e.revealed = min(e.revealed+k, len(e.target))
	return true
}

// Retreat hides the last revealed character.
func (e *Engine) Retreat() bool {
	if e.revealed == 0 {
		return false
	}
	e.revealed--
	return true
}

// ForceComplete reveals the whole target.
func (e *Engine) ForceComplete() bool {
	if e.revealed == len(e.target) {
		return false
	}
	e.revealed = len(e.target)
	return true
}

// Target returns the full target string.
func (e *Engine) Target() string { return string(e.target) }

// RevealedLength returns how many characters are visible.
func (e *Engine) RevealedLength() int { return e.revealed }

// Len returns the target length in characters.
func (e *Engine) Len() int { return len(e.target) }

// DisplayValue returns the visible prefix of the target.
func (e *Engine) DisplayValue() string { return string(e.target[:e.revealed]) }

// IsComplete reports whether the whole target is visible.
func (e *Engine) IsComplete() bool { return e.revealed == len(e.target) }

// Snapshot is a read-only view of the engine state.
type Snapshot struct {
	DisplayValue   string `json:"displayValue"`
	RevealedLength int    `json:"revealedLength"`
	Length         int    `json:"length"`
	IsComplete     bool   `json:"isComplete"`
}

// Snapshot captures the current state.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		DisplayValue:   e.DisplayValue(),
		RevealedLength: e.revealed,
		Length:         len(e.target),
		IsComplete:     e.IsComplete(),
	}
}
