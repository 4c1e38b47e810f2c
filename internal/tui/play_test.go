package tui

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func chatScene() scene.SceneDefinition {
	return scene.SceneDefinition{
		ID:             "chat",
		GlobalSettings: scene.DefaultSettings(),
		Module: &scene.ChatModule{
			TriggerText:     "hi",
			ContactName:     "Ana",
			MessageToType:   "hi",
			MessagesHistory: []scene.ChatMessage{{ID: "1", Text: "hello?", Time: "09:00", Status: scene.StatusRead, Reactions: []string{}}},
		},
	}
}

func terminalScene() scene.SceneDefinition {
	return scene.SceneDefinition{
		ID:             "term",
		GlobalSettings: scene.GlobalSettings{ThemeID: scene.ThemeHacker, ZoomLevel: 1},
		Module: &scene.TerminalModule{
			TriggerText:  "go",
			Color:        "red",
			Lines:        []string{"boot", "done"},
			TypingSpeed:  scene.SpeedInstant,
			FinalMessage: "ACCESS GRANTED",
			FinalStatus:  scene.FinalSuccess,
		},
	}
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func TestChat_TypeAndSend(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
	m := New([]scene.SceneDefinition{chatScene()}, 0, reveal.DefaultPolicy(), WithClock(c.now))

	m.Update(runes("x"))
	if got := m.Session().Reveal().DisplayValue; got != "h" {
		t.Fatalf("after one key = %q, want h", got)
	}
	m.Update(runes("y"))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.Session().Committed() {
		t.Fatal("enter on a complete reveal should commit and start ticking")
	}
	if v := m.View(); !strings.Contains(v, "hi") || !strings.Contains(v, "✓ sent") {
		t.Errorf("view after send:\n%s", v)
	}

	c.t = c.t.Add(3 * time.Second)
	if _, cmd := m.Update(tickMsg(c.t)); cmd != nil {
		t.Error("ticking should stop once the message is read")
	}
	if v := m.View(); !strings.Contains(v, "read") {
		t.Errorf("view after 3s:\n%s", v)
	}
}

func TestEnter_ForcesCompletionFirst(t *testing.T) {
	m := New([]scene.SceneDefinition{chatScene()}, 0, reveal.DefaultPolicy())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Session().Reveal().IsComplete || m.Session().Committed() {
		t.Fatal("first enter reveals everything without sending")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if !m.Session().Committed() {
		t.Fatal("second enter sends")
	}
}

func TestBackspaceAndTap(t *testing.T) {
	m := New([]scene.SceneDefinition{terminalScene()}, 0, reveal.Policy{TapIncrement: 2})

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if got := m.Session().Reveal().DisplayValue; got != "go" {
		t.Fatalf("tap = %q, want go", got)
	}
	m.Update(tea.KeyMsg{Type: tea.KeyBackspace})
	if got := m.Session().Reveal().DisplayValue; got != "g" {
		t.Fatalf("backspace = %q, want g", got)
	}
	m.Update(tea.MouseMsg{Action: tea.MouseActionRelease, Button: tea.MouseButtonLeft})
	if got := m.Session().Reveal().DisplayValue; got != "g" {
		t.Fatal("mouse release must not reveal")
	}
}

func TestTerminal_InstantFeed(t *testing.T) {
	c := &clock{t: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)}
	m := New([]scene.SceneDefinition{terminalScene()}, 0, reveal.DefaultPolicy(), WithClock(c.now))

	m.Update(runes("ab"))
	m.Update(tea.KeyMsg{Type: tea.KeyEnter})

	v := m.View()
	for _, want := range []string{"kernel: boot", "kernel: done", "ACCESS GRANTED"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q:\n%s", want, v)
		}
	}
}

func TestSwitchScene(t *testing.T) {
	m := New([]scene.SceneDefinition{chatScene(), terminalScene()}, 0, reveal.DefaultPolicy())
	m.Update(runes("x"))

	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Session().Scene().ID != "term" || m.Session().Reveal().RevealedLength != 0 {
		t.Fatal("ctrl+n moves to the next scene with a fresh reveal")
	}
	m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	if m.Session().Scene().ID != "chat" {
		t.Fatal("scene list wraps around")
	}
}

func TestEmptyTrigger_ShowsStatus(t *testing.T) {
	def := chatScene()
	def.Module.(*scene.ChatModule).TriggerText = ""
	m := New([]scene.SceneDefinition{def}, 0, reveal.DefaultPolicy())

	m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.Session().Committed() {
		t.Fatal("an empty trigger cannot be sent")
	}
	if !strings.Contains(m.View(), "nothing to send") {
		t.Error("view should explain the refused send")
	}
}

func TestNoScenes(t *testing.T) {
	m := New(nil, 0, reveal.DefaultPolicy())
	if !strings.Contains(m.View(), "no scene to play") {
		t.Error("empty host should say so")
	}
	if _, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEsc}); cmd == nil {
		t.Error("esc quits")
	}
}
