// Package tui is a terminal play host: it shows the current scene full
// screen and feeds key presses and mouse taps to a playback session.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/playback"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
)

const (
	tickInterval = 100 * time.Millisecond
	barWidth     = 30
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model plays a list of scenes, one at a time.
type Model struct {
	session *playback.Session
	scenes  []scene.SceneDefinition
	idx     int
	now     func() time.Time
	st      styles
	width   int
	height  int
	status  string
	sentAt  time.Time
}

// Option configures a Model.
type Option func(*Model)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option { return func(m *Model) { m.now = now } }

// New creates a play host over scenes, starting at index start.
func New(scenes []scene.SceneDefinition, start int, policy reveal.Policy, opts ...Option) *Model {
	if start < 0 || start >= len(scenes) {
		start = 0
	}
	m := &Model{scenes: scenes, idx: start, now: time.Now}
	for _, o := range opts {
		o(m)
	}
	var def scene.SceneDefinition
	if len(scenes) > 0 {
		def = scenes[start]
	}
	m.session = playback.New(def, policy)
	m.st = newStyles(def.GlobalSettings)
	return m
}

// Session exposes the playback session.
func (m *Model) Session() *playback.Session { return m.session }

func (m *Model) Init() tea.Cmd { return nil }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case tickMsg:
		if m.animating() {
			return m, tick()
		}

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.input(reveal.Input{Source: reveal.Touch})
		}

	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m *Model) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyEsc:
		return m, tea.Quit
	case tea.KeyCtrlR:
		m.session.Restart()
		m.status = ""
	case tea.KeyCtrlN:
		m.switchTo(m.idx + 1)
	case tea.KeyCtrlP:
		m.switchTo(m.idx - 1)
	case tea.KeyEnter:
		snap := m.session.Reveal()
		if snap.IsComplete && !m.session.Committed() {
			return m, m.commit()
		}
		m.input(reveal.Input{Source: reveal.Keyboard, Key: reveal.KeyEnter})
	case tea.KeyBackspace:
		m.input(reveal.Input{Source: reveal.Keyboard, Key: reveal.KeyBackspace})
	case tea.KeySpace:
		m.input(reveal.Input{Source: reveal.Keyboard, Key: " "})
	case tea.KeyRunes:
		for _, r := range msg.Runes {
			m.input(reveal.Input{Source: reveal.Keyboard, Key: string(r)})
		}
	}
	return m, nil
}

func (m *Model) input(in reveal.Input) {
	if m.session.Input(in) {
		m.status = ""
	}
}

func (m *Model) switchTo(i int) {
	if len(m.scenes) == 0 {
		return
	}
	m.idx = (i + len(m.scenes)) % len(m.scenes)
	def := m.scenes[m.idx]
	m.session.SwitchScene(def)
	m.st = newStyles(def.GlobalSettings)
	m.status = ""
}

func (m *Model) commit() tea.Cmd {
	now := m.now()
	if _, err := m.session.Commit(now); err != nil {
		switch {
		case errors.Is(err, apperr.ErrNotComplete):
			m.status = "nothing to send"
		case errors.Is(err, playback.ErrCommitted):
		default:
			m.status = err.Error()
		}
		return nil
	}
	m.sentAt = now
	return tick()
}

// animating reports whether the screen still changes without input.
func (m *Model) animating() bool {
	now := m.now()
	if f := m.session.Feed(); f != nil && !f.Finished(now) {
		return true
	}
	return m.session.Scene().Kind() == scene.KindChat && now.Sub(m.sentAt) < playback.ReadAfter
}

func (m *Model) View() string {
	def := m.session.Scene()
	if def.Module == nil {
		return m.st.dim.Render("no scene to play") + "\n"
	}

	var body string
	switch mod := def.Module.(type) {
	case *scene.SearchModule:
		body = m.viewSearch(mod)
	case *scene.ChatModule:
		body = m.viewChat(mod)
	case *scene.MailModule:
		body = m.viewMail(mod)
	case *scene.TerminalModule:
		body = m.viewTerminal(mod)
	}

	footer := m.st.dim.Render("type to reveal · enter send · ctrl+r restart · ctrl+n/p scene · esc quit")
	if m.status != "" {
		footer = m.st.err.Render(m.status) + "\n" + footer
	}
	out := lipgloss.JoinVertical(lipgloss.Left, body, "", footer)
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, out)
	}
	return out
}

// typed renders the revealed text with a cursor while the reveal is live.
func (m *Model) typed() string {
	s := m.session.Reveal().DisplayValue
	if m.session.Committed() {
		return s
	}
	return s + m.st.accent.Render("▌")
}

func (m *Model) viewSearch(mod *scene.SearchModule) string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(mod.BrandName) + "\n")
	b.WriteString(m.st.box.Width(60).Render("🔍 "+m.typed()) + "\n")
	if !m.session.Committed() {
		return b.String()
	}
	for _, r := range mod.Results {
		b.WriteString("\n" + m.st.accent.Render(r.Title) + "\n")
		b.WriteString(m.st.success.Render(r.URL) + "\n")
		b.WriteString(m.st.dim.Render(r.Snippet) + "\n")
	}
	return b.String()
}

func (m *Model) viewChat(mod *scene.ChatModule) string {
	var b strings.Builder
	header := mod.ContactName
	if mod.ContactStatus != "" {
		header += m.st.dim.Render(" · " + mod.ContactStatus)
	}
	b.WriteString(m.st.title.Render(header) + "\n\n")
	for _, msg := range m.session.Messages(m.now()) {
		if msg.IsMe {
			line := fmt.Sprintf("%s  %s %s", msg.Text, msg.Time, statusMark(msg.Status))
			b.WriteString(lipgloss.PlaceHorizontal(60, lipgloss.Right, m.st.accent.Render(line)) + "\n")
			continue
		}
		b.WriteString(fmt.Sprintf("%s  %s\n", msg.Text, m.st.dim.Render(msg.Time)))
	}
	if !m.session.Committed() {
		b.WriteString("\n" + m.st.box.Width(60).Render(m.typed()))
	}
	return b.String()
}

func statusMark(status string) string {
	switch status {
	case scene.StatusRead:
		return "✓✓ read"
	case scene.StatusDelivered:
		return "✓✓ delivered"
	}
	return "✓ sent"
}

func (m *Model) viewMail(mod *scene.MailModule) string {
	var b strings.Builder
	b.WriteString(m.st.title.Render(mod.UserEmail) + "\n\n")
	for _, e := range m.session.Emails() {
		mark := " "
		if !e.Read {
			mark = m.st.accent.Render("●")
		}
		folder := ""
		if e.Folder == scene.FolderSent {
			folder = m.st.dim.Render("[sent] ")
		}
		b.WriteString(fmt.Sprintf("%s %s%-20s %s  %s\n", mark, folder, e.SenderName, e.Subject, m.st.dim.Render(e.Date)))
	}
	if !m.session.Committed() {
		b.WriteString("\n" + m.st.box.Width(60).Render("Subject: "+m.typed()))
	}
	return b.String()
}

func (m *Model) viewTerminal(mod *scene.TerminalModule) string {
	fg := lipgloss.NewStyle().Foreground(terminalColors["green"])
	if c, ok := terminalColors[mod.Color]; ok {
		fg = lipgloss.NewStyle().Foreground(c)
	}
	var b strings.Builder
	b.WriteString(fg.Render("$ "+m.typed()) + "\n")

	f := m.session.Feed()
	if f == nil {
		return b.String()
	}
	now := m.now()
	for _, line := range f.Lines(now) {
		b.WriteString(fg.Render(line) + "\n")
	}
	if mod.ShowProgressBar {
		b.WriteString(progressBar(f.Progress(now)) + "\n")
	}
	if f.Finished(now) {
		msg, status := f.Final()
		if msg != "" {
			style := m.st.success
			if status == scene.FinalError {
				style = m.st.err
			}
			b.WriteString(style.Render(msg) + "\n")
		}
	}
	return b.String()
}

func progressBar(pct float64) string {
	filled := int(pct / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	return fmt.Sprintf("[%s%s] %3.0f%%", strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled), pct)
}
