// Package playback runs a scene live: raw input drives the reveal engine and a
// completed reveal is committed into the module's on-screen transcript.
// Sessions work on a private copy of the scene and never write back to the store.
package playback

import (
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
)

// ErrCommitted is returned when the current reveal was already committed.
var ErrCommitted = errors.New("already committed")

// Outcome is what a commit put on screen.
type Outcome struct {
	Kind    scene.Kind           `json:"kind"`
	Message *scene.ChatMessage   `json:"message,omitempty"`
	Email   *scene.Email         `json:"email,omitempty"`
	Results []scene.SearchResult `json:"results,omitempty"`
	Feed    *Feed                `json:"-"`
}

// Session is a single playback of one scene. It is safe for concurrent use.
type Session struct {
	mu        sync.Mutex
	def       scene.SceneDefinition
	engine    *reveal.Engine
	policy    reveal.Policy
	committed bool
	sent      []sentMessage
	outbox    []scene.Email
	feed      *Feed
}

// New starts a session over a copy of def.
func New(def scene.SceneDefinition, policy reveal.Policy) *Session {
	s := &Session{policy: policy, engine: reveal.New("")}
	s.switchScene(def)
	return s
}

// SwitchScene replaces the scene and discards any partial reveal.
func (s *Session) SwitchScene(def scene.SceneDefinition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.switchScene(def)
}

func (s *Session) switchScene(def scene.SceneDefinition) {
	s.def = def.Clone()
	s.engine.Reset(triggerOf(s.def))
	s.committed = false
	s.sent = nil
	s.outbox = nil
	s.feed = nil
}

// Follow switches to def when it is a different scene or its trigger
// changed, and reports whether it did. Edits that leave the trigger alone
// refresh the scene without resetting the reveal.
func (s *Session) Follow(def scene.SceneDefinition) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if def.ID == s.def.ID && triggerOf(def) == s.engine.Target() {
		s.def = def.Clone()
		return false
	}
	s.switchScene(def)
	return true
}

// Restart hides the trigger again but keeps the transcript.
func (s *Session) Restart() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Reset(triggerOf(s.def))
	s.committed = false
	s.feed = nil
}

// Scene returns a copy of the scene being played.
func (s *Session) Scene() scene.SceneDefinition {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.def.Clone()
}

// Input feeds one raw event to the engine. Input after a commit is ignored.
func (s *Session) Input(in reveal.Input) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.committed {
		return false
	}
	return s.policy.Apply(s.engine, in)
}

// Reveal returns the current engine state.
func (s *Session) Reveal() reveal.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Snapshot()
}

// Committed reports whether the current reveal was committed.
func (s *Session) Committed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed
}

// Commit puts the revealed trigger on screen. It fails with
// apperr.ErrNotComplete until the whole trigger is visible.
func (s *Session) Commit(now time.Time) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.committed {
		return Outcome{}, ErrCommitted
	}
	if !s.engine.IsComplete() {
		return Outcome{}, apperr.ErrNotComplete
	}

	out := Outcome{Kind: s.def.Kind()}
	switch m := s.def.Module.(type) {
	case *scene.ChatModule:
		if s.engine.Len() == 0 {
			return Outcome{}, apperr.ErrNotComplete
		}
		msg := scene.ChatMessage{
			ID:        messageID("msg", now),
			IsMe:      true,
			Text:      m.TriggerText,
			Time:      now.Format("15:04"),
			Status:    scene.StatusSent,
			Reactions: []string{},
		}
		s.sent = append(s.sent, sentMessage{msg: msg, at: now})
		out.Message = &msg
	case *scene.MailModule:
		if s.engine.Len() == 0 {
			return Outcome{}, apperr.ErrNotComplete
		}
		email := scene.Email{
			ID:          messageID("mail", now),
			SenderName:  m.UserName,
			SenderEmail: m.UserEmail,
			Subject:     m.TriggerText,
			Date:        now.Format("15:04"),
			Read:        true,
			Labels:      []string{},
			Attachments: []scene.Attachment{},
			Folder:      scene.FolderSent,
		}
		s.outbox = append(s.outbox, email)
		out.Email = &email
	case *scene.SearchModule:
		out.Results = m.Clone().(*scene.SearchModule).Results
	case *scene.TerminalModule:
		s.feed = NewFeed(m, now)
		out.Feed = s.feed
	}
	s.committed = true
	return out, nil
}

// Messages returns the chat transcript as of now: the scripted history
// followed by committed messages with their delivery status advanced.
func (s *Session) Messages(now time.Time) []scene.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.def.Module.(*scene.ChatModule)
	if !ok {
		return nil
	}
	out := m.Clone().(*scene.ChatModule).MessagesHistory
	for _, sm := range s.sent {
		msg := sm.msg
		msg.Status = DeliveryStatus(sm.at, now)
		out = append(out, msg)
	}
	return out
}

// Emails returns the mailbox followed by emails sent during the session.
func (s *Session) Emails() []scene.Email {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.def.Module.(*scene.MailModule)
	if !ok {
		return nil
	}
	out := m.Clone().(*scene.MailModule).Emails
	return append(out, s.outbox...)
}

// Feed returns the terminal feed, or nil before a terminal commit.
func (s *Session) Feed() *Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.feed
}

func triggerOf(def scene.SceneDefinition) string {
	if def.Module == nil {
		return ""
	}
	return def.Module.Trigger()
}

// messageID stamps a committed message. Ids stay unique within one millisecond.
func messageID(prefix string, now time.Time) string {
	id := ulid.MustNew(ulid.Timestamp(now), ulid.DefaultEntropy())
	return prefix + "-" + strings.ToLower(id.String())
}
