package playback

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
)

var t0 = time.Date(2025, time.June, 1, 9, 30, 0, 0, time.UTC)

func chatScene(trigger string) scene.SceneDefinition {
	return scene.NewScene("P", "chat", &scene.ChatModule{
		TriggerText:     trigger,
		MessageToType:   trigger,
		ContactName:     "Ana",
		MessagesHistory: []scene.ChatMessage{},
	}, t0)
}

func key(k string) reveal.Input { return reveal.Input{Source: reveal.Keyboard, Key: k} }

func TestChat_TypeAndCommit(t *testing.T) {
	def := chatScene("hi")
	s := New(def, reveal.DefaultPolicy())

	if _, err := s.Commit(t0); !errors.Is(err, apperr.ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete, got %v", err)
	}
	s.Input(key("x"))
	if got := s.Reveal().DisplayValue; got != "h" {
		t.Fatalf("display after one key = %q", got)
	}
	s.Input(key("y"))
	if !s.Reveal().IsComplete {
		t.Fatal("expected complete after two keys")
	}

	out, err := s.Commit(t0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.Message == nil || !out.Message.IsMe || out.Message.Text != "hi" || out.Message.Time != "09:30" {
		t.Fatalf("unexpected message %+v", out.Message)
	}

	msgs := s.Messages(t0)
	if len(msgs) != 1 || !msgs[0].IsMe || msgs[0].Status != scene.StatusSent {
		t.Fatalf("unexpected transcript %+v", msgs)
	}
	if got := s.Messages(t0.Add(time.Second))[0].Status; got != scene.StatusDelivered {
		t.Fatalf("status after 1s = %q", got)
	}
	if got := s.Messages(t0.Add(3 * time.Second))[0].Status; got != scene.StatusRead {
		t.Fatalf("status after 3s = %q", got)
	}

	if _, err := s.Commit(t0); !errors.Is(err, ErrCommitted) {
		t.Fatalf("expected ErrCommitted, got %v", err)
	}
	if s.Input(key("z")) {
		t.Fatal("input after commit must be ignored")
	}

	if len(def.Module.(*scene.ChatModule).MessagesHistory) != 0 {
		t.Fatal("session must not modify the caller's scene")
	}
}

func TestChat_EmptyTriggerCannotCommit(t *testing.T) {
	s := New(chatScene(""), reveal.DefaultPolicy())
	if !s.Reveal().IsComplete {
		t.Fatal("empty target is complete")
	}
	if _, err := s.Commit(t0); !errors.Is(err, apperr.ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete, got %v", err)
	}
}

func TestSwitchScene_ResetsReveal(t *testing.T) {
	s := New(chatScene("hello"), reveal.DefaultPolicy())
	s.Input(reveal.Input{Source: reveal.Touch})
	if s.Reveal().RevealedLength == 0 {
		t.Fatal("tap should reveal")
	}
	s.SwitchScene(chatScene("bye"))
	snap := s.Reveal()
	if snap.RevealedLength != 0 || snap.Length != 3 {
		t.Fatalf("unexpected state after switch %+v", snap)
	}
}

func TestRestart_KeepsTranscript(t *testing.T) {
	s := New(chatScene("ok"), reveal.DefaultPolicy())
	s.Input(key(reveal.KeyEnter))
	if _, err := s.Commit(t0); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	s.Restart()
	if s.Committed() || s.Reveal().RevealedLength != 0 {
		t.Fatal("restart should hide the trigger")
	}
	s.Input(key(reveal.KeyEnter))
	if _, err := s.Commit(t0.Add(time.Minute)); err != nil {
		t.Fatalf("second Commit: %v", err)
	}
	if n := len(s.Messages(t0)); n != 2 {
		t.Fatalf("expected 2 messages, got %d", n)
	}
}

func TestMail_CommitSendsEmail(t *testing.T) {
	p := scene.DemoProject(t0)
	s := New(p.Scenes[0], reveal.DefaultPolicy())
	s.Input(key(reveal.KeyEnter))
	out, err := s.Commit(t0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if out.Email == nil || out.Email.Subject != "I quit, effective immediately." || out.Email.Folder != scene.FolderSent {
		t.Fatalf("unexpected email %+v", out.Email)
	}
	if emails := s.Emails(); len(emails) != 2 || emails[1].SenderEmail != "thomas.anderson@metacortex.com" {
		t.Fatalf("unexpected mailbox %+v", emails)
	}
}

func TestSearch_CommitRevealsResults(t *testing.T) {
	m := &scene.SearchModule{
		TriggerText: "q",
		BrandName:   "Seeker",
		Results:     []scene.SearchResult{{ID: "1", Title: "One"}, {ID: "2", Title: "Two"}},
	}
	s := New(scene.NewScene("P", "search", m, t0), reveal.DefaultPolicy())
	s.Input(key("a"))
	out, err := s.Commit(t0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(out.Results) != 2 || out.Results[1].Title != "Two" {
		t.Fatalf("unexpected results %+v", out.Results)
	}
}

func TestTerminal_FeedTiming(t *testing.T) {
	m := &scene.TerminalModule{
		TriggerText:      "run",
		Color:            "blue",
		Lines:            []string{"a", "b", "c"},
		TypingSpeed:      scene.SpeedSlow,
		ShowProgressBar:  true,
		ProgressDuration: 2,
		FinalMessage:     "Done",
		FinalStatus:      scene.FinalSuccess,
	}
	s := New(scene.NewScene("P", "term", m, t0), reveal.DefaultPolicy())
	if s.Feed() != nil {
		t.Fatal("no feed before commit")
	}
	s.Input(key(reveal.KeyEnter))
	out, err := s.Commit(t0)
	if err != nil {
		t.Fatalf("Commit: %v", err)
	}
	f := out.Feed
	if f == nil || f != s.Feed() {
		t.Fatal("commit should start the feed")
	}

	if n := f.Visible(t0.Add(399 * time.Millisecond)); n != 0 {
		t.Fatalf("visible before first delay = %d", n)
	}
	lines := f.Lines(t0.Add(850 * time.Millisecond))
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %v", lines)
	}
	if lines[0] != "[09:30:00] sshd[2849]: a" {
		t.Fatalf("unexpected line %q", lines[0])
	}
	if f.Finished(t0.Add(1500 * time.Millisecond)) {
		t.Fatal("progress bar not full yet")
	}
	if got := f.Progress(t0.Add(time.Second)); got != 50 {
		t.Fatalf("progress at 1s = %v", got)
	}
	if !f.Finished(t0.Add(2 * time.Second)) {
		t.Fatal("expected finished")
	}
	if msg, status := f.Final(); msg != "Done" || status != scene.FinalSuccess {
		t.Fatalf("unexpected final %q %q", msg, status)
	}
}

func TestTerminal_InstantShowsEverything(t *testing.T) {
	m := &scene.TerminalModule{Lines: []string{"x", "y"}, TypingSpeed: scene.SpeedInstant, Color: "red"}
	f := NewFeed(m, t0)
	lines := f.Lines(t0)
	if len(lines) != 2 || !strings.Contains(lines[1], "kernel: y") {
		t.Fatalf("unexpected lines %v", lines)
	}
	if !f.Finished(t0) {
		t.Fatal("instant feed without bar is finished at once")
	}
}

func TestLinePrefixAndDelay(t *testing.T) {
	if LinePrefix("amber") != "jenkins:" || LinePrefix("green") != "systemd[1]:" {
		t.Fatal("unexpected prefixes")
	}
	if LineDelay(scene.SpeedFast) != 80*time.Millisecond || LineDelay("") != 0 {
		t.Fatal("unexpected delays")
	}
}

func TestFollow(t *testing.T) {
	def := chatScene("hello")
	s := New(def, reveal.DefaultPolicy())
	s.Input(key("a"))

	edited := def.Clone()
	edited.Module.(*scene.ChatModule).ContactName = "Bob"
	if s.Follow(edited) {
		t.Fatal("same trigger must not reset")
	}
	if s.Reveal().RevealedLength != 1 || s.Scene().Module.(*scene.ChatModule).ContactName != "Bob" {
		t.Fatal("scene should refresh and keep the reveal")
	}

	edited = edited.Clone()
	edited.Module = scene.WithTrigger(edited.Module, "bye")
	if !s.Follow(edited) {
		t.Fatal("new trigger must reset")
	}
	if s.Reveal().RevealedLength != 0 || s.Reveal().Length != 3 {
		t.Fatalf("unexpected reveal %+v", s.Reveal())
	}
}

func TestCommitIDsUniqueWithinMillisecond(t *testing.T) {
	s := New(chatScene("ok"), reveal.DefaultPolicy())
	for range 3 {
		s.Input(key(reveal.KeyEnter))
		if _, err := s.Commit(t0); err != nil {
			t.Fatalf("Commit: %v", err)
		}
		s.Restart()
	}
	seen := map[string]bool{}
	for _, m := range s.Messages(t0) {
		if seen[m.ID] {
			t.Fatalf("duplicate message id %q", m.ID)
		}
		seen[m.ID] = true
	}
	if len(seen) != 3 {
		t.Fatalf("messages = %d, want 3", len(seen))
	}

	mail := New(scene.DemoProject(t0).Scenes[0], reveal.DefaultPolicy())
	var ids []string
	for range 2 {
		mail.Input(key(reveal.KeyEnter))
		out, err := mail.Commit(t0)
		if err != nil {
			t.Fatalf("mail Commit: %v", err)
		}
		ids = append(ids, out.Email.ID)
		mail.Restart()
	}
	if ids[0] == ids[1] || !strings.HasPrefix(ids[0], "mail-") {
		t.Errorf("email ids = %v", ids)
	}
}

func TestTerminal_ProgressDurationClamped(t *testing.T) {
	m := &scene.TerminalModule{Lines: []string{"x"}, TypingSpeed: scene.SpeedInstant, ShowProgressBar: true, ProgressDuration: 1e300}
	f := NewFeed(m, t0)
	end := t0.Add(time.Duration(scene.MaxProgressDuration) * time.Second)
	if got := f.Progress(t0.Add(-time.Second)); got != 0 {
		t.Errorf("progress before start = %v", got)
	}
	if got := f.Progress(end.Add(-time.Hour / 2)); got != 50 {
		t.Errorf("progress halfway = %v, want 50", got)
	}
	if !f.Finished(end) {
		t.Error("feed should finish at the capped duration")
	}

	m.ProgressDuration = -3
	if got := NewFeed(m, t0).Progress(t0); got != 100 {
		t.Errorf("negative duration progress = %v, want 100", got)
	}
}
