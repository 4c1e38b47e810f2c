package playback

import (
	"fmt"
	"time"

	"github.com/starford/cinesuite/internal/scene"
)

// LineDelay returns the pause between two log lines for a typing speed.
func LineDelay(speed string) time.Duration {
	switch speed {
	case scene.SpeedSlow:
		return 400 * time.Millisecond
	case scene.SpeedFast:
		return 80 * time.Millisecond
	default:
		return 0
	}
}

// LinePrefix returns the syslog-style source shown for a terminal color.
func LinePrefix(color string) string {
	switch color {
	case "red":
		return "kernel:"
	case "blue":
		return "sshd[2849]:"
	case "amber":
		return "jenkins:"
	default:
		return "systemd[1]:"
	}
}

// Feed scrolls a terminal module's lines out over time, starting at a commit.
// It holds no timers: callers ask what is visible at a given instant.
type Feed struct {
	lines    []string
	prefix   string
	delay    time.Duration
	progress time.Duration
	showBar  bool
	final    string
	status   string
	start    time.Time
}

// NewFeed starts a feed for m at start.
func NewFeed(m *scene.TerminalModule, start time.Time) *Feed {
	return &Feed{
		lines:    append([]string(nil), m.Lines...),
		prefix:   LinePrefix(m.Color),
		delay:    LineDelay(m.TypingSpeed),
		progress: progressDuration(m.ProgressDuration),
		showBar:  m.ShowProgressBar,
		final:    m.FinalMessage,
		status:   m.FinalStatus,
		start:    start,
	}
}

// progressDuration converts seconds to a Duration, clamped to
// [0, scene.MaxProgressDuration]. NaN counts as zero.
func progressDuration(secs float64) time.Duration {
	if !(secs > 0) {
		return 0
	}
	secs = min(secs, scene.MaxProgressDuration)
	return time.Duration(secs * float64(time.Second))
}

// Visible returns how many lines are on screen at now.
func (f *Feed) Visible(now time.Time) int {
	if f.delay == 0 {
		return len(f.lines)
	}
	elapsed := now.Sub(f.start)
	if elapsed < 0 {
		return 0
	}
	return min(int(elapsed/f.delay), len(f.lines))
}

// Lines returns the formatted lines visible at now.
func (f *Feed) Lines(now time.Time) []string {
	n := f.Visible(now)
	out := make([]string, n)
	for i := range n {
		at := f.start.Add(time.Duration(i+1) * f.delay).UTC()
		out[i] = fmt.Sprintf("[%s] %s %s", at.Format("15:04:05"), f.prefix, f.lines[i])
	}
	return out
}

// Progress returns the progress bar fill at now, from 0 to 100. It is 0 when
// the module has no progress bar.
func (f *Feed) Progress(now time.Time) float64 {
	if !f.showBar {
		return 0
	}
	if f.progress <= 0 {
		return 100
	}
	elapsed := now.Sub(f.start)
	if elapsed <= 0 {
		return 0
	}
	return min(100, 100*float64(elapsed)/float64(f.progress))
}

// Finished reports whether the final message is due at now: every line is
// out and the progress bar, if any, is full.
func (f *Feed) Finished(now time.Time) bool {
	if f.Visible(now) < len(f.lines) {
		return false
	}
	return !f.showBar || f.Progress(now) >= 100
}

// Final returns the closing message and status.
func (f *Feed) Final() (message, status string) { return f.final, f.status }

// Len returns the number of lines the feed will show.
func (f *Feed) Len() int { return len(f.lines) }
