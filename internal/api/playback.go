package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/playback"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/sse"
)

// Player runs playback of whatever scene is current in the store.
type Player struct {
	store   *projectstore.Store
	session *playback.Session
	now     func() time.Time
}

// NewPlayer creates a player that follows the store's current scene.
func NewPlayer(store *projectstore.Store, policy reveal.Policy) *Player {
	def, _ := store.CurrentScene()
	return &Player{
		store:   store,
		session: playback.New(def, policy),
		now:     time.Now,
	}
}

// sync points the session at the current scene. It reports false when no
// scene is selected.
func (p *Player) sync() bool {
	def, ok := p.store.CurrentScene()
	if !ok {
		return false
	}
	p.session.Follow(def)
	return true
}

// PlaybackState is the on-screen state of the current scene.
type PlaybackState struct {
	SceneID   string               `json:"sceneId"`
	Kind      scene.Kind           `json:"kind"`
	Reveal    reveal.Snapshot      `json:"reveal"`
	Committed bool                 `json:"committed"`
	Messages  []scene.ChatMessage  `json:"messages,omitempty"`
	Emails    []scene.Email        `json:"emails,omitempty"`
	Results   []scene.SearchResult `json:"results,omitempty"`
	Lines     []string             `json:"lines,omitempty"`
	Progress  float64              `json:"progress,omitempty"`
	Finished  bool                 `json:"finished,omitempty"`
}

func (p *Player) state() PlaybackState {
	now := p.now()
	def := p.session.Scene()
	st := PlaybackState{
		SceneID:   def.ID,
		Kind:      def.Kind(),
		Reveal:    p.session.Reveal(),
		Committed: p.session.Committed(),
		Messages:  p.session.Messages(now),
		Emails:    p.session.Emails(),
	}
	if m, ok := def.Module.(*scene.SearchModule); ok && st.Committed {
		st.Results = m.Results
	}
	if f := p.session.Feed(); f != nil {
		st.Lines = f.Lines(now)
		st.Progress = f.Progress(now)
		st.Finished = f.Finished(now)
	}
	return st
}

// PlaybackState handles GET /api/playback.
func (h *Handler) PlaybackState(w http.ResponseWriter, r *http.Request) {
	if !h.player.sync() {
		notFound(w)
		return
	}
	writeJSON(w, http.StatusOK, h.player.state())
}

// PlaybackInput handles POST /api/playback/input.
//
//	@Summary		Feed one keyboard or touch event to the reveal engine
//	@Tags			playback
//	@Accept			json
//	@Produce		json
//	@Param			body	body		InputRequest	true	"Input event"
//	@Success		200		{object}	PlaybackState
//	@Security		BearerAuth
//	@Router			/playback/input [post]
func (h *Handler) PlaybackInput(w http.ResponseWriter, r *http.Request) {
	var req InputRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if !h.player.sync() {
		notFound(w)
		return
	}
	if h.player.session.Input(req.Input()) {
		h.publish(sse.Event{Type: sse.TypeReveal, Data: h.player.session.Reveal()})
	}
	writeJSON(w, http.StatusOK, h.player.state())
}

// PlaybackCommit handles POST /api/playback/commit.
func (h *Handler) PlaybackCommit(w http.ResponseWriter, r *http.Request) {
	if !h.player.sync() {
		notFound(w)
		return
	}
	out, err := h.player.session.Commit(h.player.now())
	if err != nil {
		if errors.Is(err, playback.ErrCommitted) {
			writeJSON(w, http.StatusConflict, errorBody(err.Error()))
			return
		}
		writeError(w, "commit", err)
		return
	}
	h.publish(sse.Event{Type: sse.TypeCommit, Data: out})
	writeJSON(w, http.StatusOK, h.player.state())
}

// PlaybackRestart handles POST /api/playback/restart.
func (h *Handler) PlaybackRestart(w http.ResponseWriter, r *http.Request) {
	if !h.player.sync() {
		writeError(w, "restart", apperr.ErrNotFound)
		return
	}
	h.player.session.Restart()
	writeJSON(w, http.StatusOK, h.player.state())
}
