package projectstore

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/slot"
)

// Codec converts State to and from the persisted blob.
type Codec interface {
	EncodeStore(State) ([]byte, error)
	DecodeStore([]byte) (State, error)
}

// Change operations reported to observers.
const (
	OpCreateProject   = "project.create"
	OpDeleteProject   = "project.delete"
	OpUpdateProject   = "project.update"
	OpSelectProject   = "project.select"
	OpAddScene        = "scene.add"
	OpUpdateScene     = "scene.update"
	OpDeleteScene     = "scene.delete"
	OpDuplicateScene  = "scene.duplicate"
	OpSelectScene     = "scene.select"
	OpReplaceSnapshot = "store.replace"
)

// Change describes one applied mutation.
type Change struct {
	Op        string `json:"op"`
	ProjectID string `json:"projectId,omitempty"`
	SceneID   string `json:"sceneId,omitempty"`
}

// Store wraps State, serializes access to it and writes the full encoded
// state to the slot after every mutation that changed something.
type Store struct {
	mu        sync.Mutex
	state     State
	slot      slot.Slot
	codec     Codec
	key       string
	now       func() time.Time
	newProjID func() string
	newScnID  func() string
	logger    *slog.Logger
	observers []func(Change)
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces the wall clock used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs replaces the project and scene id generators.
func WithIDs(project, scene func() string) Option {
	return func(s *Store) {
		s.newProjID = project
		s.newScnID = scene
	}
}

// WithKey overrides the slot key.
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithLogger sets the logger used for load diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open loads the store from sl. A missing or undecodable blob yields the
// demonstration project, which is written back immediately.
func Open(ctx context.Context, sl slot.Slot, c Codec, opts ...Option) (*Store, error) {
	s := &Store{
		slot:      sl,
		codec:     c,
		key:       slot.StoreKey,
		now:       func() time.Time { return time.Now().UTC() },
		newProjID: scene.NewProjectID,
		newScnID:  scene.NewSceneID,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	data, ok, err := sl.Load(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("projectstore: load: %w", err)
	}
	if ok {
		st, err := c.DecodeStore(data)
		if err == nil {
			st.Repair()
			s.state = st
			return s, nil
		}
		s.logger.Warn("stored projects unreadable, starting from demo",
			slog.String("error", err.Error()))
	}
	s.state = Demo(s.now())
	if err := s.persist(ctx, s.state); err != nil {
		return nil, err
	}
	return s, nil
}

// OnChange registers fn to run after each persisted mutation. fn runs with
// the store unlocked and must not block for long.
func (s *Store) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

// Snapshot returns a deep copy of the whole state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Projects returns copies of all projects in display order.
func (s *Store) Projects() []scene.Project {
	return s.Snapshot().Projects
}

// Project returns a copy of one project.
func (s *Store) Project(id string) (scene.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Project(id)
}

// CurrentProject returns a copy of the current project.
func (s *Store) CurrentProject() (scene.Project, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentProject()
}

// CurrentScene returns a copy of the current scene.
func (s *Store) CurrentScene() (scene.SceneDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.CurrentScene()
}

// Scene returns a copy of the addressed scene.
func (s *Store) Scene(projectID, sceneID string) (scene.SceneDefinition, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Scene(projectID, sceneID)
}

// CreateProject creates and selects a new empty project.
func (s *Store) CreateProject(ctx context.Context, name, description string) (scene.Project, error) {
	var p scene.Project
	err := s.mutate(ctx, func(st *State, now time.Time) (Change, bool) {
		p = st.CreateProject(s.newProjID(), name, description, now)
		return Change{Op: OpCreateProject, ProjectID: p.ID}, true
	})
	return p, err
}

// DeleteProject removes a project. It reports false for an unknown id.
func (s *Store) DeleteProject(ctx context.Context, id string) (bool, error) {
	return s.apply(ctx, Change{Op: OpDeleteProject, ProjectID: id}, func(st *State, _ time.Time) bool {
		return st.DeleteProject(id)
	})
}

// UpdateProject patches a project.
func (s *Store) UpdateProject(ctx context.Context, id string, patch ProjectPatch) (bool, error) {
	return s.apply(ctx, Change{Op: OpUpdateProject, ProjectID: id}, func(st *State, now time.Time) bool {
		return st.UpdateProject(id, patch, now)
	})
}

// AddScene appends def to a project and selects it. An empty id is filled
// with a fresh one; the stored scene is returned.
func (s *Store) AddScene(ctx context.Context, projectID string, def scene.SceneDefinition) (scene.SceneDefinition, bool, error) {
	if def.ID == "" {
		def.ID = s.newScnID()
	}
	if def.Module == nil {
		return def, false, noModule(def.ID)
	}
	ok, err := s.apply(ctx, Change{Op: OpAddScene, ProjectID: projectID, SceneID: def.ID}, func(st *State, now time.Time) bool {
		return st.AddScene(projectID, def, now)
	})
	return def.Clone(), ok, err
}

// NewScene builds a scene around m named sceneName for the project and adds it.
func (s *Store) NewScene(ctx context.Context, projectID, sceneName string, m scene.Module) (scene.SceneDefinition, bool, error) {
	p, ok := s.Project(projectID)
	if !ok {
		return scene.SceneDefinition{}, false, nil
	}
	def := scene.NewScene(p.Name, sceneName, m, s.now())
	def.ID = s.newScnID()
	return s.AddScene(ctx, projectID, def)
}

// UpdateScene merges patch into a scene.
func (s *Store) UpdateScene(ctx context.Context, projectID, sceneID string, patch ScenePatch) (bool, error) {
	return s.apply(ctx, Change{Op: OpUpdateScene, ProjectID: projectID, SceneID: sceneID}, func(st *State, now time.Time) bool {
		return st.UpdateScene(projectID, sceneID, patch, now)
	})
}

// UpdateCurrentScene merges patch into the current scene.
func (s *Store) UpdateCurrentScene(ctx context.Context, patch ScenePatch) (bool, error) {
	var c Change
	return s.mutateBool(ctx, func(st *State, now time.Time) (Change, bool) {
		if st.CurrentProjectID != nil && st.CurrentSceneID != nil {
			c = Change{Op: OpUpdateScene, ProjectID: *st.CurrentProjectID, SceneID: *st.CurrentSceneID}
		}
		return c, st.UpdateCurrentScene(patch, now)
	})
}

// DeleteScene removes a scene.
func (s *Store) DeleteScene(ctx context.Context, projectID, sceneID string) (bool, error) {
	return s.apply(ctx, Change{Op: OpDeleteScene, ProjectID: projectID, SceneID: sceneID}, func(st *State, now time.Time) bool {
		return st.DeleteScene(projectID, sceneID, now)
	})
}

// DuplicateScene copies a scene under a fresh id. The selection is unchanged.
func (s *Store) DuplicateScene(ctx context.Context, projectID, sceneID string) (scene.SceneDefinition, bool, error) {
	var dup scene.SceneDefinition
	ok, err := s.mutateBool(ctx, func(st *State, now time.Time) (Change, bool) {
		var ok bool
		dup, ok = st.DuplicateScene(projectID, sceneID, s.newScnID(), now)
		return Change{Op: OpDuplicateScene, ProjectID: projectID, SceneID: dup.ID}, ok
	})
	return dup, ok, err
}

// SetCurrentProject selects a project.
func (s *Store) SetCurrentProject(ctx context.Context, id string) (bool, error) {
	return s.apply(ctx, Change{Op: OpSelectProject, ProjectID: id}, func(st *State, _ time.Time) bool {
		return st.SetCurrentProject(id)
	})
}

// SetCurrentScene selects a scene within a project.
func (s *Store) SetCurrentScene(ctx context.Context, projectID, sceneID string) (bool, error) {
	return s.apply(ctx, Change{Op: OpSelectScene, ProjectID: projectID, SceneID: sceneID}, func(st *State, _ time.Time) bool {
		return st.SetCurrentScene(projectID, sceneID)
	})
}

// Replace swaps the whole state, as when restoring a backup.
func (s *Store) Replace(ctx context.Context, st State) error {
	for _, p := range st.Projects {
		for _, sc := range p.Scenes {
			if sc.Module == nil {
				return noModule(sc.ID)
			}
		}
	}
	st = st.Clone()
	st.Repair()
	return s.mutate(ctx, func(cur *State, _ time.Time) (Change, bool) {
		*cur = st
		return Change{Op: OpReplaceSnapshot}, true
	})
}

func (s *Store) apply(ctx context.Context, c Change, fn func(*State, time.Time) bool) (bool, error) {
	return s.mutateBool(ctx, func(st *State, now time.Time) (Change, bool) {
		return c, fn(st, now)
	})
}

func (s *Store) mutateBool(ctx context.Context, fn func(*State, time.Time) (Change, bool)) (bool, error) {
	var changed bool
	err := s.mutate(ctx, func(st *State, now time.Time) (Change, bool) {
		c, ok := fn(st, now)
		changed = ok
		return c, ok
	})
	return changed, err
}

// mutate runs fn against a copy of the state under the lock. When fn reports
// a change the copy is persisted, and only then swapped in and announced to
// observers; a failed save leaves the live state untouched.
func (s *Store) mutate(ctx context.Context, fn func(*State, time.Time) (Change, bool)) error {
	s.mu.Lock()
	next := s.state.Clone()
	c, changed := fn(&next, s.now())
	if !changed {
		s.mu.Unlock()
		return nil
	}
	if err := s.persist(ctx, next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	observers := append([]func(Change){}, s.observers...)
	s.mu.Unlock()
	for _, o := range observers {
		o(c)
	}
	return nil
}

// persist must be called with s.mu held.
func (s *Store) persist(ctx context.Context, st State) error {
	data, err := s.codec.EncodeStore(st)
	if err != nil {
		return fmt.Errorf("projectstore: encode: %w", err)
	}
	if err := s.slot.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("projectstore: persist: %w", err)
	}
	return nil
}

func noModule(sceneID string) error {
	return fmt.Errorf("projectstore: scene %q has no module: %w", sceneID, apperr.ErrInvalidScene)
}
