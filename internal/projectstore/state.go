// Package projectstore owns the projects → scenes graph and the "current"
// selection. State holds the pure operations; Store decorates it with locking
// and persist-on-every-mutation.
package projectstore

import (
	"time"

	"github.com/starford/cinesuite/internal/scene"
)

// CopySuffix is appended to the name of a duplicated scene.
const CopySuffix = " (copy)"

// State is the full store graph. It performs no I/O. Mutators return false
// when they address an unknown project or scene and leave State untouched.
type State struct {
	Projects         []scene.Project `json:"projects"`
	CurrentProjectID *string         `json:"currentProjectId"`
	CurrentSceneID   *string         `json:"currentSceneId"`
}

// ProjectPatch lists the project fields to overwrite. Nil means "keep".
type ProjectPatch struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

// ScenePatch lists the scene fields to overwrite; it is merged shallowly.
// A non-nil Module replaces the module wholesale.
type ScenePatch struct {
	Meta           *scene.Meta           `json:"meta,omitempty"`
	GlobalSettings *scene.GlobalSettings `json:"globalSettings,omitempty"`
	Module         scene.Module          `json:"-"`
}

// Empty reports whether the patch changes nothing.
func (p ScenePatch) Empty() bool {
	return p.Meta == nil && p.GlobalSettings == nil && p.Module == nil
}

// Clone returns a deep copy of the state.
func (st State) Clone() State {
	out := State{
		CurrentProjectID: cloneID(st.CurrentProjectID),
		CurrentSceneID:   cloneID(st.CurrentSceneID),
	}
	if st.Projects != nil {
		out.Projects = make([]scene.Project, len(st.Projects))
		for i, p := range st.Projects {
			out.Projects[i] = p.Clone()
		}
	}
	return out
}

func (st *State) projectIndex(id string) int {
	for i := range st.Projects {
		if st.Projects[i].ID == id {
			return i
		}
	}
	return -1
}

// CreateProject appends an empty project, makes it current and clears the
// scene selection.
func (st *State) CreateProject(id, name, description string, now time.Time) scene.Project {
	p := scene.Project{
		ID:          id,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
		Scenes:      []scene.SceneDefinition{},
	}
	st.Projects = append(st.Projects, p)
	st.CurrentProjectID = ptr(id)
	st.CurrentSceneID = nil
	return p.Clone()
}

// DeleteProject removes a project and its scenes. When it was current, the
// first remaining project becomes current, or none if the list is empty.
func (st *State) DeleteProject(id string) bool {
	i := st.projectIndex(id)
	if i < 0 {
		return false
	}
	st.Projects = append(st.Projects[:i:i], st.Projects[i+1:]...)
	if st.CurrentProjectID != nil && *st.CurrentProjectID == id {
		st.CurrentSceneID = nil
		st.CurrentProjectID = nil
		if len(st.Projects) > 0 {
			st.CurrentProjectID = ptr(st.Projects[0].ID)
		}
	}
	return true
}

// UpdateProject overwrites the patched project fields.
func (st *State) UpdateProject(id string, patch ProjectPatch, now time.Time) bool {
	i := st.projectIndex(id)
	if i < 0 {
		return false
	}
	p := &st.Projects[i]
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Thumbnail != nil {
		p.Thumbnail = *patch.Thumbnail
	}
	p.UpdatedAt = now
	return true
}

// AddScene appends s to the project and selects it. A scene whose id is
// already used in the project is rejected.
func (st *State) AddScene(projectID string, s scene.SceneDefinition, now time.Time) bool {
	i := st.projectIndex(projectID)
	if i < 0 {
		return false
	}
	p := &st.Projects[i]
	if p.SceneIndex(s.ID) >= 0 {
		return false
	}
	p.Scenes = append(p.Scenes, s.Clone())
	p.UpdatedAt = now
	st.CurrentProjectID = ptr(projectID)
	st.CurrentSceneID = ptr(s.ID)
	return true
}

// UpdateScene merges patch into the addressed scene.
func (st *State) UpdateScene(projectID, sceneID string, patch ScenePatch, now time.Time) bool {
	i := st.projectIndex(projectID)
	if i < 0 {
		return false
	}
	p := &st.Projects[i]
	j := p.SceneIndex(sceneID)
	if j < 0 {
		return false
	}
	s := &p.Scenes[j]
	if patch.Meta != nil {
		s.Meta = *patch.Meta
	}
	if patch.GlobalSettings != nil {
		s.GlobalSettings = *patch.GlobalSettings
	}
	if patch.Module != nil {
		s.Module = patch.Module.Clone()
	}
	p.UpdatedAt = now
	return true
}

// UpdateCurrentScene merges patch into the current scene, if any.
func (st *State) UpdateCurrentScene(patch ScenePatch, now time.Time) bool {
	if st.CurrentProjectID == nil || st.CurrentSceneID == nil {
		return false
	}
	return st.UpdateScene(*st.CurrentProjectID, *st.CurrentSceneID, patch, now)
}

// DeleteScene removes a scene and clears the scene selection if it pointed at it.
func (st *State) DeleteScene(projectID, sceneID string, now time.Time) bool {
	i := st.projectIndex(projectID)
	if i < 0 {
		return false
	}
	p := &st.Projects[i]
	j := p.SceneIndex(sceneID)
	if j < 0 {
		return false
	}
	p.Scenes = append(p.Scenes[:j:j], p.Scenes[j+1:]...)
	p.UpdatedAt = now
	if st.CurrentSceneID != nil && *st.CurrentSceneID == sceneID &&
		st.CurrentProjectID != nil && *st.CurrentProjectID == projectID {
		st.CurrentSceneID = nil
	}
	return true
}

// DuplicateScene appends a deep copy of a scene under newID with " (copy)"
// added to its name. The selection does not change.
func (st *State) DuplicateScene(projectID, sceneID, newID string, now time.Time) (scene.SceneDefinition, bool) {
	i := st.projectIndex(projectID)
	if i < 0 {
		return scene.SceneDefinition{}, false
	}
	p := &st.Projects[i]
	j := p.SceneIndex(sceneID)
	if j < 0 || p.SceneIndex(newID) >= 0 {
		return scene.SceneDefinition{}, false
	}
	dup := p.Scenes[j].Clone()
	dup.ID = newID
	dup.Meta.SceneName += CopySuffix
	dup.Meta.CreatedAt = now
	p.Scenes = append(p.Scenes, dup)
	p.UpdatedAt = now
	return dup.Clone(), true
}

// SetCurrentProject selects a project and clears the scene selection.
func (st *State) SetCurrentProject(id string) bool {
	if st.projectIndex(id) < 0 {
		return false
	}
	if st.CurrentProjectID != nil && *st.CurrentProjectID == id {
		return false
	}
	st.CurrentProjectID = ptr(id)
	st.CurrentSceneID = nil
	return true
}

// SetCurrentScene selects a project and one of its scenes.
func (st *State) SetCurrentScene(projectID, sceneID string) bool {
	i := st.projectIndex(projectID)
	if i < 0 || st.Projects[i].SceneIndex(sceneID) < 0 {
		return false
	}
	st.CurrentProjectID = ptr(projectID)
	st.CurrentSceneID = ptr(sceneID)
	return true
}

// Project returns a copy of the project with the given id.
func (st *State) Project(id string) (scene.Project, bool) {
	i := st.projectIndex(id)
	if i < 0 {
		return scene.Project{}, false
	}
	return st.Projects[i].Clone(), true
}

// CurrentProject returns a copy of the current project.
func (st *State) CurrentProject() (scene.Project, bool) {
	if st.CurrentProjectID == nil {
		return scene.Project{}, false
	}
	return st.Project(*st.CurrentProjectID)
}

// CurrentScene returns a copy of the current scene of the current project.
func (st *State) CurrentScene() (scene.SceneDefinition, bool) {
	if st.CurrentProjectID == nil || st.CurrentSceneID == nil {
		return scene.SceneDefinition{}, false
	}
	return st.Scene(*st.CurrentProjectID, *st.CurrentSceneID)
}

// Scene returns a copy of the addressed scene.
func (st *State) Scene(projectID, sceneID string) (scene.SceneDefinition, bool) {
	i := st.projectIndex(projectID)
	if i < 0 {
		return scene.SceneDefinition{}, false
	}
	j := st.Projects[i].SceneIndex(sceneID)
	if j < 0 {
		return scene.SceneDefinition{}, false
	}
	return st.Projects[i].Scenes[j].Clone(), true
}

// Repair points the selection at existing entries: an unknown current
// project falls back to the first project, an unknown scene to none.
func (st *State) Repair() {
	if st.CurrentProjectID == nil || st.projectIndex(*st.CurrentProjectID) < 0 {
		st.CurrentProjectID = nil
		st.CurrentSceneID = nil
		if len(st.Projects) > 0 {
			st.CurrentProjectID = ptr(st.Projects[0].ID)
		}
		return
	}
	if st.CurrentSceneID != nil {
		p := st.Projects[st.projectIndex(*st.CurrentProjectID)]
		if p.SceneIndex(*st.CurrentSceneID) < 0 {
			st.CurrentSceneID = nil
		}
	}
}

// Demo returns the state materialized on first run.
func Demo(now time.Time) State {
	return State{
		Projects:         []scene.Project{scene.DemoProject(now)},
		CurrentProjectID: ptr(scene.DemoProjectID),
		CurrentSceneID:   ptr(scene.DemoSceneID),
	}
}

func ptr(s string) *string { return &s }

func cloneID(p *string) *string {
	if p == nil {
		return nil
	}
	return ptr(*p)
}
