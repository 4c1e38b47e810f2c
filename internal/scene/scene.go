// Package scene defines the cinesuite domain model: projects, scenes and the
// tagged module union each scene renders.
package scene

import (
	"encoding/json"
	"fmt"
	"time"
)

// Project is an ordered collection of scenes sharing a name and description.
// A project owns its scenes; deleting it deletes them.
type Project struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	CreatedAt   time.Time         `json:"createdAt"`
	UpdatedAt   time.Time         `json:"updatedAt"`
	Thumbnail   string            `json:"thumbnail,omitempty"`
	Scenes      []SceneDefinition `json:"scenes"`
}

// Clone returns a deep copy of the project.
func (p Project) Clone() Project {
	out := p
	if p.Scenes != nil {
		out.Scenes = make([]SceneDefinition, len(p.Scenes))
		for i, s := range p.Scenes {
			out.Scenes[i] = s.Clone()
		}
	}
	return out
}

// SceneIndex returns the position of the scene with the given id, or -1.
func (p *Project) SceneIndex(id string) int {
	for i := range p.Scenes {
		if p.Scenes[i].ID == id {
			return i
		}
	}
	return -1
}

// Meta is the display metadata of a scene.
type Meta struct {
	ProjectName string    `json:"projectName"`
	SceneName   string    `json:"sceneName"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Theme ids accepted for GlobalSettings.ThemeID.
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeRetro  = "retro"
	ThemeHacker = "hacker"
)

// GlobalSettings holds the display settings shared by every module.
type GlobalSettings struct {
	ThemeID     string  `json:"themeId"`
	ZoomLevel   float64 `json:"zoomLevel"`
	AccentColor string  `json:"accentColor,omitempty"`
	AIKey       string  `json:"aiKey,omitempty"`
}

// SceneDefinition is one filmable unit: a module plus display settings.
type SceneDefinition struct {
	ID             string         `json:"id"`
	Meta           Meta           `json:"meta"`
	GlobalSettings GlobalSettings `json:"globalSettings"`
	Module         Module         `json:"module"`
}

// Clone returns a deep copy of the scene.
func (s SceneDefinition) Clone() SceneDefinition {
	out := s
	if s.Module != nil {
		out.Module = s.Module.Clone()
	}
	return out
}

// Kind returns the module kind, or "" when the scene has no module.
func (s SceneDefinition) Kind() Kind {
	if s.Module == nil {
		return ""
	}
	return s.Module.Kind()
}

// UnmarshalJSON decodes a scene, dispatching the module on its type tag.
func (s *SceneDefinition) UnmarshalJSON(data []byte) error {
	type alias SceneDefinition
	var raw struct {
		alias
		Module json.RawMessage `json:"module"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = SceneDefinition(raw.alias)
	s.Module = nil
	if len(raw.Module) == 0 || string(raw.Module) == "null" {
		return nil
	}
	m, err := DecodeModule(raw.Module)
	if err != nil {
		return fmt.Errorf("scene %q: %w", s.ID, err)
	}
	s.Module = m
	return nil
}
