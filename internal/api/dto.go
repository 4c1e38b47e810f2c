package api

import (
	"encoding/json"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/cinesuite/internal/catalog"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
)

// CreateProjectRequest is the request body for creating a project.
type CreateProjectRequest struct {
	Name        string `json:"name" example:"Heist movie" validate:"required"`
	Description string `json:"description,omitempty" example:"Screens for act two"`
}

// Validate checks the request.
func (r CreateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 200)),
	)
}

// UpdateProjectRequest patches a project. Absent fields are left alone.
type UpdateProjectRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Thumbnail   *string `json:"thumbnail,omitempty"`
}

// Validate checks the request.
func (r UpdateProjectRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.NilOrNotEmpty),
	)
}

// AddSceneRequest adds a scene in one of three ways: from a library template,
// as a default module of a kind, or from a full scene document.
type AddSceneRequest struct {
	Template string          `json:"template,omitempty" example:"server-breach"`
	Kind     string          `json:"kind,omitempty" example:"chat"`
	Name     string          `json:"name,omitempty" example:"Opening chat"`
	Scene    json.RawMessage `json:"scene,omitempty"`
}

// Validate checks that exactly one source is given.
func (r AddSceneRequest) Validate() error {
	n := 0
	for _, set := range []bool{r.Template != "", r.Kind != "", len(r.Scene) > 0} {
		if set {
			n++
		}
	}
	if n != 1 {
		return validation.NewError("add_scene_source", "exactly one of template, kind or scene is required")
	}
	return validation.ValidateStruct(&r,
		validation.Field(&r.Kind, validation.In(string(scene.KindSearch), string(scene.KindChat), string(scene.KindMail), string(scene.KindTerminal))),
	)
}

// UpdateSceneRequest patches a scene. A module replaces the current one
// wholesale and is normalized first.
type UpdateSceneRequest struct {
	Meta           *scene.Meta           `json:"meta,omitempty"`
	GlobalSettings *scene.GlobalSettings `json:"globalSettings,omitempty"`
	Module         map[string]any        `json:"module,omitempty"`
	TriggerText    *string               `json:"triggerText,omitempty"`
}

// ExportRequest selects the transfer file format.
type ExportRequest struct {
	Format string `json:"format,omitempty" example:"json"`
}

// Validate checks the request.
func (r ExportRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Format, validation.In(string(codec.FormatJSON), string(codec.FormatYAML))),
	)
}

// ExportResponse names the written transfer file.
type ExportResponse struct {
	File string `json:"file" example:"cine-scene-opening_chat.json" validate:"required"`
}

// EnrichRequest adds extra direction to an enrichment call.
type EnrichRequest struct {
	Prompt string `json:"prompt,omitempty"`
}

// InputRequest is one raw input event for playback.
type InputRequest struct {
	Source string `json:"source" example:"keyboard"`
	Key    string `json:"key,omitempty" example:"a"`
}

// Validate checks the request.
func (r InputRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Source, validation.Required, validation.In(reveal.Keyboard.String(), reveal.Touch.String())),
		validation.Field(&r.Key, validation.When(r.Source == reveal.Keyboard.String(), validation.Required)),
	)
}

// Input converts the request into a reveal input.
func (r InputRequest) Input() reveal.Input {
	src := reveal.Keyboard
	if r.Source == reveal.Touch.String() {
		src = reveal.Touch
	}
	return reveal.Input{Source: src, Key: r.Key}
}

// SearchResponse wraps catalog hits.
type SearchResponse struct {
	Results []catalog.Hit `json:"results" validate:"required"`
}
