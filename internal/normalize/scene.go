package normalize

import (
	"fmt"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/scene"
)

// Settings completes a globalSettings object. Zoom levels written as a
// percentage (100 for 1x) are converted to a factor.
func Settings(raw map[string]any) scene.GlobalSettings {
	if raw == nil {
		raw = obj{}
	}
	out := scene.DefaultSettings()
	out.ThemeID = str(raw, "themeId", out.ThemeID)
	if z, ok := number(raw, "zoomLevel"); ok && z > 0 {
		out.ZoomLevel = ZoomFactor(z)
	}
	out.AccentColor = str(raw, "accentColor", "")
	out.AIKey = str(raw, "aiKey", "")
	return out
}

// ZoomFactor converts a percentage zoom (10 and above) to a factor.
func ZoomFactor(z float64) float64 {
	if z >= 10 {
		return z / 100
	}
	return z
}

// Scene completes a whole scene document. The module kind comes from the
// document's own module.type; a missing or unknown kind is rejected with
// apperr.ErrInvalidScene. now stamps a scene without a creation date.
func Scene(raw map[string]any, now time.Time) (scene.SceneDefinition, error) {
	mod, ok := object(raw, "module")
	if !ok {
		return scene.SceneDefinition{}, fmt.Errorf("normalize: scene has no module: %w", apperr.ErrInvalidScene)
	}
	kind, err := scene.ParseKind(str(mod, "type", ""))
	if err != nil {
		return scene.SceneDefinition{}, fmt.Errorf("normalize: %v: %w", err, apperr.ErrInvalidScene)
	}

	meta, _ := object(raw, "meta")
	if meta == nil {
		meta = obj{}
	}
	created := now
	if s := str(meta, "createdAt", ""); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			created = t.UTC()
		}
	}
	settings, _ := object(raw, "globalSettings")

	return scene.SceneDefinition{
		ID: str(raw, "id", ""),
		Meta: scene.Meta{
			ProjectName: str(meta, "projectName", ""),
			SceneName:   str(meta, "sceneName", "Imported scene"),
			CreatedAt:   created,
		},
		GlobalSettings: Settings(settings),
		Module:         Module(kind, mod),
	}, nil
}
