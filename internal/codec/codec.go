// Package codec serializes the store graph into the persisted blob and
// individual scenes into transfer documents.
package codec

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
)

// Format is the encoding of a scene transfer document.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml"; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("codec: unknown format %q", s)
	}
}

// FormatFromName picks the format matching a file extension.
func FormatFromName(name string) (Format, bool) {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON, true
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML, true
	}
	return "", false
}

// Ext returns the file extension for f, without the dot.
func (f Format) Ext() string {
	if f == FormatYAML {
		return "yaml"
	}
	return "json"
}

// Store implements projectstore.Codec.
type Store struct{}

// EncodeStore implements projectstore.Codec.
func (Store) EncodeStore(st projectstore.State) ([]byte, error) { return EncodeStore(st) }

// DecodeStore implements projectstore.Codec.
func (Store) DecodeStore(data []byte) (projectstore.State, error) { return DecodeStore(data) }

// EncodeStore serializes the whole store graph.
func EncodeStore(st projectstore.State) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("codec: encode store: %w", err)
	}
	return data, nil
}

// DecodeStore parses a blob produced by EncodeStore.
func DecodeStore(data []byte) (projectstore.State, error) {
	var st projectstore.State
	if err := json.Unmarshal(data, &st); err != nil {
		return projectstore.State{}, fmt.Errorf("codec: decode store: %w", err)
	}
	for _, p := range st.Projects {
		for _, s := range p.Scenes {
			if s.Module == nil {
				return projectstore.State{}, fmt.Errorf("codec: decode store: scene %q has no module: %w", s.ID, apperr.ErrInvalidScene)
			}
		}
	}
	return st, nil
}

// EncodeScene renders one scene as a standalone transfer document.
func EncodeScene(s scene.SceneDefinition, f Format) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("codec: encode scene: %w", err)
	}
	if f != FormatYAML {
		return data, nil
	}
	out, err := jsonToYAML(data)
	if err != nil {
		return nil, fmt.Errorf("codec: encode scene: %w", err)
	}
	return out, nil
}

// DecodeScene parses a transfer document. A document without a module is
// rejected with apperr.ErrInvalidScene.
func DecodeScene(data []byte, f Format) (scene.SceneDefinition, error) {
	raw, err := DecodeSceneMap(data, f)
	if err != nil {
		return scene.SceneDefinition{}, err
	}
	doc, err := json.Marshal(raw)
	if err != nil {
		return scene.SceneDefinition{}, fmt.Errorf("codec: decode scene: %w", err)
	}
	var s scene.SceneDefinition
	if err := json.Unmarshal(doc, &s); err != nil {
		return scene.SceneDefinition{}, fmt.Errorf("codec: decode scene: %v: %w", err, apperr.ErrInvalidScene)
	}
	return s, nil
}

// DecodeSceneMap parses a transfer document into an untyped map, checking
// only that a module object is present. The normalizer consumes this form.
func DecodeSceneMap(data []byte, f Format) (map[string]any, error) {
	var raw map[string]any
	switch f {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("codec: decode scene: %v: %w", err, apperr.ErrInvalidScene)
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("codec: decode scene: %v: %w", err, apperr.ErrInvalidScene)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("codec: decode scene: empty document: %w", apperr.ErrInvalidScene)
	}
	if _, ok := raw["module"].(map[string]any); !ok {
		return nil, fmt.Errorf("codec: decode scene: missing module: %w", apperr.ErrInvalidScene)
	}
	return raw, nil
}

var unsafeName = regexp.MustCompile(`[^a-z0-9]`)

// SceneFilename returns "cine-scene-<name>.<ext>" where every character of
// the lowercased scene name outside [a-z0-9] becomes "_".
func SceneFilename(s scene.SceneDefinition, f Format) string {
	name := unsafeName.ReplaceAllString(strings.ToLower(s.Meta.SceneName), "_")
	return "cine-scene-" + name + "." + f.Ext()
}

// jsonToYAML re-encodes a JSON document as block-style YAML, keeping key order.
func jsonToYAML(data []byte) ([]byte, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, err
	}
	blockStyle(&node)
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// blockStyle clears the flow style that JSON input produces. Empty
// collections stay in flow form so they remain explicit.
func blockStyle(n *yaml.Node) {
	if n.Kind == yaml.MappingNode || n.Kind == yaml.SequenceNode {
		if len(n.Content) > 0 {
			n.Style = 0
		}
	}
	if n.Kind == yaml.ScalarNode && n.Style == yaml.DoubleQuotedStyle {
		n.Style = 0
	}
	for _, c := range n.Content {
		blockStyle(c)
	}
}
