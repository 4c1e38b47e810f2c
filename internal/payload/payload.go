// Package payload pulls a structured object out of free-form generator
// output: bare JSON, JSON or YAML inside a fenced code block, or a YAML
// mapping.
package payload

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/starford/cinesuite/internal/apperr"
)

var (
	fenceRe  = regexp.MustCompile("(?s)```[a-zA-Z]*[ \t]*\r?\n(.*?)```")
	objectRe = regexp.MustCompile(`(?s)\{.*\}`)
	arrayRe  = regexp.MustCompile(`(?s)\[.*\]`)
)

// Extract returns the first object found in text. It fails with
// apperr.ErrMalformedContent when no object can be decoded.
func Extract(text string) (map[string]any, error) {
	for _, c := range candidates(text) {
		if m := asObject(c); m != nil {
			return m, nil
		}
	}
	return nil, fmt.Errorf("payload: no structured object in response: %w", apperr.ErrMalformedContent)
}

// ExtractList returns the objects of the first array found in text,
// skipping non-object elements.
func ExtractList(text string) ([]map[string]any, error) {
	for _, c := range candidates(text) {
		var items []any
		if m := arrayRe.FindString(c); m != "" && decodeJSON(m, &items) == nil {
			return objects(items), nil
		}
		if yaml.Unmarshal([]byte(c), &items) == nil && len(items) > 0 {
			return objects(items), nil
		}
	}
	return nil, fmt.Errorf("payload: no structured list in response: %w", apperr.ErrMalformedContent)
}

// candidates lists the fenced blocks of text followed by the text itself.
func candidates(text string) []string {
	var out []string
	for _, m := range fenceRe.FindAllStringSubmatch(text, -1) {
		out = append(out, strings.TrimSpace(m[1]))
	}
	return append(out, strings.TrimSpace(text))
}

func asObject(c string) map[string]any {
	if m := objectRe.FindString(c); m != "" {
		var obj map[string]any
		if decodeJSON(m, &obj) == nil && obj != nil {
			return obj
		}
	}
	var obj map[string]any
	if err := yaml.Unmarshal([]byte(c), &obj); err == nil && len(obj) > 0 {
		return obj
	}
	return nil
}

func decodeJSON(s string, v any) error {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	return dec.Decode(v)
}

func objects(items []any) []map[string]any {
	out := make([]map[string]any, 0, len(items))
	for _, it := range items {
		if m, ok := it.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
