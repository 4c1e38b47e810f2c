// Package assets externalizes the images a module references: every image
// URL reachable from the module can be replaced by an inline data URI so a
// scene plays without network access.
package assets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/starford/cinesuite/internal/scene"
)

var (
	remoteImage = regexp.MustCompile(`(?i)^https?://.+\.(jpg|jpeg|png|gif|webp|svg)`)
	localImage  = regexp.MustCompile(`(?i)^/images/.+\.(jpg|jpeg|png|gif|webp|svg)`)
)

// RefKind classifies an image reference.
type RefKind int

const (
	NotImage RefKind = iota
	Remote
	Local
	Inline
)

// Classify reports what kind of image reference s is.
func Classify(s string) RefKind {
	switch {
	case strings.HasPrefix(s, "data:image/"):
		return Inline
	case remoteImage.MatchString(s):
		return Remote
	case localImage.MatchString(s):
		return Local
	}
	return NotImage
}

// Failure is a reference that could not be inlined.
type Failure struct {
	Ref   string `json:"ref"`
	Error string `json:"error"`
}

// Report summarizes one Inline call.
type Report struct {
	Found   int       `json:"found"`
	Inlined int       `json:"inlined"`
	Failed  []Failure `json:"failed"`
	Bytes   int64     `json:"bytes"`
}

// Inliner replaces image references with data URIs.
type Inliner struct {
	fetch  Fetcher
	logger *slog.Logger
}

// NewInliner creates an inliner using f.
func NewInliner(f Fetcher, logger *slog.Logger) *Inliner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inliner{fetch: f, logger: logger}
}

// Inline returns a copy of m with every fetchable image reference replaced
// by a data URI. A reference that cannot be fetched is kept as is and listed
// in the report; it never fails the whole call. Each distinct reference is
// fetched once.
func (in *Inliner) Inline(ctx context.Context, m scene.Module) (scene.Module, Report) {
	rep := Report{Failed: []Failure{}}
	tree, err := toTree(m)
	if err != nil {
		rep.Failed = append(rep.Failed, Failure{Error: err.Error()})
		return m.Clone(), rep
	}

	refs := map[string]string{}
	walk(tree, func(s string) (string, bool) {
		if k := Classify(s); k == Remote || k == Local {
			refs[s] = s
		}
		return "", false
	})
	rep.Found = len(refs)
	if rep.Found == 0 {
		return m.Clone(), rep
	}

	keys := make([]string, 0, len(refs))
	for k := range refs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, ref := range keys {
		data, mime, err := in.fetch.Fetch(ctx, ref)
		if err != nil {
			in.logger.Warn("asset kept as reference", slog.String("ref", ref), slog.String("error", err.Error()))
			rep.Failed = append(rep.Failed, Failure{Ref: ref, Error: err.Error()})
			continue
		}
		refs[ref] = encodeDataURI(mime, data)
		rep.Inlined++
		rep.Bytes += int64(len(data))
	}

	tree = walk(tree, func(s string) (string, bool) {
		if v, ok := refs[s]; ok && v != s {
			return v, true
		}
		return "", false
	})
	out, err := fromTree(tree)
	if err != nil {
		rep.Failed = append(rep.Failed, Failure{Error: err.Error()})
		return m.Clone(), rep
	}
	return out, rep
}

// Stats counts the image references of a module by kind.
type Stats struct {
	Total  int `json:"total"`
	Inline int `json:"inline"`
	Remote int `json:"remote"`
	Local  int `json:"local"`
}

// CountRefs returns the distinct image references of m by kind.
func CountRefs(m scene.Module) Stats {
	var st Stats
	tree, err := toTree(m)
	if err != nil {
		return st
	}
	seen := map[string]bool{}
	walk(tree, func(s string) (string, bool) {
		k := Classify(s)
		if k == NotImage || seen[s] {
			return "", false
		}
		seen[s] = true
		st.Total++
		switch k {
		case Inline:
			st.Inline++
		case Remote:
			st.Remote++
		case Local:
			st.Local++
		}
		return "", false
	})
	return st
}

// IsFullyOffline reports whether m references no external or local image.
func IsFullyOffline(m scene.Module) bool {
	st := CountRefs(m)
	return st.Remote == 0 && st.Local == 0
}

// EstimateSize returns the encoded size of m in bytes and in human form.
func EstimateSize(m scene.Module) (int64, string) {
	data, err := json.Marshal(m)
	if err != nil {
		return 0, "0 B"
	}
	n := int64(len(data))
	return n, humanize.IBytes(uint64(n))
}

func toTree(m scene.Module) (any, error) {
	if m == nil {
		return nil, fmt.Errorf("assets: no module")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("assets: encode module: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("assets: decode module: %w", err)
	}
	return tree, nil
}

func fromTree(tree any) (scene.Module, error) {
	data, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("assets: encode tree: %w", err)
	}
	return scene.DecodeModule(data)
}

// walk visits every string in tree. When fn returns true the string is
// replaced by the returned value. Object keys are never visited.
func walk(node any, fn func(string) (string, bool)) any {
	switch v := node.(type) {
	case map[string]any:
		for k, child := range v {
			v[k] = walk(child, fn)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = walk(child, fn)
		}
		return v
	case string:
		if r, ok := fn(v); ok {
			return r
		}
		return v
	}
	return node
}
