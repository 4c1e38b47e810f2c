// Package studio coordinates the authoring workflows that span several
// components: generation, enrichment, asset inlining and the scene catalog.
package studio

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/assets"
	"github.com/starford/cinesuite/internal/catalog"
	"github.com/starford/cinesuite/internal/generator"
	"github.com/starford/cinesuite/internal/normalize"
	"github.com/starford/cinesuite/internal/payload"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
)

// GenerateOptions describes one generation request for a scene.
type GenerateOptions struct {
	Prompt  string     `json:"prompt"`
	Kind    scene.Kind `json:"kind,omitempty"`
	Context string     `json:"context,omitempty"`
	Tone    string     `json:"tone,omitempty"`
	// Credential overrides the scene's own key and the service default.
	Credential string `json:"credential,omitempty"`
}

// Service coordinates store, generator, assets and catalog operations.
type Service struct {
	store      *projectstore.Store
	catalog    *catalog.DB
	gen        generator.Client
	tickets    *generator.Tickets
	inliner    *assets.Inliner
	credential string
	logger     *slog.Logger
}

// NewService creates a studio service. catalog, gen and inliner may be nil;
// the operations that need them then fail.
func NewService(store *projectstore.Store, cat *catalog.DB, gen generator.Client, inliner *assets.Inliner, credential string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:      store,
		catalog:    cat,
		gen:        gen,
		tickets:    generator.NewTickets(),
		inliner:    inliner,
		credential: credential,
		logger:     logger,
	}
}

func (s *Service) scene(projectID, sceneID string) (scene.SceneDefinition, error) {
	def, ok := s.store.Scene(projectID, sceneID)
	if !ok {
		return scene.SceneDefinition{}, fmt.Errorf("scene %s/%s: %w", projectID, sceneID, apperr.ErrNotFound)
	}
	return def, nil
}

func (s *Service) credentialFor(def scene.SceneDefinition, override string) string {
	for _, c := range []string{override, def.GlobalSettings.AIKey, s.credential} {
		if strings.TrimSpace(c) != "" {
			return c
		}
	}
	return ""
}

// Generate replaces the scene's module with generated content. The scene's
// trigger text carries over unless the content supplies one. Only the most
// recent request for a scene is applied; an older one still in flight
// returns apperr.ErrSuperseded and leaves the store alone.
func (s *Service) Generate(ctx context.Context, projectID, sceneID string, opts GenerateOptions) (scene.SceneDefinition, error) {
	def, err := s.scene(projectID, sceneID)
	if err != nil {
		return def, err
	}
	kind := opts.Kind
	if kind == "" {
		kind = def.Kind()
	}
	if !kind.Valid() {
		return def, fmt.Errorf("generate: unknown kind %q: %w", kind, apperr.ErrInvalidScene)
	}
	req := generator.Request{
		Prompt:     opts.Prompt,
		Credential: s.credentialFor(def, opts.Credential),
		Kind:       kind,
		Context:    opts.Context,
		Tone:       opts.Tone,
	}
	if req.Credential == "" {
		return def, apperr.ErrMissingCredential
	}
	if s.gen == nil {
		return def, fmt.Errorf("generate: no generator configured")
	}

	tk := s.tickets.Begin(catalog.Key(projectID, sceneID))
	defer s.tickets.Done(tk)

	start := time.Now()
	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		return def, err
	}
	raw, err := payload.Extract(text)
	if err != nil {
		return def, err
	}
	m := normalize.Module(kind, raw)
	if m.Trigger() == "" && def.Module != nil {
		m = scene.WithTrigger(m, def.Module.Trigger())
	}

	if err := s.tickets.Check(tk); err != nil {
		s.logger.Info("generation discarded", slog.String("scene_id", sceneID))
		return def, err
	}
	ok, err := s.store.UpdateScene(ctx, projectID, sceneID, projectstore.ScenePatch{Module: m})
	if err != nil {
		return def, err
	}
	if !ok {
		return def, fmt.Errorf("scene %s/%s: %w", projectID, sceneID, apperr.ErrNotFound)
	}
	s.logger.Info("scene generated",
		slog.String("scene_id", sceneID),
		slog.String("kind", string(kind)),
		slog.Duration("took", time.Since(start)))
	return s.scene(projectID, sceneID)
}

// Enrich asks the generator for more list items (results, messages, emails
// or lines) and appends them to the scene's module. It returns how many
// items were added.
func (s *Service) Enrich(ctx context.Context, projectID, sceneID, prompt string) (scene.SceneDefinition, int, error) {
	def, err := s.scene(projectID, sceneID)
	if err != nil {
		return def, 0, err
	}
	if def.Module == nil {
		return def, 0, fmt.Errorf("enrich: scene has no module: %w", apperr.ErrInvalidScene)
	}
	req := generator.Request{
		Prompt:     enrichPrompt(def.Module, prompt),
		Credential: s.credentialFor(def, ""),
		Kind:       def.Kind(),
		Enrich:     true,
	}
	if req.Credential == "" {
		return def, 0, apperr.ErrMissingCredential
	}
	if s.gen == nil {
		return def, 0, fmt.Errorf("enrich: no generator configured")
	}

	tk := s.tickets.Begin(catalog.Key(projectID, sceneID))
	defer s.tickets.Done(tk)

	text, err := s.gen.Generate(ctx, req)
	if err != nil {
		return def, 0, err
	}
	m, added, err := appendItems(def.Module, text)
	if err != nil {
		return def, 0, err
	}
	if added == 0 {
		return def, 0, nil
	}
	if err := s.tickets.Check(tk); err != nil {
		return def, 0, err
	}
	if _, err := s.store.UpdateScene(ctx, projectID, sceneID, projectstore.ScenePatch{Module: m}); err != nil {
		return def, 0, err
	}
	def, err = s.scene(projectID, sceneID)
	return def, added, err
}

// enrichBodyLimit caps the existing content quoted back to the generator, in runes.
const enrichBodyLimit = 1500

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for j := range s {
		if i == n {
			return s[:j]
		}
		i++
	}
	return s
}

func enrichPrompt(m scene.Module, extra string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Existing %s content. Trigger: %q.", m.Kind(), m.Trigger())
	if body := catalog.Body(m); body != "" {
		body = truncateRunes(body, enrichBodyLimit)
		b.WriteString("\n")
		b.WriteString(body)
	}
	if extra != "" {
		b.WriteString("\n")
		b.WriteString(extra)
	}
	return b.String()
}

func appendItems(m scene.Module, text string) (scene.Module, int, error) {
	out := m.Clone()
	if t, ok := out.(*scene.TerminalModule); ok {
		raw, err := payload.Extract(text)
		if err != nil {
			return m, 0, err
		}
		lines := normalize.Terminal(raw).Lines
		t.Lines = append(t.Lines, lines...)
		return t, len(lines), nil
	}

	items, err := payload.ExtractList(text)
	if err != nil {
		return m, 0, err
	}
	list := make([]any, len(items))
	for i, it := range items {
		list[i] = it
	}
	switch v := out.(type) {
	case *scene.SearchModule:
		extra := normalize.Search(map[string]any{"results": list}).Results
		seen := idSet(len(v.Results), func(i int) string { return v.Results[i].ID })
		for i := range extra {
			extra[i].ID = uniqueID(seen, extra[i].ID, "result")
		}
		v.Results = append(v.Results, extra...)
		return v, len(extra), nil
	case *scene.ChatModule:
		extra := normalize.Chat(map[string]any{"messagesHistory": list}).MessagesHistory
		seen := idSet(len(v.MessagesHistory), func(i int) string { return v.MessagesHistory[i].ID })
		for i := range extra {
			extra[i].ID = uniqueID(seen, extra[i].ID, "msg")
		}
		v.MessagesHistory = append(v.MessagesHistory, extra...)
		return v, len(extra), nil
	case *scene.MailModule:
		extra := normalize.Mail(map[string]any{"emails": list}).Emails
		seen := idSet(len(v.Emails), func(i int) string { return v.Emails[i].ID })
		for i := range extra {
			extra[i].ID = uniqueID(seen, extra[i].ID, "mail")
		}
		v.Emails = append(v.Emails, extra...)
		return v, len(extra), nil
	}
	return m, 0, fmt.Errorf("enrich: unsupported kind %q: %w", m.Kind(), apperr.ErrInvalidScene)
}

func idSet(n int, id func(int) string) map[string]bool {
	seen := make(map[string]bool, n)
	for i := range n {
		seen[id(i)] = true
	}
	return seen
}

// uniqueID keeps id unless it is already taken in seen.
func uniqueID(seen map[string]bool, id, prefix string) string {
	if seen[id] {
		id = prefix + "-" + strings.ToLower(ulid.Make().String())
	}
	seen[id] = true
	return id
}

// InlineAssets replaces the scene's image references with data URIs and
// stores the result. References that cannot be fetched are kept.
func (s *Service) InlineAssets(ctx context.Context, projectID, sceneID string) (scene.SceneDefinition, assets.Report, error) {
	def, err := s.scene(projectID, sceneID)
	if err != nil {
		return def, assets.Report{}, err
	}
	if s.inliner == nil {
		return def, assets.Report{}, fmt.Errorf("inline: no asset fetcher configured")
	}
	if def.Module == nil {
		return def, assets.Report{}, nil
	}
	m, rep := s.inliner.Inline(ctx, def.Module)
	if rep.Inlined == 0 {
		return def, rep, nil
	}
	if _, err := s.store.UpdateScene(ctx, projectID, sceneID, projectstore.ScenePatch{Module: m}); err != nil {
		return def, rep, err
	}
	s.logger.Info("assets inlined",
		slog.String("scene_id", sceneID),
		slog.Int("inlined", rep.Inlined),
		slog.Int("failed", len(rep.Failed)))
	def, err = s.scene(projectID, sceneID)
	return def, rep, err
}

// AssetInfo summarizes the image references of a scene.
type AssetInfo struct {
	Stats   assets.Stats `json:"stats"`
	Offline bool         `json:"offline"`
	Bytes   int64        `json:"bytes"`
	Size    string       `json:"size"`
}

// Assets reports the image references of a scene.
func (s *Service) Assets(projectID, sceneID string) (AssetInfo, error) {
	def, err := s.scene(projectID, sceneID)
	if err != nil || def.Module == nil {
		return AssetInfo{}, err
	}
	n, size := assets.EstimateSize(def.Module)
	return AssetInfo{
		Stats:   assets.CountRefs(def.Module),
		Offline: assets.IsFullyOffline(def.Module),
		Bytes:   n,
		Size:    size,
	}, nil
}

// AddFromTemplate instantiates a library template into a project.
func (s *Service) AddFromTemplate(ctx context.Context, projectID, templateID string) (scene.SceneDefinition, error) {
	t, ok := scene.FindTemplate(templateID)
	if !ok {
		return scene.SceneDefinition{}, fmt.Errorf("template %s: %w", templateID, apperr.ErrNotFound)
	}
	p, ok := s.store.Project(projectID)
	if !ok {
		return scene.SceneDefinition{}, fmt.Errorf("project %s: %w", projectID, apperr.ErrNotFound)
	}
	def, ok, err := s.store.AddScene(ctx, projectID, t.Instantiate(p.Name, time.Now().UTC()))
	if err != nil {
		return def, err
	}
	if !ok {
		return def, fmt.Errorf("project %s: %w", projectID, apperr.ErrNotFound)
	}
	return def, nil
}

// Reindex brings the catalog in line with the store.
func (s *Service) Reindex() error {
	if s.catalog == nil {
		return nil
	}
	return catalog.Sync(s.catalog, s.store.Snapshot(), s.logger)
}

// Search runs a catalog search across every scene.
func (s *Service) Search(query string, limit int) ([]catalog.Hit, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("search: no catalog configured")
	}
	return s.catalog.Search(query, limit)
}

// List returns catalogued scenes, optionally filtered by kind.
func (s *Service) List(kind string) ([]catalog.Row, error) {
	if s.catalog == nil {
		return nil, fmt.Errorf("list: no catalog configured")
	}
	return s.catalog.List(kind)
}
