// Package transfer moves single scenes between the store and standalone
// transfer files.
package transfer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/normalize"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/storage"
	"github.com/starford/cinesuite/internal/validate"
)

// ImportOptions controls how a transfer document is accepted.
type ImportOptions struct {
	// Strict blocks the import when the shape check reports any issue.
	Strict bool
	// Format overrides the format inferred from the file name.
	Format codec.Format
}

// ImportResult describes an accepted (or, in strict mode, blocked) import.
type ImportResult struct {
	Scene  scene.SceneDefinition `json:"scene"`
	Issues []validate.Issue      `json:"issues"`
	// Reassigned is set when the document's id was missing or already taken.
	Reassigned bool `json:"reassigned"`
}

// Service exports scenes to and imports them from a storage provider.
type Service struct {
	files  storage.Provider
	store  *projectstore.Store
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a transfer service.
func NewService(files storage.Provider, store *projectstore.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		files:  files,
		store:  store,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Render encodes a scene and returns its conventional filename.
func Render(s scene.SceneDefinition, f codec.Format) (string, []byte, error) {
	data, err := codec.EncodeScene(s, f)
	if err != nil {
		return "", nil, err
	}
	return codec.SceneFilename(s, f), data, nil
}

// Export writes the addressed scene as a transfer file and returns its name.
func (s *Service) Export(_ context.Context, projectID, sceneID string, f codec.Format) (string, error) {
	def, ok := s.store.Scene(projectID, sceneID)
	if !ok {
		return "", fmt.Errorf("transfer: export %s/%s: %w", projectID, sceneID, apperr.ErrNotFound)
	}
	name, data, err := Render(def, f)
	if err != nil {
		return "", fmt.Errorf("transfer: export: %w", err)
	}
	if err := s.files.Write(name, data); err != nil {
		return "", fmt.Errorf("transfer: export: %w", err)
	}
	s.logger.Info("scene exported", slog.String("scene_id", sceneID), slog.String("file", name))
	return name, nil
}

// Import reads the named transfer file and adds its scene to the project.
func (s *Service) Import(ctx context.Context, projectID, name string, opts ImportOptions) (ImportResult, error) {
	f := opts.Format
	if f == "" {
		var ok bool
		if f, ok = codec.FormatFromName(name); !ok {
			return ImportResult{}, fmt.Errorf("transfer: %s: unsupported file type: %w", name, apperr.ErrInvalidScene)
		}
	}
	data, err := s.files.Read(name)
	if err != nil {
		return ImportResult{}, fmt.Errorf("transfer: import: %w", err)
	}
	opts.Format = f
	return s.ImportData(ctx, projectID, data, opts)
}

// ImportData decodes a transfer document and adds its scene to the project.
// A document without a module is rejected before the store is touched.
func (s *Service) ImportData(ctx context.Context, projectID string, data []byte, opts ImportOptions) (ImportResult, error) {
	f := opts.Format
	if f == "" {
		f = codec.FormatJSON
	}
	p, ok := s.store.Project(projectID)
	if !ok {
		return ImportResult{}, fmt.Errorf("transfer: import into %s: %w", projectID, apperr.ErrNotFound)
	}

	raw, err := codec.DecodeSceneMap(data, f)
	if err != nil {
		return ImportResult{}, err
	}

	res := ImportResult{Issues: Check(data, f)}
	if opts.Strict && len(res.Issues) > 0 {
		return res, fmt.Errorf("transfer: %d shape issue(s), first %s: %w", len(res.Issues), res.Issues[0], apperr.ErrInvalidScene)
	}

	def, err := normalize.Scene(raw, s.now())
	if err != nil {
		return res, err
	}
	def.Meta.ProjectName = p.Name
	if def.ID == "" || p.SceneIndex(def.ID) >= 0 {
		def.ID = scene.NewSceneID()
		res.Reassigned = true
	}

	added, ok, err := s.store.AddScene(ctx, projectID, def)
	if err != nil {
		return res, fmt.Errorf("transfer: import: %w", err)
	}
	if !ok {
		return res, fmt.Errorf("transfer: import into %s: %w", projectID, apperr.ErrNotFound)
	}
	res.Scene = added
	s.logger.Info("scene imported",
		slog.String("project_id", projectID),
		slog.String("scene_id", added.ID),
		slog.Int("issues", len(res.Issues)))
	return res, nil
}

// Check runs the strict shape check on a raw transfer document. A document
// that does not even decode into a scene yields a single root issue.
func Check(data []byte, f codec.Format) []validate.Issue {
	def, err := codec.DecodeScene(data, f)
	if err != nil {
		return []validate.Issue{{Path: "", Message: err.Error()}}
	}
	issues := validate.Scene(&def)
	if issues == nil {
		issues = []validate.Issue{}
	}
	return issues
}
