package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/cinesuite/internal/codec"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/transfer"
)

func tempConfig(t *testing.T) *Config {
	t.Helper()
	dir := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Store.Path = filepath.Join(dir, "cinesuite.db")
	cfg.Transfer.Path = filepath.Join(dir, "scenes")
	cfg.Catalog.Path = filepath.Join(dir, "catalog.db")
	cfg.Inbox.Path = filepath.Join(dir, "inbox")
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	return cfg
}

func quiet() Option { return WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))) }

func TestSetupRequiresConfig(t *testing.T) {
	if _, err := setup(context.Background(), []Option{quiet()}); err == nil {
		t.Fatal("setup without config should fail")
	}
}

func TestExportThenImportPersistsAcrossRuns(t *testing.T) {
	ctx := context.Background()
	cfg := tempConfig(t)

	name, err := Export(ctx, "", "", codec.FormatJSON, WithConfig(cfg), quiet())
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if name != "cine-scene-confidential_emails.json" {
		t.Errorf("file = %q", name)
	}
	data, err := os.ReadFile(filepath.Join(cfg.Transfer.Path, name))
	if err != nil {
		t.Fatal(err)
	}

	res, err := Import(ctx, "", data, transfer.ImportOptions{}, WithConfig(cfg), quiet())
	if err != nil {
		t.Fatalf("Import: %v", err)
	}
	if !res.Reassigned || res.Scene.ID == scene.DemoSceneID {
		t.Errorf("re-importing into the same project should get a fresh id, got %+v", res)
	}

	svc, err := setup(ctx, []Option{WithConfig(cfg), quiet()})
	if err != nil {
		t.Fatal(err)
	}
	defer svc.Close()
	p, ok := svc.store.Project(scene.DemoProjectID)
	if !ok || len(p.Scenes) != 2 {
		t.Fatalf("demo project after reopen = %+v", p)
	}
	hits, err := svc.studio.Search("quit", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Errorf("catalog hits = %d, want 2", len(hits))
	}
}

func TestImportUnknownProject(t *testing.T) {
	cfg := tempConfig(t)
	_, err := Import(context.Background(), "nope", []byte(`{}`), transfer.ImportOptions{}, WithConfig(cfg), quiet())
	if err == nil {
		t.Fatal("import into a missing project should fail")
	}
}
