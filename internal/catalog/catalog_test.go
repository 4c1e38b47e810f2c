package catalog

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var t0 = time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)

func libraryState() projectstore.State {
	var st projectstore.State
	st.CreateProject("p1", "Thriller", "", t0)
	for _, tpl := range scene.Templates() {
		s := tpl.Instantiate("Thriller", t0)
		s.ID = tpl.ID
		st.AddScene("p1", s, t0)
	}
	return st
}

func TestSchemaCreation(t *testing.T) {
	db := testDB(t)
	var count int
	if err := db.conn.QueryRow(`SELECT count(*) FROM scenes`).Scan(&count); err != nil {
		t.Fatalf("scenes table missing: %v", err)
	}
}

func TestSyncUpsertsAndRemoves(t *testing.T) {
	db := testDB(t)
	st := libraryState()
	if err := Sync(db, st, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, err := db.List("")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(rows) != len(scene.Templates()) {
		t.Fatalf("rows = %d", len(rows))
	}

	st.DeleteScene("p1", "server-breach", t0)
	if err := Sync(db, st, quietLogger()); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	rows, _ = db.List(string(scene.KindTerminal))
	if len(rows) != 0 {
		t.Errorf("terminal rows after delete = %d", len(rows))
	}
}

func TestSyncSkipsUnchanged(t *testing.T) {
	db := testDB(t)
	st := libraryState()
	_ = Sync(db, st, quietLogger())
	before, _ := db.AllChecksums()

	name := "Renamed"
	st.UpdateProject("p1", projectstore.ProjectPatch{Name: &name}, t0)
	_ = Sync(db, st, quietLogger())
	after, _ := db.AllChecksums()
	for k := range before {
		if before[k] == after[k] {
			t.Errorf("%s not refreshed after project rename", k)
		}
	}
	rows, _ := db.List("")
	if rows[0].ProjectName != "Renamed" {
		t.Errorf("project name = %q", rows[0].ProjectName)
	}
}

func TestSearch(t *testing.T) {
	db := testDB(t)
	_ = Sync(db, libraryState(), quietLogger())

	hits, err := db.Search("Hope", 10)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 1 || hits[0].SceneID != "digital-detective" {
		t.Fatalf("hits = %+v", hits)
	}
	if hits[0].Kind != string(scene.KindSearch) {
		t.Errorf("kind = %q", hits[0].Kind)
	}
}

func TestBody(t *testing.T) {
	tpl, _ := scene.FindTemplate("direct-threat")
	body := Body(tpl.Module())
	if !strings.Contains(body, "48h") || !strings.Contains(body, "Unknown") {
		t.Errorf("body = %q", body)
	}
	if Body(nil) != "" {
		t.Error("nil module body not empty")
	}
}
