package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/starford/cinesuite/internal/generator"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/reveal"
	"github.com/starford/cinesuite/internal/scene"
	"github.com/starford/cinesuite/internal/sse"
	"github.com/starford/cinesuite/internal/storage"
	"github.com/starford/cinesuite/internal/studio"
	"github.com/starford/cinesuite/internal/testutil"
	"github.com/starford/cinesuite/internal/transfer"
)

type stubGen struct{ reply string }

func (g stubGen) Generate(context.Context, generator.Request) (string, error) { return g.reply, nil }

type env struct {
	store  *projectstore.Store
	files  storage.Provider
	studio *studio.Service
	router http.Handler
}

func testEnv(t *testing.T, authToken string) *env {
	t.Helper()
	return testEnvWith(t, authToken != "", authToken, nil)
}

func testEnvWith(t *testing.T, authEnabled bool, token string, events *sse.Broker) *env {
	t.Helper()
	store, _ := testutil.TestStore(t)
	_, files := testutil.TestFiles(t)
	db := testutil.TestCatalog(t)
	logger := testutil.QuietLogger()

	st := studio.NewService(store, db, stubGen{reply: `{"contactName":"Trinity","triggerText":"ok"}`}, nil, "", logger)
	router := NewRouter(Deps{
		Store:    store,
		Transfer: transfer.NewService(files, store, logger),
		Studio:   st,
		Player:   NewPlayer(store, reveal.DefaultPolicy()),
		Events:   events,
	}, authEnabled, token)
	return &env{store: store, files: files, studio: st, router: router}
}

func (e *env) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rd = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		if err != nil {
			t.Fatal(err)
		}
		rd = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
	return v
}

func TestCreateAndGetProject(t *testing.T) {
	e := testEnv(t, "")

	w := e.do(t, http.MethodPost, "/projects", CreateProjectRequest{Name: "Heist"})
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d, body = %s", w.Code, w.Body.String())
	}
	p := decode[scene.Project](t, w)
	if p.Name != "Heist" || len(p.Scenes) != 0 {
		t.Fatalf("unexpected project %+v", p)
	}

	w = e.do(t, http.MethodGet, "/projects/"+p.ID, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get status = %d", w.Code)
	}

	cur := decode[CurrentResponse](t, e.do(t, http.MethodGet, "/current", nil))
	if cur.Project == nil || cur.Project.ID != p.ID || cur.Scene != nil {
		t.Fatalf("new project should be current with no scene: %+v", cur)
	}

	w = e.do(t, http.MethodGet, "/projects", nil)
	if list := decode[[]scene.Project](t, w); len(list) != 2 {
		t.Fatalf("projects = %d, want demo + new", len(list))
	}
}

func TestCreateProject_Invalid(t *testing.T) {
	e := testEnv(t, "")
	if w := e.do(t, http.MethodPost, "/projects", CreateProjectRequest{}); w.Code != http.StatusBadRequest {
		t.Fatalf("empty name = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/projects", "{not json"); w.Code != http.StatusBadRequest {
		t.Fatalf("bad json = %d, want 400", w.Code)
	}
}

func TestUpdateAndDeleteProject(t *testing.T) {
	e := testEnv(t, "")
	name := "Renamed"
	w := e.do(t, http.MethodPatch, "/projects/"+scene.DemoProjectID, UpdateProjectRequest{Name: &name})
	if w.Code != http.StatusOK || decode[scene.Project](t, w).Name != "Renamed" {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	if w := e.do(t, http.MethodDelete, "/projects/"+scene.DemoProjectID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	if w := e.do(t, http.MethodDelete, "/projects/"+scene.DemoProjectID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", w.Code)
	}
	cur := decode[CurrentResponse](t, e.do(t, http.MethodGet, "/current", nil))
	if cur.Project != nil || cur.Scene != nil {
		t.Fatalf("expected empty selection, got %+v", cur)
	}
}

func TestAddScene_Sources(t *testing.T) {
	e := testEnv(t, "")
	base := "/projects/" + scene.DemoProjectID + "/scenes"

	w := e.do(t, http.MethodPost, base, AddSceneRequest{Kind: "terminal", Name: "Boot"})
	if w.Code != http.StatusCreated {
		t.Fatalf("kind = %d %s", w.Code, w.Body.String())
	}
	if def := decode[scene.SceneDefinition](t, w); def.Kind() != scene.KindTerminal || def.Meta.SceneName != "Boot" {
		t.Fatalf("unexpected scene %+v", def)
	}

	w = e.do(t, http.MethodPost, base, AddSceneRequest{Template: "digital-detective"})
	if w.Code != http.StatusCreated {
		t.Fatalf("template = %d %s", w.Code, w.Body.String())
	}

	doc := json.RawMessage(`{"meta":{"sceneName":"Pasted"},"module":{"type":"chat","contactName":"Morpheus"}}`)
	w = e.do(t, http.MethodPost, base, AddSceneRequest{Scene: doc})
	if w.Code != http.StatusCreated {
		t.Fatalf("scene doc = %d %s", w.Code, w.Body.String())
	}
	def := decode[scene.SceneDefinition](t, w)
	if def.Module.(*scene.ChatModule).ContactName != "Morpheus" || def.ID == "" {
		t.Fatalf("unexpected scene %+v", def)
	}

	if w := e.do(t, http.MethodPost, base, AddSceneRequest{Kind: "chat", Template: "x"}); w.Code != http.StatusBadRequest {
		t.Fatalf("two sources = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, base, AddSceneRequest{Kind: "fax"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad kind = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPost, "/projects/nope/scenes", AddSceneRequest{Kind: "chat"}); w.Code != http.StatusNotFound {
		t.Fatalf("missing project = %d, want 404", w.Code)
	}
	if w := e.do(t, http.MethodPost, base, AddSceneRequest{Scene: json.RawMessage(`{"meta":{}}`)}); w.Code != http.StatusBadRequest {
		t.Fatalf("doc without module = %d, want 400", w.Code)
	}
}

func TestUpdateScene_NormalizesModule(t *testing.T) {
	e := testEnv(t, "")
	path := "/projects/" + scene.DemoProjectID + "/scenes/" + scene.DemoSceneID

	body := map[string]any{
		"module":         map[string]any{"type": "search", "results": []any{map[string]any{"title": "T", "snippet": "S"}}},
		"globalSettings": map[string]any{"themeId": "dark", "zoomLevel": 150},
	}
	w := e.do(t, http.MethodPatch, path, body)
	if w.Code != http.StatusOK {
		t.Fatalf("patch = %d %s", w.Code, w.Body.String())
	}
	def := decode[scene.SceneDefinition](t, w)
	m, ok := def.Module.(*scene.SearchModule)
	if !ok || len(m.Results) != 1 || m.Results[0].ID == "" || m.Results[0].PageContent == "" {
		t.Fatalf("module not normalized: %+v", def.Module)
	}
	if def.GlobalSettings.ZoomLevel != 1.5 {
		t.Fatalf("zoom = %v, want 1.5", def.GlobalSettings.ZoomLevel)
	}

	trigger := "new words"
	w = e.do(t, http.MethodPatch, "/current/scene", UpdateSceneRequest{TriggerText: &trigger})
	if w.Code != http.StatusOK {
		t.Fatalf("patch current = %d %s", w.Code, w.Body.String())
	}
	if def := decode[scene.SceneDefinition](t, w); def.Module.Trigger() != trigger || def.Kind() != scene.KindSearch {
		t.Fatalf("unexpected scene %+v", def)
	}

	if w := e.do(t, http.MethodPatch, path, map[string]any{"module": map[string]any{"type": "fax"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad type = %d, want 400", w.Code)
	}
	if w := e.do(t, http.MethodPatch, "/projects/"+scene.DemoProjectID+"/scenes/nope", map[string]any{}); w.Code != http.StatusNotFound {
		t.Fatalf("missing scene = %d, want 404", w.Code)
	}
}

func TestDuplicateSelectDeleteScene(t *testing.T) {
	e := testEnv(t, "")
	base := "/projects/" + scene.DemoProjectID + "/scenes/"

	w := e.do(t, http.MethodPost, base+scene.DemoSceneID+"/duplicate", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("duplicate = %d", w.Code)
	}
	dup := decode[scene.SceneDefinition](t, w)
	if dup.ID == scene.DemoSceneID || !strings.HasSuffix(dup.Meta.SceneName, " (copy)") {
		t.Fatalf("unexpected copy %+v", dup.Meta)
	}

	cur := decode[CurrentResponse](t, e.do(t, http.MethodPost, base+dup.ID+"/current", nil))
	if cur.Scene == nil || cur.Scene.ID != dup.ID {
		t.Fatalf("select did not switch: %+v", cur.Scene)
	}

	if w := e.do(t, http.MethodDelete, base+dup.ID, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", w.Code)
	}
	cur = decode[CurrentResponse](t, e.do(t, http.MethodGet, "/current", nil))
	if cur.Scene != nil {
		t.Fatal("deleting the current scene clears the selection")
	}
	if w := e.do(t, http.MethodGet, base+dup.ID, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted = %d", w.Code)
	}
}

func TestExportThenImport(t *testing.T) {
	e := testEnv(t, "")
	base := "/projects/" + scene.DemoProjectID

	w := e.do(t, http.MethodPost, base+"/scenes/"+scene.DemoSceneID+"/export", ExportRequest{Format: "yaml"})
	if w.Code != http.StatusOK {
		t.Fatalf("export = %d %s", w.Code, w.Body.String())
	}
	name := decode[ExportResponse](t, w).File
	if name != "cine-scene-confidential_emails.yaml" {
		t.Fatalf("file = %q", name)
	}
	data, err := e.files.Read(name)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}

	w = e.do(t, http.MethodPost, base+"/import?format=yaml", string(data))
	if w.Code != http.StatusCreated {
		t.Fatalf("import = %d %s", w.Code, w.Body.String())
	}
	res := decode[transfer.ImportResult](t, w)
	if !res.Reassigned || res.Scene.ID == scene.DemoSceneID {
		t.Fatalf("colliding id should be reassigned: %+v", res)
	}
	if res.Scene.Module.Trigger() != "I quit, effective immediately." {
		t.Fatalf("trigger = %q", res.Scene.Module.Trigger())
	}
}

func TestDownloadScene(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/projects/"+scene.DemoProjectID+"/scenes/"+scene.DemoSceneID+"/export?format=json", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("download = %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "cine-scene-confidential_emails.json") {
		t.Fatalf("content disposition = %q", cd)
	}
	if !strings.Contains(w.Body.String(), `"type": "mail"`) {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestImport_StrictRejectsIssues(t *testing.T) {
	e := testEnv(t, "")
	doc := `{"module":{"type":"mail","userEmail":"not-an-email","emails":[]}}`

	w := e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/import?strict=true", doc)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("strict import = %d %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "module.userEmail") {
		t.Fatalf("issues missing path: %s", w.Body.String())
	}
	if p, _ := e.store.Project(scene.DemoProjectID); len(p.Scenes) != 1 {
		t.Fatal("strict rejection must not touch the store")
	}

	w = e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/import", doc)
	if w.Code != http.StatusCreated {
		t.Fatalf("lenient import = %d %s", w.Code, w.Body.String())
	}
	if res := decode[transfer.ImportResult](t, w); len(res.Issues) == 0 {
		t.Fatal("lenient import still reports issues")
	}
}

func TestImport_Multipart(t *testing.T) {
	e := testEnv(t, "")
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "cine-scene-x.yaml")
	if err != nil {
		t.Fatal(err)
	}
	_, _ = fw.Write([]byte("module:\n  type: terminal\n  triggerText: ls\n"))
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/projects/"+scene.DemoProjectID+"/import", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("multipart import = %d %s", w.Code, w.Body.String())
	}
	if res := decode[transfer.ImportResult](t, w); res.Scene.Kind() != scene.KindTerminal {
		t.Fatalf("kind = %q", res.Scene.Kind())
	}
}

func TestImport_MissingModule(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/import", `{"id":"x"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("import without module = %d, want 400", w.Code)
	}
}

func TestValidateDocument(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/validate", `{"module":{"type":"chat","contactName":"A","messagesHistory":[{"id":"1","text":"a"},{"id":"1","text":"b"}]}}`)
	if w.Code != http.StatusOK {
		t.Fatalf("validate = %d", w.Code)
	}
	got := decode[struct {
		Valid  bool `json:"valid"`
		Issues []struct {
			Path string `json:"path"`
		} `json:"issues"`
	}](t, w)
	if got.Valid || len(got.Issues) == 0 {
		t.Fatalf("duplicate ids should be reported: %+v", got)
	}
}

func TestGenerate_MissingCredential(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/scenes/"+scene.DemoSceneID+"/generate", studio.GenerateOptions{Prompt: "x"})
	if w.Code != http.StatusPreconditionFailed {
		t.Fatalf("generate without key = %d, want 412", w.Code)
	}
}

func TestGenerate_WithCredential(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/scenes/"+scene.DemoSceneID+"/generate",
		studio.GenerateOptions{Prompt: "x", Kind: scene.KindChat, Credential: "k"})
	if w.Code != http.StatusOK {
		t.Fatalf("generate = %d %s", w.Code, w.Body.String())
	}
	def := decode[scene.SceneDefinition](t, w)
	if m, ok := def.Module.(*scene.ChatModule); !ok || m.ContactName != "Trinity" {
		t.Fatalf("unexpected module %+v", def.Module)
	}
}

func TestSearchEndpoint(t *testing.T) {
	e := testEnv(t, "")
	if err := e.studio.Reindex(); err != nil {
		t.Fatal(err)
	}
	w := e.do(t, http.MethodGet, "/search?q=quit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("search = %d", w.Code)
	}
	if resp := decode[SearchResponse](t, w); len(resp.Results) != 1 {
		t.Fatalf("hits = %d, want 1", len(resp.Results))
	}
	if w := e.do(t, http.MethodGet, "/search", nil); w.Code != http.StatusBadRequest {
		t.Fatalf("search no query = %d, want 400", w.Code)
	}
}

func TestTemplates(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodGet, "/templates", nil)
	items := decode[[]struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}](t, w)
	if len(items) != len(scene.Templates()) || items[0].Kind == "" {
		t.Fatalf("unexpected templates %+v", items)
	}
}

func TestPlayback_ChatFlow(t *testing.T) {
	e := testEnv(t, "")
	w := e.do(t, http.MethodPost, "/projects/"+scene.DemoProjectID+"/scenes", AddSceneRequest{
		Scene: json.RawMessage(`{"module":{"type":"chat","triggerText":"hi","contactName":"Ana","messagesHistory":[]}}`),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("add = %d %s", w.Code, w.Body.String())
	}

	if w := e.do(t, http.MethodPost, "/playback/commit", nil); w.Code != http.StatusConflict {
		t.Fatalf("early commit = %d, want 409", w.Code)
	}
	e.do(t, http.MethodPost, "/playback/input", InputRequest{Source: "keyboard", Key: "q"})
	st := decode[PlaybackState](t, e.do(t, http.MethodPost, "/playback/input", InputRequest{Source: "keyboard", Key: "w"}))
	if !st.Reveal.IsComplete || st.Reveal.DisplayValue != "hi" {
		t.Fatalf("unexpected reveal %+v", st.Reveal)
	}

	w = e.do(t, http.MethodPost, "/playback/commit", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("commit = %d %s", w.Code, w.Body.String())
	}
	st = decode[PlaybackState](t, w)
	if len(st.Messages) != 1 || !st.Messages[0].IsMe || st.Messages[0].Text != "hi" {
		t.Fatalf("unexpected transcript %+v", st.Messages)
	}

	cur, _ := e.store.CurrentScene()
	if len(cur.Module.(*scene.ChatModule).MessagesHistory) != 0 {
		t.Fatal("playback must not write to the store")
	}

	if w := e.do(t, http.MethodPost, "/playback/input", InputRequest{Source: "keyboard"}); w.Code != http.StatusBadRequest {
		t.Fatalf("keyboard without key = %d, want 400", w.Code)
	}
}

func TestPlayback_NoScene(t *testing.T) {
	e := testEnv(t, "")
	if _, err := e.store.DeleteProject(context.Background(), scene.DemoProjectID); err != nil {
		t.Fatal(err)
	}
	if w := e.do(t, http.MethodGet, "/playback", nil); w.Code != http.StatusNotFound {
		t.Fatalf("playback without scene = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed list = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	e := testEnv(t, "secret123")
	if w := e.do(t, http.MethodGet, "/projects", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	e := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/projects", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthProtected(t *testing.T) {
	b := sse.NewBroker(time.Second)
	defer b.Close()
	e := testEnvWith(t, true, "secret", b)

	if w := e.do(t, http.MethodGet, "/events", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	b := sse.NewBroker(time.Second)
	defer b.Close()
	e := testEnvWith(t, true, "tok", b)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with valid token = %d, want 200", w.Code)
	}
}

func TestSSEEvents_QueryToken(t *testing.T) {
	b := sse.NewBroker(time.Second)
	defer b.Close()
	e := testEnvWith(t, true, "tok", b)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("SSE with query token = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_QueryTokenOnlyForEvents(t *testing.T) {
	e := testEnv(t, "tok")
	w := e.do(t, http.MethodGet, "/projects?access_token=tok", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token on /projects = %d, want 401", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Error("missing WWW-Authenticate challenge")
	}
}
