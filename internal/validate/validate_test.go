package validate

import (
	"testing"
	"time"

	"github.com/starford/cinesuite/internal/scene"
)

func validScene() scene.SceneDefinition {
	return scene.SceneDefinition{
		ID:             "s1",
		Meta:           scene.Meta{ProjectName: "P", SceneName: "Search", CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)},
		GlobalSettings: scene.GlobalSettings{ThemeID: scene.ThemeDark, ZoomLevel: 1, AccentColor: "#22c55e"},
		Module: &scene.SearchModule{
			TriggerText: "who owns the warehouse",
			BrandName:   "Seeker",
			Results: []scene.SearchResult{{
				ID: "r1", Type: scene.ResultOrganic, Title: "Warehouse", URL: "https://news.example.com/a", Snippet: "s",
				PageConfig: &scene.PageConfig{
					Layout:        "article",
					ContentImages: []scene.ContentImage{{URL: "/images/dock.jpg", Position: "top"}},
				},
			}},
		},
	}
}

func paths(issues []Issue) map[string]bool {
	out := map[string]bool{}
	for _, i := range issues {
		out[i.Path] = true
	}
	return out
}

func TestValidSceneHasNoIssues(t *testing.T) {
	s := validScene()
	if issues := Scene(&s); len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
}

func TestSceneIssuesCarryPaths(t *testing.T) {
	s := validScene()
	s.ID = ""
	s.GlobalSettings.ZoomLevel = 3
	sm := s.Module.(*scene.SearchModule)
	sm.Results[0].URL = "not a url"
	sm.Results[0].PageConfig.ContentImages[0].Width = "huge"
	sm.Results = append(sm.Results, sm.Results[0])

	got := paths(Scene(&s))
	for _, want := range []string{
		"id",
		"globalSettings.zoomLevel",
		"module.results.0.url",
		"module.results.0.pageConfig.contentImages.0.width",
		"module.results.1.id",
	} {
		if !got[want] {
			t.Errorf("missing issue at %q; got %v", want, got)
		}
	}
}

func TestZoomAcceptsPercentages(t *testing.T) {
	s := validScene()
	s.GlobalSettings.ZoomLevel = 150
	if issues := Scene(&s); len(issues) != 0 {
		t.Errorf("150%% rejected: %v", issues)
	}
	s.GlobalSettings.ZoomLevel = 250
	if !paths(Scene(&s))["globalSettings.zoomLevel"] {
		t.Error("250% accepted")
	}
}

func TestMissingModule(t *testing.T) {
	s := validScene()
	s.Module = nil
	if !paths(Scene(&s))["module"] {
		t.Error("missing module not reported")
	}
	if issues := Scene(nil); len(issues) != 1 {
		t.Errorf("nil scene issues = %v", issues)
	}
}

func TestChatMessageToTypeMustMatch(t *testing.T) {
	m := &scene.ChatModule{TriggerText: "a", MessageToType: "b", ContactName: "Sam"}
	if !paths(Module(m))["messageToType"] {
		t.Error("mismatched messageToType accepted")
	}
}

func TestMailChecks(t *testing.T) {
	m := &scene.MailModule{
		TriggerText:   "Resignation",
		UserEmail:     "not-an-email",
		ActiveEmailID: "ghost",
		Emails: []scene.Email{{
			ID: "e1", SenderName: "A", SenderEmail: "a@example.com", Subject: "S", Date: "Today", Folder: "archive",
		}},
	}
	got := paths(Module(m))
	for _, want := range []string{"userEmail", "emails.0.folder", "activeEmailId"} {
		if !got[want] {
			t.Errorf("missing issue at %q; got %v", want, got)
		}
	}
}

func TestTerminalDefaultIsValid(t *testing.T) {
	if issues := Module(scene.DefaultModule(scene.KindTerminal)); len(issues) != 0 {
		t.Errorf("issues = %v", issues)
	}
	if issues := Module(&scene.TerminalModule{}); len(issues) == 0 {
		t.Error("empty terminal accepted")
	}
}

func TestTerminalProgressDurationBounded(t *testing.T) {
	m := scene.DefaultModule(scene.KindTerminal).(*scene.TerminalModule)
	m.ProgressDuration = scene.MaxProgressDuration
	if issues := Module(m); len(issues) != 0 {
		t.Errorf("issues at the cap = %v", issues)
	}
	m.ProgressDuration = scene.MaxProgressDuration + 1
	if !paths(Module(m))["progressDuration"] {
		t.Errorf("progressDuration over the cap accepted: %v", Module(m))
	}
}
