package scene

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestDecodeModule_DispatchesOnTag(t *testing.T) {
	cases := []struct {
		doc  string
		want Kind
	}{
		{`{"type":"search","triggerText":"q","brandName":"B","results":[]}`, KindSearch},
		{`{"type":"chat","triggerText":"hi","contactName":"Sam","messagesHistory":[],"messageToType":"hi"}`, KindChat},
		{`{"type":"mail","triggerText":"x","userEmail":"a@b.c","emails":[]}`, KindMail},
		{`{"type":"terminal","triggerText":"run","color":"green","lines":["a"]}`, KindTerminal},
	}
	for _, c := range cases {
		m, err := DecodeModule([]byte(c.doc))
		if err != nil {
			t.Fatalf("DecodeModule(%s): %v", c.doc, err)
		}
		if m.Kind() != c.want {
			t.Errorf("kind = %q, want %q", m.Kind(), c.want)
		}
	}
}

func TestDecodeModule_IgnoresFieldPresence(t *testing.T) {
	// Chat fields on a search tag must not turn the module into a chat.
	m, err := DecodeModule([]byte(`{"type":"search","contactName":"Sam","results":[]}`))
	if err != nil {
		t.Fatalf("DecodeModule: %v", err)
	}
	if _, ok := m.(*SearchModule); !ok {
		t.Fatalf("got %T, want *SearchModule", m)
	}
}

func TestDecodeModule_MissingOrUnknownType(t *testing.T) {
	if _, err := DecodeModule([]byte(`{"triggerText":"x"}`)); !errors.Is(err, ErrMissingType) {
		t.Errorf("missing type err = %v", err)
	}
	if _, err := DecodeModule([]byte(`{"type":"fax"}`)); err == nil || !strings.Contains(err.Error(), "fax") {
		t.Errorf("unknown type err = %v", err)
	}
}

func TestModuleMarshal_WritesTypeFirst(t *testing.T) {
	data, err := json.Marshal(Module(&TerminalModule{TriggerText: "go", Lines: []string{}}))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), `{"type":"terminal",`) {
		t.Errorf("encoded = %s", data)
	}
}

func TestSceneJSONRoundTrip(t *testing.T) {
	now := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	rating := 4.5
	in := SceneDefinition{
		ID:             "s1",
		Meta:           Meta{ProjectName: "P", SceneName: "S", CreatedAt: now},
		GlobalSettings: GlobalSettings{ThemeID: ThemeDark, ZoomLevel: 1.25, AccentColor: "#fff"},
		Module: &SearchModule{
			TriggerText: "poison",
			BrandName:   "Seeker",
			Results: []SearchResult{{
				ID: "r1", Type: ResultOrganic, Title: "T", URL: "https://x.io", Snippet: "s",
				Rating:     &rating,
				PageConfig: &PageConfig{Layout: "wiki", ContentImages: []ContentImage{{URL: "https://x.io/a.png"}}},
			}},
		},
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatal(err)
	}
	var out SceneDefinition
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(in, out) {
		t.Errorf("round trip mismatch:\n in=%+v\nout=%+v", in, out)
	}
}

func TestWithTrigger_ChatKeepsMessageToType(t *testing.T) {
	orig := &ChatModule{TriggerText: "a", MessageToType: "a"}
	m := WithTrigger(orig, "hello")
	chat := m.(*ChatModule)
	if chat.TriggerText != "hello" || chat.MessageToType != "hello" {
		t.Errorf("chat = %+v", chat)
	}
	if orig.TriggerText != "a" {
		t.Error("original module was mutated")
	}
}

func TestClone_IsDeep(t *testing.T) {
	m := &MailModule{Emails: []Email{{ID: "1", Labels: []string{"work"}}}}
	c := m.Clone().(*MailModule)
	c.Emails[0].Labels[0] = "changed"
	c.Emails[0].Subject = "changed"
	if m.Emails[0].Labels[0] != "work" || m.Emails[0].Subject != "" {
		t.Error("clone shares memory with original")
	}
}

func TestTemplatesInstantiate(t *testing.T) {
	now := time.Now().UTC()
	seen := map[string]bool{}
	for _, tpl := range Templates() {
		if seen[tpl.ID] {
			t.Fatalf("duplicate template id %q", tpl.ID)
		}
		seen[tpl.ID] = true
		s := tpl.Instantiate("P", now)
		if s.Kind() != tpl.Kind() {
			t.Errorf("%s: kind = %q", tpl.ID, s.Kind())
		}
		if s.Meta.SceneName != tpl.Name || s.Meta.ProjectName != "P" {
			t.Errorf("%s: meta = %+v", tpl.ID, s.Meta)
		}
	}
	if _, ok := FindTemplate("server-breach"); !ok {
		t.Error("server-breach template missing")
	}
}

func TestDefaultModule(t *testing.T) {
	for _, k := range Kinds {
		m := DefaultModule(k)
		if m == nil || m.Kind() != k {
			t.Errorf("DefaultModule(%q) = %v", k, m)
		}
	}
	if DefaultModule("fax") != nil {
		t.Error("unknown kind should yield nil")
	}
}
