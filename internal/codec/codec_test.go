package codec

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/starford/cinesuite/internal/apperr"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
)

var t0 = time.Date(2026, 2, 14, 8, 30, 0, 0, time.UTC)

func richState() projectstore.State {
	var st projectstore.State
	st.CreateProject("p1", "Heist", "night job", t0)
	for _, tpl := range scene.Templates() {
		s := tpl.Instantiate("Heist", t0)
		st.AddScene("p1", s, t0)
	}
	st.CreateProject("p2", "Empty", "", t0)
	st.SetCurrentProject("p1")
	return st
}

func TestStoreRoundTrip(t *testing.T) {
	for name, st := range map[string]projectstore.State{
		"rich":  richState(),
		"demo":  projectstore.Demo(t0),
		"empty": {},
	} {
		t.Run(name, func(t *testing.T) {
			data, err := EncodeStore(st)
			if err != nil {
				t.Fatalf("EncodeStore: %v", err)
			}
			got, err := DecodeStore(data)
			if err != nil {
				t.Fatalf("DecodeStore: %v", err)
			}
			if !reflect.DeepEqual(st, got) {
				t.Errorf("round trip mismatch\nwant %+v\n got %+v", st, got)
			}
		})
	}
}

func TestStoreNullPointers(t *testing.T) {
	data, _ := EncodeStore(projectstore.State{Projects: []scene.Project{}})
	if !strings.Contains(string(data), `"currentProjectId":null`) || !strings.Contains(string(data), `"currentSceneId":null`) {
		t.Errorf("encoded = %s", data)
	}
}

func TestDecodeStoreRejectsModulelessScene(t *testing.T) {
	blob := `{"projects":[{"id":"p","name":"P","createdAt":"2026-01-01T00:00:00Z","updatedAt":"2026-01-01T00:00:00Z","scenes":[{"id":"s"}]}],"currentProjectId":"p","currentSceneId":null}`
	if _, err := DecodeStore([]byte(blob)); !errors.Is(err, apperr.ErrInvalidScene) {
		t.Errorf("err = %v", err)
	}
}

func TestSceneRoundTrip(t *testing.T) {
	for _, f := range []Format{FormatJSON, FormatYAML} {
		for _, tpl := range scene.Templates() {
			s := tpl.Instantiate("Heist", t0)
			data, err := EncodeScene(s, f)
			if err != nil {
				t.Fatalf("%s/%s EncodeScene: %v", f, tpl.ID, err)
			}
			got, err := DecodeScene(data, f)
			if err != nil {
				t.Fatalf("%s/%s DecodeScene: %v\n%s", f, tpl.ID, err, data)
			}
			if !reflect.DeepEqual(s, got) {
				t.Errorf("%s/%s round trip mismatch\nwant %+v\n got %+v", f, tpl.ID, s, got)
			}
		}
	}
}

func TestYAMLIsBlockStyle(t *testing.T) {
	s := scene.Templates()[0].Instantiate("Heist", t0)
	data, err := EncodeScene(s, FormatYAML)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "id: ") || !strings.Contains(string(data), "\nmodule:\n") {
		t.Errorf("unexpected yaml:\n%s", data)
	}
}

func TestDecodeSceneRequiresModule(t *testing.T) {
	cases := map[string]struct {
		data string
		f    Format
	}{
		"json no module": {`{"id":"s","meta":{"sceneName":"x"}}`, FormatJSON},
		"json null":      {`null`, FormatJSON},
		"json garbage":   {`{oops`, FormatJSON},
		"yaml no module": {"id: s\nmeta:\n  sceneName: x\n", FormatYAML},
		"module scalar":  {`{"module":"chat"}`, FormatJSON},
	}
	for name, tc := range cases {
		if _, err := DecodeScene([]byte(tc.data), tc.f); !errors.Is(err, apperr.ErrInvalidScene) {
			t.Errorf("%s: err = %v, want ErrInvalidScene", name, err)
		}
	}
}

func TestSceneFilename(t *testing.T) {
	s := scene.SceneDefinition{Meta: scene.Meta{SceneName: "Chat d'Alex #2"}}
	if got := SceneFilename(s, FormatJSON); got != "cine-scene-chat_d_alex__2.json" {
		t.Errorf("json name = %q", got)
	}
	if got := SceneFilename(s, FormatYAML); got != "cine-scene-chat_d_alex__2.yaml" {
		t.Errorf("yaml name = %q", got)
	}
}

func TestFormats(t *testing.T) {
	if f, err := ParseFormat("YML"); err != nil || f != FormatYAML {
		t.Errorf("ParseFormat(YML) = %q, %v", f, err)
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("ParseFormat(xml) accepted")
	}
	if f, ok := FormatFromName("x.Yaml"); !ok || f != FormatYAML {
		t.Errorf("FormatFromName = %q, %v", f, ok)
	}
	if _, ok := FormatFromName("x.txt"); ok {
		t.Error("FormatFromName(txt) ok")
	}
}
