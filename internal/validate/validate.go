// Package validate is the strict shape check applied to externally authored
// scenes. It reports every problem as an Issue and never rejects on its own;
// the caller decides whether issues block an import.
package validate

import (
	"errors"
	"fmt"
	"sort"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/cinesuite/internal/scene"
)

// Issue is one shape problem. Path is dotted, with slice indexes as
// segments: "module.results.0.url".
type Issue struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

func (i Issue) String() string { return i.Path + ": " + i.Message }

// Zoom bounds, as a factor.
const (
	MinZoom = 0.5
	MaxZoom = 2.0
)

var (
	themes       = []any{scene.ThemeLight, scene.ThemeDark, scene.ThemeRetro, scene.ThemeHacker}
	resultTypes  = []any{scene.ResultOrganic, scene.ResultAd, scene.ResultNews, scene.ResultVideo, scene.ResultImage, scene.ResultFeatured}
	layouts      = []any{"article", "blog", "news", "forum", "wiki", "ecommerce", "portal"}
	positions    = []any{"top", "inline", "side", "bottom"}
	widths       = []any{"small", "medium", "large", "full"}
	fonts        = []any{"serif", "sans-serif", "mono", "cursive"}
	textSizes    = []any{"small", "medium", "large"}
	spacings     = []any{"compact", "normal", "relaxed"}
	sidebars     = []any{"ads", "related", "author", "toc", "none"}
	chatStatuses = []any{scene.StatusSent, scene.StatusDelivered, scene.StatusRead}
	folders      = []any{scene.FolderInbox, scene.FolderSent, scene.FolderTrash, scene.FolderSpam, scene.FolderDrafts}
	speeds       = []any{scene.SpeedSlow, scene.SpeedFast, scene.SpeedInstant}
	finals       = []any{scene.FinalSuccess, scene.FinalError}
)

// zoomRule accepts a factor in [MinZoom, MaxZoom] or the same range
// written as a percentage.
var zoomRule = validation.By(func(v any) error {
	z, _ := v.(float64)
	if z >= 10 {
		z /= 100
	}
	if z < MinZoom || z > MaxZoom {
		return fmt.Errorf("must be between %g and %g (or %g%% to %g%%)", MinZoom, MaxZoom, MinZoom*100, MaxZoom*100)
	}
	return nil
})

// Scene checks a whole scene, module included.
func Scene(s *scene.SceneDefinition) []Issue {
	var c collector
	if s == nil {
		c.add("", errors.New("scene is required"))
		return c.issues
	}
	c.add("", validation.ValidateStruct(s,
		validation.Field(&s.ID, validation.Required),
	))
	c.add("meta", validation.ValidateStruct(&s.Meta,
		validation.Field(&s.Meta.SceneName, validation.Required),
		validation.Field(&s.Meta.CreatedAt, validation.Required),
	))
	g := &s.GlobalSettings
	c.add("globalSettings", validation.ValidateStruct(g,
		validation.Field(&g.ThemeID, validation.Required, validation.In(themes...)),
		validation.Field(&g.ZoomLevel, zoomRule),
		validation.Field(&g.AccentColor, is.HexColor),
	))
	if s.Module == nil {
		c.add("module", errors.New("is required"))
		return c.issues
	}
	c.issues = append(c.issues, prefixed("module", Module(s.Module))...)
	return c.issues
}

// Module checks one module according to its kind.
func Module(m scene.Module) []Issue {
	var c collector
	switch v := m.(type) {
	case *scene.SearchModule:
		search(&c, v)
	case *scene.ChatModule:
		chat(&c, v)
	case *scene.MailModule:
		mail(&c, v)
	case *scene.TerminalModule:
		terminal(&c, v)
	default:
		c.add("", errors.New("is required"))
	}
	return c.issues
}

func search(c *collector, m *scene.SearchModule) {
	c.add("", validation.ValidateStruct(m,
		validation.Field(&m.TriggerText, validation.Required),
		validation.Field(&m.BrandName, validation.Required),
		validation.Field(&m.BrandLogoURL, is.RequestURL),
	))
	ids := map[string]bool{}
	for i := range m.Results {
		r := &m.Results[i]
		path := index("results", i)
		c.add(path, validation.ValidateStruct(r,
			validation.Field(&r.ID, validation.Required),
			validation.Field(&r.Type, validation.Required, validation.In(resultTypes...)),
			validation.Field(&r.Title, validation.Required),
			validation.Field(&r.URL, validation.Required, is.URL),
			validation.Field(&r.ImageURL, imageRef),
			validation.Field(&r.Rating, validation.Min(0.0), validation.Max(5.0)),
		))
		c.unique(path+".id", r.ID, ids)
		if pc := r.PageConfig; pc != nil {
			pagePath := path + ".pageConfig"
			c.add(pagePath, validation.ValidateStruct(pc,
				validation.Field(&pc.Layout, validation.In(layouts...)),
				validation.Field(&pc.HeaderImage, imageRef),
			))
			for j := range pc.ContentImages {
				img := &pc.ContentImages[j]
				c.add(pagePath+"."+index("contentImages", j), validation.ValidateStruct(img,
					validation.Field(&img.URL, validation.Required, imageRef),
					validation.Field(&img.Position, validation.In(positions...)),
					validation.Field(&img.Width, validation.In(widths...)),
				))
			}
			if st := pc.Style; st != nil {
				c.add(pagePath+".style", validation.ValidateStruct(st,
					validation.Field(&st.PrimaryColor, is.HexColor),
					validation.Field(&st.Font, validation.In(fonts...)),
					validation.Field(&st.TextSize, validation.In(textSizes...)),
					validation.Field(&st.Spacing, validation.In(spacings...)),
				))
			}
			if sb := pc.Sidebar; sb != nil {
				c.add(pagePath+".sidebar", validation.ValidateStruct(sb,
					validation.Field(&sb.Type, validation.In(sidebars...)),
				))
			}
		}
	}
}

func chat(c *collector, m *scene.ChatModule) {
	c.add("", validation.ValidateStruct(m,
		validation.Field(&m.TriggerText, validation.Required),
		validation.Field(&m.ContactName, validation.Required),
		validation.Field(&m.MessageToType, validation.In(m.TriggerText).Error("must equal triggerText")),
	))
	ids := map[string]bool{}
	for i := range m.MessagesHistory {
		msg := &m.MessagesHistory[i]
		path := index("messagesHistory", i)
		c.add(path, validation.ValidateStruct(msg,
			validation.Field(&msg.ID, validation.Required),
			validation.Field(&msg.Time, validation.Required),
			validation.Field(&msg.Status, validation.In(chatStatuses...)),
		))
		c.unique(path+".id", msg.ID, ids)
	}
}

func mail(c *collector, m *scene.MailModule) {
	c.add("", validation.ValidateStruct(m,
		validation.Field(&m.TriggerText, validation.Required),
		validation.Field(&m.UserEmail, validation.Required, is.EmailFormat),
		validation.Field(&m.InboxCount, validation.Min(0)),
	))
	ids := map[string]bool{}
	for i := range m.Emails {
		e := &m.Emails[i]
		path := index("emails", i)
		c.add(path, validation.ValidateStruct(e,
			validation.Field(&e.ID, validation.Required),
			validation.Field(&e.SenderName, validation.Required),
			validation.Field(&e.SenderEmail, validation.Required, is.EmailFormat),
			validation.Field(&e.Subject, validation.Required),
			validation.Field(&e.Date, validation.Required),
			validation.Field(&e.Folder, validation.Required, validation.In(folders...)),
		))
		c.unique(path+".id", e.ID, ids)
	}
	if m.ActiveEmailID != "" && !ids[m.ActiveEmailID] {
		c.add("activeEmailId", errors.New("does not match any email"))
	}
}

func terminal(c *collector, m *scene.TerminalModule) {
	c.add("", validation.ValidateStruct(m,
		validation.Field(&m.TriggerText, validation.Required),
		validation.Field(&m.Lines, validation.Required),
		validation.Field(&m.TypingSpeed, validation.Required, validation.In(speeds...)),
		validation.Field(&m.ProgressDuration, validation.Min(0.0), validation.Max(scene.MaxProgressDuration)),
		validation.Field(&m.FinalStatus, validation.Required, validation.In(finals...)),
	))
}

// imageRef accepts absolute URLs, site-relative paths and data URIs.
var imageRef = validation.By(func(v any) error {
	s, _ := v.(string)
	if s == "" || s[0] == '/' {
		return nil
	}
	if is.DataURI.Validate(s) == nil {
		return nil
	}
	return is.URL.Validate(s)
})

type collector struct {
	issues []Issue
}

// add flattens an ozzo error tree under path.
func (c *collector) add(path string, err error) {
	if err == nil {
		return
	}
	var errs validation.Errors
	if errors.As(err, &errs) {
		keys := make([]string, 0, len(errs))
		for k := range errs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			c.add(join(path, k), errs[k])
		}
		return
	}
	c.issues = append(c.issues, Issue{Path: path, Message: err.Error()})
}

func (c *collector) unique(path, id string, seen map[string]bool) {
	if id == "" {
		return
	}
	if seen[id] {
		c.issues = append(c.issues, Issue{Path: path, Message: fmt.Sprintf("duplicate id %q", id)})
	}
	seen[id] = true
}

func prefixed(prefix string, issues []Issue) []Issue {
	for i := range issues {
		issues[i].Path = join(prefix, issues[i].Path)
	}
	return issues
}

func index(field string, i int) string { return field + "." + strconv.Itoa(i) }

func join(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "." + b
}
