package catalog

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/starford/cinesuite/internal/checksum"
	"github.com/starford/cinesuite/internal/projectstore"
	"github.com/starford/cinesuite/internal/scene"
)

// Sync brings the catalog in line with the store state:
//   - new or changed scenes are upserted
//   - scenes no longer in the store are removed
func Sync(db *DB, st projectstore.State, logger *slog.Logger) error {
	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	live := make(map[string]struct{})
	for _, p := range st.Projects {
		for _, s := range p.Scenes {
			data, err := json.Marshal(s)
			if err != nil {
				logger.Warn("catalog: encode failed", slog.String("scene_id", s.ID), slog.String("error", err.Error()))
				continue
			}
			row := Row{
				ProjectID:   p.ID,
				SceneID:     s.ID,
				ProjectName: p.Name,
				SceneName:   s.Meta.SceneName,
				Kind:        string(s.Kind()),
				Checksum:    checksum.Parts([]byte(p.Name), data),
				UpdatedAt:   p.UpdatedAt,
			}
			if s.Module != nil {
				row.TriggerText = s.Module.Trigger()
			}
			live[row.Key()] = struct{}{}
			if checksums[row.Key()] == row.Checksum {
				continue
			}
			if err := db.Upsert(row, Body(s.Module)); err != nil {
				logger.Warn("catalog: upsert failed", slog.String("key", row.Key()), slog.String("error", err.Error()))
			} else {
				logger.Debug("catalog: indexed", slog.String("key", row.Key()))
			}
		}
	}

	for k := range checksums {
		if _, ok := live[k]; ok {
			continue
		}
		if err := db.Delete(k); err != nil {
			logger.Warn("catalog: delete failed", slog.String("key", k), slog.String("error", err.Error()))
		} else {
			logger.Debug("catalog: removed stale", slog.String("key", k))
		}
	}
	return nil
}

// Body flattens the human-readable text of a module for searching.
func Body(m scene.Module) string {
	var parts []string
	add := func(s ...string) {
		for _, v := range s {
			if v != "" {
				parts = append(parts, v)
			}
		}
	}
	switch v := m.(type) {
	case *scene.SearchModule:
		add(v.BrandName)
		for _, r := range v.Results {
			add(r.Title, r.Snippet, r.URL, r.Author)
		}
	case *scene.ChatModule:
		add(v.ContactName, v.ContactStatus)
		for _, msg := range v.MessagesHistory {
			add(msg.Text)
		}
	case *scene.MailModule:
		add(v.UserName, v.UserEmail)
		for _, e := range v.Emails {
			add(e.SenderName, e.SenderEmail, e.Subject, e.Preview)
		}
	case *scene.TerminalModule:
		add(v.Lines...)
		add(v.FinalMessage)
	}
	return strings.Join(parts, "\n")
}
