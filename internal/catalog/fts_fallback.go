//go:build !sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(_ *sql.DB) error {
	// Without FTS5, search runs LIKE over scenes.body.
	return nil
}

func ftsUpsert(_ *sql.Tx, _ Row, _ string) error { return nil }

func ftsDelete(_ *sql.Tx, _ string) {}

// Search performs a LIKE-based search over names, trigger text and body.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	like := "%" + query + "%"
	rows, err := db.conn.Query(`
		SELECT project_id, scene_id, project_name, scene_name, kind, trigger_text, updated_at, substr(body, 1, 200)
		FROM scenes
		WHERE scene_name LIKE ? OR trigger_text LIKE ? OR body LIKE ?
		ORDER BY updated_at DESC
		LIMIT ?
	`, like, like, like, limit)
	if err != nil {
		return nil, fmt.Errorf("catalog: search: %w", err)
	}
	defer rows.Close()

	var out []Hit
	for rows.Next() {
		var h Hit
		if err := rows.Scan(&h.ProjectID, &h.SceneID, &h.ProjectName, &h.SceneName, &h.Kind, &h.TriggerText, &h.UpdatedAt, &h.Snippet); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
