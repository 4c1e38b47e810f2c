//go:build sqlite_fts5

package catalog

import (
	"database/sql"
	"fmt"
)

func initFTS(conn *sql.DB) error {
	_, err := conn.Exec(`
		CREATE VIRTUAL TABLE IF NOT EXISTS scenes_fts USING fts5(
			key UNINDEXED,
			scene_name,
			trigger_text,
			body,
			tokenize = 'unicode61 remove_diacritics 2'
		);
	`)
	return err
}

func ftsUpsert(tx *sql.Tx, r Row, body string) error {
	_, _ = tx.Exec(`DELETE FROM scenes_fts WHERE key = ?`, r.Key())
	_, err := tx.Exec(`INSERT INTO scenes_fts (key, scene_name, trigger_text, body) VALUES (?, ?, ?, ?)`,
		r.Key(), r.SceneName, r.TriggerText, body)
	if err != nil {
		return fmt.Errorf("catalog: upsert fts: %w", err)
	}
	return nil
}

func ftsDelete(tx *sql.Tx, key string) {
	_, _ = tx.Exec(`DELETE FROM scenes_fts WHERE key = ?`, key)
}

// Search performs an FTS5 query and returns hits ranked by relevance.
func (db *DB) Search(query string, limit int) ([]Hit, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.conn.Query(`
		SELECT s.project_id, s.scene_id, s.project_name, s.scene_name, s.kind, s.trigger_text, s.updated_at,
		       snippet(scenes_fts, 3, '<b>', '</b>', '...', 32)
		FROM scenes_fts
		JOIN scenes s ON s.key = scenes_fts.key
		WHERE scenes_fts MATCH ?
		ORDER BY rank
		LIMIT ?
	`, query, limit)
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
