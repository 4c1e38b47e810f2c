package catalog

import (
	"fmt"
	"time"
)

// Row is one catalogued scene.
type Row struct {
	ProjectID   string    `json:"projectId"`
	SceneID     string    `json:"sceneId"`
	ProjectName string    `json:"projectName"`
	SceneName   string    `json:"sceneName"`
	Kind        string    `json:"kind"`
	TriggerText string    `json:"triggerText"`
	Checksum    string    `json:"-"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Key returns the primary key of the row.
func (r Row) Key() string { return Key(r.ProjectID, r.SceneID) }

// Key joins a project and scene id.
func Key(projectID, sceneID string) string { return projectID + "/" + sceneID }

// Hit is one search result.
type Hit struct {
	Row
	Snippet string `json:"snippet"`
}

// Upsert inserts or replaces a scene row and its full-text entry.
func (db *DB) Upsert(r Row, body string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	_, err = tx.Exec(`
		INSERT INTO scenes (key, project_id, scene_id, project_name, scene_name, kind, trigger_text, body, checksum, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			project_name = excluded.project_name,
			scene_name   = excluded.scene_name,
			kind         = excluded.kind,
			trigger_text = excluded.trigger_text,
			body         = excluded.body,
			checksum     = excluded.checksum,
			updated_at   = excluded.updated_at
	`, r.Key(), r.ProjectID, r.SceneID, r.ProjectName, r.SceneName, r.Kind, r.TriggerText, body, r.Checksum, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("catalog: upsert scene: %w", err)
	}
	if err := ftsUpsert(tx, r, body); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes a scene row by key.
func (db *DB) Delete(key string) error {
	tx, err := db.conn.Begin()
	if err != nil {
		return fmt.Errorf("catalog: begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	ftsDelete(tx, key)
	if _, err := tx.Exec(`DELETE FROM scenes WHERE key = ?`, key); err != nil {
		return fmt.Errorf("catalog: delete scene: %w", err)
	}
	return tx.Commit()
}

// AllChecksums returns key → checksum for every catalogued scene.
func (db *DB) AllChecksums() (map[string]string, error) {
	rows, err := db.conn.Query(`SELECT key, checksum FROM scenes`)
	if err != nil {
		return nil, fmt.Errorf("catalog: all checksums: %w", err)
	}
	defer rows.Close()
	out := make(map[string]string)
	for rows.Next() {
		var k, cs string
		if err := rows.Scan(&k, &cs); err != nil {
			return nil, err
		}
		out[k] = cs
	}
	return out, rows.Err()
}

// List returns catalogued scenes, optionally restricted to one kind, by
// project then scene name.
func (db *DB) List(kind string) ([]Row, error) {
	q := `SELECT project_id, scene_id, project_name, scene_name, kind, trigger_text, checksum, updated_at FROM scenes`
	var args []any
	if kind != "" {
		q += ` WHERE kind = ?`
		args = append(args, kind)
	}
	q += ` ORDER BY project_name, scene_name`
	rows, err := db.conn.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalog: list: %w", err)
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.ProjectID, &r.SceneID, &r.ProjectName, &r.SceneName, &r.Kind, &r.TriggerText, &r.Checksum, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
