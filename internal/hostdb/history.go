package hostdb

import (
	"context"
	"time"
)

// BuildRecord is one entry of the build history.
type BuildRecord struct {
	BuildID      string
	ProductID    string
	Status       string
	StartedAt    time.Time
	Duration     time.Duration
	Revision     string
	DocumentPath string
	FilesStaged  int
	Error        string
}

// RecordBuild appends r to the build history.
func (h *DB) RecordBuild(ctx context.Context, r BuildRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	_, err := h.db.ExecContext(ctx,
		`INSERT INTO build_history (build_id, product_id, status, started_at, duration_ms, revision, document_path, files_staged, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.BuildID, r.ProductID, r.Status, r.StartedAt.UnixNano(), r.Duration.Milliseconds(),
		r.Revision, r.DocumentPath, r.FilesStaged, r.Error)
	if err != nil {
		return dbErr("record build", err)
	}
	return nil
}

// History returns the most recent builds first. An empty productID matches
// every product; limit <= 0 returns all entries.
func (h *DB) History(ctx context.Context, productID string, limit int) ([]BuildRecord, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	query := `SELECT build_id, product_id, status, started_at, duration_ms, revision, document_path, files_staged, error
		FROM build_history WHERE (? = '' OR product_id = ?) ORDER BY started_at DESC, id DESC`
	params := []any{productID, productID}
	if limit > 0 {
		query += " LIMIT ?"
		params = append(params, limit)
	}

	rows, err := h.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, dbErr("query build history", err)
	}
	defer func() { _ = rows.Close() }()

	var out []BuildRecord
	for rows.Next() {
		var r BuildRecord
		var started, ms int64
		if err := rows.Scan(&r.BuildID, &r.ProductID, &r.Status, &started, &ms,
			&r.Revision, &r.DocumentPath, &r.FilesStaged, &r.Error); err != nil {
			return nil, dbErr("scan build history", err)
		}
		r.StartedAt = time.Unix(0, started)
		r.Duration = time.Duration(ms) * time.Millisecond
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, dbErr("iterate build history", err)
	}
	return out, nil
}
