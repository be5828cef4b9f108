package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

// EnsureCommentParentColumn adds comments.parent_id, a self reference that
// cascades deletes to replies, unless the column already exists. It is safe to
// call any number of times.
func EnsureCommentParentColumn(ctx context.Context, db *sql.DB) error {
	exists, err := columnExists(ctx, db, tableComments, commentFieldParentID)
	if err != nil {
		return fmt.Errorf("failed to check parent column: %w", err)
	}

	if !exists {
		_, err = db.ExecContext(ctx, `
ALTER TABLE comments
    ADD COLUMN parent_id TEXT REFERENCES comments (id) ON DELETE CASCADE`)
		if err != nil {
			return fmt.Errorf("failed to add parent column: %w", err)
		}

		slog.InfoContext(ctx, "added comments.parent_id column")
	}

	_, err = db.ExecContext(ctx, `CREATE INDEX IF NOT EXISTS comments_parent_id_idx ON comments (parent_id)`)
	if err != nil {
		return fmt.Errorf("failed to create parent index: %w", err)
	}

	return nil
}

func columnExists(ctx context.Context, db *sql.DB, table, column string) (bool, error) {
	var count int

	err := db.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM pragma_table_info(?) WHERE name = ?",
		table,
		column,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query table info: %w", err)
	}

	return count > 0, nil
}
