package sqlite3_test

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/nasermirzaei89/agora/authentication"
	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/db/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()

	db, err := sqlite3.NewDB(ctx, "file:"+filepath.Join(t.TempDir(), "agora.db"))
	require.NoError(t, err)

	t.Cleanup(func() {
		assert.NoError(t, db.Close())
	})

	require.NoError(t, sqlite3.MigrateUp(ctx, db))
	require.NoError(t, sqlite3.EnsureCommentParentColumn(ctx, db))

	return db
}

func insertUser(t *testing.T, db *sql.DB, username string) *authentication.User {
	t.Helper()

	user := &authentication.User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: "hash",
		RegisteredAt: time.Now(),
	}

	require.NoError(t, sqlite3.NewUserRepository(db).Insert(context.Background(), user))

	return user
}

func insertPost(t *testing.T, db *sql.DB, authorID string) *contents.Post {
	t.Helper()

	post := &contents.Post{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Title:     "title",
		Content:   "content",
		CreatedAt: time.Now(),
	}

	require.NoError(t, sqlite3.NewPostRepository(db).Insert(context.Background(), post))

	return post
}

func TestNewDB_EnablesForeignKeys(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)

	var enabled int

	err := db.QueryRowContext(context.Background(), "PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	assert.Equal(t, 1, enabled)
}

func TestEnsureCommentParentColumn_IsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	for range 3 {
		require.NoError(t, sqlite3.EnsureCommentParentColumn(ctx, db))
	}

	var count int

	err := db.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM pragma_table_info('comments') WHERE name = 'parent_id'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	err = db.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'index' AND name = 'comments_parent_id_idx'",
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMigrateDown(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)

	require.NoError(t, sqlite3.MigrateDown(ctx, db))

	var count int

	err := db.QueryRowContext(
		ctx,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('users', 'posts', 'comments', 'likes')",
	).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
