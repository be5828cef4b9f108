package sqlite3_test

import (
	"context"
	"testing"
	"time"

	"github.com/nasermirzaei89/agora/contents"
	"github.com/nasermirzaei89/agora/db/sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite3.NewPostRepository(db)
	alice := insertUser(t, db, "alice")

	base := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, title := range []string{"older", "newer"} {
		err := repo.Insert(ctx, &contents.Post{
			ID:        title,
			AuthorID:  alice.ID,
			Title:     title,
			Content:   "body of " + title,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		require.NoError(t, err)
	}

	post, err := repo.Find(ctx, "older")
	require.NoError(t, err)
	assert.Equal(t, "older", post.Title)
	assert.Equal(t, "alice", post.AuthorName)

	posts, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "newer", posts[0].ID)
	assert.Equal(t, "older", posts[1].ID)

	_, err = repo.Find(ctx, "missing")

	notFoundErr := &contents.PostNotFoundError{}
	require.ErrorAs(t, err, &notFoundErr)
}
