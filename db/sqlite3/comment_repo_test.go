package sqlite3_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/nasermirzaei89/agora/db/sqlite3"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func insertComment(
	t *testing.T,
	repo *sqlite3.CommentRepository,
	id, postID, authorID, parentID string,
	createdAt time.Time,
) {
	t.Helper()

	comment := &discuss.Comment{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   "comment " + id,
		CreatedAt: createdAt,
	}

	if parentID != "" {
		comment.ParentID = &parentID
	}

	require.NoError(t, repo.Insert(context.Background(), comment))
}

func countRows(t *testing.T, db *sql.DB, query string, args ...any) int {
	t.Helper()

	var count int

	require.NoError(t, db.QueryRowContext(context.Background(), query, args...).Scan(&count))

	return count
}

func TestCommentRepository_List(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite3.NewCommentRepository(db)
	likeRepo := sqlite3.NewLikeRepository(db)

	alice := insertUser(t, db, "alice")
	bob := insertUser(t, db, "bob")
	post := insertPost(t, db, alice.ID)
	otherPost := insertPost(t, db, alice.ID)

	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	insertComment(t, repo, "c1", post.ID, alice.ID, "", base)
	insertComment(t, repo, "c2", post.ID, bob.ID, "c1", base.Add(time.Minute))
	insertComment(t, repo, "c3", otherPost.ID, bob.ID, "", base.Add(2*time.Minute))

	for _, userID := range []string{alice.ID, bob.ID} {
		_, err := likeRepo.Insert(ctx, &likes.Like{
			TargetType: likes.TargetTypeComment,
			TargetID:   "c1",
			UserID:     userID,
			CreatedAt:  base,
		})
		require.NoError(t, err)
	}

	comments, err := repo.List(ctx, &discuss.ListCommentsParams{PostID: post.ID, ViewerID: bob.ID})
	require.NoError(t, err)
	require.Len(t, comments, 2)

	first, second := comments[0], comments[1]

	assert.Equal(t, "c1", first.ID)
	assert.Equal(t, "alice", first.AuthorName)
	assert.Nil(t, first.ParentID)
	assert.Equal(t, 2, first.Likes)
	assert.True(t, first.HasLiked)
	assert.True(t, base.Equal(first.CreatedAt))

	assert.Equal(t, "c2", second.ID)
	require.NotNil(t, second.ParentID)
	assert.Equal(t, "c1", *second.ParentID)
	assert.Zero(t, second.Likes)
	assert.False(t, second.HasLiked)

	anonymous, err := repo.List(ctx, &discuss.ListCommentsParams{PostID: post.ID})
	require.NoError(t, err)
	assert.False(t, anonymous[0].HasLiked)
	assert.Equal(t, 2, anonymous[0].Likes)

	count, err := repo.Count(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestCommentRepository_DeleteCascades(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db := newTestDB(t)
	repo := sqlite3.NewCommentRepository(db)
	likeRepo := sqlite3.NewLikeRepository(db)

	alice := insertUser(t, db, "alice")
	post := insertPost(t, db, alice.ID)

	now := time.Now()

	insertComment(t, repo, "root", post.ID, alice.ID, "", now)
	insertComment(t, repo, "reply-1", post.ID, alice.ID, "root", now.Add(time.Second))
	insertComment(t, repo, "reply-2", post.ID, alice.ID, "root", now.Add(2*time.Second))
	insertComment(t, repo, "nested", post.ID, alice.ID, "reply-1", now.Add(3*time.Second))
	insertComment(t, repo, "sibling", post.ID, alice.ID, "", now.Add(4*time.Second))

	_, err := likeRepo.Insert(ctx, &likes.Like{
		TargetType: likes.TargetTypeComment,
		TargetID:   "nested",
		UserID:     alice.ID,
		CreatedAt:  now,
	})
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "root"))

	comments, err := repo.List(ctx, &discuss.ListCommentsParams{PostID: post.ID})
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "sibling", comments[0].ID)

	assert.Zero(t, countRows(t, db, "SELECT COUNT(*) FROM likes WHERE target_type = 'comment'"))

	_, err = repo.Find(ctx, "reply-2")

	notFoundErr := &discuss.CommentNotFoundError{}
	require.ErrorAs(t, err, &notFoundErr)
	require.ErrorAs(t, repo.Delete(ctx, "root"), &notFoundErr)
}

func TestCommentRepository_RejectsUnknownParent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := sqlite3.NewCommentRepository(db)

	alice := insertUser(t, db, "alice")
	post := insertPost(t, db, alice.ID)
	parentID := "missing"

	err := repo.Insert(context.Background(), &discuss.Comment{
		ID:        "orphan",
		PostID:    post.ID,
		AuthorID:  alice.ID,
		ParentID:  &parentID,
		Content:   "text",
		CreatedAt: time.Now(),
	})
	require.Error(t, err)
}
