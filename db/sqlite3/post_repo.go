package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/agora/contents"
)

const tablePosts = "posts"

type PostRepository struct {
	db *sql.DB
}

var _ contents.PostRepository = (*PostRepository)(nil)

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

const (
	postFieldID        = "id"
	postFieldAuthorID  = "author_id"
	postFieldTitle     = "title"
	postFieldContent   = "content"
	postFieldCreatedAt = "created_at"
)

// selectPosts joins the author so listings do not look users up one by one.
func selectPosts() sq.SelectBuilder {
	return sq.Select(
		"p."+postFieldID,
		"p."+postFieldAuthorID,
		"COALESCE(u."+userFieldUsername+", '')",
		"p."+postFieldTitle,
		"p."+postFieldContent,
		"p."+postFieldCreatedAt,
	).
		From(tablePosts + " p").
		LeftJoin(tableUsers + " u ON u." + userFieldID + " = p." + postFieldAuthorID)
}

func scanPost(row sq.RowScanner) (*contents.Post, error) {
	var post contents.Post

	err := row.Scan(
		&post.ID,
		&post.AuthorID,
		&post.AuthorName,
		&post.Title,
		&post.Content,
		&post.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &post, nil
}

func (repo *PostRepository) Insert(ctx context.Context, post *contents.Post) error {
	q := sq.Insert(tablePosts).
		Columns(postFieldID, postFieldAuthorID, postFieldTitle, postFieldContent, postFieldCreatedAt).
		Values(post.ID, post.AuthorID, post.Title, post.Content, post.CreatedAt.UTC())

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *PostRepository) Find(ctx context.Context, postID string) (*contents.Post, error) {
	q := selectPosts().Where(sq.Eq{"p." + postFieldID: postID})

	q = q.RunWith(repo.db)

	post, err := scanPost(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &contents.PostNotFoundError{ID: postID}
		}

		return nil, fmt.Errorf("failed to scan post: %w", err)
	}

	return post, nil
}

// List returns posts newest first.
func (repo *PostRepository) List(ctx context.Context) ([]*contents.Post, error) {
	q := selectPosts().OrderBy("p."+postFieldCreatedAt+" DESC", "p."+postFieldID)

	q = q.RunWith(repo.db)

	rows, err := q.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	posts := make([]*contents.Post, 0)

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}

		posts = append(posts, post)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return posts, nil
}
