package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/agora/discuss"
	"github.com/nasermirzaei89/agora/likes"
)

const tableComments = "comments"

type CommentRepository struct {
	db *sql.DB
}

var _ discuss.CommentRepository = (*CommentRepository)(nil)

func NewCommentRepository(db *sql.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

const (
	commentFieldID        = "id"
	commentFieldPostID    = "post_id"
	commentFieldAuthorID  = "author_id"
	commentFieldParentID  = "parent_id"
	commentFieldContent   = "content"
	commentFieldCreatedAt = "created_at"
)

// selectComments reads comments with their author name, like count and
// whether viewerID likes them, all in one query.
func selectComments(viewerID string) sq.SelectBuilder {
	return sq.Select(
		"c."+commentFieldID,
		"c."+commentFieldPostID,
		"c."+commentFieldAuthorID,
		"COALESCE(u."+userFieldUsername+", '')",
		"c."+commentFieldParentID,
		"c."+commentFieldContent,
		"c."+commentFieldCreatedAt,
	).
		Column(
			"(SELECT COUNT(*) FROM "+tableLikes+" l WHERE l."+likeFieldTargetType+" = ? AND l."+likeFieldTargetID+" = c."+commentFieldID+")",
			string(likes.TargetTypeComment),
		).
		Column(
			"EXISTS (SELECT 1 FROM "+tableLikes+" l WHERE l."+likeFieldTargetType+" = ? AND l."+likeFieldTargetID+" = c."+commentFieldID+" AND l."+likeFieldUserID+" = ?)",
			string(likes.TargetTypeComment),
			viewerID,
		).
		From(tableComments + " c").
		LeftJoin(tableUsers + " u ON u." + userFieldID + " = c." + commentFieldAuthorID)
}

func scanComment(row sq.RowScanner) (*discuss.Comment, error) {
	var (
		comment  discuss.Comment
		parentID sql.NullString
	)

	err := row.Scan(
		&comment.ID,
		&comment.PostID,
		&comment.AuthorID,
		&comment.AuthorName,
		&parentID,
		&comment.Content,
		&comment.CreatedAt,
		&comment.Likes,
		&comment.HasLiked,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	if parentID.Valid && parentID.String != "" {
		comment.ParentID = &parentID.String
	}

	return &comment, nil
}

func nullString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func (repo *CommentRepository) Insert(ctx context.Context, comment *discuss.Comment) error {
	q := sq.Insert(tableComments).
		Columns(
			commentFieldID,
			commentFieldPostID,
			commentFieldAuthorID,
			commentFieldParentID,
			commentFieldContent,
			commentFieldCreatedAt,
		).
		Values(
			comment.ID,
			comment.PostID,
			comment.AuthorID,
			nullString(comment.ParentID),
			comment.Content,
			comment.CreatedAt.UTC(),
		)

	q = q.RunWith(repo.db)

	_, err := q.ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *CommentRepository) Find(ctx context.Context, commentID string) (*discuss.Comment, error) {
	q := selectComments("").Where(sq.Eq{"c." + commentFieldID: commentID})

	q = q.RunWith(repo.db)

	comment, err := scanComment(q.QueryRowContext(ctx))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &discuss.CommentNotFoundError{ID: commentID}
		}

		return nil, fmt.Errorf("failed to scan comment: %w", err)
	}

	return comment, nil
}

// List returns the comments of a post as a flat list ordered by creation time.
func (repo *CommentRepository) List(
	ctx context.Context,
	params *discuss.ListCommentsParams,
) ([]*discuss.Comment, error) {
	query := selectComments(params.ViewerID).
		OrderBy("c."+commentFieldCreatedAt+" ASC", "c."+commentFieldID+" ASC")

	if params.PostID != "" {
		query = query.Where(sq.Eq{"c." + commentFieldPostID: params.PostID})
	}

	query = query.RunWith(repo.db)

	rows, err := query.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("query failed: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}()

	comments := make([]*discuss.Comment, 0)

	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan comment failed: %w", err)
		}

		comments = append(comments, comment)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return comments, nil
}

func (repo *CommentRepository) Count(ctx context.Context, postID string) (int, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableComments).
		Where(sq.Eq{commentFieldPostID: postID}).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}

	return count, nil
}

// Delete removes a comment. Replies go with it through the parent_id cascade
// and their likes through the comments_delete_likes trigger.
func (repo *CommentRepository) Delete(ctx context.Context, commentID string) error {
	result, err := sq.Delete(tableComments).
		Where(sq.Eq{commentFieldID: commentID}).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return &discuss.CommentNotFoundError{ID: commentID}
	}

	return nil
}
