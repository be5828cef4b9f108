package sqlite3

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/agora/likes"
)

const tableLikes = "likes"

type LikeRepository struct {
	db *sql.DB
}

var _ likes.LikeRepository = (*LikeRepository)(nil)

func NewLikeRepository(db *sql.DB) *LikeRepository {
	return &LikeRepository{db: db}
}

const (
	likeFieldTargetType = "target_type"
	likeFieldTargetID   = "target_id"
	likeFieldUserID     = "user_id"
	likeFieldCreatedAt  = "created_at"
)

func likeKey(targetType likes.TargetType, targetID, userID string) sq.Eq {
	return sq.Eq{
		likeFieldTargetType: string(targetType),
		likeFieldTargetID:   targetID,
		likeFieldUserID:     userID,
	}
}

// Insert adds a like. A repeated like by the same user hits the primary key
// and is ignored.
func (repo *LikeRepository) Insert(ctx context.Context, like *likes.Like) (bool, error) {
	result, err := sq.Insert(tableLikes).
		Columns(likeFieldTargetType, likeFieldTargetID, likeFieldUserID, likeFieldCreatedAt).
		Values(string(like.TargetType), like.TargetID, like.UserID, like.CreatedAt.UTC()).
		Suffix("ON CONFLICT (" + likeFieldTargetType + ", " + likeFieldTargetID + ", " + likeFieldUserID + ") DO NOTHING").
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to exec insert: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (repo *LikeRepository) Delete(
	ctx context.Context,
	targetType likes.TargetType,
	targetID string,
	userID string,
) (bool, error) {
	result, err := sq.Delete(tableLikes).
		Where(likeKey(targetType, targetID, userID)).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to exec delete: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (repo *LikeRepository) Exists(
	ctx context.Context,
	targetType likes.TargetType,
	targetID string,
	userID string,
) (bool, error) {
	var count int

	err := sq.Select("COUNT(*)").
		From(tableLikes).
		Where(likeKey(targetType, targetID, userID)).
		RunWith(repo.db).
		QueryRowContext(ctx).
		Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to query like: %w", err)
	}

	return count > 0, nil
}

// CountByTargets counts likes for many targets in one query. Targets without
// likes are present with zero.
func (repo *LikeRepository) CountByTargets(
	ctx context.Context,
	targetType likes.TargetType,
	targetIDs []string,
) (map[string]int, error) {
	counts := make(map[string]int, len(targetIDs))
	for _, id := range targetIDs {
		counts[id] = 0
	}

	if len(targetIDs) == 0 {
		return counts, nil
	}

	q := sq.Select(likeFieldTargetID, "COUNT(*)").
		From(tableLikes).
		Where(sq.Eq{likeFieldTargetType: string(targetType), likeFieldTargetID: targetIDs}).
		GroupBy(likeFieldTargetID).
		RunWith(repo.db)

	err := repo.scanRows(ctx, q, func(rows *sql.Rows) error {
		var (
			targetID string
			count    int
		)

		err := rows.Scan(&targetID, &count)
		if err != nil {
			return fmt.Errorf("failed to scan like count row: %w", err)
		}

		counts[targetID] = count

		return nil
	})
	if err != nil {
		return nil, err
	}

	return counts, nil
}

// LikedByUser reports which of the targets userID likes.
func (repo *LikeRepository) LikedByUser(
	ctx context.Context,
	targetType likes.TargetType,
	targetIDs []string,
	userID string,
) (map[string]bool, error) {
	liked := make(map[string]bool, len(targetIDs))
	for _, id := range targetIDs {
		liked[id] = false
	}

	if len(targetIDs) == 0 || userID == "" {
		return liked, nil
	}

	q := sq.Select(likeFieldTargetID).
		From(tableLikes).
		Where(sq.Eq{
			likeFieldTargetType: string(targetType),
			likeFieldTargetID:   targetIDs,
			likeFieldUserID:     userID,
		}).
		RunWith(repo.db)

	err := repo.scanRows(ctx, q, func(rows *sql.Rows) error {
		var targetID string

		err := rows.Scan(&targetID)
		if err != nil {
			return fmt.Errorf("failed to scan liked row: %w", err)
		}

		liked[targetID] = true

		return nil
	})
	if err != nil {
		return nil, err
	}

	return liked, nil
}

func (repo *LikeRepository) scanRows(ctx context.Context, q sq.SelectBuilder, scan func(rows *sql.Rows) error) error {
	rows, err := q.QueryContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to query likes: %w", err)
	}

	defer func() {
		err := rows.Close()
		if err != nil {
			slog.ErrorContext(ctx, "failed to close like rows", "error", err)
		}
	}()

	for rows.Next() {
		err := scan(rows)
		if err != nil {
			return err
		}
	}

	err = rows.Err()
	if err != nil {
		return fmt.Errorf("failed to iterate like rows: %w", err)
	}

	return nil
}
