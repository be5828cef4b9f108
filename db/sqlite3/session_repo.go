package sqlite3

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/nasermirzaei89/agora/authentication"
)

const tableSessions = "sessions"

type SessionRepository struct {
	db *sql.DB
}

var _ authentication.SessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const (
	sessionFieldID        = "id"
	sessionFieldUserID    = "user_id"
	sessionFieldCreatedAt = "created_at"
	sessionFieldExpiresAt = "expires_at"
)

func sessionColumns() []string {
	return []string{
		sessionFieldID,
		sessionFieldUserID,
		sessionFieldCreatedAt,
		sessionFieldExpiresAt,
	}
}

func scanSession(row sq.RowScanner) (*authentication.Session, error) {
	var session authentication.Session

	err := row.Scan(&session.ID, &session.UserID, &session.CreatedAt, &session.ExpiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan row: %w", err)
	}

	return &session, nil
}

func (repo *SessionRepository) Insert(ctx context.Context, session *authentication.Session) error {
	_, err := sq.Insert(tableSessions).
		Columns(sessionColumns()...).
		Values(session.ID, session.UserID, session.CreatedAt.UTC(), session.ExpiresAt.UTC()).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to exec insert: %w", err)
	}

	return nil
}

func (repo *SessionRepository) Find(ctx context.Context, id string) (*authentication.Session, error) {
	row := sq.Select(sessionColumns()...).
		From(tableSessions).
		Where(sq.Eq{sessionFieldID: id}).
		RunWith(repo.db).
		QueryRowContext(ctx)

	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, &authentication.SessionNotFoundError{ID: id}
		}

		return nil, fmt.Errorf("failed to scan session: %w", err)
	}

	return session, nil
}

func (repo *SessionRepository) Delete(ctx context.Context, id string) error {
	count, err := repo.delete(ctx, sq.Eq{sessionFieldID: id})
	if err != nil {
		return err
	}

	if count == 0 {
		return &authentication.SessionNotFoundError{ID: id}
	}

	return nil
}

func (repo *SessionRepository) DeleteExpired(ctx context.Context, before time.Time) (int64, error) {
	return repo.delete(ctx, sq.Lt{sessionFieldExpiresAt: before.UTC()})
}

func (repo *SessionRepository) delete(ctx context.Context, pred sq.Sqlizer) (int64, error) {
	result, err := sq.Delete(tableSessions).
		Where(pred).
		RunWith(repo.db).
		ExecContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to exec delete: %w", err)
	}

	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return count, nil
}
