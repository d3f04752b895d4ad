package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
)

type sessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new SessionRepository implementation
func NewSessionRepository(db *sql.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

func (r *sessionRepository) Create(ctx context.Context, rec models.SessionRecord) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("creating session record: id=%s", rec.ID)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO sessions (id, created_at, last_seen_at)
VALUES (?, ?, ?)
ON CONFLICT(id) DO NOTHING
`, rec.ID, rec.CreatedAt.UTC(), rec.LastSeenAt.UTC())
	if err != nil {
		log.Error("failed to create session record: %v", err)
	}
	return err
}

func (r *sessionRepository) Get(ctx context.Context, id string) (*models.SessionRecord, error) {
	log := logger.FromContext(ctx).WithPrefix("session_repo")

	var rec models.SessionRecord
	var closedAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT id, created_at, last_seen_at, closed_at, close_reason
FROM sessions
WHERE id = ?
`, id).Scan(&rec.ID, &rec.CreatedAt, &rec.LastSeenAt, &closedAt, &rec.CloseReason)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("session record not found: id=%s", id)
		} else {
			log.Error("failed to get session record: %v", err)
		}
		return nil, err
	}
	if closedAt.Valid {
		t := closedAt.Time
		rec.ClosedAt = &t
	}
	return &rec, nil
}

func (r *sessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	sqlStr, args, err := sqlBuilder.Update("sessions").
		Set("last_seen_at", at.UTC()).
		Where(squirrel.Eq{"id": id}).
		Where(squirrel.Lt{"last_seen_at": at.UTC()}).
		ToSql()
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *sessionRepository) Close(ctx context.Context, id string, at time.Time, reason string) error {
	log := logger.FromContext(ctx).WithPrefix("session_repo")
	log.Debug("closing session record: id=%s, reason=%s", id, reason)

	sqlStr, args, err := sqlBuilder.Update("sessions").
		Set("closed_at", at.UTC()).
		Set("close_reason", reason).
		Where(squirrel.Eq{"id": id, "closed_at": nil}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		log.Error("failed to close session record: %v", err)
		return err
	}
	return nil
}

// CloseAllOpen closes records left open by a previous process.
func (r *sessionRepository) CloseAllOpen(ctx context.Context, at time.Time, reason string) (int64, error) {
	sqlStr, args, err := sqlBuilder.Update("sessions").
		Set("closed_at", at.UTC()).
		Set("close_reason", reason).
		Where(squirrel.Eq{"closed_at": nil}).
		ToSql()
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
