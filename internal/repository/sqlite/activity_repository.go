package sqlite

import (
	"context"
	"database/sql"

	"github.com/Masterminds/squirrel"
	"github.com/vytor/visionize/internal/logger"
	"github.com/vytor/visionize/internal/models"
	"github.com/vytor/visionize/internal/repository"
)

var sqlBuilder = squirrel.StatementBuilder.PlaceholderFormat(squirrel.Question)

var activityColumns = []string{
	"id", "session_id", "kind", "lesson", "question", "exercise", "tone", "correct", "created_at",
}

type activityRepository struct {
	db *sql.DB
}

// NewActivityRepository creates a new ActivityRepository implementation
func NewActivityRepository(db *sql.DB) repository.ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Insert(ctx context.Context, a models.Activity) (int64, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("inserting activity: session_id=%s, kind=%s", a.SessionID, a.Kind)

	query, args, err := insertActivity(a).ToSql()
	if err != nil {
		log.Error("failed to build insert: %v", err)
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to insert activity: %v", err)
		return 0, err
	}
	return res.LastInsertId()
}

// InsertBatch inserts activities within a single transaction.
func (r *activityRepository) InsertBatch(ctx context.Context, activities []models.Activity) ([]int64, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("batch inserting %d activities", len(activities))

	if len(activities) == 0 {
		return nil, nil
	}

	ids := make([]int64, 0, len(activities))
	err := tx(ctx, r.db, func(tx *sql.Tx) error {
		for _, a := range activities {
			query, args, err := insertActivity(a).ToSql()
			if err != nil {
				return err
			}
			res, err := tx.ExecContext(ctx, query, args...)
			if err != nil {
				log.Error("failed to insert activity kind=%s: %v", a.Kind, err)
				return err
			}
			id, err := res.LastInsertId()
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Debug("batch inserted %d activities", len(ids))
	return ids, nil
}

func insertActivity(a models.Activity) squirrel.InsertBuilder {
	var correct any
	if a.Correct != nil {
		correct = *a.Correct
	}
	return sqlBuilder.Insert("activities").
		Columns("session_id", "kind", "lesson", "question", "exercise", "tone", "correct", "created_at").
		Values(a.SessionID, string(a.Kind), a.Lesson, a.Question, a.Exercise, a.Tone, correct, a.CreatedAt.UTC())
}

func applyActivityFilter(q squirrel.SelectBuilder, filter models.ActivityFilter) squirrel.SelectBuilder {
	if filter.SessionID != "" {
		q = q.Where(squirrel.Eq{"session_id": filter.SessionID})
	}
	if filter.Kind != "" {
		q = q.Where(squirrel.Eq{"kind": string(filter.Kind)})
	}
	if filter.Lesson != "" {
		q = q.Where(squirrel.Eq{"lesson": filter.Lesson})
	}
	return q
}

func (r *activityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.Activity, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")
	log.Debug("listing activities with filter: session_id=%s, kind=%s, lesson=%s",
		filter.SessionID, filter.Kind, filter.Lesson)

	query := applyActivityFilter(sqlBuilder.Select(activityColumns...).From("activities"), filter).
		OrderBy("created_at ASC", "id ASC")

	// Pagination
	limit := filter.Limit
	if limit <= 0 {
		limit = 200
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query = query.Limit(uint64(limit)).Offset(uint64(offset))

	sqlStr, args, err := query.ToSql()
	if err != nil {
		log.Error("failed to build query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to list activities: %v", err)
		return nil, err
	}
	defer rows.Close()

	var activities []models.Activity
	for rows.Next() {
		var a models.Activity
		var kind string
		var correct sql.NullBool
		if err := rows.Scan(&a.ID, &a.SessionID, &kind, &a.Lesson, &a.Question, &a.Exercise, &a.Tone, &correct, &a.CreatedAt); err != nil {
			log.Error("failed to scan activity row: %v", err)
			return nil, err
		}
		a.Kind = models.ActivityKind(kind)
		if correct.Valid {
			v := correct.Bool
			a.Correct = &v
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating activity rows: %v", err)
		return nil, err
	}
	log.Debug("found %d activities", len(activities))
	return activities, nil
}

func (r *activityRepository) Count(ctx context.Context, filter models.ActivityFilter) (int, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")

	sqlStr, args, err := applyActivityFilter(sqlBuilder.Select("COUNT(*)").From("activities"), filter).ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return 0, err
	}
	var count int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&count); err != nil {
		log.Error("failed to count activities: %v", err)
		return 0, err
	}
	return count, nil
}

func (r *activityRepository) CountByKind(ctx context.Context, sessionID string) ([]models.ActivityCount, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")

	sqlStr, args, err := sqlBuilder.Select("kind", "COUNT(*)").
		From("activities").
		Where(squirrel.Eq{"session_id": sessionID}).
		GroupBy("kind").
		OrderBy("kind").
		ToSql()
	if err != nil {
		log.Error("failed to build count query: %v", err)
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		log.Error("failed to count activities by kind: %v", err)
		return nil, err
	}
	defer rows.Close()

	var counts []models.ActivityCount
	for rows.Next() {
		var c models.ActivityCount
		var kind string
		if err := rows.Scan(&kind, &c.Count); err != nil {
			return nil, err
		}
		c.Kind = models.ActivityKind(kind)
		counts = append(counts, c)
	}
	return counts, rows.Err()
}

func (r *activityRepository) AnswerStats(ctx context.Context, sessionID string) (int, int, error) {
	log := logger.FromContext(ctx).WithPrefix("activity_repo")

	sqlStr, args, err := sqlBuilder.Select("COUNT(*)", "COALESCE(SUM(CASE WHEN correct = 1 THEN 1 ELSE 0 END), 0)").
		From("activities").
		Where(squirrel.Eq{"session_id": sessionID, "kind": string(models.ActivityAnswerSubmitted)}).
		ToSql()
	if err != nil {
		return 0, 0, err
	}
	var total, correct int
	if err := r.db.QueryRowContext(ctx, sqlStr, args...).Scan(&total, &correct); err != nil {
		log.Error("failed to compute answer stats: %v", err)
		return 0, 0, err
	}
	return total, correct, nil
}
