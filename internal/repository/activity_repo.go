package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/database"
	"studytrack/internal/models"
)

// ActivityRepository handles activity ledger database operations.
// The ledger is append-only; nothing here updates or deletes rows.
type ActivityRepository struct {
	db database.DBTX
}

// NewActivityRepository creates a new activity repository
func NewActivityRepository(db database.DBTX) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Append writes a new activity record and returns its ID
func (r *ActivityRepository) Append(ctx context.Context, record models.ActivityRecord) (int64, error) {
	query := `
		INSERT INTO activity_log (user_id, activity_type, topic, score, total_questions, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	createdAt := record.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	return r.db.ExecReturningID(ctx, query,
		record.UserID.String(),
		string(record.ActivityType),
		record.Topic,
		record.Score,
		record.TotalQuestions,
		createdAt,
	)
}

// CountByUserAndType returns how many activities of one type a user has logged
func (r *ActivityRepository) CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType models.ActivityType) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM activity_log
		WHERE user_id = ? AND activity_type = ?
	`

	var count int
	err := r.db.QueryRow(ctx, query, userID.String(), string(activityType)).Scan(&count)
	return count, err
}

// ListRecent retrieves a user's most recent activity records, newest first
func (r *ActivityRepository) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRecord, error) {
	query := `
		SELECT id, user_id, activity_type, topic, score, total_questions, created_at
		FROM activity_log
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.Query(ctx, query, userID.String(), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.ActivityRecord
	for rows.Next() {
		record, err := scanActivityRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

func scanActivityRecord(rows *sql.Rows) (models.ActivityRecord, error) {
	var record models.ActivityRecord
	var rawUserID, rawType string
	var score, totalQuestions sql.NullInt64

	err := rows.Scan(
		&record.ID,
		&rawUserID,
		&rawType,
		&record.Topic,
		&score,
		&totalQuestions,
		&record.CreatedAt,
	)
	if err != nil {
		return models.ActivityRecord{}, err
	}

	record.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return models.ActivityRecord{}, err
	}
	record.ActivityType = models.ActivityType(rawType)

	if score.Valid {
		n := int(score.Int64)
		record.Score = &n
	}
	if totalQuestions.Valid {
		n := int(totalQuestions.Int64)
		record.TotalQuestions = &n
	}

	return record, nil
}
