package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/database"
	"studytrack/internal/models"
)

// ProgressRepository handles progress rollup database operations
type ProgressRepository struct {
	db database.DBTX
}

// NewProgressRepository creates a new progress repository
func NewProgressRepository(db database.DBTX) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// GetRollup retrieves the rollup for a (user, topic) pair, or nil if absent
func (r *ProgressRepository) GetRollup(ctx context.Context, userID uuid.UUID, topic string) (*models.ProgressRollup, error) {
	query := `
		SELECT user_id, topic, total_quizzes, avg_score, flashcards_studied, updated_at
		FROM progress_rollups
		WHERE user_id = ? AND topic = ?
	`

	rollup := &models.ProgressRollup{}
	var rawUserID string

	err := r.db.QueryRow(ctx, query, userID.String(), topic).Scan(
		&rawUserID,
		&rollup.Topic,
		&rollup.TotalQuizzes,
		&rollup.AvgScore,
		&rollup.FlashcardsStudied,
		&rollup.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rollup.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return nil, err
	}

	return rollup, nil
}

// UpsertRollup writes a rollup, replacing any existing row for the same key
func (r *ProgressRepository) UpsertRollup(ctx context.Context, rollup models.ProgressRollup) error {
	updatedAt := rollup.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx, r.db.GetDialect().UpsertRollup(),
		rollup.UserID.String(),
		rollup.Topic,
		rollup.TotalQuizzes,
		rollup.AvgScore,
		rollup.FlashcardsStudied,
		updatedAt,
	)
	return err
}

// ListRollups retrieves all rollups for a user
func (r *ProgressRepository) ListRollups(ctx context.Context, userID uuid.UUID) ([]models.ProgressRollup, error) {
	query := `
		SELECT user_id, topic, total_quizzes, avg_score, flashcards_studied, updated_at
		FROM progress_rollups
		WHERE user_id = ?
		ORDER BY topic ASC
	`

	rows, err := r.db.Query(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rollups []models.ProgressRollup
	for rows.Next() {
		var rollup models.ProgressRollup
		var rawUserID string

		err := rows.Scan(
			&rawUserID,
			&rollup.Topic,
			&rollup.TotalQuizzes,
			&rollup.AvgScore,
			&rollup.FlashcardsStudied,
			&rollup.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}

		rollup.UserID, err = uuid.Parse(rawUserID)
		if err != nil {
			return nil, err
		}

		rollups = append(rollups, rollup)
	}

	return rollups, rows.Err()
}
