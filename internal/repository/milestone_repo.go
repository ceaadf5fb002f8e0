package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/database"
	"studytrack/internal/models"
)

// MilestoneRepository handles milestone database operations
type MilestoneRepository struct {
	db database.DBTX
}

// NewMilestoneRepository creates a new milestone repository
func NewMilestoneRepository(db database.DBTX) *MilestoneRepository {
	return &MilestoneRepository{db: db}
}

// Award inserts a milestone unless the user already holds one with the same
// name. Returns true if a new row was inserted. The (user_id, milestone_name)
// unique constraint makes concurrent awards collapse to a single row.
func (r *MilestoneRepository) Award(ctx context.Context, milestone models.Milestone) (bool, error) {
	achievedAt := milestone.AchievedAt
	if achievedAt.IsZero() {
		achievedAt = time.Now().UTC()
	}

	result, err := r.db.Exec(ctx, r.db.GetDialect().InsertMilestoneIgnore(),
		milestone.UserID.String(),
		milestone.Name,
		milestone.Description,
		achievedAt,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// GetByName retrieves a user's milestone by name, or nil if not awarded
func (r *MilestoneRepository) GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Milestone, error) {
	query := `
		SELECT id, user_id, milestone_name, description, achieved_at
		FROM milestones
		WHERE user_id = ? AND milestone_name = ?
	`

	milestone := &models.Milestone{}
	var rawUserID string

	err := r.db.QueryRow(ctx, query, userID.String(), name).Scan(
		&milestone.ID,
		&rawUserID,
		&milestone.Name,
		&milestone.Description,
		&milestone.AchievedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	milestone.UserID, err = uuid.Parse(rawUserID)
	if err != nil {
		return nil, err
	}

	return milestone, nil
}

// ListByUser retrieves all milestones for a user, newest first
func (r *MilestoneRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Milestone, error) {
	query := `
		SELECT id, user_id, milestone_name, description, achieved_at
		FROM milestones
		WHERE user_id = ?
		ORDER BY achieved_at DESC, id DESC
	`

	rows, err := r.db.Query(ctx, query, userID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var milestones []models.Milestone
	for rows.Next() {
		var milestone models.Milestone
		var rawUserID string

		err := rows.Scan(
			&milestone.ID,
			&rawUserID,
			&milestone.Name,
			&milestone.Description,
			&milestone.AchievedAt,
		)
		if err != nil {
			return nil, err
		}

		milestone.UserID, err = uuid.Parse(rawUserID)
		if err != nil {
			return nil, err
		}

		milestones = append(milestones, milestone)
	}

	return milestones, rows.Err()
}
