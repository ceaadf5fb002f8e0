package models

import (
	"time"

	"github.com/google/uuid"
)

// Milestone is a one-time achievement. At most one row exists per
// (user, name) pair; awards are idempotent.
type Milestone struct {
	ID          int64     `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Name        string    `json:"milestone_name"`
	Description string    `json:"description"`
	AchievedAt  time.Time `json:"achieved_at"`
}
