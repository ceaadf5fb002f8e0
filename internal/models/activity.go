package models

import (
	"time"

	"github.com/google/uuid"
)

// ActivityType categorises a metered generation activity
type ActivityType string

const (
	ActivityQuiz        ActivityType = "quiz"
	ActivityFlashcard   ActivityType = "flashcard"
	ActivityExplanation ActivityType = "explanation"
	ActivityDiscussion  ActivityType = "discussion"
)

// Valid reports whether the activity type is one of the known kinds
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityQuiz, ActivityFlashcard, ActivityExplanation, ActivityDiscussion:
		return true
	}
	return false
}

// ActivityRecord is a single ledger entry for a metered activity.
// Records are append-only: once written they are never updated or deleted.
// Score and TotalQuestions are set only for scored quiz results.
type ActivityRecord struct {
	ID             int64        `json:"id"`
	UserID         uuid.UUID    `json:"user_id"`
	ActivityType   ActivityType `json:"activity_type"`
	Topic          string       `json:"topic"`
	Score          *int         `json:"score,omitempty"`
	TotalQuestions *int         `json:"total_questions,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Admission is the outcome of a quota check
type Admission struct {
	Allowed bool `json:"allowed"`
}
