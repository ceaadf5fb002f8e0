package models

import (
	"time"

	"github.com/google/uuid"
)

// ProgressRollup is the per-user-per-topic aggregate derived from scored
// activities. AvgScore is always the weighted mean of the scores that
// contributed to TotalQuizzes; TotalQuizzes never decreases.
type ProgressRollup struct {
	UserID            uuid.UUID
	Topic             string
	TotalQuizzes      int
	AvgScore          float64
	FlashcardsStudied int
	UpdatedAt         time.Time
}

// ProgressSummary combines a user's rollups across all topics
type ProgressSummary struct {
	QuizzesCompleted  int     `json:"quizzes_completed"`
	AverageScore      float64 `json:"average_score"`
	FlashcardsStudied int     `json:"flashcards_studied"`
}

// Dashboard bundles the recent activity history with earned milestones
type Dashboard struct {
	History    []ActivityRecord `json:"history"`
	Milestones []Milestone      `json:"milestones"`
}
