package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studytrack/internal/models"
)

// dashboardHistoryLimit caps the number of ledger entries on the dashboard
const dashboardHistoryLimit = 10

// ProgressStore abstracts rollup persistence. GetRollup returns nil when no
// rollup exists for the key.
type ProgressStore interface {
	GetRollup(ctx context.Context, userID uuid.UUID, topic string) (*models.ProgressRollup, error)
	UpsertRollup(ctx context.Context, rollup models.ProgressRollup) error
	ListRollups(ctx context.Context, userID uuid.UUID) ([]models.ProgressRollup, error)
}

// ProgressService maintains per-topic rollups from scored activities and
// serves aggregate views over them.
type ProgressService struct {
	progress     ProgressStore
	activities   ActivityStore
	milestones   *MilestoneService
	storeTimeout time.Duration
	locks        *keyedMutex
	logger       *zap.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(progress ProgressStore, activities ActivityStore, milestones *MilestoneService, storeTimeout time.Duration, logger *zap.Logger) *ProgressService {
	return &ProgressService{
		progress:     progress,
		activities:   activities,
		milestones:   milestones,
		storeTimeout: storeTimeout,
		locks:        newKeyedMutex(),
		logger:       logger,
	}
}

func validateResult(score, totalQuestions int) error {
	if totalQuestions <= 0 {
		return fmt.Errorf("%w: total_questions must be positive, got %d", ErrInvalidResult, totalQuestions)
	}
	if score < 0 || score > totalQuestions {
		return fmt.Errorf("%w: score %d out of range [0, %d]", ErrInvalidResult, score, totalQuestions)
	}
	return nil
}

// RecordQuizResult folds one scored quiz into the (user, topic) rollup.
// The read-compute-write sequence runs under a per-key lock; without it two
// interleaved results could both read the old rollup and one update would
// be lost.
func (s *ProgressService) RecordQuizResult(ctx context.Context, userID uuid.UUID, topic string, score, totalQuestions int) error {
	if err := validateResult(score, totalQuestions); err != nil {
		return err
	}

	unlock := s.locks.Lock(progressKey(userID, topic))
	defer unlock()

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rollup, err := s.progress.GetRollup(cctx, userID, topic)
	if err != nil {
		return storeErr("read rollup", err)
	}
	if rollup == nil {
		rollup = &models.ProgressRollup{UserID: userID, Topic: topic}
	}

	newTotal := rollup.TotalQuizzes + 1
	rollup.AvgScore = (rollup.AvgScore*float64(rollup.TotalQuizzes) + float64(score)) / float64(newTotal)
	rollup.TotalQuizzes = newTotal
	rollup.UpdatedAt = time.Now().UTC()

	if err := s.progress.UpsertRollup(cctx, *rollup); err != nil {
		return storeErr("write rollup", err)
	}

	return nil
}

// RecordFlashcardsStudied bumps the flashcards counter on the (user, topic)
// rollup. Same lock discipline as the scored path.
func (s *ProgressService) RecordFlashcardsStudied(ctx context.Context, userID uuid.UUID, topic string, count int) error {
	if count <= 0 {
		return fmt.Errorf("%w: flashcard count must be positive, got %d", ErrInvalidResult, count)
	}

	unlock := s.locks.Lock(progressKey(userID, topic))
	defer unlock()

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rollup, err := s.progress.GetRollup(cctx, userID, topic)
	if err != nil {
		return storeErr("read rollup", err)
	}
	if rollup == nil {
		rollup = &models.ProgressRollup{UserID: userID, Topic: topic}
	}

	rollup.FlashcardsStudied += count
	rollup.UpdatedAt = time.Now().UTC()

	if err := s.progress.UpsertRollup(cctx, *rollup); err != nil {
		return storeErr("write rollup", err)
	}

	return nil
}

// TrackQuizResult is the result-reporting path: it appends the scored quiz
// to the ledger, updates the rollup, then runs the milestone rules — in that
// order. Returns any milestone the result unlocked.
func (s *ProgressService) TrackQuizResult(ctx context.Context, userID uuid.UUID, topic string, score, totalQuestions int) (*models.Milestone, error) {
	if err := validateResult(score, totalQuestions); err != nil {
		return nil, err
	}

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	record := models.ActivityRecord{
		UserID:         userID,
		ActivityType:   models.ActivityQuiz,
		Topic:          topic,
		Score:          &score,
		TotalQuestions: &totalQuestions,
	}
	if _, err := s.activities.Append(cctx, record); err != nil {
		return nil, storeErr("append quiz result", err)
	}

	if err := s.RecordQuizResult(ctx, userID, topic, score, totalQuestions); err != nil {
		return nil, err
	}

	return s.milestones.EvaluateAfterQuiz(ctx, userID, topic, score, totalQuestions)
}

// Summarize combines a user's rollups across all topics: the quiz count is
// summed and the average score weighted by each topic's quiz count.
func (s *ProgressService) Summarize(ctx context.Context, userID uuid.UUID) (models.ProgressSummary, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	rollups, err := s.progress.ListRollups(cctx, userID)
	if err != nil {
		return models.ProgressSummary{}, storeErr("list rollups", err)
	}

	var summary models.ProgressSummary
	var weightedSum float64
	for _, rollup := range rollups {
		summary.QuizzesCompleted += rollup.TotalQuizzes
		summary.FlashcardsStudied += rollup.FlashcardsStudied
		weightedSum += rollup.AvgScore * float64(rollup.TotalQuizzes)
	}
	if summary.QuizzesCompleted > 0 {
		summary.AverageScore = weightedSum / float64(summary.QuizzesCompleted)
	}

	return summary, nil
}

// Dashboard bundles the user's recent ledger entries with earned milestones
func (s *ProgressService) Dashboard(ctx context.Context, userID uuid.UUID) (models.Dashboard, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	history, err := s.activities.ListRecent(cctx, userID, dashboardHistoryLimit)
	if err != nil {
		return models.Dashboard{}, storeErr("list recent activity", err)
	}

	milestones, err := s.milestones.ListMilestones(ctx, userID)
	if err != nil {
		return models.Dashboard{}, err
	}

	return models.Dashboard{History: history, Milestones: milestones}, nil
}

func progressKey(userID uuid.UUID, topic string) string {
	return userID.String() + ":" + topic
}
