package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studytrack/internal/models"
)

// MilestoneFirstPerfectScore is awarded the first time a user answers every
// question of a quiz correctly.
const MilestoneFirstPerfectScore = "First Perfect Score"

// MilestoneStore abstracts milestone persistence. Award must be atomic:
// concurrent awards of the same (user, name) pair insert exactly one row.
type MilestoneStore interface {
	Award(ctx context.Context, milestone models.Milestone) (bool, error)
	GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Milestone, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Milestone, error)
}

// MilestoneService evaluates achievement rules after scored activities
type MilestoneService struct {
	milestones   MilestoneStore
	storeTimeout time.Duration
	locks        *keyedMutex
	logger       *zap.Logger
}

// NewMilestoneService creates a new milestone service
func NewMilestoneService(milestones MilestoneStore, storeTimeout time.Duration, logger *zap.Logger) *MilestoneService {
	return &MilestoneService{
		milestones:   milestones,
		storeTimeout: storeTimeout,
		locks:        newKeyedMutex(),
		logger:       logger,
	}
}

// EvaluateAfterQuiz checks the rule set against a completed quiz and awards
// any newly unlocked milestone. Returns nil when nothing new was unlocked.
// The award is idempotent: the store's unique constraint (backed by a
// per-(user, name) lock here) guarantees at most one row per milestone even
// under concurrent perfect scores.
func (s *MilestoneService) EvaluateAfterQuiz(ctx context.Context, userID uuid.UUID, topic string, score, totalQuestions int) (*models.Milestone, error) {
	if score != totalQuestions {
		return nil, nil
	}

	milestone := models.Milestone{
		UserID:      userID,
		Name:        MilestoneFirstPerfectScore,
		Description: fmt.Sprintf("Achieved a perfect score on the %q quiz!", topic),
	}

	unlock := s.locks.Lock(userID.String() + ":" + milestone.Name)
	defer unlock()

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	inserted, err := s.milestones.Award(cctx, milestone)
	if err != nil {
		return nil, storeErr("award milestone", err)
	}
	if !inserted {
		// Already awarded earlier; idempotent no-op
		return nil, nil
	}

	awarded, err := s.milestones.GetByName(cctx, userID, milestone.Name)
	if err != nil {
		return nil, storeErr("load milestone", err)
	}

	s.logger.Info("milestone awarded",
		zap.String("user_id", userID.String()),
		zap.String("milestone", milestone.Name))

	return awarded, nil
}

// ListMilestones retrieves all milestones earned by a user
func (s *MilestoneService) ListMilestones(ctx context.Context, userID uuid.UUID) ([]models.Milestone, error) {
	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	milestones, err := s.milestones.ListByUser(cctx, userID)
	if err != nil {
		return nil, storeErr("list milestones", err)
	}
	return milestones, nil
}
