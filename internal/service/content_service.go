package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"studytrack/internal/content"
	"studytrack/internal/models"
)

// ContentService combines the quota guard with the content generator.
// Quota is consumed before the expensive generation call: a generation
// failure after admission does not refund the ledger entry, so failed
// attempts cannot be replayed into unlimited free generations.
type ContentService struct {
	usage     *UsageService
	generator content.Generator
	logger    *zap.Logger
}

// NewContentService creates a new content service
func NewContentService(usage *UsageService, generator content.Generator, logger *zap.Logger) *ContentService {
	return &ContentService{
		usage:     usage,
		generator: generator,
		logger:    logger,
	}
}

// admit consumes quota for the activity, translating a rejection into
// ErrQuotaExceeded for callers of the composite generation path.
func (s *ContentService) admit(ctx context.Context, user models.User, activityType models.ActivityType, topic string) error {
	admission, err := s.usage.CheckAndLog(ctx, user, activityType, topic)
	if err != nil {
		return err
	}
	if !admission.Allowed {
		return fmt.Errorf("%w: %s generations", ErrQuotaExceeded, activityType)
	}
	return nil
}

// GenerateQuiz generates a quiz for the topic, consuming one quiz admission
func (s *ContentService) GenerateQuiz(ctx context.Context, user models.User, topic string) (*models.Quiz, error) {
	if err := s.admit(ctx, user, models.ActivityQuiz, topic); err != nil {
		return nil, err
	}
	return s.generator.GenerateQuiz(ctx, topic)
}

// GenerateFlashcards generates flashcards for the topic, consuming one flashcard admission
func (s *ContentService) GenerateFlashcards(ctx context.Context, user models.User, topic string) (*models.FlashcardSet, error) {
	if err := s.admit(ctx, user, models.ActivityFlashcard, topic); err != nil {
		return nil, err
	}
	return s.generator.GenerateFlashcards(ctx, topic)
}

// GenerateExplanation generates an explanation for the topic, consuming one explanation admission
func (s *ContentService) GenerateExplanation(ctx context.Context, user models.User, topic string) (string, error) {
	if err := s.admit(ctx, user, models.ActivityExplanation, topic); err != nil {
		return "", err
	}
	return s.generator.GenerateExplanation(ctx, topic)
}

// GenerateDiscussion generates discussion prompts for the topic, consuming one discussion admission
func (s *ContentService) GenerateDiscussion(ctx context.Context, user models.User, topic string) (string, error) {
	if err := s.admit(ctx, user, models.ActivityDiscussion, topic); err != nil {
		return "", err
	}
	return s.generator.GenerateDiscussion(ctx, topic)
}
