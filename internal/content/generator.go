package content

import (
	"context"
	"errors"

	"studytrack/internal/models"
)

// ErrServiceUnavailable indicates the generation backend could not be
// reached or returned a failure status.
var ErrServiceUnavailable = errors.New("content generation service unavailable")

// ErrInvalidFormat indicates the backend responded but its output could not
// be parsed into the expected content shape.
var ErrInvalidFormat = errors.New("content generation output has invalid format")

// Generator produces learning content for a topic. It is an external
// collaborator of the core: callers treat failures as ErrServiceUnavailable
// or ErrInvalidFormat and never retry ledgered admissions on its behalf.
type Generator interface {
	GenerateQuiz(ctx context.Context, topic string) (*models.Quiz, error)
	GenerateFlashcards(ctx context.Context, topic string) (*models.FlashcardSet, error)
	GenerateExplanation(ctx context.Context, topic string) (string, error)
	GenerateDiscussion(ctx context.Context, topic string) (string, error)
}
