package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studytrack/internal/models"
)

const scoreTolerance = 1e-9

type progressFixture struct {
	activities *memActivityStore
	progress   *memProgressStore
	milestones *memMilestoneStore
	svc        *ProgressService
}

func newProgressFixture() *progressFixture {
	activities := newMemActivityStore()
	progress := newMemProgressStore()
	milestones := newMemMilestoneStore()
	milestoneSvc := NewMilestoneService(milestones, testStoreTimeout, zap.NewNop())
	return &progressFixture{
		activities: activities,
		progress:   progress,
		milestones: milestones,
		svc:        NewProgressService(progress, activities, milestoneSvc, testStoreTimeout, zap.NewNop()),
	}
}

func TestRecordQuizResultRunningAverage(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()
	ctx := context.Background()

	// Existing rollup: 2 quizzes averaging 3.0
	seed := models.ProgressRollup{
		UserID:       userID,
		Topic:        "chemistry",
		TotalQuizzes: 2,
		AvgScore:     3.0,
		UpdatedAt:    time.Now().UTC(),
	}
	if err := f.progress.UpsertRollup(ctx, seed); err != nil {
		t.Fatalf("seeding rollup: %v", err)
	}

	if err := f.svc.RecordQuizResult(ctx, userID, "chemistry", 5, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rollup, err := f.progress.GetRollup(ctx, userID, "chemistry")
	if err != nil || rollup == nil {
		t.Fatalf("reading rollup back: %v", err)
	}
	if rollup.TotalQuizzes != 3 {
		t.Errorf("total_quizzes = %d, want 3", rollup.TotalQuizzes)
	}
	want := (3.0*2 + 5) / 3
	if math.Abs(rollup.AvgScore-want) > scoreTolerance {
		t.Errorf("avg_score = %v, want %v", rollup.AvgScore, want)
	}
}

func TestRecordQuizResultOrderIndependent(t *testing.T) {
	orders := [][]int{
		{2, 4, 5},
		{5, 4, 2},
		{4, 5, 2},
	}

	for _, scores := range orders {
		f := newProgressFixture()
		userID := uuid.New()
		ctx := context.Background()

		for _, score := range scores {
			if err := f.svc.RecordQuizResult(ctx, userID, "geometry", score, 5); err != nil {
				t.Fatalf("scores %v: unexpected error: %v", scores, err)
			}
		}

		rollup, err := f.progress.GetRollup(ctx, userID, "geometry")
		if err != nil || rollup == nil {
			t.Fatalf("scores %v: reading rollup back: %v", scores, err)
		}
		if rollup.TotalQuizzes != 3 {
			t.Errorf("scores %v: total_quizzes = %d, want 3", scores, rollup.TotalQuizzes)
		}
		want := (2.0 + 4.0 + 5.0) / 3.0
		if math.Abs(rollup.AvgScore-want) > scoreTolerance {
			t.Errorf("scores %v: avg_score = %v, want %v", scores, rollup.AvgScore, want)
		}
	}
}

func TestRecordQuizResultConcurrentSameTopic(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()

	const results = 20
	var wg sync.WaitGroup
	for i := 0; i < results; i++ {
		wg.Add(1)
		go func(score int) {
			defer wg.Done()
			if err := f.svc.RecordQuizResult(context.Background(), userID, "physics", score, 10); err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		}(i % 11)
	}
	wg.Wait()

	rollup, err := f.progress.GetRollup(context.Background(), userID, "physics")
	if err != nil || rollup == nil {
		t.Fatalf("reading rollup back: %v", err)
	}
	// No lost updates: every result must be counted
	if rollup.TotalQuizzes != results {
		t.Errorf("total_quizzes = %d, want %d", rollup.TotalQuizzes, results)
	}
}

func TestRecordQuizResultInvalid(t *testing.T) {
	tests := []struct {
		name           string
		score          int
		totalQuestions int
	}{
		{"score above total", 6, 5},
		{"negative score", -1, 5},
		{"zero total", 0, 0},
		{"negative total", 3, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newProgressFixture()
			userID := uuid.New()

			err := f.svc.RecordQuizResult(context.Background(), userID, "algebra", tt.score, tt.totalQuestions)
			if !errors.Is(err, ErrInvalidResult) {
				t.Fatalf("expected ErrInvalidResult, got %v", err)
			}

			rollup, _ := f.progress.GetRollup(context.Background(), userID, "algebra")
			if rollup != nil {
				t.Error("invalid result must not create a rollup")
			}
		})
	}
}

func TestTrackQuizResultInvalidLeavesNoState(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()

	_, err := f.svc.TrackQuizResult(context.Background(), userID, "algebra", 6, 5)
	if !errors.Is(err, ErrInvalidResult) {
		t.Fatalf("expected ErrInvalidResult, got %v", err)
	}
	if got := f.activities.count(); got != 0 {
		t.Errorf("expected empty ledger, got %d records", got)
	}
	if got := f.milestones.count(); got != 0 {
		t.Errorf("expected no milestones, got %d", got)
	}
}

func TestTrackQuizResultLedgersAndAggregates(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()
	ctx := context.Background()

	milestone, err := f.svc.TrackQuizResult(ctx, userID, "astronomy", 5, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Perfect score unlocks the first-perfect-score milestone
	if milestone == nil {
		t.Fatal("expected a milestone for a perfect score")
	}
	if milestone.Name != MilestoneFirstPerfectScore {
		t.Errorf("milestone name = %q, want %q", milestone.Name, MilestoneFirstPerfectScore)
	}

	records, err := f.activities.ListRecent(ctx, userID, 10)
	if err != nil {
		t.Fatalf("listing ledger: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 ledger record, got %d", len(records))
	}
	if records[0].Score == nil || *records[0].Score != 5 {
		t.Error("ledger record missing score")
	}
	if records[0].TotalQuestions == nil || *records[0].TotalQuestions != 5 {
		t.Error("ledger record missing total_questions")
	}

	rollup, err := f.progress.GetRollup(ctx, userID, "astronomy")
	if err != nil || rollup == nil {
		t.Fatalf("reading rollup back: %v", err)
	}
	if rollup.TotalQuizzes != 1 || rollup.AvgScore != 5 {
		t.Errorf("rollup = {%d, %v}, want {1, 5}", rollup.TotalQuizzes, rollup.AvgScore)
	}

	// An imperfect follow-up unlocks nothing new
	milestone, err = f.svc.TrackQuizResult(ctx, userID, "astronomy", 3, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if milestone != nil {
		t.Errorf("unexpected milestone %q", milestone.Name)
	}
}

func TestSummarizeWeightsAcrossTopics(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()
	ctx := context.Background()

	seed := []models.ProgressRollup{
		{UserID: userID, Topic: "topicA", TotalQuizzes: 2, AvgScore: 4.0, FlashcardsStudied: 6},
		{UserID: userID, Topic: "topicB", TotalQuizzes: 1, AvgScore: 10.0, FlashcardsStudied: 3},
	}
	for _, rollup := range seed {
		if err := f.progress.UpsertRollup(ctx, rollup); err != nil {
			t.Fatalf("seeding rollup: %v", err)
		}
	}

	summary, err := f.svc.Summarize(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.QuizzesCompleted != 3 {
		t.Errorf("quizzes_completed = %d, want 3", summary.QuizzesCompleted)
	}
	want := (4.0*2 + 10.0*1) / 3
	if math.Abs(summary.AverageScore-want) > scoreTolerance {
		t.Errorf("average_score = %v, want %v", summary.AverageScore, want)
	}
	if summary.FlashcardsStudied != 9 {
		t.Errorf("flashcards_studied = %d, want 9", summary.FlashcardsStudied)
	}
}

func TestSummarizeEmpty(t *testing.T) {
	f := newProgressFixture()

	summary, err := f.svc.Summarize(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.QuizzesCompleted != 0 || summary.AverageScore != 0 || summary.FlashcardsStudied != 0 {
		t.Errorf("expected zero summary, got %+v", summary)
	}
}

func TestRecordFlashcardsStudied(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()
	ctx := context.Background()

	if err := f.svc.RecordFlashcardsStudied(ctx, userID, "latin", 3); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.RecordFlashcardsStudied(ctx, userID, "latin", 4); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	rollup, err := f.progress.GetRollup(ctx, userID, "latin")
	if err != nil || rollup == nil {
		t.Fatalf("reading rollup back: %v", err)
	}
	if rollup.FlashcardsStudied != 7 {
		t.Errorf("flashcards_studied = %d, want 7", rollup.FlashcardsStudied)
	}
	// The scored-quiz fields stay untouched
	if rollup.TotalQuizzes != 0 || rollup.AvgScore != 0 {
		t.Errorf("quiz fields changed: {%d, %v}", rollup.TotalQuizzes, rollup.AvgScore)
	}

	if err := f.svc.RecordFlashcardsStudied(ctx, userID, "latin", 0); !errors.Is(err, ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult for zero count, got %v", err)
	}
}

func TestDashboard(t *testing.T) {
	f := newProgressFixture()
	userID := uuid.New()
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		score := i % 6
		if _, err := f.svc.TrackQuizResult(ctx, userID, "botany", score, 5); err != nil {
			t.Fatalf("tracking result %d: %v", i, err)
		}
	}

	dashboard, err := f.svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(dashboard.History) != 10 {
		t.Errorf("history length = %d, want 10", len(dashboard.History))
	}
	for i := 1; i < len(dashboard.History); i++ {
		if dashboard.History[i].ID > dashboard.History[i-1].ID {
			t.Fatal("history is not newest first")
		}
	}
	if len(dashboard.Milestones) != 1 {
		t.Errorf("milestones length = %d, want 1", len(dashboard.Milestones))
	}
}

func TestProgressStoreFailureSurfaces(t *testing.T) {
	f := newProgressFixture()
	f.progress.err = errStoreDown

	err := f.svc.RecordQuizResult(context.Background(), uuid.New(), "algebra", 3, 5)
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
}
