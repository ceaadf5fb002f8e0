package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"studytrack/internal/models"
)

// memActivityStore is an in-memory ActivityStore. Append and Count are each
// atomic but deliberately not atomic together, so tests exercise the
// service-level serialization.
type memActivityStore struct {
	mu      sync.Mutex
	records []models.ActivityRecord
	nextID  int64
	err     error
}

func newMemActivityStore() *memActivityStore {
	return &memActivityStore{}
}

func (s *memActivityStore) Append(ctx context.Context, record models.ActivityRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	s.nextID++
	record.ID = s.nextID
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	s.records = append(s.records, record)
	return record.ID, nil
}

func (s *memActivityStore) CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType models.ActivityType) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return 0, s.err
	}
	count := 0
	for _, r := range s.records {
		if r.UserID == userID && r.ActivityType == activityType {
			count++
		}
	}
	return count, nil
}

func (s *memActivityStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var matched []models.ActivityRecord
	for _, r := range s.records {
		if r.UserID == userID {
			matched = append(matched, r)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func (s *memActivityStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// memProgressStore is an in-memory ProgressStore
type memProgressStore struct {
	mu      sync.Mutex
	rollups map[string]models.ProgressRollup
	err     error
}

func newMemProgressStore() *memProgressStore {
	return &memProgressStore{rollups: make(map[string]models.ProgressRollup)}
}

func rollupKey(userID uuid.UUID, topic string) string {
	return userID.String() + "|" + topic
}

func (s *memProgressStore) GetRollup(ctx context.Context, userID uuid.UUID, topic string) (*models.ProgressRollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	rollup, ok := s.rollups[rollupKey(userID, topic)]
	if !ok {
		return nil, nil
	}
	return &rollup, nil
}

func (s *memProgressStore) UpsertRollup(ctx context.Context, rollup models.ProgressRollup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.rollups[rollupKey(rollup.UserID, rollup.Topic)] = rollup
	return nil
}

func (s *memProgressStore) ListRollups(ctx context.Context, userID uuid.UUID) ([]models.ProgressRollup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var rollups []models.ProgressRollup
	for _, rollup := range s.rollups {
		if rollup.UserID == userID {
			rollups = append(rollups, rollup)
		}
	}
	sort.Slice(rollups, func(i, j int) bool { return rollups[i].Topic < rollups[j].Topic })
	return rollups, nil
}

// memMilestoneStore is an in-memory MilestoneStore with the same
// insert-ignore semantics as the SQL repository.
type memMilestoneStore struct {
	mu         sync.Mutex
	milestones map[string]models.Milestone
	nextID     int64
	err        error
}

func newMemMilestoneStore() *memMilestoneStore {
	return &memMilestoneStore{milestones: make(map[string]models.Milestone)}
}

func milestoneKey(userID uuid.UUID, name string) string {
	return userID.String() + "|" + name
}

func (s *memMilestoneStore) Award(ctx context.Context, milestone models.Milestone) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	key := milestoneKey(milestone.UserID, milestone.Name)
	if _, exists := s.milestones[key]; exists {
		return false, nil
	}
	s.nextID++
	milestone.ID = s.nextID
	if milestone.AchievedAt.IsZero() {
		milestone.AchievedAt = time.Now().UTC()
	}
	s.milestones[key] = milestone
	return true, nil
}

func (s *memMilestoneStore) GetByName(ctx context.Context, userID uuid.UUID, name string) (*models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	milestone, ok := s.milestones[milestoneKey(userID, name)]
	if !ok {
		return nil, nil
	}
	return &milestone, nil
}

func (s *memMilestoneStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Milestone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	var milestones []models.Milestone
	for _, milestone := range s.milestones {
		if milestone.UserID == userID {
			milestones = append(milestones, milestone)
		}
	}
	sort.Slice(milestones, func(i, j int) bool { return milestones[i].ID > milestones[j].ID })
	return milestones, nil
}

func (s *memMilestoneStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.milestones)
}

var errStoreDown = errors.New("store down")
