package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studytrack/internal/models"
)

// ActivityStore abstracts the activity ledger. Implementations can be
// SQL-backed or in-memory; they must be safe for concurrent use and provide
// read-your-writes visibility.
type ActivityStore interface {
	Append(ctx context.Context, record models.ActivityRecord) (int64, error)
	CountByUserAndType(ctx context.Context, userID uuid.UUID, activityType models.ActivityType) (int, error)
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]models.ActivityRecord, error)
}

// UsageService is the quota guard: it decides whether a metered activity is
// permitted and, if so, logs it to the ledger.
type UsageService struct {
	activities   ActivityStore
	limit        int
	storeTimeout time.Duration
	locks        *keyedMutex
	logger       *zap.Logger
}

// NewUsageService creates a new usage service enforcing the given free-tier limit
func NewUsageService(activities ActivityStore, limit int, storeTimeout time.Duration, logger *zap.Logger) *UsageService {
	return &UsageService{
		activities:   activities,
		limit:        limit,
		storeTimeout: storeTimeout,
		locks:        newKeyedMutex(),
		logger:       logger,
	}
}

// Limit returns the configured free-tier limit
func (s *UsageService) Limit() int {
	return s.limit
}

// CheckAndLog decides whether the user may perform the activity and logs it
// on admission. Premium users are always admitted but their usage is still
// ledgered. For free-tier users the count-compare-append sequence runs under
// a per-(user, activity type) lock so that two concurrent calls with one
// remaining slot produce exactly one admission.
//
// Any store failure yields ErrStoreUnavailable with Allowed=false: a quota
// check never fails open.
func (s *UsageService) CheckAndLog(ctx context.Context, user models.User, activityType models.ActivityType, topic string) (models.Admission, error) {
	if !activityType.Valid() {
		return models.Admission{}, fmt.Errorf("unknown activity type %q", activityType)
	}

	record := models.ActivityRecord{
		UserID:       user.ID,
		ActivityType: activityType,
		Topic:        topic,
	}

	if user.IsPremium {
		cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		defer cancel()

		if _, err := s.activities.Append(cctx, record); err != nil {
			return models.Admission{Allowed: false}, storeErr("append activity", err)
		}
		return models.Admission{Allowed: true}, nil
	}

	unlock := s.locks.Lock(usageKey(user.ID, activityType))
	defer unlock()

	cctx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	count, err := s.activities.CountByUserAndType(cctx, user.ID, activityType)
	if err != nil {
		return models.Admission{Allowed: false}, storeErr("count activities", err)
	}

	if count >= s.limit {
		s.logger.Debug("quota exhausted",
			zap.String("user_id", user.ID.String()),
			zap.String("activity_type", string(activityType)))
		return models.Admission{Allowed: false}, nil
	}

	if _, err := s.activities.Append(cctx, record); err != nil {
		return models.Admission{Allowed: false}, storeErr("append activity", err)
	}

	return models.Admission{Allowed: true}, nil
}

func usageKey(userID uuid.UUID, activityType models.ActivityType) string {
	return userID.String() + ":" + string(activityType)
}
