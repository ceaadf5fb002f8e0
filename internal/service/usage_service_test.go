package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"studytrack/internal/models"
)

const testStoreTimeout = 2 * time.Second

func newTestUsageService(store *memActivityStore, limit int) *UsageService {
	return NewUsageService(store, limit, testStoreTimeout, zap.NewNop())
}

func TestCheckAndLogExhaustsQuota(t *testing.T) {
	store := newMemActivityStore()
	svc := newTestUsageService(store, 5)
	user := models.User{ID: uuid.New()}
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		admission, err := svc.CheckAndLog(ctx, user, models.ActivityQuiz, "algebra")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if !admission.Allowed {
			t.Fatalf("call %d: expected admission, got rejection", i+1)
		}
	}

	admission, err := svc.CheckAndLog(ctx, user, models.ActivityQuiz, "algebra")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if admission.Allowed {
		t.Error("expected rejection after limit reached")
	}
	if got := store.count(); got != 5 {
		t.Errorf("expected 5 ledger records, got %d", got)
	}
}

func TestCheckAndLogConcurrent(t *testing.T) {
	const limit = 5
	const callers = 25

	store := newMemActivityStore()
	svc := newTestUsageService(store, limit)
	user := models.User{ID: uuid.New()}

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	rejected := 0

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admission, err := svc.CheckAndLog(context.Background(), user, models.ActivityFlashcard, "biology")
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				return
			}
			mu.Lock()
			if admission.Allowed {
				allowed++
			} else {
				rejected++
			}
			mu.Unlock()
		}()
	}
	wg.Wait()

	if allowed != limit {
		t.Errorf("expected exactly %d admissions, got %d", limit, allowed)
	}
	if rejected != callers-limit {
		t.Errorf("expected %d rejections, got %d", callers-limit, rejected)
	}
	if got := store.count(); got != limit {
		t.Errorf("expected %d ledger records, got %d", limit, got)
	}
}

func TestCheckAndLogPremiumBypassesLimit(t *testing.T) {
	store := newMemActivityStore()
	svc := newTestUsageService(store, 5)
	user := models.User{ID: uuid.New(), IsPremium: true}
	ctx := context.Background()

	for i := 0; i < 12; i++ {
		admission, err := svc.CheckAndLog(ctx, user, models.ActivityQuiz, "history")
		if err != nil {
			t.Fatalf("call %d: unexpected error: %v", i+1, err)
		}
		if !admission.Allowed {
			t.Fatalf("call %d: premium user rejected", i+1)
		}
	}

	// Premium usage is still ledgered
	if got := store.count(); got != 12 {
		t.Errorf("expected 12 ledger records, got %d", got)
	}
}

func TestCheckAndLogFailsClosed(t *testing.T) {
	store := newMemActivityStore()
	store.err = errStoreDown
	svc := newTestUsageService(store, 5)
	user := models.User{ID: uuid.New()}

	admission, err := svc.CheckAndLog(context.Background(), user, models.ActivityQuiz, "algebra")
	if !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("expected ErrStoreUnavailable, got %v", err)
	}
	if admission.Allowed {
		t.Error("store failure must not admit the attempt")
	}
}

func TestCheckAndLogIsolatesActivityTypes(t *testing.T) {
	store := newMemActivityStore()
	svc := newTestUsageService(store, 1)
	user := models.User{ID: uuid.New()}
	ctx := context.Background()

	if admission, _ := svc.CheckAndLog(ctx, user, models.ActivityQuiz, "algebra"); !admission.Allowed {
		t.Fatal("first quiz should be admitted")
	}
	if admission, _ := svc.CheckAndLog(ctx, user, models.ActivityQuiz, "algebra"); admission.Allowed {
		t.Fatal("second quiz should be rejected")
	}

	// Exhausting one type leaves the others untouched
	if admission, _ := svc.CheckAndLog(ctx, user, models.ActivityExplanation, "algebra"); !admission.Allowed {
		t.Error("explanation quota should be independent of quiz quota")
	}
}

func TestCheckAndLogUnknownActivityType(t *testing.T) {
	store := newMemActivityStore()
	svc := newTestUsageService(store, 5)
	user := models.User{ID: uuid.New()}

	if _, err := svc.CheckAndLog(context.Background(), user, models.ActivityType("karaoke"), "music"); err == nil {
		t.Error("expected error for unknown activity type")
	}
	if got := store.count(); got != 0 {
		t.Errorf("expected no ledger records, got %d", got)
	}
}
