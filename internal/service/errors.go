package service

import (
	"errors"
	"fmt"
)

// ErrStoreUnavailable indicates the durable store could not be reached or
// timed out. Quota checks treat it as a rejection (fail closed); aggregation
// and milestone updates surface it to the caller for retry.
var ErrStoreUnavailable = errors.New("store unavailable")

// ErrInvalidResult indicates a quiz result with an out-of-range score or a
// non-positive question count. No state is changed.
var ErrInvalidResult = errors.New("invalid quiz result")

// ErrQuotaExceeded indicates the free-tier limit is exhausted for the
// requested activity type.
var ErrQuotaExceeded = errors.New("free tier quota exceeded")

// storeErr wraps a store failure so callers can match ErrStoreUnavailable
// while the underlying cause stays visible in logs.
func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}
