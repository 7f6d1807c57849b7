package engine

import (
	"errors"
	"fmt"
)

// DefaultMaxDeferred is the default number of deferred items one
// top-level Dispatch may drain.
const DefaultMaxDeferred = 1000

// deferralQuota counts the deferred work drained after one top-level
// Dispatch.
//
// Deferred work may defer more work: a receiver that dispatches to its own
// view on every delivery would otherwise keep the drain loop alive forever.
// The quota bounds such chains; each top-level Dispatch gets a fresh one.
type deferralQuota struct {
	max     int
	current int
}

func newDeferralQuota(max int) *deferralQuota {
	return &deferralQuota{max: max}
}

// check counts one item and fails once the limit is passed.
func (q *deferralQuota) check() error {
	q.current++
	if q.current > q.max {
		return &DeferralExceededError{Ran: q.current - 1, Limit: q.max}
	}
	return nil
}

// DeferralExceededError reports that a dispatch chain hit the deferral
// quota. The remaining deferred work is discarded.
type DeferralExceededError struct {
	Ran   int // items run before the quota was hit
	Limit int
}

func (e *DeferralExceededError) Error() string {
	return fmt.Sprintf("deferred work exceeded quota: %d items ran, limit %d", e.Ran, e.Limit)
}

// IsDeferralExceeded reports whether err is a *DeferralExceededError.
func IsDeferralExceeded(err error) bool {
	var de *DeferralExceededError
	return errors.As(err, &de)
}
