// Package membership holds the pure rules for computing membership expiration
// dates and deciding which payment record, if any, a renewal produces.
// Nothing here performs I/O; callers persist the proposals.
package membership

import "time"

// Clock returns the current time. Tests pin it; production passes time.Now.
type Clock func() time.Time

// Renewal is the proposed profile update produced by a renewal computation.
type Renewal struct {
	Base      time.Time // date the days were added to
	ExpiredAt time.Time
	IsActive  bool
	Changed   bool // false when the expiration date was left untouched
}

// ComputeRenewal extends currentExpiredAt by durationDays calendar days.
//
// The days are added to currentExpiredAt when it is still ahead of referenceDate,
// otherwise to referenceDate: a lapsed membership restarts from the transaction date
// and a backdated entry never shortens a running membership. A zero referenceDate
// means now. durationDays may be negative to correct mistakes.
//
// IsActive is always judged against now, never against referenceDate.
func ComputeRenewal(currentExpiredAt, referenceDate time.Time, durationDays int, now time.Time) Renewal {
	if referenceDate.IsZero() {
		referenceDate = now
	}
	if durationDays == 0 {
		return Renewal{
			Base:      currentExpiredAt,
			ExpiredAt: currentExpiredAt,
			IsActive:  IsActiveAt(currentExpiredAt, now),
			Changed:   false,
		}
	}

	base := referenceDate
	if currentExpiredAt.After(referenceDate) {
		base = currentExpiredAt
	}
	newExpiredAt := base.AddDate(0, 0, durationDays)
	return Renewal{
		Base:      base,
		ExpiredAt: newExpiredAt,
		IsActive:  IsActiveAt(newExpiredAt, now),
		Changed:   true,
	}
}

// ApplyExplicitExpiry uses an admin-supplied expiration verbatim.
func ApplyExplicitExpiry(expiredAt, now time.Time) Renewal {
	return Renewal{
		Base:      expiredAt,
		ExpiredAt: expiredAt,
		IsActive:  IsActiveAt(expiredAt, now),
		Changed:   true,
	}
}

// IsActiveAt reports whether a membership expiring at expiredAt is active at now.
// A zero expiry is never active.
func IsActiveAt(expiredAt, now time.Time) bool {
	if expiredAt.IsZero() {
		return false
	}
	return expiredAt.After(now)
}

// DaysToAdd picks the number of days a renewal grants. A non-zero manual count
// wins over the plan's duration.
func DaysToAdd(manualDays int, planDurationDays *int) int {
	if manualDays != 0 {
		return manualDays
	}
	if planDurationDays != nil {
		return *planDurationDays
	}
	return 0
}
