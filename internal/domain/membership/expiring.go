package membership

import (
	"math"
	"time"
)

type Urgency string

const (
	UrgencyExpired   Urgency = "EXPIRED"
	UrgencyUrgent    Urgency = "URGENT"
	UrgencySoon      Urgency = "SOON"
	UrgencyAttention Urgency = "ATTENTION"
)

// DefaultExpiringWindowDays is how far ahead the expiring-members list looks.
const DefaultExpiringWindowDays = 5

// DaysLeft counts whole days between now and expiredAt, rounding up partial days.
// It is zero or negative once the membership lapsed.
func DaysLeft(expiredAt, now time.Time) int {
	d := expiredAt.Sub(now)
	if d <= 0 {
		return int(d / (24 * time.Hour))
	}
	return int(math.Ceil(d.Hours() / 24))
}

func UrgencyFor(daysLeft int) Urgency {
	switch {
	case daysLeft <= 0:
		return UrgencyExpired
	case daysLeft <= 1:
		return UrgencyUrgent
	case daysLeft <= 3:
		return UrgencySoon
	default:
		return UrgencyAttention
	}
}
