package deadline

import (
	"math"
	"time"
)

// Threshold is a notification bucket relative to a deadline.
type Threshold string

const (
	Threshold7Days   Threshold = "7_days"
	Threshold3Days   Threshold = "3_days"
	Threshold1Day    Threshold = "1_day"
	ThresholdOverdue Threshold = "overdue"
)

// Thresholds lists every bucket, farthest first.
var Thresholds = []Threshold{Threshold7Days, Threshold3Days, Threshold1Day, ThresholdOverdue}

// Valid reports whether t is a known bucket.
func (t Threshold) Valid() bool {
	switch t {
	case Threshold7Days, Threshold3Days, Threshold1Day, ThresholdOverdue:
		return true
	}
	return false
}

// Urgent reports whether notifications for this bucket are high priority.
func (t Threshold) Urgent() bool {
	switch t {
	case ThresholdOverdue, Threshold1Day:
		return true
	case Threshold3Days, Threshold7Days:
		return false
	}
	return false
}

// DaysUntil returns ceil((deadline - now) / 24h).
func DaysUntil(deadline, now time.Time) int {
	return int(math.Ceil(deadline.Sub(now).Hours() / 24))
}

// DaysOverdue returns ceil((now - deadline) / 24h).
func DaysOverdue(deadline, now time.Time) int {
	return int(math.Ceil(now.Sub(deadline).Hours() / 24))
}

// Classify places a deadline into its bucket at now. A deadline strictly
// before now is overdue; otherwise the ceiling day count selects 1, 3 or 7
// days, with a deadline of exactly now counting as 1 day. ok is false when
// no bucket applies.
func Classify(deadline, now time.Time) (t Threshold, days int, ok bool) {
	if deadline.Before(now) {
		return ThresholdOverdue, DaysOverdue(deadline, now), true
	}
	days = DaysUntil(deadline, now)
	switch days {
	case 0, 1:
		return Threshold1Day, days, true
	case 3:
		return Threshold3Days, days, true
	case 7:
		return Threshold7Days, days, true
	}
	return "", days, false
}
