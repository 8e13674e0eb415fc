package workload

import "math"

// Status buckets a utilization percentage.
type Status string

const (
	StatusHealthy    Status = "healthy"
	StatusModerate   Status = "moderate"
	StatusOverloaded Status = "overloaded"
)

// Bucket classifies utilization: below 50 is healthy, above 80 overloaded.
func Bucket(utilization int) Status {
	switch {
	case utilization < 50:
		return StatusHealthy
	case utilization <= 80:
		return StatusModerate
	default:
		return StatusOverloaded
	}
}

// Utilization returns round(hours / capacity * 100).
func Utilization(hours, capacity float64) int {
	if capacity <= 0 {
		return 0
	}
	return int(math.Round(hours / capacity * 100))
}

// UserWorkload is one user's open assigned work against capacity.
type UserWorkload struct {
	UserID      string  `json:"userId"`
	UserName    string  `json:"userName"`
	TotalTasks  int     `json:"totalTasks"`
	TotalHours  float64 `json:"totalHours"`
	MaxHours    float64 `json:"maxHours"`
	Utilization int     `json:"utilization"`
	Status      Status  `json:"status"`
}
