package timeline

import "time"

// DefaultInterval is the time between host refresh requests.
const DefaultInterval = 900 * time.Second

// Scheduler decides when the host should ask for the next entry.
type Scheduler interface {
	NextRefresh(now time.Time) time.Time
}

// FixedInterval schedules the next refresh a constant duration after now.
type FixedInterval time.Duration

func (f FixedInterval) NextRefresh(now time.Time) time.Time {
	return now.Add(time.Duration(f))
}
