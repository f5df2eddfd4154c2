package scheduler

import "time"

// DailyCallback triggers once per day at a fixed local time.
// WARN: runs are not made up after downtime; if the process was asleep
// across the trigger time, the next run happens at the next occurrence.
type DailyCallback struct {
	// At is the wall-clock time of day the callback fires.
	At TimeOfDay

	LastRunAt time.Time
	executeFn func() error
}

// TimeOfDay is a wall-clock instant within a day.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}
