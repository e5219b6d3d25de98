package pipeline

import "time"

// Due reports whether a pipeline with the given cadence needs a run, given
// the time of its last successful run (nil if never run).
func Due(c Cadence, now time.Time, lastRun *time.Time) bool {
	switch c {
	case Hourly:
		return HourlySchedule(now, lastRun)
	case Weekly:
		return WeeklySchedule(now, lastRun)
	default:
		return DailySchedule(now, lastRun)
	}
}

// HourlySchedule returns true if no successful run has happened this hour.
func HourlySchedule(now time.Time, lastRun *time.Time) bool {
	if lastRun == nil {
		return true
	}
	hour := now.Truncate(time.Hour)
	return lastRun.Before(hour)
}

// DailySchedule returns true if no successful run has happened today.
func DailySchedule(now time.Time, lastRun *time.Time) bool {
	if lastRun == nil {
		return true
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return lastRun.Before(today)
}

// WeeklySchedule returns true if no successful run has happened since the
// start of the current ISO week (Monday).
func WeeklySchedule(now time.Time, lastRun *time.Time) bool {
	if lastRun == nil {
		return true
	}
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7
	}
	weekStart := time.Date(now.Year(), now.Month(), now.Day()-(weekday-1), 0, 0, 0, 0, time.UTC)
	return lastRun.Before(weekStart)
}
