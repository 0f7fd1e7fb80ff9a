package service

import (
	"time"

	"study-companion/internal/model"
)

// Point awards.
const (
	PointsSubject      = 20
	PointsPerTask      = 5
	PointsTaskComplete = 10
	PointsMoodEntry    = 15
	PointsCheckIn      = 50

	levelStep = 1000
)

// DateKey is the calendar-day key used for check-ins and scheduling.
const DateKey = "2006-01-02"

// AddPoints adds amount to the stats. Crossing the next level threshold
// raises the level by exactly one, even when the award covers several
// thresholds. Negative amounts count as zero; the threshold is checked on
// every call, so a zero award still catches up a lagging level.
func AddPoints(stats model.Stats, amount int) model.Stats {
	if amount < 0 {
		amount = 0
	}
	if stats.Level < 1 {
		stats.Level = 1
	}
	stats.Points += amount
	if stats.Points >= NextLevelThreshold(stats.Level) {
		stats.Level++
	}
	return stats
}

// NextLevelThreshold returns the cumulative points needed to leave level.
func NextLevelThreshold(level int) int {
	return (level + 1) * levelStep
}

// CheckIn registers the daily check-in for the local calendar day of today.
// A second check-in on the same day changes nothing.
func CheckIn(stats model.Stats, today time.Time) model.Stats {
	todayKey := today.Format(DateKey)
	if stats.LastCheckInDate == todayKey {
		return stats
	}
	yesterdayKey := today.AddDate(0, 0, -1).Format(DateKey)
	if stats.LastCheckInDate == yesterdayKey {
		stats.Streak++
	} else {
		stats.Streak = 1
	}
	stats.LastCheckInDate = todayKey
	return AddPoints(stats, PointsCheckIn)
}

// CheckedInToday reports whether the check-in for today is already done.
func CheckedInToday(stats model.Stats, today time.Time) bool {
	return stats.LastCheckInDate == today.Format(DateKey)
}

// SessionPoints returns the award for a finished timer session.
func SessionPoints(session model.StudySession) int {
	if session.Type != model.SessionFocus {
		return 0
	}
	return session.DurationMinutes
}
