package service

import (
	"math"
	"time"

	"study-companion/internal/model"
)

// TrendPoint is one day of the wellness trend.
type TrendPoint struct {
	Date         string `json:"date"`
	Mood         int    `json:"mood"`
	Stress       int    `json:"stress"`
	Productivity int    `json:"productivity"`
}

// RadarAxis is one averaged wellness dimension on a 1-5 scale.
type RadarAxis struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Dashboard is the aggregated overview of the state.
type Dashboard struct {
	Trend          []TrendPoint `json:"trend"`
	Radar          []RadarAxis  `json:"radar"`
	PendingTasks   int          `json:"pendingTasks"`
	DueSoon        int          `json:"dueSoon"`
	CompletionRate int          `json:"completionRate"`
	LevelProgress  float64      `json:"levelProgress"`
	CheckedIn      bool         `json:"checkedInToday"`
	WellnessStatus string       `json:"wellnessStatus"`
	AcademicStatus string       `json:"academicStatus"`
	Badge          string       `json:"badge"`
	Tier           int          `json:"tier"`
	XPToMilestone  int          `json:"xpToMilestone"`
	FocusMinutes   int          `json:"focusMinutes"`
	Stats          model.Stats  `json:"stats"`
}

// BuildDashboard aggregates state as of now.
func BuildDashboard(state model.AppState, now time.Time) Dashboard {
	today := now.Format(DateKey)
	d := Dashboard{
		Trend: make([]TrendPoint, 0, 7),
		Stats: state.Stats,
		Tier:  state.Stats.Level/5 + 1,
	}

	for _, entry := range tail(state.MoodEntries, 7) {
		d.Trend = append(d.Trend, TrendPoint{
			Date:         entryDay(entry.Date),
			Mood:         entry.MoodScore,
			Stress:       entry.StressScore,
			Productivity: orDefault(entry.ProductivityScore),
		})
	}
	d.Radar = radar(tail(state.MoodEntries, 3))

	completed := 0
	for _, task := range state.StudyTasks {
		if task.Completed {
			completed++
			continue
		}
		d.PendingTasks++
		if task.ScheduledDate <= today {
			d.DueSoon++
		}
	}
	if total := len(state.StudyTasks); total > 0 {
		d.CompletionRate = int(math.Round(float64(completed) / float64(total) * 100))
	}

	level := state.Stats.Level
	if level < 1 {
		level = 1
	}
	d.LevelProgress = math.Min(100, float64(state.Stats.Points)/float64(NextLevelThreshold(level))*100)
	d.XPToMilestone = levelStep - state.Stats.Points%levelStep
	d.CheckedIn = CheckedInToday(state.Stats, now)

	switch {
	case state.WellnessInsight != nil && state.WellnessInsight.BurnoutWarning:
		d.WellnessStatus = "At Risk"
	case len(state.MoodEntries) > 0 && state.MoodEntries[len(state.MoodEntries)-1].StressScore > 3:
		d.WellnessStatus = "Under Strain"
	default:
		d.WellnessStatus = "Optimal"
	}

	switch {
	case d.DueSoon > 3:
		d.AcademicStatus = "Critical Load"
	case d.DueSoon > 0:
		d.AcademicStatus = "Steady"
	default:
		d.AcademicStatus = "Pace Setting"
	}

	switch {
	case d.CompletionRate > 90:
		d.Badge = "Dean's List Pace"
	case d.CompletionRate > 60:
		d.Badge = "Scholar Tier"
	default:
		d.Badge = "Initiate"
	}

	for _, session := range state.StudySessions {
		if session.Type == model.SessionFocus {
			d.FocusMinutes += session.DurationMinutes
		}
	}
	return d
}

func radar(entries []model.MoodEntry) []RadarAxis {
	axes := []struct {
		name  string
		value func(model.MoodEntry) int
	}{
		{"Mood", func(e model.MoodEntry) int { return e.MoodScore }},
		{"Relaxation", func(e model.MoodEntry) int { return 6 - e.StressScore }},
		{"Sleep", func(e model.MoodEntry) int { return orDefault(e.SleepQuality) }},
		{"Activity", func(e model.MoodEntry) int { return orDefault(e.PhysicalActivity) }},
		{"Social", func(e model.MoodEntry) int { return orDefault(e.SocialConnection) }},
		{"Productivity", func(e model.MoodEntry) int { return orDefault(e.ProductivityScore) }},
	}
	out := make([]RadarAxis, 0, len(axes))
	for _, axis := range axes {
		sum := 0
		for _, entry := range entries {
			sum += axis.value(entry)
		}
		n := len(entries)
		if n == 0 {
			n = 1
		}
		out = append(out, RadarAxis{Name: axis.name, Value: float64(sum) / float64(n)})
	}
	return out
}

func orDefault(score int) int {
	if score == 0 {
		return 3
	}
	return score
}

func entryDay(date string) string {
	if len(date) >= len(DateKey) {
		return date[:len(DateKey)]
	}
	return date
}

func tail[T any](items []T, n int) []T {
	if len(items) > n {
		return items[len(items)-n:]
	}
	return items
}
