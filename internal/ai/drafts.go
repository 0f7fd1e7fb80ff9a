package ai

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-companion/internal/model"
)

// Draft defaults.
const (
	DefaultStartTime  = "09:00"
	DefaultCategory   = model.CategoryRevision
	DefaultDifficulty = 3
)

// CompleteDrafts turns model drafts into StudyTasks. Drafts without task text
// are dropped; every other field is coerced:
//   - unknown subject ids are matched by subject name, else become the global sentinel;
//   - unparseable dates become today, unparseable times become 09:00;
//   - unknown categories become revision;
//   - difficulty is rounded and clamped to 1..5, defaulting to 3.
func CompleteDrafts(drafts []TaskDraft, subjects []model.Subject, today time.Time) []model.StudyTask {
	tasks := make([]model.StudyTask, 0, len(drafts))
	for _, draft := range drafts {
		text := strings.TrimSpace(draft.Task)
		if text == "" {
			continue
		}
		tasks = append(tasks, model.StudyTask{
			ID:            uuid.NewString(),
			SubjectID:     resolveSubject(draft.SubjectID, subjects),
			Task:          text,
			Completed:     false,
			ScheduledDate: coerceDate(draft.ScheduledDate, today),
			StartTime:     coerceTime(draft.StartTime),
			Category:      coerceCategory(draft.Category),
			Difficulty:    coerceDifficulty(string(draft.Difficulty)),
		})
	}
	return tasks
}

func resolveSubject(raw string, subjects []model.Subject) string {
	raw = strings.TrimSpace(raw)
	if raw == model.GlobalSubjectID {
		return raw
	}
	for _, subject := range subjects {
		if subject.ID == raw {
			return subject.ID
		}
	}
	for _, subject := range subjects {
		if raw != "" && strings.EqualFold(strings.TrimSpace(subject.Name), raw) {
			return subject.ID
		}
	}
	return model.GlobalSubjectID
}

func coerceDate(raw string, today time.Time) string {
	raw = strings.TrimSpace(raw)
	if len(raw) > len("2006-01-02") {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	if d, err := time.Parse("2006-01-02", raw); err == nil {
		return d.Format("2006-01-02")
	}
	return today.Format("2006-01-02")
}

func coerceTime(raw string) string {
	if t, err := time.Parse("15:04", strings.TrimSpace(raw)); err == nil {
		return t.Format("15:04")
	}
	return DefaultStartTime
}

func coerceCategory(raw string) model.TaskCategory {
	normalized := strings.ToLower(strings.TrimSpace(raw))
	normalized = strings.NewReplacer(" ", "-", "_", "-").Replace(normalized)
	category := model.TaskCategory(normalized)
	if category.Valid() {
		return category
	}
	return DefaultCategory
}

func coerceDifficulty(raw string) int {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(value) || value == 0 {
		return DefaultDifficulty
	}
	rounded := int(math.Round(value))
	switch {
	case rounded < 1:
		return 1
	case rounded > 5:
		return 5
	default:
		return rounded
	}
}
