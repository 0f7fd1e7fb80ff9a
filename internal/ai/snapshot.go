package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"study-companion/internal/model"
)

const (
	snapshotMoods    = 10
	snapshotSessions = 14
)

// SubjectBrief is the part of a subject shared in wellness snapshots.
type SubjectBrief struct {
	Name     string         `json:"name"`
	Priority model.Priority `json:"priority"`
}

// WellnessSnapshot is the bounded slice of state sent for wellness analysis.
type WellnessSnapshot struct {
	Profile        model.Profile        `json:"profile"`
	Subjects       []SubjectBrief       `json:"subjects"`
	RecentMoods    []model.MoodEntry    `json:"recentMoods"`
	TaskBacklog    int                  `json:"taskBacklog"`
	CompletedTasks int                  `json:"completedTasks"`
	Sessions       []model.StudySession `json:"sessions"`
	Resources      int                  `json:"resources"`
}

// NewWellnessSnapshot builds the analysis context from state.
func NewWellnessSnapshot(state model.AppState) WellnessSnapshot {
	snapshot := WellnessSnapshot{
		Profile:     state.Profile,
		Subjects:    make([]SubjectBrief, 0, len(state.Subjects)),
		RecentMoods: tail(state.MoodEntries, snapshotMoods),
		Sessions:    tail(state.StudySessions, snapshotSessions),
		Resources:   len(state.Resources),
	}
	snapshot.Profile.Avatar = ""
	for _, subject := range state.Subjects {
		snapshot.Subjects = append(snapshot.Subjects, SubjectBrief{Name: subject.Name, Priority: subject.Priority})
	}
	for _, task := range state.StudyTasks {
		if task.Completed {
			snapshot.CompletedTasks++
		} else {
			snapshot.TaskBacklog++
		}
	}
	return snapshot
}

func tail[T any](items []T, n int) []T {
	if len(items) > n {
		items = items[len(items)-n:]
	}
	return append([]T{}, items...)
}

// ChatContext renders the state summary the chat assistant works from.
func ChatContext(state model.AppState) string {
	var sb strings.Builder
	sb.WriteString("Subjects:\n")
	if len(state.Subjects) == 0 {
		sb.WriteString("- none\n")
	}
	for _, subject := range state.Subjects {
		sb.WriteString(fmt.Sprintf("- id=%s name=%q exam=%s priority=%s\n", subject.ID, subject.Name, subject.ExamDate, subject.Priority))
	}

	pending := 0
	for _, task := range state.StudyTasks {
		if !task.Completed {
			pending++
		}
	}
	sb.WriteString(fmt.Sprintf("Pending tasks: %d of %d\n", pending, len(state.StudyTasks)))
	sb.WriteString(fmt.Sprintf("Stats: points=%d level=%d streak=%d\n", state.Stats.Points, state.Stats.Level, state.Stats.Streak))

	if moods := tail(state.MoodEntries, 3); len(moods) > 0 {
		data, err := json.Marshal(moods)
		if err == nil {
			sb.WriteString("Recent moods: ")
			sb.Write(data)
			sb.WriteByte('\n')
		}
	}
	if state.WellnessInsight != nil {
		sb.WriteString("Latest wellness summary: " + state.WellnessInsight.Summary + "\n")
	}
	return sb.String()
}
