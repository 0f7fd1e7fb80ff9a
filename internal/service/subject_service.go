package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-companion/internal/model"
)

var subjectColors = []string{"#6366f1", "#10b981", "#f59e0b", "#ef4444", "#8b5cf6", "#ec4899"}

// SubjectInput represents data required to create a subject.
type SubjectInput struct {
	Name     string
	ExamDate string
	Priority model.Priority
	Color    string
}

// AddSubject creates a subject and awards points for it.
func (s *StateService) AddSubject(ctx context.Context, input SubjectInput) (model.Subject, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return model.Subject{}, fmt.Errorf("subject name is required: %w", ErrInvalidInput)
	}
	examDate := strings.TrimSpace(input.ExamDate)
	if _, err := time.Parse(DateKey, examDate); err != nil {
		return model.Subject{}, fmt.Errorf("exam date %q must be YYYY-MM-DD: %w", examDate, ErrInvalidInput)
	}
	priority := input.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	var created model.Subject
	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		color := input.Color
		if color == "" {
			color = subjectColors[len(state.Subjects)%len(subjectColors)]
		}
		created = model.Subject{
			ID:       uuid.NewString(),
			Name:     name,
			ExamDate: examDate,
			Priority: priority,
			Color:    color,
		}
		state.Subjects = append(state.Subjects, created)
		state.Stats = AddPoints(state.Stats, PointsSubject)
		return state, nil
	})
	return created, err
}

// DeleteSubject removes the subject with every task and resource that references it.
func (s *StateService) DeleteSubject(ctx context.Context, id string) error {
	return s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		if _, ok := state.FindSubject(id); !ok {
			return state, fmt.Errorf("subject %s: %w", id, ErrNotFound)
		}
		state.Subjects = filter(state.Subjects, func(subject model.Subject) bool { return subject.ID != id })
		state.StudyTasks = filter(state.StudyTasks, func(task model.StudyTask) bool { return task.SubjectID != id })
		state.Resources = filter(state.Resources, func(res model.Resource) bool { return res.SubjectID != id })
		return state, nil
	})
}

// DaysUntilExam returns whole days from today to the exam, negative once it passed.
func DaysUntilExam(subject model.Subject, now time.Time) (int, bool) {
	exam, err := time.ParseInLocation(DateKey, subject.ExamDate, now.Location())
	if err != nil {
		return 0, false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return int(math.Round(exam.Sub(today).Hours() / 24)), true
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if keep(item) {
			out = append(out, item)
		}
	}
	return out
}

func sortTasks(tasks []model.StudyTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		if tasks[i].ScheduledDate != tasks[j].ScheduledDate {
			return tasks[i].ScheduledDate < tasks[j].ScheduledDate
		}
		return tasks[i].StartTime < tasks[j].StartTime
	})
}
