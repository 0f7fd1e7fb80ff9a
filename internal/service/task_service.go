package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-companion/internal/model"
)

// TaskInput represents data required to create a task manually.
type TaskInput struct {
	SubjectID     string
	Task          string
	ScheduledDate string
	StartTime     string
	Category      model.TaskCategory
	Difficulty    int
}

// CreateTask validates input and adds it as a single task.
func (s *StateService) CreateTask(ctx context.Context, input TaskInput) (model.StudyTask, error) {
	task, err := buildTask(input, s.now())
	if err != nil {
		return model.StudyTask{}, err
	}
	if _, err := s.AddTasks(ctx, []model.StudyTask{task}); err != nil {
		return model.StudyTask{}, err
	}
	return task, nil
}

func buildTask(input TaskInput, now time.Time) (model.StudyTask, error) {
	text := strings.TrimSpace(input.Task)
	if text == "" {
		return model.StudyTask{}, fmt.Errorf("task text is required: %w", ErrInvalidInput)
	}

	date := strings.TrimSpace(input.ScheduledDate)
	if date == "" {
		date = now.Format(DateKey)
	} else if _, err := time.Parse(DateKey, date); err != nil {
		return model.StudyTask{}, fmt.Errorf("date %q must be YYYY-MM-DD: %w", date, ErrInvalidInput)
	}

	start := strings.TrimSpace(input.StartTime)
	if start == "" {
		start = "09:00"
	} else if t, err := time.Parse("15:04", start); err == nil {
		start = t.Format("15:04")
	} else {
		return model.StudyTask{}, fmt.Errorf("start time %q must be HH:MM: %w", start, ErrInvalidInput)
	}

	category := input.Category
	if category == "" {
		category = model.CategoryRevision
	}
	if !category.Valid() {
		return model.StudyTask{}, fmt.Errorf("unknown category %q: %w", category, ErrInvalidInput)
	}

	difficulty := input.Difficulty
	if difficulty == 0 {
		difficulty = 3
	}
	if difficulty < 1 || difficulty > 5 {
		return model.StudyTask{}, fmt.Errorf("difficulty must be 1-5: %w", ErrInvalidInput)
	}

	subjectID := strings.TrimSpace(input.SubjectID)
	if subjectID == "" {
		subjectID = model.GlobalSubjectID
	}

	return model.StudyTask{
		ID:            uuid.NewString(),
		SubjectID:     subjectID,
		Task:          text,
		ScheduledDate: date,
		StartTime:     start,
		Category:      category,
		Difficulty:    difficulty,
	}, nil
}

// AddTasks appends tasks and awards points per task. It returns the number added.
func (s *StateService) AddTasks(ctx context.Context, tasks []model.StudyTask) (int, error) {
	if len(tasks) == 0 {
		return 0, nil
	}
	for _, task := range tasks {
		if strings.TrimSpace(task.Task) == "" {
			return 0, fmt.Errorf("task text is required: %w", ErrInvalidInput)
		}
	}

	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		for _, task := range tasks {
			if task.ID == "" {
				task.ID = uuid.NewString()
			}
			state.StudyTasks = append(state.StudyTasks, task)
		}
		state.Stats = AddPoints(state.Stats, PointsPerTask*len(tasks))
		return state, nil
	})
	if err != nil {
		return 0, err
	}
	return len(tasks), nil
}

// ToggleTask flips the completed flag. Only the false to true transition
// awards points, and reopening never takes them back.
func (s *StateService) ToggleTask(ctx context.Context, id string) (model.StudyTask, error) {
	var toggled model.StudyTask
	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		for i := range state.StudyTasks {
			if state.StudyTasks[i].ID != id {
				continue
			}
			state.StudyTasks[i].Completed = !state.StudyTasks[i].Completed
			if state.StudyTasks[i].Completed {
				state.Stats = AddPoints(state.Stats, PointsTaskComplete)
			}
			toggled = state.StudyTasks[i]
			return state, nil
		}
		return state, fmt.Errorf("task %s: %w", id, ErrNotFound)
	})
	return toggled, err
}

// TasksForDate returns the tasks scheduled on date, ordered by start time.
func TasksForDate(state model.AppState, date string) []model.StudyTask {
	var out []model.StudyTask
	for _, task := range state.StudyTasks {
		if task.ScheduledDate == date {
			out = append(out, task)
		}
	}
	sortTasks(out)
	return out
}

// PendingTasks returns incomplete tasks ordered by date and start time.
func PendingTasks(state model.AppState) []model.StudyTask {
	var out []model.StudyTask
	for _, task := range state.StudyTasks {
		if !task.Completed {
			out = append(out, task)
		}
	}
	sortTasks(out)
	return out
}
