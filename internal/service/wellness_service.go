package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"study-companion/internal/model"
)

// AddMoodEntry appends a mood log entry and awards points for it.
func (s *StateService) AddMoodEntry(ctx context.Context, entry model.MoodEntry) (model.MoodEntry, error) {
	if err := validateMood(entry); err != nil {
		return model.MoodEntry{}, err
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Date == "" {
		entry.Date = s.now().Format(DateKey)
	}
	entry.Journal = strings.TrimSpace(entry.Journal)

	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		state.MoodEntries = append(state.MoodEntries, entry)
		state.Stats = AddPoints(state.Stats, PointsMoodEntry)
		return state, nil
	})
	return entry, err
}

func validateMood(entry model.MoodEntry) error {
	scores := map[string]int{
		"mood":         entry.MoodScore,
		"stress":       entry.StressScore,
		"sleepQuality": entry.SleepQuality,
		"activity":     entry.PhysicalActivity,
		"social":       entry.SocialConnection,
		"productivity": entry.ProductivityScore,
		"nutrition":    entry.NutritionScore,
	}
	for name, score := range scores {
		if score < 0 || score > 5 {
			return fmt.Errorf("%s must be 1-5: %w", name, ErrInvalidInput)
		}
	}
	if entry.MoodScore == 0 {
		return fmt.Errorf("mood score is required: %w", ErrInvalidInput)
	}
	if entry.SleepHours < 0 || entry.SleepHours > 24 {
		return fmt.Errorf("sleep hours must be 0-24: %w", ErrInvalidInput)
	}
	if entry.WaterIntake < 0 {
		return fmt.Errorf("water intake must not be negative: %w", ErrInvalidInput)
	}
	return nil
}

// AddSession records a finished timer. Focus sessions award one point per minute.
func (s *StateService) AddSession(ctx context.Context, session model.StudySession) (model.StudySession, error) {
	if session.DurationMinutes <= 0 {
		return model.StudySession{}, fmt.Errorf("duration must be positive: %w", ErrInvalidInput)
	}
	if session.Type != model.SessionFocus && session.Type != model.SessionBreak {
		return model.StudySession{}, fmt.Errorf("unknown session type %q: %w", session.Type, ErrInvalidInput)
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	if session.Date == "" {
		session.Date = s.now().Format(time.RFC3339)
	}

	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		state.StudySessions = append(state.StudySessions, session)
		state.Stats = AddPoints(state.Stats, SessionPoints(session))
		return state, nil
	})
	return session, err
}
