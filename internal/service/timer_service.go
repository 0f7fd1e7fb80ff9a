package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"study-companion/internal/model"
)

// ErrTimerRunning is returned when a chat already has an active timer.
var ErrTimerRunning = errors.New("timer already running")

// ActiveTimer describes a running countdown.
type ActiveTimer struct {
	Type      model.SessionType
	SubjectID string
	Duration  time.Duration
	EndsAt    time.Time
}

// Remaining returns the time left at now.
func (t ActiveTimer) Remaining(now time.Time) time.Duration {
	if left := t.EndsAt.Sub(now); left > 0 {
		return left
	}
	return 0
}

type runningTimer struct {
	info  ActiveTimer
	timer *time.Timer
}

// TimerService runs one focus or break countdown per chat. A countdown that
// runs out records a session; a cancelled one records nothing.
type TimerService struct {
	state  *StateService
	focus  time.Duration
	brk    time.Duration
	notify func(chatID int64, session model.StudySession)

	mu     sync.Mutex
	timers map[int64]*runningTimer
}

func NewTimerService(state *StateService, focus, brk time.Duration) *TimerService {
	if focus <= 0 {
		focus = 25 * time.Minute
	}
	if brk <= 0 {
		brk = 5 * time.Minute
	}
	return &TimerService{state: state, focus: focus, brk: brk, timers: make(map[int64]*runningTimer)}
}

// OnComplete registers a callback for finished sessions.
func (s *TimerService) OnComplete(fn func(chatID int64, session model.StudySession)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notify = fn
}

// Start begins a countdown of the given type for chatID.
func (s *TimerService) Start(chatID int64, kind model.SessionType, subjectID string) (ActiveTimer, error) {
	duration := s.focus
	if kind == model.SessionBreak {
		duration = s.brk
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.timers[chatID]; ok {
		return ActiveTimer{}, ErrTimerRunning
	}

	info := ActiveTimer{Type: kind, SubjectID: subjectID, Duration: duration, EndsAt: time.Now().Add(duration)}
	rt := &runningTimer{info: info}
	rt.timer = time.AfterFunc(duration, func() { s.finish(chatID, rt) })
	s.timers[chatID] = rt
	return info, nil
}

// Cancel stops the chat's countdown. It reports whether one was running.
func (s *TimerService) Cancel(chatID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.timers[chatID]
	if !ok {
		return false
	}
	rt.timer.Stop()
	delete(s.timers, chatID)
	return true
}

// Active returns the chat's running countdown.
func (s *TimerService) Active(chatID int64) (ActiveTimer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.timers[chatID]
	if !ok {
		return ActiveTimer{}, false
	}
	return rt.info, true
}

func (s *TimerService) finish(chatID int64, rt *runningTimer) {
	s.mu.Lock()
	if s.timers[chatID] != rt {
		s.mu.Unlock()
		return
	}
	delete(s.timers, chatID)
	notify := s.notify
	s.mu.Unlock()

	minutes := int(rt.info.Duration.Round(time.Minute) / time.Minute)
	if minutes < 1 {
		minutes = 1
	}
	session, err := s.state.AddSession(context.Background(), model.StudySession{
		SubjectID:       rt.info.SubjectID,
		DurationMinutes: minutes,
		Type:            rt.info.Type,
	})
	if err != nil {
		log.Printf("record session: %v", err)
		return
	}
	if notify != nil {
		notify(chatID, session)
	}
}
