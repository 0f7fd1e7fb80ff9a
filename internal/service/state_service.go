package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"study-companion/internal/model"
)

// StateStore persists the whole application state.
type StateStore interface {
	Load(ctx context.Context) (model.AppState, error)
	Save(ctx context.Context, state model.AppState) error
}

// WellnessAnalyzer produces wellness insights. A non-nil error still comes
// with a usable insight.
type WellnessAnalyzer interface {
	AnalyzeWellness(ctx context.Context, state model.AppState) (model.WellnessInsight, error)
}

type update struct {
	apply    func(model.AppState) (model.AppState, error)
	readOnly bool
	reply    chan error
}

type wellnessKey struct {
	moods    int
	tasks    int
	sessions int
	apiKey   string
	complete bool
}

// StateService is the single writer of AppState. Intents are applied one at
// a time by Run and each applied change is saved before the intent returns.
type StateService struct {
	store    StateStore
	analyzer WellnessAnalyzer
	now      func() time.Time

	updates chan update
	stopped chan struct{}
	once    sync.Once

	mu    sync.RWMutex
	state model.AppState

	// Owned by the Run goroutine.
	watchKey   wellnessKey
	watchReady bool
	issuedSeq  uint64
	mergedSeq  uint64
	inflight   sync.WaitGroup
}

// NewStateService loads the stored state. analyzer may be nil, which disables
// wellness refreshes.
func NewStateService(ctx context.Context, store StateStore, analyzer WellnessAnalyzer) (*StateService, error) {
	state, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	state.Normalize()
	return &StateService{
		store:    store,
		analyzer: analyzer,
		now:      time.Now,
		updates:  make(chan update),
		stopped:  make(chan struct{}),
		state:    state,
	}, nil
}

// SetClock replaces the clock used for dates. Call it before Run.
func (s *StateService) SetClock(now func() time.Time) {
	s.now = now
}

// Run applies updates until ctx is cancelled.
func (s *StateService) Run(ctx context.Context) error {
	started := false
	s.once.Do(func() { started = true })
	if !started {
		return errors.New("state service already running")
	}
	log.Printf("[info] state loop started")

	s.watchWellness(ctx, s.Snapshot())
	for {
		select {
		case <-ctx.Done():
			close(s.stopped)
			s.inflight.Wait()
			log.Printf("[info] state loop stopped")
			return nil
		case u := <-s.updates:
			s.apply(ctx, u)
		}
	}
}

func (s *StateService) apply(ctx context.Context, u update) {
	next, err := u.apply(s.Snapshot())
	if errors.Is(err, errUnchanged) {
		u.reply <- nil
		return
	}
	if err != nil {
		u.reply <- err
		return
	}
	if u.readOnly {
		u.reply <- nil
		return
	}

	next.Normalize()
	s.mu.Lock()
	s.state = next
	s.mu.Unlock()

	if err := s.store.Save(ctx, next); err != nil {
		log.Printf("save state: %v", err)
	}
	u.reply <- nil

	s.watchWellness(ctx, next)
}

// dispatch sends an update to the loop and waits until it is applied.
func (s *StateService) dispatch(ctx context.Context, fn func(model.AppState) (model.AppState, error)) error {
	return s.send(ctx, update{apply: fn, reply: make(chan error, 1)})
}

func (s *StateService) send(ctx context.Context, u update) error {
	select {
	case s.updates <- u:
	case <-s.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-u.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns a deep copy of the current state.
func (s *StateService) Snapshot() model.AppState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// ProfileComplete reports whether AI features are unlocked.
func (s *StateService) ProfileComplete() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ProfileComplete()
}

func (s *StateService) UpdateProfile(ctx context.Context, profile model.Profile) error {
	if profile.Age < 0 {
		return fmt.Errorf("age must not be negative: %w", ErrInvalidInput)
	}
	if profile.Gender == "" {
		profile.Gender = model.GenderNotSpecified
	}
	return s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		state.Profile = profile
		return state, nil
	})
}

// UpdateAIConfig replaces the whole AI config.
func (s *StateService) UpdateAIConfig(ctx context.Context, cfg model.AIConfig) error {
	_, err := s.EditAIConfig(ctx, func(current *model.AIConfig) {
		*current = cfg
	})
	return err
}

// EditAIConfig applies edit to the stored AI config inside the state loop and
// returns the result. Concurrent edits of different fields all survive.
func (s *StateService) EditAIConfig(ctx context.Context, edit func(cfg *model.AIConfig)) (model.AIConfig, error) {
	var cfg model.AIConfig
	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		edit(&state.AIConfig)
		if state.AIConfig.SelectedModel == "" {
			state.AIConfig.SelectedModel = model.DefaultModel
		}
		cfg = state.AIConfig
		return state, nil
	})
	if err != nil {
		return model.AIConfig{}, err
	}
	return cfg, nil
}

// CheckIn performs today's check-in and returns the resulting stats.
func (s *StateService) CheckIn(ctx context.Context) (model.Stats, error) {
	var stats model.Stats
	err := s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		state.Stats = CheckIn(state.Stats, s.now())
		stats = state.Stats
		return state, nil
	})
	if err != nil {
		return model.Stats{}, err
	}
	return stats, nil
}

func wellnessKeyOf(state model.AppState) wellnessKey {
	return wellnessKey{
		moods:    len(state.MoodEntries),
		tasks:    len(state.StudyTasks),
		sessions: len(state.StudySessions),
		apiKey:   state.AIConfig.APIKey,
		complete: state.ProfileComplete(),
	}
}

// watchWellness starts an analysis when the watched counters change. It runs
// on the loop goroutine.
func (s *StateService) watchWellness(ctx context.Context, state model.AppState) {
	key := wellnessKeyOf(state)
	if s.watchReady && key == s.watchKey {
		return
	}
	s.watchKey, s.watchReady = key, true
	if s.analyzer == nil || len(state.MoodEntries) == 0 || !key.complete {
		return
	}

	s.issuedSeq++
	seq := s.issuedSeq
	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		insight, err := s.analyzer.AnalyzeWellness(ctx, state)
		if err != nil {
			log.Printf("analyze wellness: %v", err)
		}
		u := update{apply: s.mergeInsight(seq, insight, err), reply: make(chan error, 1)}
		select {
		case s.updates <- u:
			<-u.reply
		case <-s.stopped:
		case <-ctx.Done():
		}
	}()
}

// mergeInsight stores insight unless a newer request was merged already.
// A failed analysis only fills an empty panel.
func (s *StateService) mergeInsight(seq uint64, insight model.WellnessInsight, analyzeErr error) func(model.AppState) (model.AppState, error) {
	return func(state model.AppState) (model.AppState, error) {
		if seq < s.mergedSeq {
			return state, errUnchanged
		}
		if analyzeErr != nil && state.WellnessInsight != nil {
			return state, errUnchanged
		}
		s.mergedSeq = seq
		state.WellnessInsight = &insight
		return state, nil
	}
}

// RefreshWellness runs an analysis now and stores the result.
func (s *StateService) RefreshWellness(ctx context.Context) (model.WellnessInsight, error) {
	if s.analyzer == nil {
		return model.WellnessInsight{}, fmt.Errorf("wellness analysis unavailable: %w", ErrInvalidInput)
	}

	var (
		seq   uint64
		state model.AppState
	)
	err := s.send(ctx, update{
		readOnly: true,
		reply:    make(chan error, 1),
		apply: func(current model.AppState) (model.AppState, error) {
			if len(current.MoodEntries) == 0 {
				return current, fmt.Errorf("no mood entries yet: %w", ErrInvalidInput)
			}
			s.issuedSeq++
			seq = s.issuedSeq
			state = current
			return current, nil
		},
	})
	if err != nil {
		return model.WellnessInsight{}, err
	}

	insight, analyzeErr := s.analyzer.AnalyzeWellness(ctx, state)
	if analyzeErr != nil {
		log.Printf("analyze wellness: %v", analyzeErr)
	}
	if err := s.dispatch(ctx, s.mergeInsight(seq, insight, analyzeErr)); err != nil {
		return insight, err
	}
	return insight, analyzeErr
}
