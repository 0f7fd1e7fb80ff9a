package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"study-companion/internal/model"
)

type memoryStore struct {
	mu    sync.Mutex
	state model.AppState
	saves int
	err   error
}

func (m *memoryStore) Load(context.Context) (model.AppState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), nil
}

func (m *memoryStore) Save(_ context.Context, state model.AppState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves++
	m.state = state.Clone()
	return m.err
}

func (m *memoryStore) snapshot() (model.AppState, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Clone(), m.saves
}

type stubAnalyzer struct {
	mu      sync.Mutex
	calls   int
	insight model.WellnessInsight
	err     error
	gate    chan struct{}
}

func (a *stubAnalyzer) AnalyzeWellness(ctx context.Context, _ model.AppState) (model.WellnessInsight, error) {
	a.mu.Lock()
	a.calls++
	insight, err, gate := a.insight, a.err, a.gate
	a.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return insight, ctx.Err()
		}
	}
	return insight, err
}

func (a *stubAnalyzer) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func startService(t *testing.T, store *memoryStore, analyzer WellnessAnalyzer) *StateService {
	t.Helper()
	if store.state.Stats.Level == 0 {
		store.state = model.DefaultState()
	}
	svc, err := NewStateService(context.Background(), store, analyzer)
	if err != nil {
		t.Fatalf("NewStateService failed: %v", err)
	}
	svc.SetClock(fixedClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local)))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = svc.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return svc
}

func completeProfile(state *model.AppState) {
	state.Profile = model.Profile{Name: "Asel", Stream: "Engineering", Gender: "Female", BloodType: "A+", Age: 20, Year: "2nd"}
	state.AIConfig.APIKey = "sk-test"
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestScenarioSubjectTasksToggle(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	svc := startService(t, store, nil)

	subject, err := svc.AddSubject(ctx, SubjectInput{Name: "Calc", ExamDate: "2025-06-01"})
	if err != nil {
		t.Fatalf("AddSubject failed: %v", err)
	}
	if got := svc.Snapshot().Stats.Points; got != 20 {
		t.Fatalf("points after subject = %d, want 20", got)
	}
	if subject.Priority != model.PriorityMedium || subject.Color == "" {
		t.Errorf("subject defaults = %+v", subject)
	}

	tasks := []model.StudyTask{
		{SubjectID: subject.ID, Task: "Limits", ScheduledDate: "2025-05-02", Category: model.CategoryLecture, Difficulty: 2},
		{SubjectID: subject.ID, Task: "Derivatives", ScheduledDate: "2025-05-03", Category: model.CategoryRevision, Difficulty: 3},
		{SubjectID: subject.ID, Task: "Integrals", ScheduledDate: "2025-05-04", Category: model.CategoryExamPrep, Difficulty: 4},
	}
	if n, err := svc.AddTasks(ctx, tasks); err != nil || n != 3 {
		t.Fatalf("AddTasks = %d, %v", n, err)
	}
	state := svc.Snapshot()
	if state.Stats.Points != 35 {
		t.Fatalf("points after tasks = %d, want 35", state.Stats.Points)
	}

	id := state.StudyTasks[0].ID
	if id == "" {
		t.Fatal("task id not assigned")
	}
	toggled, err := svc.ToggleTask(ctx, id)
	if err != nil || !toggled.Completed {
		t.Fatalf("ToggleTask = %+v, %v", toggled, err)
	}
	if got := svc.Snapshot().Stats.Points; got != 45 {
		t.Fatalf("points after toggle = %d, want 45", got)
	}

	if _, err := svc.ToggleTask(ctx, id); err != nil {
		t.Fatalf("second toggle failed: %v", err)
	}
	if _, err := svc.ToggleTask(ctx, id); err != nil {
		t.Fatalf("third toggle failed: %v", err)
	}
	if got := svc.Snapshot().Stats.Points; got != 55 {
		t.Fatalf("points after reopen and complete = %d, want 55", got)
	}

	persisted, saves := store.snapshot()
	if persisted.Stats.Points != 55 || saves != 5 {
		t.Fatalf("persisted points=%d saves=%d", persisted.Stats.Points, saves)
	}
}

func TestAddTasksEmptyIsNoop(t *testing.T) {
	store := &memoryStore{}
	svc := startService(t, store, nil)
	if n, err := svc.AddTasks(context.Background(), nil); err != nil || n != 0 {
		t.Fatalf("AddTasks(nil) = %d, %v", n, err)
	}
	if _, saves := store.snapshot(); saves != 0 {
		t.Fatalf("empty AddTasks saved %d times", saves)
	}
}

func TestDeleteSubjectCascades(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	svc := startService(t, store, nil)

	calc, _ := svc.AddSubject(ctx, SubjectInput{Name: "Calc", ExamDate: "2025-06-01"})
	phys, _ := svc.AddSubject(ctx, SubjectInput{Name: "Physics", ExamDate: "2025-06-10"})
	_, _ = svc.AddTasks(ctx, []model.StudyTask{
		{SubjectID: calc.ID, Task: "a"},
		{SubjectID: phys.ID, Task: "b"},
		{SubjectID: model.GlobalSubjectID, Task: "c"},
	})
	_, _ = svc.AddResource(ctx, ResourceInput{SubjectID: calc.ID, Title: "Notes", Notes: "x"})
	_, _ = svc.AddResource(ctx, ResourceInput{SubjectID: phys.ID, Title: "Video", URL: "https://youtu.be/x"})

	if err := svc.DeleteSubject(ctx, calc.ID); err != nil {
		t.Fatalf("DeleteSubject failed: %v", err)
	}
	state := svc.Snapshot()
	if len(state.Subjects) != 1 || state.Subjects[0].ID != phys.ID {
		t.Errorf("subjects = %+v", state.Subjects)
	}
	if len(state.StudyTasks) != 2 {
		t.Errorf("tasks = %+v", state.StudyTasks)
	}
	for _, task := range state.StudyTasks {
		if task.SubjectID == calc.ID {
			t.Errorf("task of deleted subject survived: %+v", task)
		}
	}
	if len(state.Resources) != 1 || state.Resources[0].SubjectID != phys.ID {
		t.Errorf("resources = %+v", state.Resources)
	}

	if err := svc.DeleteSubject(ctx, calc.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}
}

func TestIntentValidation(t *testing.T) {
	ctx := context.Background()
	svc := startService(t, &memoryStore{}, nil)

	if _, err := svc.AddSubject(ctx, SubjectInput{Name: " ", ExamDate: "2025-06-01"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("blank subject error = %v", err)
	}
	if _, err := svc.AddSubject(ctx, SubjectInput{Name: "Calc", ExamDate: "June"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad exam date error = %v", err)
	}
	if _, err := svc.ToggleTask(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("toggle missing error = %v", err)
	}
	if err := svc.DeleteResource(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("delete resource error = %v", err)
	}
	if _, err := svc.AddSession(ctx, model.StudySession{Type: model.SessionFocus}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero session error = %v", err)
	}
	if _, err := svc.AddMoodEntry(ctx, model.MoodEntry{MoodScore: 9}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("mood out of range error = %v", err)
	}
	if _, err := svc.CreateTask(ctx, TaskInput{Task: "Read", StartTime: "25:00"}); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("bad start time error = %v", err)
	}
	if got := svc.Snapshot().Stats.Points; got != 0 {
		t.Errorf("rejected intents awarded %d points", got)
	}
}

func TestCreateTaskDefaults(t *testing.T) {
	svc := startService(t, &memoryStore{}, nil)
	task, err := svc.CreateTask(context.Background(), TaskInput{Task: "Gym"})
	if err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if task.SubjectID != model.GlobalSubjectID || task.ScheduledDate != "2025-05-01" || task.StartTime != "09:00" ||
		task.Category != model.CategoryRevision || task.Difficulty != 3 {
		t.Fatalf("task = %+v", task)
	}
	if got := svc.Snapshot().Stats.Points; got != PointsPerTask {
		t.Fatalf("points = %d", got)
	}
}

func TestSessionsAndMoodPoints(t *testing.T) {
	ctx := context.Background()
	svc := startService(t, &memoryStore{}, nil)

	if _, err := svc.AddSession(ctx, model.StudySession{Type: model.SessionFocus, DurationMinutes: 25}); err != nil {
		t.Fatalf("focus session failed: %v", err)
	}
	if _, err := svc.AddSession(ctx, model.StudySession{Type: model.SessionBreak, DurationMinutes: 5}); err != nil {
		t.Fatalf("break session failed: %v", err)
	}
	entry, err := svc.AddMoodEntry(ctx, model.MoodEntry{MoodScore: 4, StressScore: 2, SleepHours: 7})
	if err != nil {
		t.Fatalf("AddMoodEntry failed: %v", err)
	}
	if entry.ID == "" || entry.Date != "2025-05-01" {
		t.Errorf("entry defaults = %+v", entry)
	}

	state := svc.Snapshot()
	if state.Stats.Points != 25+15 {
		t.Fatalf("points = %d, want 40", state.Stats.Points)
	}
	if len(state.StudySessions) != 2 || len(state.MoodEntries) != 1 {
		t.Fatalf("logs = %d sessions, %d moods", len(state.StudySessions), len(state.MoodEntries))
	}
}

func TestCheckInIntent(t *testing.T) {
	ctx := context.Background()
	svc := startService(t, &memoryStore{}, nil)

	first, err := svc.CheckIn(ctx)
	if err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	second, err := svc.CheckIn(ctx)
	if err != nil {
		t.Fatalf("second CheckIn failed: %v", err)
	}
	if first != second || first.Streak != 1 || first.Points != 50 {
		t.Fatalf("first=%+v second=%+v", first, second)
	}
}

func TestSaveFailureDoesNotFailIntent(t *testing.T) {
	store := &memoryStore{err: errors.New("disk full")}
	svc := startService(t, store, nil)
	if _, err := svc.AddSubject(context.Background(), SubjectInput{Name: "Calc", ExamDate: "2025-06-01"}); err != nil {
		t.Fatalf("AddSubject returned save error: %v", err)
	}
	if len(svc.Snapshot().Subjects) != 1 {
		t.Fatal("state not updated")
	}
}

func TestEditAIConfigKeepsConcurrentEdits(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{}
	svc := startService(t, store, nil)

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_, _ = svc.EditAIConfig(ctx, func(cfg *model.AIConfig) { cfg.APIKey = "sk-new" })
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.EditAIConfig(ctx, func(cfg *model.AIConfig) { cfg.SelectedModel = "openai/gpt-4o-mini" })
	}()
	go func() {
		defer wg.Done()
		_, _ = svc.EditAIConfig(ctx, func(cfg *model.AIConfig) {
			cfg.AvailableModels = []model.ModelInfo{{ID: "openai/gpt-4o-mini"}}
		})
	}()
	wg.Wait()

	cfg := svc.Snapshot().AIConfig
	if cfg.APIKey != "sk-new" || cfg.SelectedModel != "openai/gpt-4o-mini" || len(cfg.AvailableModels) != 1 {
		t.Fatalf("lost edit: %+v", cfg)
	}
	if stored, _ := store.snapshot(); stored.AIConfig.APIKey != "sk-new" {
		t.Fatalf("stored config = %+v", stored.AIConfig)
	}
}

func TestUpdateAIConfigReplacesConfig(t *testing.T) {
	ctx := context.Background()
	svc := startService(t, &memoryStore{}, nil)

	if err := svc.UpdateAIConfig(ctx, model.AIConfig{APIKey: "sk-a", SelectedModel: "x/model"}); err != nil {
		t.Fatalf("UpdateAIConfig failed: %v", err)
	}
	if err := svc.UpdateAIConfig(ctx, model.AIConfig{APIKey: "sk-b"}); err != nil {
		t.Fatalf("UpdateAIConfig failed: %v", err)
	}
	cfg := svc.Snapshot().AIConfig
	if cfg.APIKey != "sk-b" || cfg.SelectedModel != model.DefaultModel {
		t.Fatalf("config = %+v", cfg)
	}
}

func TestSnapshotIsIsolated(t *testing.T) {
	svc := startService(t, &memoryStore{}, nil)
	_, _ = svc.AddSubject(context.Background(), SubjectInput{Name: "Calc", ExamDate: "2025-06-01"})

	snap := svc.Snapshot()
	snap.Subjects[0].Name = "changed"
	if svc.Snapshot().Subjects[0].Name != "Calc" {
		t.Fatal("snapshot shares memory with the service state")
	}
}

func TestIntentAfterStop(t *testing.T) {
	store := &memoryStore{state: model.DefaultState()}
	svc, err := NewStateService(context.Background(), store, nil)
	if err != nil {
		t.Fatalf("NewStateService failed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := svc.Run(ctx); err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if _, err := svc.CheckIn(context.Background()); !errors.Is(err, ErrStopped) {
		t.Fatalf("CheckIn after stop = %v, want ErrStopped", err)
	}
}

func TestWellnessWatcherTriggers(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{state: model.DefaultState()}
	completeProfile(&store.state)
	analyzer := &stubAnalyzer{insight: model.WellnessInsight{Summary: "rested", Tips: []string{"walk"}, Correlation: "sleep"}}
	svc := startService(t, store, analyzer)

	if _, err := svc.AddSubject(ctx, SubjectInput{Name: "Calc", ExamDate: "2025-06-01"}); err != nil {
		t.Fatalf("AddSubject failed: %v", err)
	}
	if analyzer.callCount() != 0 {
		t.Fatalf("analysis ran without mood entries")
	}

	if _, err := svc.AddMoodEntry(ctx, model.MoodEntry{MoodScore: 4}); err != nil {
		t.Fatalf("AddMoodEntry failed: %v", err)
	}
	eventually(t, func() bool {
		insight := svc.Snapshot().WellnessInsight
		return insight != nil && insight.Summary == "rested"
	})

	if _, err := svc.CheckIn(ctx); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if got := analyzer.callCount(); got != 1 {
		t.Fatalf("analysis ran %d times, want 1 (check-in does not change watched counters)", got)
	}

	if _, err := svc.AddSession(ctx, model.StudySession{Type: model.SessionFocus, DurationMinutes: 10}); err != nil {
		t.Fatalf("AddSession failed: %v", err)
	}
	eventually(t, func() bool { return analyzer.callCount() == 2 })
}

func TestWellnessWatcherRequiresCompleteProfile(t *testing.T) {
	ctx := context.Background()
	analyzer := &stubAnalyzer{insight: model.WellnessInsight{Summary: "x"}}
	svc := startService(t, &memoryStore{}, analyzer)

	if _, err := svc.AddMoodEntry(ctx, model.MoodEntry{MoodScore: 3}); err != nil {
		t.Fatalf("AddMoodEntry failed: %v", err)
	}
	if _, err := svc.CheckIn(ctx); err != nil {
		t.Fatalf("CheckIn failed: %v", err)
	}
	if analyzer.callCount() != 0 {
		t.Fatal("analysis ran with an incomplete profile")
	}
}

func TestWellnessFailureKeepsStaleInsight(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{state: model.DefaultState()}
	completeProfile(&store.state)
	store.state.WellnessInsight = &model.WellnessInsight{Summary: "previous"}
	analyzer := &stubAnalyzer{insight: model.WellnessInsight{Summary: "fallback"}, err: errors.New("provider down")}
	svc := startService(t, store, analyzer)

	if _, err := svc.AddMoodEntry(ctx, model.MoodEntry{MoodScore: 2}); err != nil {
		t.Fatalf("AddMoodEntry failed: %v", err)
	}
	eventually(t, func() bool { return analyzer.callCount() >= 1 })
	if _, err := svc.RefreshWellness(ctx); err == nil {
		t.Fatal("RefreshWellness should report the provider error")
	}
	if got := svc.Snapshot().WellnessInsight.Summary; got != "previous" {
		t.Fatalf("insight = %q, want stale insight kept", got)
	}
}

func TestRefreshWellnessNewestWins(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{state: model.DefaultState()}
	completeProfile(&store.state)
	store.state.MoodEntries = []model.MoodEntry{{ID: "m1", MoodScore: 3}}

	gate := make(chan struct{})
	analyzer := &stubAnalyzer{insight: model.WellnessInsight{Summary: "old"}, gate: gate}
	svc := startService(t, store, analyzer)

	// The watcher fires once on start with the gated analyzer.
	eventually(t, func() bool { return analyzer.callCount() == 1 })

	analyzer.mu.Lock()
	analyzer.insight = model.WellnessInsight{Summary: "new"}
	analyzer.gate = nil
	analyzer.mu.Unlock()

	insight, err := svc.RefreshWellness(ctx)
	if err != nil || insight.Summary != "new" {
		t.Fatalf("RefreshWellness = %+v, %v", insight, err)
	}

	close(gate)
	time.Sleep(50 * time.Millisecond)
	if got := svc.Snapshot().WellnessInsight.Summary; got != "new" {
		t.Fatalf("insight = %q, the older request overwrote the newer one", got)
	}
}
