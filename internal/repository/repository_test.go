package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"gorm.io/gorm"

	"study-companion/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestStateRepository_LoadMissingReturnsDefault(t *testing.T) {
	repo := NewStateRepository(newTestDB(t), "")

	state, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Stats.Level != 1 || len(state.Subjects) != 0 || state.AIConfig.SelectedModel != model.DefaultModel {
		t.Fatalf("expected default state, got %+v", state)
	}
}

func TestStateRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	repo := NewStateRepository(newTestDB(t), "test_key")

	state := model.DefaultState()
	state.Profile.Name = "Asel"
	state.Stats = model.Stats{Points: 45, Level: 1, Streak: 2, LastCheckInDate: "2025-05-02"}
	state.Subjects = append(state.Subjects, model.Subject{ID: "s1", Name: "Calc", ExamDate: "2025-06-01", Priority: model.PriorityHigh})
	state.StudyTasks = append(state.StudyTasks, model.StudyTask{ID: "t1", SubjectID: "s1", Task: "Limits", Category: model.CategoryRevision, Difficulty: 3})
	state.WellnessInsight = &model.WellnessInsight{Summary: "steady", Tips: []string{"sleep"}, Correlation: "none"}

	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("first Save failed: %v", err)
	}
	state.Stats.Points = 55
	if err := repo.Save(ctx, state); err != nil {
		t.Fatalf("second Save failed: %v", err)
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Profile.Name != "Asel" {
		t.Errorf("Profile.Name = %q, want Asel", got.Profile.Name)
	}
	if got.Stats.Points != 55 || got.Stats.Streak != 2 || got.Stats.LastCheckInDate != "2025-05-02" {
		t.Errorf("Stats = %+v", got.Stats)
	}
	if len(got.Subjects) != 1 || got.Subjects[0].Priority != model.PriorityHigh {
		t.Errorf("Subjects = %+v", got.Subjects)
	}
	if len(got.StudyTasks) != 1 || got.StudyTasks[0].SubjectID != "s1" {
		t.Errorf("StudyTasks = %+v", got.StudyTasks)
	}
	if got.WellnessInsight == nil || got.WellnessInsight.Summary != "steady" {
		t.Errorf("WellnessInsight = %+v", got.WellnessInsight)
	}

	var count int64
	repo.db.Model(&model.StateRecord{}).Count(&count)
	if count != 1 {
		t.Errorf("expected a single row, got %d", count)
	}
}

func TestStateRepository_CorruptDocumentReturnsDefault(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	repo := NewStateRepository(db, "broken")

	if err := db.Create(&model.StateRecord{Key: "broken", Data: []byte(`{"profile": [1,2,3]}`)}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	state, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if state.Profile.Name != "" || state.Stats.Level != 1 {
		t.Fatalf("expected default state, got %+v", state)
	}
}

func TestStateRepository_KeysAreIsolated(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	a := NewStateRepository(db, "a")
	b := NewStateRepository(db, "b")

	state := model.DefaultState()
	state.Profile.Name = "only in a"
	if err := a.Save(ctx, state); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	got, err := b.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got.Profile.Name != "" {
		t.Fatalf("key b leaked state from key a: %q", got.Profile.Name)
	}
}

func TestOwnerRepository_Claim(t *testing.T) {
	ctx := context.Background()
	repo := NewOwnerRepository(newTestDB(t))

	owner, err := repo.Claim(ctx, 100, "Asel", "", "asel")
	if err != nil {
		t.Fatalf("first Claim failed: %v", err)
	}
	if owner.TelegramID != 100 {
		t.Fatalf("TelegramID = %d", owner.TelegramID)
	}

	if _, err := repo.Claim(ctx, 100, "Asel", "K", "asel"); err != nil {
		t.Fatalf("repeat Claim failed: %v", err)
	}

	if _, err := repo.Claim(ctx, 200, "Other", "", ""); !errors.Is(err, ErrChatNotOwner) {
		t.Fatalf("expected ErrChatNotOwner, got %v", err)
	}

	ok, err := repo.IsOwner(ctx, 100)
	if err != nil || !ok {
		t.Fatalf("IsOwner(100) = %v, %v", ok, err)
	}
	ok, err = repo.IsOwner(ctx, 200)
	if err != nil || ok {
		t.Fatalf("IsOwner(200) = %v, %v", ok, err)
	}

	owners, err := repo.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll failed: %v", err)
	}
	if len(owners) != 1 || owners[0].LastName != "K" {
		t.Fatalf("owners = %+v", owners)
	}
}

func TestSQLiteDSNHelpers(t *testing.T) {
	dirs := []struct{ dsn, want string }{
		{"study.db", ""},
		{":memory:", ""},
		{"file:data/app.db?cache=shared", "data"},
		{"file::memory:?mode=memory", ""},
		{"/var/lib/sc/state.db", "/var/lib/sc"},
	}
	for _, tt := range dirs {
		if got := sqliteDir(tt.dsn); got != tt.want {
			t.Errorf("sqliteDir(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}

	timeouts := []struct{ dsn, want string }{
		{"app.db", "app.db?_busy_timeout=5000"},
		{"file:app.db?cache=shared", "file:app.db?cache=shared&_busy_timeout=5000"},
		{"app.db?_busy_timeout=100", "app.db?_busy_timeout=100"},
	}
	for _, tt := range timeouts {
		if got := withBusyTimeout(tt.dsn); got != tt.want {
			t.Errorf("withBusyTimeout(%q) = %q, want %q", tt.dsn, got, tt.want)
		}
	}
}
