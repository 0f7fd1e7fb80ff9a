package bot

import (
	"strings"
	"testing"
	"time"

	"study-companion/internal/model"
	"study-companion/internal/service"
)

func TestParseMoodArgs(t *testing.T) {
	entry, err := parseMoodArgs("mood=4 stress=2 sleep=7,5 water=6 tags=exam,calm | тихий вечер")
	if err != nil {
		t.Fatalf("parseMoodArgs: %v", err)
	}
	if entry.MoodScore != 4 || entry.StressScore != 2 || entry.SleepHours != 7.5 || entry.WaterIntake != 6 {
		t.Fatalf("entry = %+v", entry)
	}
	if entry.Journal != "тихий вечер" {
		t.Fatalf("journal = %q", entry.Journal)
	}
	if len(entry.WellnessTags) != 2 || entry.WellnessTags[1] != "calm" {
		t.Fatalf("tags = %v", entry.WellnessTags)
	}
}

func TestParseMoodArgsErrors(t *testing.T) {
	tests := []string{
		"",
		"stress=2",
		"mood",
		"mood=four",
		"mood=3 colour=5",
		"mood=3 sleep=long",
	}
	for _, args := range tests {
		if _, err := parseMoodArgs(args); err == nil {
			t.Fatalf("parseMoodArgs(%q) expected error", args)
		}
	}
}

func TestSplitNoteArgs(t *testing.T) {
	tests := []struct {
		args, title, body string
	}{
		{"Derivatives | d/dx x^2 = 2x", "Derivatives", "d/dx x^2 = 2x"},
		{"Limits\nepsilon-delta", "Limits", "epsilon-delta"},
		{"  Only title  ", "Only title", ""},
	}
	for _, tt := range tests {
		title, body := splitNoteArgs(tt.args)
		if title != tt.title || body != tt.body {
			t.Fatalf("splitNoteArgs(%q) = %q, %q", tt.args, title, body)
		}
	}
}

func TestSplitMessage(t *testing.T) {
	if got := splitMessage("short", 10); len(got) != 1 || got[0] != "short" {
		t.Fatalf("short text split: %v", got)
	}

	text := strings.Repeat("строка\n", 10)
	chunks := splitMessage(text, 20)
	if len(chunks) < 3 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for _, chunk := range chunks {
		if n := len([]rune(chunk)); n > 20 {
			t.Fatalf("chunk of %d runes exceeds limit", n)
		}
		if strings.HasPrefix(chunk, "\n") || strings.HasSuffix(chunk, "\n") {
			t.Fatalf("chunk not trimmed: %q", chunk)
		}
	}
	if joined := strings.Join(chunks, "\n"); joined != strings.TrimSpace(text) {
		t.Fatalf("content lost: %q", joined)
	}
}

func TestShortTitle(t *testing.T) {
	if got := shortTitle("  изучить\nпределы ", 40); got != "Изучить пределы" {
		t.Fatalf("shortTitle = %q", got)
	}
	if got := shortTitle("abcdefghij", 5); got != "Abcd…" {
		t.Fatalf("shortTitle = %q", got)
	}
}

func TestFormatSubject(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	subject := model.Subject{Name: "calculus", ExamDate: "2025-05-11", Priority: model.PriorityHigh}

	got := formatSubject(subject, now)
	if !strings.Contains(got, "<b>Calculus</b>") || !strings.Contains(got, "через 10 дн.") || !strings.HasPrefix(got, "🔴") {
		t.Fatalf("formatSubject = %q", got)
	}

	subject.ExamDate = "2025-04-01"
	if got := formatSubject(subject, now); !strings.Contains(got, "прошёл") {
		t.Fatalf("past exam = %q", got)
	}
}

func TestFormatDashboardClampsMood(t *testing.T) {
	d := service.Dashboard{
		Trend:         []service.TrendPoint{{Date: "2025-05-01", Mood: 9}},
		Stats:         model.Stats{Points: 120, Level: 1, Streak: 3},
		Tier:          1,
		Badge:         "Initiate",
		XPToMilestone: 880,
	}
	got := formatDashboard(d)
	if !strings.Contains(got, "●●●●●") || strings.Contains(got, "○") {
		t.Fatalf("mood bar not clamped: %q", got)
	}
	if !strings.Contains(got, "/checkin") {
		t.Fatalf("missing check-in hint: %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	if got := formatDuration(25 * time.Minute); got != "25 мин." {
		t.Fatalf("formatDuration = %q", got)
	}
	if got := formatDuration(90 * time.Second); got != "1:30" {
		t.Fatalf("formatDuration = %q", got)
	}
}

func TestInputMatchers(t *testing.T) {
	if !isSkipInput(btnSkip) || !isSkipInput("skip") || isSkipInput("нет") {
		t.Fatal("isSkipInput mismatch")
	}
	if !isConfirmInput("Да") || isConfirmInput("нет") {
		t.Fatal("isConfirmInput mismatch")
	}
	if !isCancelDialogInput(btnCancelDialog) || isCancelDialogInput(btnCancel) {
		t.Fatal("isCancelDialogInput mismatch")
	}
}
