package service

import (
	"fmt"
	"html"
	"strings"
	"time"

	"study-companion/internal/model"
)

// ReminderService builds human-readable summaries for daily notifications.
type ReminderService struct {
	state *StateService
}

func NewReminderService(state *StateService) *ReminderService {
	return &ReminderService{state: state}
}

// DailySummary renders the digest for the current state.
func (s *ReminderService) DailySummary(now time.Time) string {
	return DailyDigest(s.state.Snapshot(), now)
}

// MoodReminder renders the evening prompt, or "" when today's mood is logged.
func (s *ReminderService) MoodReminder(now time.Time) string {
	state := s.state.Snapshot()
	today := now.Format(DateKey)
	for _, entry := range state.MoodEntries {
		if entryDay(entry.Date) == today {
			return ""
		}
	}
	return "🌙 Как прошёл день? Запишите настроение: /mood mood=4 stress=2 sleep=7"
}

// DailyDigest lists today's tasks, overdue work, stats and the latest insight.
func DailyDigest(state model.AppState, now time.Time) string {
	today := now.Format(DateKey)

	var todays, overdue []model.StudyTask
	for _, task := range PendingTasks(state) {
		switch {
		case task.ScheduledDate == today:
			todays = append(todays, task)
		case task.ScheduledDate < today:
			overdue = append(overdue, task)
		}
	}

	var builder strings.Builder
	builder.WriteString("📋 <b>Ежедневный отчёт</b>\n")
	builder.WriteString(fmt.Sprintf("🗓 %s\n\n", now.Format("02.01.2006")))

	builder.WriteString("🔥 <b>Задачи на сегодня</b>\n")
	if len(todays) == 0 {
		builder.WriteString("— нет задач на сегодня\n")
	} else {
		for _, task := range todays {
			builder.WriteString(FormatTask(task, state, now))
		}
	}

	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Просрочено</b>\n")
		for _, task := range overdue {
			builder.WriteString(FormatTask(task, state, now))
		}
	}

	builder.WriteString("\n🏆 <b>Прогресс</b>\n")
	builder.WriteString(fmt.Sprintf("Очки: %d · Уровень: %d · Серия: %d дн.\n", state.Stats.Points, state.Stats.Level, state.Stats.Streak))
	if !CheckedInToday(state.Stats, now) {
		builder.WriteString("Сегодня ещё нет отметки — /checkin\n")
	}

	for _, subject := range state.Subjects {
		days, ok := DaysUntilExam(subject, now)
		if ok && days >= 0 && days <= 7 {
			builder.WriteString(fmt.Sprintf("📚 Экзамен «%s» через %d дн.\n", html.EscapeString(subject.Name), days))
		}
	}

	if state.WellnessInsight != nil {
		builder.WriteString("\n🧠 <b>Самочувствие</b>\n")
		builder.WriteString(html.EscapeString(state.WellnessInsight.Summary))
		builder.WriteByte('\n')
	}

	return strings.TrimSpace(builder.String())
}

// FormatTask renders one task line in HTML.
func FormatTask(task model.StudyTask, state model.AppState, now time.Time) string {
	var sb strings.Builder

	icon := "🟢"
	if task.Completed {
		icon = "✅"
	} else if task.ScheduledDate < now.Format(DateKey) {
		icon = "⚠️"
	}

	sb.WriteString(fmt.Sprintf("%s %s", icon, html.EscapeString(strings.TrimSpace(task.Task))))
	if name := strings.TrimSpace(state.SubjectName(task.SubjectID)); name != "" {
		sb.WriteString(fmt.Sprintf(" <i>(%s)</i>", html.EscapeString(name)))
	}
	sb.WriteString(fmt.Sprintf("\n   ⏰ %s %s · %s · сложность %d", task.ScheduledDate, task.StartTime, task.Category, task.Difficulty))
	sb.WriteByte('\n')
	return sb.String()
}
