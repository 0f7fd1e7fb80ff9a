package bot

import (
	"fmt"
	"html"
	"strings"
	"time"
	"unicode"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-companion/internal/model"
	"study-companion/internal/service"
)

const (
	maxMessageLen   = 4000
	personalSubject = "🧩 Личное"
)

func escape(s string) string {
	return html.EscapeString(s)
}

func normalizeTitle(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return value
	}
	runes := []rune(value)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func shortTitle(title string, maxLen int) string {
	clean := strings.TrimSpace(strings.ReplaceAll(title, "\n", " "))
	clean = normalizeTitle(clean)
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	if maxLen <= 1 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-1]) + "…"
}

// splitMessage cuts text into chunks of at most limit runes, preferring line breaks.
func splitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(runes) > limit {
		cut := limit
		for i := limit; i > limit/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[:cut])))
		runes = runes[cut:]
	}
	if rest := strings.TrimSpace(string(runes)); rest != "" {
		chunks = append(chunks, rest)
	}
	return chunks
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return "🔴"
	case model.PriorityLow:
		return "🟢"
	default:
		return "🟡"
	}
}

func formatSubject(subject model.Subject, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b>\n", priorityIcon(subject.Priority), escape(normalizeTitle(subject.Name))))
	days, ok := service.DaysUntilExam(subject, now)
	switch {
	case !ok:
		b.WriteString("   📅 Дата экзамена не указана\n")
	case days < 0:
		b.WriteString(fmt.Sprintf("   📅 Экзамен %s прошёл\n", subject.ExamDate))
	case days == 0:
		b.WriteString(fmt.Sprintf("   📅 Экзамен %s — <b>сегодня</b>\n", subject.ExamDate))
	default:
		b.WriteString(fmt.Sprintf("   📅 Экзамен %s · через %d дн.\n", subject.ExamDate, days))
	}
	return b.String()
}

func formatResource(res model.Resource, state model.AppState) string {
	icon := "📄"
	switch res.Type {
	case model.ResourceVideo:
		icon = "🎬"
	case model.ResourceNote:
		icon = "📝"
	case model.ResourceImage:
		icon = "🖼"
	case model.ResourceFile:
		icon = "📁"
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s</b>", icon, escape(res.Title)))
	if name := state.SubjectName(res.SubjectID); name != "" {
		b.WriteString(fmt.Sprintf(" <i>(%s)</i>", escape(name)))
	}
	b.WriteByte('\n')
	if res.URL != "" {
		b.WriteString(fmt.Sprintf("   🔗 %s\n", escape(res.URL)))
	}
	if res.Notes != "" {
		b.WriteString(fmt.Sprintf("   %s\n", escape(shortTitle(res.Notes, 120))))
	}
	return b.String()
}

func formatProfile(state model.AppState) string {
	p := state.Profile
	orDash := func(s string) string {
		if strings.TrimSpace(s) == "" || s == model.GenderNotSpecified {
			return "—"
		}
		return escape(s)
	}
	age := "—"
	if p.Age > 0 {
		age = fmt.Sprintf("%d", p.Age)
	}
	var b strings.Builder
	b.WriteString("👤 <b>Профиль</b>\n")
	b.WriteString(fmt.Sprintf("• Имя: %s\n", orDash(p.Name)))
	b.WriteString(fmt.Sprintf("• Возраст: %s\n", age))
	b.WriteString(fmt.Sprintf("• Пол: %s\n", orDash(p.Gender)))
	b.WriteString(fmt.Sprintf("• Группа крови: %s\n", orDash(p.BloodType)))
	b.WriteString(fmt.Sprintf("• Направление: %s\n", orDash(p.Stream)))
	b.WriteString(fmt.Sprintf("• Курс: %s\n", orDash(p.Year)))
	if strings.TrimSpace(state.AIConfig.APIKey) != "" {
		b.WriteString(fmt.Sprintf("• Модель: <code>%s</code>\n", escape(state.AIConfig.SelectedModel)))
	} else {
		b.WriteString("• Ключ OpenRouter не задан: /apikey\n")
	}
	if state.ProfileComplete() {
		b.WriteString("\n✅ Ассистент доступен.")
	} else {
		b.WriteString("\n⚠️ Профиль неполный: /setprofile")
	}
	return b.String()
}

func formatModels(models []model.ModelInfo, selected string, limit int) string {
	if len(models) == 0 {
		return "Список моделей пуст."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🤖 <b>Модели</b> (%d)\n", len(models)))
	for i, m := range models {
		if i == limit {
			b.WriteString(fmt.Sprintf("… и ещё %d\n", len(models)-limit))
			break
		}
		mark := "•"
		if m.ID == selected {
			mark = "✅"
		}
		b.WriteString(fmt.Sprintf("%s <code>%s</code>\n", mark, escape(m.ID)))
	}
	b.WriteString("\nВыбрать: /model &lt;id&gt;")
	return b.String()
}

func formatInsight(insight model.WellnessInsight) string {
	var b strings.Builder
	b.WriteString("🧠 <b>Самочувствие</b>\n")
	if insight.BurnoutWarning {
		b.WriteString("🚨 <b>Риск выгорания</b>\n")
	}
	b.WriteString(escape(insight.Summary))
	b.WriteString("\n\n")
	for _, tip := range insight.Tips {
		b.WriteString(fmt.Sprintf("• %s\n", escape(tip)))
	}
	if insight.Correlation != "" {
		b.WriteString(fmt.Sprintf("\n🔗 %s", escape(insight.Correlation)))
	}
	return strings.TrimSpace(b.String())
}

func formatDashboard(d service.Dashboard) string {
	var b strings.Builder
	b.WriteString("📊 <b>Прогресс</b>\n")
	b.WriteString(fmt.Sprintf("🏆 Очки: %d · Уровень %d · Ранг %d\n", d.Stats.Points, d.Stats.Level, d.Tier))
	b.WriteString(fmt.Sprintf("📈 До следующего уровня: %.0f%% · До рубежа: %d XP\n", d.LevelProgress, d.XPToMilestone))
	b.WriteString(fmt.Sprintf("🔥 Серия: %d дн.", d.Stats.Streak))
	if !d.CheckedIn {
		b.WriteString(" · отметься: /checkin")
	}
	b.WriteByte('\n')
	b.WriteString(fmt.Sprintf("🎓 %s · %s\n", d.Badge, d.AcademicStatus))
	b.WriteString(fmt.Sprintf("📋 Открытых задач: %d, к сроку: %d, выполнено %d%%\n", d.PendingTasks, d.DueSoon, d.CompletionRate))
	b.WriteString(fmt.Sprintf("🍅 Фокус: %d мин.\n", d.FocusMinutes))
	b.WriteString(fmt.Sprintf("🧠 Самочувствие: %s\n", d.WellnessStatus))
	if len(d.Trend) > 0 {
		b.WriteString("\n<b>Настроение за последние дни</b>\n")
		for _, p := range d.Trend {
			mood := clamp(p.Mood, 0, 5)
			b.WriteString(fmt.Sprintf("%s %s\n", p.Date, strings.Repeat("●", mood)+strings.Repeat("○", 5-mood)))
		}
	}
	return strings.TrimSpace(b.String())
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	minutes := int(d / time.Minute)
	seconds := int((d % time.Minute) / time.Second)
	if seconds == 0 {
		return fmt.Sprintf("%d мин.", minutes)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelTasks),
			tgbotapi.NewKeyboardButton(menuLabelNew),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelSubj),
			tgbotapi.NewKeyboardButton(menuLabelStats),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelFocus),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func cancelKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnSkip),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnCancelDialog),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

// optionsKeyboard lays options out three per row.
func optionsKeyboard(options []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for i := 0; i < len(options); i += 3 {
		end := i + 3
		if end > len(options) {
			end = len(options)
		}
		var row []tgbotapi.KeyboardButton
		for _, option := range options[i:end] {
			row = append(row, tgbotapi.NewKeyboardButton(option))
		}
		rows = append(rows, row)
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnCancelDialog)))
	kb := tgbotapi.NewReplyKeyboard(rows...)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func priorityKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return optionsKeyboard([]string{string(model.PriorityLow), string(model.PriorityMedium), string(model.PriorityHigh)})
}

func categoryKeyboard() tgbotapi.ReplyKeyboardMarkup {
	options := make([]string, 0, len(model.TaskCategories)+1)
	for _, c := range model.TaskCategories {
		options = append(options, string(c))
	}
	return optionsKeyboard(append(options, btnSkip))
}

func subjectKeyboard(subjects []model.Subject) tgbotapi.ReplyKeyboardMarkup {
	options := make([]string, 0, len(subjects)+1)
	for _, subject := range subjects {
		options = append(options, subject.Name)
	}
	return optionsKeyboard(append(options, personalSubject))
}

func isSkipInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == "-" || value == strings.ToLower(btnSkip) || value == "пропустить" || value == "skip"
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "подтвердить" || value == "да"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "отмена"
}

func isCancelDialogInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancelDialog) || value == "отменить ввод"
}
