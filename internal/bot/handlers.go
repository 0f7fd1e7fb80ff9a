package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-companion/internal/ai"
	"study-companion/internal/model"
	"study-companion/internal/service"
)

const helpText = "ℹ️ <b>Команды</b>\n" +
	"• /setprofile — заполнить профиль\n" +
	"• /apikey &lt;ключ&gt; — ключ OpenRouter, /models и /model &lt;id&gt; — выбор модели\n" +
	"• /addsubject, /subjects — предметы и экзамены\n" +
	"• /newtask, /tasks [дата] — задачи, /plan — план от ассистента\n" +
	"• /checkin — ежедневная отметка\n" +
	"• /mood mood=4 stress=2 sleep=7 | заметка — записать самочувствие\n" +
	"• /focus [предмет], /break, /stop — таймер\n" +
	"• /note Заголовок | текст, /link &lt;url&gt; [название], /resources — материалы\n" +
	"• /guides — советы по учёбе, /insight [refresh] — анализ самочувствия\n" +
	"• /stats — прогресс, /report — отчёт за день\n" +
	"• /reset — очистить диалог, /cancel — отменить ввод\n\n" +
	"Любое другое сообщение или фото уходит ассистенту. Файл без подписи сохраняется в материалы, " +
	"а файл с подписью, начинающейся с «?», отправляется ассистенту."

func (b *Bot) handleStart(msg *tgbotapi.Message) error {
	name := strings.TrimSpace(msg.From.FirstName)
	if name == "" {
		name = "друг"
	}
	text := fmt.Sprintf("👋 Привет, %s!\n<b>Я помогу планировать учёбу и следить за самочувствием.</b>\n\n%s", escape(name), helpText)
	if !b.state.ProfileComplete() {
		text += "\n\n⚠️ Ассистент станет доступен после /setprofile и /apikey."
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleHelp(msg *tgbotapi.Message) error {
	return b.sendText(msg.Chat.ID, helpText)
}

func (b *Bot) handleProfile(msg *tgbotapi.Message) error {
	state := b.state.Snapshot()
	return b.sendText(msg.Chat.ID, formatProfile(state))
}

func (b *Bot) handleAPIKey(ctx context.Context, msg *tgbotapi.Message) error {
	key := strings.TrimSpace(msg.CommandArguments())
	// The key must not stay in the chat history.
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(msg.Chat.ID, msg.MessageID)); err != nil {
		log.Printf("delete key message: %v", err)
	}
	if _, err := b.state.EditAIConfig(ctx, func(cfg *model.AIConfig) {
		cfg.APIKey = key
	}); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сохранить ключ: %s", escape(err.Error())))
	}
	if key == "" {
		return b.sendText(msg.Chat.ID, "🔑 Ключ удалён.")
	}
	return b.sendText(msg.Chat.ID, "🔑 Ключ сохранён. Посмотреть модели: /models")
}

func (b *Bot) handleModels(ctx context.Context, msg *tgbotapi.Message) error {
	models, err := b.assistant.ListModels(ctx, b.state.Snapshot().AIConfig)
	if errors.Is(err, ai.ErrNotConfigured) {
		return b.sendText(msg.Chat.ID, "Сначала укажи ключ: /apikey &lt;ключ&gt;")
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось получить модели: %s", escape(err.Error())))
	}
	cfg, err := b.state.EditAIConfig(ctx, func(cfg *model.AIConfig) {
		cfg.AvailableModels = models
	})
	if err != nil {
		log.Printf("store models: %v", err)
		cfg = b.state.Snapshot().AIConfig
	}
	return b.sendText(msg.Chat.ID, formatModels(models, cfg.SelectedModel, 30))
}

func (b *Bot) handleModel(ctx context.Context, msg *tgbotapi.Message) error {
	id := strings.TrimSpace(msg.CommandArguments())
	cfg := b.state.Snapshot().AIConfig
	if id == "" {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Текущая модель: <code>%s</code>", escape(cfg.SelectedModel)))
	}
	if len(cfg.AvailableModels) > 0 && !hasModel(cfg.AvailableModels, id) {
		return b.sendText(msg.Chat.ID, "Такой модели нет в списке. Обнови его: /models")
	}
	if _, err := b.state.EditAIConfig(ctx, func(cfg *model.AIConfig) {
		cfg.SelectedModel = id
	}); err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🤖 Модель: <code>%s</code>", escape(id)))
}

func (b *Bot) handleSubjects(msg *tgbotapi.Message) error {
	state := b.state.Snapshot()
	if len(state.Subjects) == 0 {
		return b.sendText(msg.Chat.ID, "Предметов пока нет. Добавь первый: /addsubject")
	}
	now := time.Now()
	var builder strings.Builder
	builder.WriteString("📚 <b>Предметы</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, subject := range state.Subjects {
		builder.WriteString(formatSubject(subject, now))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(subject.Name, 24), cbDeleteSubjectPrefix+subject.ID),
		))
	}
	msgOut := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	msgOut.ParseMode = tgbotapi.ModeHTML
	msgOut.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msgOut)
	return err
}

func (b *Bot) handleTasks(msg *tgbotapi.Message) error {
	date := strings.TrimSpace(msg.CommandArguments())
	if date == "" {
		date = time.Now().Format(service.DateKey)
	} else if _, err := time.Parse(service.DateKey, date); err != nil {
		return b.sendText(msg.Chat.ID, "Дата в формате <code>2025-05-01</code>.")
	}
	return b.sendTaskList(msg.Chat.ID, date)
}

func (b *Bot) sendTaskList(chatID int64, date string) error {
	state := b.state.Snapshot()
	now := time.Now()
	tasks := service.TasksForDate(state, date)
	var overdue []model.StudyTask
	if date == now.Format(service.DateKey) {
		for _, task := range service.PendingTasks(state) {
			if task.ScheduledDate < date {
				overdue = append(overdue, task)
			}
		}
	}
	if len(tasks) == 0 && len(overdue) == 0 {
		return b.sendText(chatID, fmt.Sprintf("На %s задач нет. Добавь: /newtask или попроси план: /plan", date))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("📋 <b>Задачи на %s</b>\n", date))
	builder.WriteString("Нажми на кнопку, чтобы отметить задачу.\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	appendTask := func(task model.StudyTask) {
		builder.WriteString(service.FormatTask(task, state, now))
		icon := "⬜"
		if task.Completed {
			icon = "✅"
		}
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(icon+" "+shortTitle(task.Task, 28), cbTogglePrefix+task.ID),
		))
	}
	for _, task := range tasks {
		appendTask(task)
	}
	if len(overdue) > 0 {
		builder.WriteString("\n⚠️ <b>Просрочено</b>\n")
		for _, task := range overdue {
			appendTask(task)
		}
	}

	msg := tgbotapi.NewMessage(chatID, strings.TrimSpace(builder.String()))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) toggleTaskAndRefresh(ctx context.Context, chatID int64, taskID string) error {
	task, err := b.state.ToggleTask(ctx, taskID)
	if errors.Is(err, service.ErrNotFound) {
		return b.sendText(chatID, "Задача не найдена или уже удалена.")
	}
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	log.Printf("[info] task toggled id=%s completed=%t", task.ID, task.Completed)
	if task.Completed {
		stats := b.state.Snapshot().Stats
		if err := b.sendText(chatID, fmt.Sprintf("✅ «%s» выполнено! +%d очков (всего %d).", escape(normalizeTitle(task.Task)), service.PointsTaskComplete, stats.Points)); err != nil {
			return err
		}
	}
	return b.sendTaskList(chatID, task.ScheduledDate)
}

// requireProfile tells the user how to unlock AI features.
func (b *Bot) requireProfile(chatID int64) (bool, error) {
	if b.state.ProfileComplete() {
		return true, nil
	}
	return false, b.sendText(chatID, "⚠️ Сначала заполни профиль (/setprofile) и укажи ключ (/apikey).")
}

func (b *Bot) handlePlan(ctx context.Context, msg *tgbotapi.Message) error {
	if ok, err := b.requireProfile(msg.Chat.ID); !ok {
		return err
	}
	state := b.state.Snapshot()
	if len(state.Subjects) == 0 {
		return b.sendText(msg.Chat.ID, "Для плана нужен хотя бы один предмет: /addsubject")
	}
	b.typing(msg.Chat.ID)
	tasks := b.assistant.GenerateSchedule(ctx, state)
	if len(tasks) == 0 {
		return b.sendText(msg.Chat.ID, "Не удалось составить план. Попробуй позже.")
	}
	added, err := b.state.AddTasks(ctx, tasks)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сохранить план: %s", escape(err.Error())))
	}
	log.Printf("[info] plan generated tasks=%d", added)

	state = b.state.Snapshot()
	now := time.Now()
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("🗓 <b>План готов: %d задач</b> (+%d очков)\n\n", added, added*service.PointsPerTask))
	for _, task := range tasks {
		builder.WriteString(service.FormatTask(task, state, now))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleCheckIn(ctx context.Context, msg *tgbotapi.Message) error {
	before := b.state.Snapshot().Stats
	if service.CheckedInToday(before, time.Now()) {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Сегодня отметка уже есть. Серия: %d дн. 🔥", before.Streak))
	}
	stats, err := b.state.CheckIn(ctx)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	text := fmt.Sprintf("✅ Отметка засчитана! +%d очков\n🔥 Серия: %d дн. · Уровень %d", service.PointsCheckIn, stats.Streak, stats.Level)
	if stats.Level > before.Level {
		text += "\n🎉 Новый уровень!"
	}
	return b.sendText(msg.Chat.ID, text)
}

func (b *Bot) handleMood(ctx context.Context, msg *tgbotapi.Message) error {
	entry, err := parseMoodArgs(msg.CommandArguments())
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("%s\nПример: <code>/mood mood=4 stress=2 sleep=7.5 | спокойный день</code>", escape(err.Error())))
	}
	entry, err = b.state.AddMoodEntry(ctx, entry)
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Не удалось сохранить: %s", escape(err.Error())))
	}
	log.Printf("[info] mood logged id=%s", entry.ID)
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🙂 Записано! +%d очков. Анализ самочувствия обновится автоматически: /insight", service.PointsMoodEntry))
}

func (b *Bot) handleTimer(msg *tgbotapi.Message, kind model.SessionType) error {
	subjectID := ""
	if name := strings.TrimSpace(msg.CommandArguments()); name != "" {
		subject, ok := findSubjectByName(b.state.Snapshot(), name)
		if !ok {
			return b.sendText(msg.Chat.ID, "Предмет не найден. Список: /subjects")
		}
		subjectID = subject.ID
	}
	timer, err := b.timers.Start(msg.Chat.ID, kind, subjectID)
	if errors.Is(err, service.ErrTimerRunning) {
		active, _ := b.timers.Active(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Таймер уже идёт, осталось %s. Остановить: /stop", formatDuration(active.Remaining(time.Now()))))
	}
	if err != nil {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
	}
	if kind == model.SessionBreak {
		return b.sendText(msg.Chat.ID, fmt.Sprintf("☕ Перерыв %s. Напомню, когда закончится.", formatDuration(timer.Duration)))
	}
	return b.sendText(msg.Chat.ID, fmt.Sprintf("🍅 Фокус %s начался. Остановить без записи: /stop", formatDuration(timer.Duration)))
}

func (b *Bot) handleStopTimer(msg *tgbotapi.Message) error {
	if !b.timers.Cancel(msg.Chat.ID) {
		return b.sendText(msg.Chat.ID, "Таймер не запущен.")
	}
	return b.sendText(msg.Chat.ID, "⏹ Таймер остановлен, сессия не записана.")
}

func (b *Bot) handleResources(msg *tgbotapi.Message) error {
	state := b.state.Snapshot()
	if len(state.Resources) == 0 {
		return b.sendText(msg.Chat.ID, "Материалов пока нет. Добавь: /note, /link или пришли файл.")
	}
	var builder strings.Builder
	builder.WriteString("🗂 <b>Материалы</b>\n\n")
	var buttons [][]tgbotapi.InlineKeyboardButton
	for _, res := range state.Resources {
		builder.WriteString(formatResource(res, state))
		buttons = append(buttons, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 "+shortTitle(res.Title, 24), cbDeleteResPrefix+res.ID),
		))
	}
	out := tgbotapi.NewMessage(msg.Chat.ID, strings.TrimSpace(builder.String()))
	out.ParseMode = tgbotapi.ModeHTML
	out.DisableWebPagePreview = true
	out.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(buttons...)
	_, err := b.api.Send(out)
	return err
}

func (b *Bot) handleNote(ctx context.Context, msg *tgbotapi.Message) error {
	title, body := splitNoteArgs(msg.CommandArguments())
	if title == "" {
		return b.sendText(msg.Chat.ID, "Формат: <code>/note Заголовок | текст</code>")
	}
	return b.saveResource(ctx, msg.Chat.ID, service.ResourceInput{Title: title, Notes: body})
}

func (b *Bot) handleLink(ctx context.Context, msg *tgbotapi.Message) error {
	fields := strings.Fields(msg.CommandArguments())
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "http") {
		return b.sendText(msg.Chat.ID, "Формат: <code>/link https://… название</code>")
	}
	title := strings.Join(fields[1:], " ")
	if title == "" {
		title = fields[0]
	}
	return b.saveResource(ctx, msg.Chat.ID, service.ResourceInput{Title: title, URL: fields[0]})
}

func (b *Bot) saveResource(ctx context.Context, chatID int64, input service.ResourceInput) error {
	res, err := b.state.AddResource(ctx, input)
	if err != nil {
		return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить: %s", escape(err.Error())))
	}
	log.Printf("[info] resource saved id=%s type=%s", res.ID, res.Type)
	return b.sendText(chatID, fmt.Sprintf("📎 Сохранено: «%s» (%s)", escape(res.Title), res.Type))
}

func (b *Bot) handleGuides(ctx context.Context, msg *tgbotapi.Message) error {
	if ok, err := b.requireProfile(msg.Chat.ID); !ok {
		return err
	}
	b.typing(msg.Chat.ID)
	guides := b.assistant.GenerateResourceGuides(ctx, b.state.Snapshot())
	if len(guides) == 0 {
		return b.sendText(msg.Chat.ID, "Не удалось получить советы. Попробуй позже.")
	}
	var builder strings.Builder
	builder.WriteString("🧭 <b>Советы по учёбе</b>\n\n")
	for _, guide := range guides {
		builder.WriteString(fmt.Sprintf("<b>%s</b>\n%s\n\n", escape(guide.Title), escape(guide.Advice)))
	}
	return b.sendText(msg.Chat.ID, strings.TrimSpace(builder.String()))
}

func (b *Bot) handleInsight(ctx context.Context, msg *tgbotapi.Message) error {
	if strings.TrimSpace(msg.CommandArguments()) == "refresh" {
		if ok, err := b.requireProfile(msg.Chat.ID); !ok {
			return err
		}
		b.typing(msg.Chat.ID)
		insight, err := b.state.RefreshWellness(ctx)
		if errors.Is(err, service.ErrInvalidInput) {
			return b.sendText(msg.Chat.ID, "Для анализа нужна хотя бы одна запись: /mood")
		}
		if err != nil && insight.Summary == "" {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		return b.sendText(msg.Chat.ID, formatInsight(insight))
	}

	insight := b.state.Snapshot().WellnessInsight
	if insight == nil {
		return b.sendText(msg.Chat.ID, "Анализа пока нет. Запиши настроение (/mood) и заполни профиль.")
	}
	return b.sendText(msg.Chat.ID, formatInsight(*insight))
}

func (b *Bot) handleStats(msg *tgbotapi.Message) error {
	dash := service.BuildDashboard(b.state.Snapshot(), time.Now())
	return b.sendText(msg.Chat.ID, formatDashboard(dash))
}

func (b *Bot) typing(chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.Printf("chat action: %v", err)
	}
}

func hasModel(models []model.ModelInfo, id string) bool {
	for _, m := range models {
		if m.ID == id {
			return true
		}
	}
	return false
}

func findSubjectByName(state model.AppState, name string) (model.Subject, bool) {
	for _, subject := range state.Subjects {
		if strings.EqualFold(strings.TrimSpace(subject.Name), strings.TrimSpace(name)) {
			return subject, true
		}
	}
	return model.Subject{}, false
}
