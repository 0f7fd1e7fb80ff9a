package bot

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-companion/internal/model"
	"study-companion/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageProfileName
	stageProfileAge
	stageProfileGender
	stageProfileBlood
	stageProfileStream
	stageProfileYear
	stageSubjectName
	stageSubjectExam
	stageSubjectPriority
	stageTaskSubject
	stageTaskText
	stageTaskDate
	stageTaskTime
	stageTaskCategory
)

type conversationState struct {
	stage   conversationStage
	profile model.Profile
	subject service.SubjectInput
	task    service.TaskInput
}

var (
	genderOptions = []string{"Male", "Female", "Other"}
	bloodOptions  = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}
	yearOptions   = []string{"1st", "2nd", "3rd", "4th", "Graduate"}
)

func (b *Bot) startProfileConversation(msg *tgbotapi.Message) error {
	profile := b.state.Snapshot().Profile
	b.setConversation(msg.From.ID, &conversationState{stage: stageProfileName, profile: profile})
	return b.sendWithReplyMarkup(msg.Chat.ID, "👤 Заполним профиль.\n<b>Шаг 1:</b> как тебя зовут?", cancelKeyboard())
}

func (b *Bot) startSubjectConversation(msg *tgbotapi.Message) error {
	b.setConversation(msg.From.ID, &conversationState{stage: stageSubjectName})
	return b.sendWithReplyMarkup(msg.Chat.ID, "📚 Новый предмет.\n<b>Шаг 1:</b> название?", cancelKeyboard())
}

func (b *Bot) startTaskConversation(msg *tgbotapi.Message) error {
	state := b.state.Snapshot()
	b.setConversation(msg.From.ID, &conversationState{stage: stageTaskSubject})
	return b.sendWithReplyMarkup(msg.Chat.ID, "🆕 Новая задача.\n<b>Шаг 1:</b> выбери предмет.", subjectKeyboard(state.Subjects))
}

func (b *Bot) handleConversation(ctx context.Context, msg *tgbotapi.Message) error {
	conv := b.getConversation(msg.From.ID)
	if conv == nil {
		return nil
	}

	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID
	switch conv.stage {
	case stageProfileName:
		if text == "" {
			return b.sendText(chatID, "Имя не может быть пустым.")
		}
		conv.profile.Name = text
		conv.stage = stageProfileAge
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 2:</b> сколько тебе лет?", cancelKeyboard())
	case stageProfileAge:
		age, err := strconv.Atoi(text)
		if err != nil || age < 1 || age > 120 {
			return b.sendText(chatID, "Возраст должен быть числом от 1 до 120.")
		}
		conv.profile.Age = age
		conv.stage = stageProfileGender
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 3:</b> пол?", optionsKeyboard(genderOptions))
	case stageProfileGender:
		conv.profile.Gender = text
		conv.stage = stageProfileBlood
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 4:</b> группа крови?", optionsKeyboard(bloodOptions))
	case stageProfileBlood:
		conv.profile.BloodType = text
		conv.stage = stageProfileStream
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 5:</b> направление обучения (например, Engineering)?", cancelKeyboard())
	case stageProfileStream:
		conv.profile.Stream = text
		conv.stage = stageProfileYear
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 6:</b> курс?", optionsKeyboard(yearOptions))
	case stageProfileYear:
		if !isSkipInput(text) {
			conv.profile.Year = text
		}
		b.clearConversation(msg.From.ID)
		if err := b.state.UpdateProfile(ctx, conv.profile); err != nil {
			return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить профиль: %s", escape(err.Error())))
		}
		log.Printf("[info] profile updated user=%d", msg.From.ID)
		return b.sendText(chatID, formatProfile(b.state.Snapshot()))

	case stageSubjectName:
		if text == "" {
			return b.sendText(chatID, "Название не может быть пустым.")
		}
		conv.subject.Name = text
		conv.stage = stageSubjectExam
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 2:</b> дата экзамена в формате <code>2025-06-15</code>.", cancelKeyboard())
	case stageSubjectExam:
		if _, err := time.Parse(service.DateKey, text); err != nil {
			return b.sendText(chatID, "Не могу распознать дату. Используй формат <code>2025-06-15</code>.")
		}
		conv.subject.ExamDate = text
		conv.stage = stageSubjectPriority
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 3:</b> приоритет?", priorityKeyboard())
	case stageSubjectPriority:
		conv.subject.Priority = model.ParsePriority(text)
		b.clearConversation(msg.From.ID)
		subject, err := b.state.AddSubject(ctx, conv.subject)
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить предмет: %s", escape(err.Error())))
		}
		log.Printf("[info] subject created id=%s", subject.ID)
		return b.sendText(chatID, fmt.Sprintf("✅ Предмет сохранён (+%d очков)\n%s", service.PointsSubject, formatSubject(subject, time.Now())))

	case stageTaskSubject:
		subjectID := model.GlobalSubjectID
		if text != personalSubject {
			subject, ok := findSubjectByName(b.state.Snapshot(), text)
			if !ok {
				return b.sendWithReplyMarkup(chatID, "Выбери предмет кнопкой.", subjectKeyboard(b.state.Snapshot().Subjects))
			}
			subjectID = subject.ID
		}
		conv.task.SubjectID = subjectID
		conv.stage = stageTaskText
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 2:</b> что нужно сделать?", cancelKeyboard())
	case stageTaskText:
		if text == "" {
			return b.sendText(chatID, "Текст задачи не может быть пустым.")
		}
		conv.task.Task = text
		conv.stage = stageTaskDate
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 3:</b> дата в формате <code>2025-05-01</code> (или «Пропустить» — сегодня).", skipKeyboard())
	case stageTaskDate:
		if !isSkipInput(text) {
			if _, err := time.Parse(service.DateKey, text); err != nil {
				return b.sendWithReplyMarkup(chatID, "Не могу распознать дату. Формат <code>2025-05-01</code> или «Пропустить».", skipKeyboard())
			}
			conv.task.ScheduledDate = text
		}
		conv.stage = stageTaskTime
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 4:</b> время начала <code>HH:MM</code> (или «Пропустить» — 09:00).", skipKeyboard())
	case stageTaskTime:
		if !isSkipInput(text) {
			if _, err := time.Parse("15:04", text); err != nil {
				return b.sendWithReplyMarkup(chatID, "Время в формате <code>18:30</code> или «Пропустить».", skipKeyboard())
			}
			conv.task.StartTime = text
		}
		conv.stage = stageTaskCategory
		return b.sendWithReplyMarkup(chatID, "<b>Шаг 5:</b> тип задачи?", categoryKeyboard())
	case stageTaskCategory:
		if !isSkipInput(text) {
			category := model.TaskCategory(strings.ToLower(text))
			if !category.Valid() {
				return b.sendWithReplyMarkup(chatID, "Выбери тип кнопкой.", categoryKeyboard())
			}
			conv.task.Category = category
		}
		b.clearConversation(msg.From.ID)
		task, err := b.state.CreateTask(ctx, conv.task)
		if err != nil {
			return b.sendText(chatID, fmt.Sprintf("Не удалось сохранить задачу: %s", escape(err.Error())))
		}
		log.Printf("[info] task created id=%s", task.ID)
		state := b.state.Snapshot()
		if err := b.sendText(chatID, "✅ <b>Задача сохранена</b>\n"+service.FormatTask(task, state, time.Now())); err != nil {
			return err
		}
		return b.sendTaskList(chatID, task.ScheduledDate)

	default:
		b.clearConversation(msg.From.ID)
		return b.sendText(chatID, "Диалог сброшен. Попробуй ещё раз.")
	}
}
