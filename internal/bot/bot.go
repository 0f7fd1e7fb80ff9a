package bot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-companion/internal/ai"
	"study-companion/internal/model"
	"study-companion/internal/repository"
	"study-companion/internal/service"
)

const (
	cbTogglePrefix        = "toggle:"
	cbDeleteSubjectPrefix = "delsubj:"
	cbDeleteResPrefix     = "delres:"
)

const (
	btnSkip         = "⏭️ Пропустить"
	btnConfirm      = "✅ Подтвердить"
	btnCancel       = "↩️ Отмена"
	btnCancelDialog = "⏪ Отменить ввод"
	menuLabelTasks  = "📋 Задачи"
	menuLabelNew    = "➕ Новая задача"
	menuLabelSubj   = "📚 Предметы"
	menuLabelStats  = "📊 Прогресс"
	menuLabelFocus  = "🍅 Фокус"
	menuLabelHelp   = "ℹ️ Помощь"
)

type confirmationAction int

const (
	actionDeleteSubject confirmationAction = iota
	actionDeleteResource
)

type confirmationRequest struct {
	targetID string
	title    string
	action   confirmationAction
}

// Bot aggregates Telegram API with services.
type Bot struct {
	api        *tgbotapi.BotAPI
	owners     *repository.OwnerRepository
	state      *service.StateService
	assistant  *service.AssistantService
	chat       *service.ChatService
	timers     *service.TimerService
	reminders  *service.ReminderService
	httpClient *http.Client

	conversations map[int64]*conversationState
	confirmations map[int64]confirmationRequest
	histories     map[int64][]ai.ChatMessage
	mu            sync.Mutex
}

func New(token string, owners *repository.OwnerRepository, state *service.StateService, assistant *service.AssistantService, chat *service.ChatService, timers *service.TimerService, reminders *service.ReminderService) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Printf("[info] bot authorized on account %s", api.Self.UserName)

	b := &Bot{
		api:           api,
		owners:        owners,
		state:         state,
		assistant:     assistant,
		chat:          chat,
		timers:        timers,
		reminders:     reminders,
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		conversations: make(map[int64]*conversationState),
		confirmations: make(map[int64]confirmationRequest),
		histories:     make(map[int64][]ai.ChatMessage),
	}
	timers.OnComplete(b.notifySession)
	return b, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	log.Println("[info] start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				log.Printf("handle callback: %v", err)
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				log.Printf("handle message: %v", err)
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}
	if ok, err := b.ensureOwner(ctx, msg.Chat.ID, msg.From); !ok {
		return err
	}

	if !msg.IsCommand() && isCancelDialogInput(msg.Text) {
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	}

	if !msg.IsCommand() {
		if handled, err := b.handleMenuAlias(ctx, msg); handled {
			return err
		}
	}

	if msg.IsCommand() {
		log.Printf("[info] command from %d: /%s", msg.From.ID, msg.Command())
		return b.handleCommand(ctx, msg)
	}

	if pending, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, pending)
	}

	if b.hasConversation(msg.From.ID) {
		log.Printf("[info] conversation step %d from %d", b.getConversation(msg.From.ID).stage, msg.From.ID)
		return b.handleConversation(ctx, msg)
	}

	switch {
	case msg.Document != nil:
		return b.handleDocument(ctx, msg)
	case len(msg.Photo) > 0:
		return b.handleChat(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		return b.handleChat(ctx, msg)
	default:
		return b.sendText(msg.Chat.ID, "Я пока не понял сообщение. Загляни в /help.")
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(msg)
	case "help":
		return b.handleHelp(msg)
	case "profile":
		return b.handleProfile(msg)
	case "setprofile":
		return b.startProfileConversation(msg)
	case "apikey":
		return b.handleAPIKey(ctx, msg)
	case "models":
		return b.handleModels(ctx, msg)
	case "model":
		return b.handleModel(ctx, msg)
	case "subjects":
		return b.handleSubjects(msg)
	case "addsubject":
		return b.startSubjectConversation(msg)
	case "tasks":
		return b.handleTasks(msg)
	case "newtask":
		return b.startTaskConversation(msg)
	case "plan":
		return b.handlePlan(ctx, msg)
	case "checkin":
		return b.handleCheckIn(ctx, msg)
	case "mood":
		return b.handleMood(ctx, msg)
	case "focus":
		return b.handleTimer(msg, model.SessionFocus)
	case "break":
		return b.handleTimer(msg, model.SessionBreak)
	case "stop":
		return b.handleStopTimer(msg)
	case "resources":
		return b.handleResources(msg)
	case "note":
		return b.handleNote(ctx, msg)
	case "link":
		return b.handleLink(ctx, msg)
	case "guides":
		return b.handleGuides(ctx, msg)
	case "insight":
		return b.handleInsight(ctx, msg)
	case "stats":
		return b.handleStats(msg)
	case "report":
		return b.sendText(msg.Chat.ID, b.reminders.DailySummary(time.Now()))
	case "reset":
		b.clearHistory(msg.Chat.ID)
		return b.sendText(msg.Chat.ID, "🧹 История диалога с ассистентом очищена.")
	case "cancel":
		b.clearConversation(msg.From.ID)
		b.clearConfirmation(msg.From.ID)
		return b.sendText(msg.Chat.ID, "⏪ Ввод отменён.")
	default:
		return b.sendText(msg.Chat.ID, "Команда не поддерживается. Загляни в /help.")
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil {
		return nil
	}
	if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
		log.Printf("callback ack: %v", err)
	}
	if ok, err := b.ensureOwner(ctx, cb.Message.Chat.ID, cb.From); !ok {
		return err
	}

	data := cb.Data
	chatID := cb.Message.Chat.ID
	switch {
	case strings.HasPrefix(data, cbTogglePrefix):
		log.Printf("[info] callback toggle user=%d task=%s", cb.From.ID, strings.TrimPrefix(data, cbTogglePrefix))
		return b.toggleTaskAndRefresh(ctx, chatID, strings.TrimPrefix(data, cbTogglePrefix))
	case strings.HasPrefix(data, cbDeleteSubjectPrefix):
		id := strings.TrimPrefix(data, cbDeleteSubjectPrefix)
		subject, ok := b.state.Snapshot().FindSubject(id)
		if !ok {
			return b.sendText(chatID, "Предмет не найден.")
		}
		b.setConfirmation(cb.From.ID, confirmationRequest{targetID: id, title: subject.Name, action: actionDeleteSubject})
		text := fmt.Sprintf("Удалить предмет «%s» вместе с его задачами и материалами?", escape(subject.Name))
		return b.sendWithReplyMarkup(chatID, text, confirmKeyboard())
	case strings.HasPrefix(data, cbDeleteResPrefix):
		id := strings.TrimPrefix(data, cbDeleteResPrefix)
		title := ""
		for _, res := range b.state.Snapshot().Resources {
			if res.ID == id {
				title = res.Title
			}
		}
		if title == "" {
			return b.sendText(chatID, "Материал не найден.")
		}
		b.setConfirmation(cb.From.ID, confirmationRequest{targetID: id, title: title, action: actionDeleteResource})
		return b.sendWithReplyMarkup(chatID, fmt.Sprintf("Удалить материал «%s»?", escape(title)), confirmKeyboard())
	default:
		return nil
	}
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, req confirmationRequest) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		var err error
		if req.action == actionDeleteSubject {
			err = b.state.DeleteSubject(ctx, req.targetID)
		} else {
			err = b.state.DeleteResource(ctx, req.targetID)
		}
		if errors.Is(err, service.ErrNotFound) {
			return b.sendText(msg.Chat.ID, "Уже удалено.")
		}
		if err != nil {
			return b.sendText(msg.Chat.ID, fmt.Sprintf("Ошибка: %s", escape(err.Error())))
		}
		log.Printf("[info] deleted %s user=%d", req.targetID, msg.From.ID)
		return b.sendText(msg.Chat.ID, fmt.Sprintf("🗑 «%s» удалено.", escape(req.title)))
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendMenuPlaceholder(msg.Chat.ID)
	default:
		return b.sendWithReplyMarkup(msg.Chat.ID, "Подтверди или отмени удаление.", confirmKeyboard())
	}
}

// ensureOwner binds the first chat to the state and refuses every other one.
func (b *Bot) ensureOwner(ctx context.Context, chatID int64, from *tgbotapi.User) (bool, error) {
	_, err := b.owners.Claim(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
	if errors.Is(err, repository.ErrChatNotOwner) {
		log.Printf("[info] refused chat %d", from.ID)
		return false, b.sendText(chatID, "🔒 Этот бот уже привязан к другому пользователю.")
	}
	if err != nil {
		return false, fmt.Errorf("claim owner: %w", err)
	}
	return true, nil
}

// SendDailyReports sends the digest to every owner chat.
func (b *Bot) SendDailyReports(ctx context.Context) error {
	return b.broadcast(ctx, b.reminders.DailySummary(time.Now()))
}

// SendMoodReminders asks for today's mood unless it is logged already.
func (b *Bot) SendMoodReminders(ctx context.Context) error {
	text := b.reminders.MoodReminder(time.Now())
	if text == "" {
		return nil
	}
	return b.broadcast(ctx, text)
}

func (b *Bot) broadcast(ctx context.Context, text string) error {
	owners, err := b.owners.ListAll(ctx)
	if err != nil {
		return err
	}
	for _, owner := range owners {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := b.sendText(owner.TelegramID, text); err != nil {
			log.Printf("send to %d: %v", owner.TelegramID, err)
		}
	}
	return nil
}

func (b *Bot) notifySession(chatID int64, session model.StudySession) {
	var text string
	if session.Type == model.SessionFocus {
		text = fmt.Sprintf("⏰ Фокус-сессия завершена: %d мин. +%d очков.\nОтдохни: /break", session.DurationMinutes, service.SessionPoints(session))
	} else {
		text = "☕ Перерыв окончен. Снова в бой: /focus"
	}
	if err := b.sendText(chatID, text); err != nil {
		log.Printf("notify session: %v", err)
	}
}

func (b *Bot) sendText(chatID int64, text string) error {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		msg := tgbotapi.NewMessage(chatID, chunk)
		msg.ParseMode = tgbotapi.ModeHTML
		msg.ReplyMarkup = mainMenuKeyboard()
		if _, err := b.api.Send(msg); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bot) sendWithReplyMarkup(chatID int64, text string, markup interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) sendMenuPlaceholder(chatID int64) error {
	return b.sendText(chatID, "🔹 Главное меню")
}

func (b *Bot) getConfirmation(userID int64) (confirmationRequest, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	req, ok := b.confirmations[userID]
	return req, ok
}

func (b *Bot) setConfirmation(userID int64, req confirmationRequest) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = req
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func (b *Bot) setConversation(userID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[userID] = state
}

func (b *Bot) getConversation(userID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[userID]
}

func (b *Bot) hasConversation(userID int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.conversations[userID]
	return ok
}

func (b *Bot) clearConversation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, userID)
}

func (b *Bot) history(chatID int64) []ai.ChatMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]ai.ChatMessage(nil), b.histories[chatID]...)
}

func (b *Bot) setHistory(chatID int64, history []ai.ChatMessage) {
	if len(history) > service.MaxChatHistory {
		history = history[len(history)-service.MaxChatHistory:]
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.histories[chatID] = history
}

func (b *Bot) clearHistory(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.histories, chatID)
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	text := strings.TrimSpace(strings.ToLower(msg.Text))
	switch text {
	case strings.ToLower(menuLabelTasks):
		return true, b.handleTasks(msg)
	case strings.ToLower(menuLabelNew):
		return true, b.startTaskConversation(msg)
	case strings.ToLower(menuLabelSubj):
		return true, b.handleSubjects(msg)
	case strings.ToLower(menuLabelStats):
		return true, b.handleStats(msg)
	case strings.ToLower(menuLabelFocus):
		return true, b.handleTimer(msg, model.SessionFocus)
	case strings.ToLower(menuLabelHelp):
		return true, b.handleHelp(msg)
	default:
		return false, nil
	}
}
