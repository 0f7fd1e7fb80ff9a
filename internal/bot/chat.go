package bot

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"study-companion/internal/ai"
	"study-companion/internal/service"
)

const (
	maxImageBytes = 5 << 20
	maxFileBytes  = 10 << 20
	maxTextBytes  = 200 << 10
)

// userError is shown to the user as is.
type userError string

func (e userError) Error() string { return string(e) }

// handleChat sends the message, with an optional photo, to the assistant.
func (b *Bot) handleChat(ctx context.Context, msg *tgbotapi.Message) error {
	if ok, err := b.requireProfile(msg.Chat.ID); !ok {
		return err
	}

	text := strings.TrimSpace(msg.Text)
	var attachments []ai.Attachment
	if len(msg.Photo) > 0 {
		text = strings.TrimSpace(msg.Caption)
		// The last size is the largest one.
		photo := msg.Photo[len(msg.Photo)-1]
		data, err := b.download(ctx, photo.FileID, maxImageBytes)
		if err != nil {
			log.Printf("download photo: %v", err)
			return b.sendText(msg.Chat.ID, "Не удалось загрузить фото.")
		}
		attachments = append(attachments, ai.Attachment{Kind: ai.AttachmentImage, Name: "photo.jpg", MIMEType: "image/jpeg", Data: data})
		if text == "" {
			text = "Что на этом изображении? Помоги разобраться."
		}
	}
	return b.askAssistant(ctx, msg.Chat.ID, text, attachments)
}

// handleDocument stores a file as a resource, or passes it to the assistant
// when the caption starts with "?".
func (b *Bot) handleDocument(ctx context.Context, msg *tgbotapi.Message) error {
	doc := msg.Document
	caption := strings.TrimSpace(msg.Caption)

	if strings.HasPrefix(caption, "?") {
		if ok, err := b.requireProfile(msg.Chat.ID); !ok {
			return err
		}
		question := strings.TrimSpace(strings.TrimPrefix(caption, "?"))
		if question == "" {
			question = "Разбери этот файл."
		}
		att, err := b.documentAttachment(ctx, doc)
		if err != nil {
			return b.sendText(msg.Chat.ID, escape(err.Error()))
		}
		return b.askAssistant(ctx, msg.Chat.ID, question, []ai.Attachment{att})
	}

	if doc.FileSize > maxFileBytes {
		return b.sendText(msg.Chat.ID, "Файл слишком большой (максимум 10 МБ).")
	}
	data, err := b.download(ctx, doc.FileID, maxFileBytes)
	if err != nil {
		log.Printf("download document: %v", err)
		return b.sendText(msg.Chat.ID, "Не удалось загрузить файл.")
	}
	return b.saveResource(ctx, msg.Chat.ID, service.ResourceInput{
		Title:    caption,
		FileName: doc.FileName,
		MIMEType: doc.MimeType,
		FileData: data,
	})
}

func (b *Bot) documentAttachment(ctx context.Context, doc *tgbotapi.Document) (ai.Attachment, error) {
	switch {
	case strings.HasPrefix(doc.MimeType, "image/"):
		data, err := b.download(ctx, doc.FileID, maxImageBytes)
		if err != nil {
			log.Printf("download document: %v", err)
			return ai.Attachment{}, userError("Не удалось загрузить изображение.")
		}
		return ai.Attachment{Kind: ai.AttachmentImage, Name: doc.FileName, MIMEType: doc.MimeType, Data: data}, nil
	case isTextMIME(doc.MimeType):
		data, err := b.download(ctx, doc.FileID, maxTextBytes)
		if err != nil {
			log.Printf("download document: %v", err)
			return ai.Attachment{}, userError("Не удалось загрузить файл (текст до 200 КБ).")
		}
		if !utf8.Valid(data) {
			return ai.Attachment{}, userError("Файл не похож на текст в UTF-8.")
		}
		return ai.Attachment{Kind: ai.AttachmentText, Name: doc.FileName, MIMEType: doc.MimeType, Text: string(data)}, nil
	default:
		return ai.Attachment{}, userError("Ассистент понимает только изображения и текстовые файлы.")
	}
}

func (b *Bot) askAssistant(ctx context.Context, chatID int64, text string, attachments []ai.Attachment) error {
	b.typing(chatID)
	history := append(b.history(chatID), ai.ChatMessage{Role: ai.RoleUser, Content: text})
	result, err := b.chat.Send(ctx, history, attachments)
	if err != nil {
		log.Printf("chat: %v", err)
		return b.sendText(chatID, fmt.Sprintf("⚠️ Ассистент недоступен: %s", escape(err.Error())))
	}
	b.setHistory(chatID, append(history, ai.ChatMessage{Role: ai.RoleAssistant, Content: result.Reply}))

	var builder strings.Builder
	builder.WriteString(escape(result.Reply))
	if result.TasksAdded > 0 {
		builder.WriteString(fmt.Sprintf("\n\n🗓 Добавлено задач: %d — /tasks", result.TasksAdded))
	}
	for _, res := range result.ResourcesAdded {
		builder.WriteString(fmt.Sprintf("\n📎 Сохранена заметка «%s»", escape(res.Title)))
	}
	if len(result.Rejected) > 0 {
		builder.WriteString("\n⚠️ Часть действий ассистента отклонена.")
	}
	reply := strings.TrimSpace(builder.String())
	if reply == "" {
		reply = "🤖 …"
	}
	return b.sendText(chatID, reply)
}

// download fetches a Telegram file, refusing anything larger than limit.
func (b *Bot) download(ctx context.Context, fileID string, limit int64) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("file exceeds %d bytes", limit)
	}
	return data, nil
}

func isTextMIME(mime string) bool {
	switch {
	case strings.HasPrefix(mime, "text/"):
		return true
	case mime == "application/json", mime == "application/xml", mime == "application/x-yaml":
		return true
	default:
		return false
	}
}
