// Package ai defines the capability contract shared by the language-model
// providers and the parsing helpers that turn model output into domain types.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"study-companion/internal/model"
)

var (
	// ErrNotConfigured is returned when no provider credential is available.
	ErrNotConfigured = errors.New("ai provider is not configured")
	// ErrMalformedResponse is returned when model output holds no usable JSON.
	ErrMalformedResponse = errors.New("malformed ai response")
)

// Assistant is implemented by every provider backend.
type Assistant interface {
	Name() string
	GenerateSchedule(ctx context.Context, subjects []model.Subject, today time.Time) ([]TaskDraft, error)
	GenerateResourceGuides(ctx context.Context, profile model.Profile, subjects []model.Subject) ([]Guide, error)
	AnalyzeWellness(ctx context.Context, snapshot WellnessSnapshot) (model.WellnessInsight, error)
	Chat(ctx context.Context, req ChatRequest) (ChatReply, error)
}

// TaskDraft is a task proposed by a model before it is completed into a StudyTask.
type TaskDraft struct {
	SubjectID     string     `json:"subjectId"`
	Task          string     `json:"task"`
	ScheduledDate string     `json:"scheduledDate"`
	StartTime     string     `json:"startTime,omitempty"`
	Category      string     `json:"category"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
}

// Difficulty keeps the difficulty a model sent. Numbers and strings both
// decode; any other JSON value decodes to empty and later falls back to the default.
type Difficulty string

func (d *Difficulty) UnmarshalJSON(data []byte) error {
	var n json.Number
	if err := json.Unmarshal(data, &n); err == nil {
		*d = Difficulty(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*d = Difficulty(s)
		return nil
	}
	*d = ""
	return nil
}

// NoteDraft is a note proposed by the chat tool.
type NoteDraft struct {
	SubjectID string `json:"subjectId,omitempty"`
	Title     string `json:"title"`
	Content   string `json:"content,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Guide is one study resource recommendation.
type Guide struct {
	Title  string `json:"title"`
	Advice string `json:"advice"`
}

// Chat roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a conversation.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// AttachmentKind tells providers how to inline an attachment.
type AttachmentKind string

const (
	AttachmentImage AttachmentKind = "image"
	AttachmentText  AttachmentKind = "text"
)

// Attachment is extra context sent with the latest user message.
type Attachment struct {
	Kind     AttachmentKind `json:"kind"`
	Name     string         `json:"name,omitempty"`
	MIMEType string         `json:"mimeType,omitempty"`
	Data     []byte         `json:"data,omitempty"`
	Text     string         `json:"text,omitempty"`
}

// ChatRequest carries everything a provider needs for one chat turn.
type ChatRequest struct {
	Profile     model.Profile
	Context     string
	History     []ChatMessage
	Attachments []Attachment
	Today       time.Time
}

// ToolCall is a raw function invocation returned by a model.
type ToolCall struct {
	Name      string
	Arguments string
}

// ChatReply is the outcome of a chat turn.
type ChatReply struct {
	Text      string
	ToolCalls []ToolCall
}

// ProviderError describes a failed provider call without leaking payloads.
type ProviderError struct {
	Provider string
	Code     string
	Status   int
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d)", e.Provider, e.Code, e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Code)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// StatusBucket maps an HTTP status onto an abstract error code.
func StatusBucket(status int) string {
	switch {
	case status == 401 || status == 403:
		return "auth_error"
	case status == 402:
		return "payment_required"
	case status == 404:
		return "not_found"
	case status == 429:
		return "rate_limited"
	case status >= 400 && status < 500:
		return "client_error"
	case status >= 500:
		return "server_error"
	default:
		return "unexpected_status"
	}
}
