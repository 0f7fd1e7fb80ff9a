// Package openrouter implements the assistant over OpenRouter's
// OpenAI-compatible chat completions endpoint.
package openrouter

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"study-companion/internal/ai"
	"study-companion/internal/model"
)

const (
	DefaultBaseURL = "https://openrouter.ai/api/v1"
	providerName   = "openrouter"
)

// Config configures a Provider.
type Config struct {
	APIKey     string
	Model      string
	BaseURL    string
	Referer    string
	Title      string
	HTTPClient *http.Client
}

// Provider talks to OpenRouter. Each call is a single attempt.
type Provider struct {
	client *openai.Client
	model  string
}

func New(cfg Config) (*Provider, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, ai.ErrNotConfigured
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = model.DefaultModel
	}

	base := http.DefaultTransport
	if cfg.HTTPClient != nil && cfg.HTTPClient.Transport != nil {
		base = cfg.HTTPClient.Transport
	}
	httpClient := &http.Client{Transport: &headerTransport{base: base, referer: cfg.Referer, title: cfg.Title}}
	if cfg.HTTPClient != nil {
		httpClient.Timeout = cfg.HTTPClient.Timeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = httpClient

	return &Provider{client: openai.NewClientWithConfig(clientCfg), model: cfg.Model}, nil
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) GenerateSchedule(ctx context.Context, subjects []model.Subject, today time.Time) ([]ai.TaskDraft, error) {
	text, err := p.completeJSON(ctx, ai.SchedulePrompt(subjects, today))
	if err != nil {
		return nil, err
	}
	return ai.ParseSchedule(text)
}

func (p *Provider) GenerateResourceGuides(ctx context.Context, profile model.Profile, subjects []model.Subject) ([]ai.Guide, error) {
	text, err := p.completeJSON(ctx, ai.GuidesPrompt(profile, subjects))
	if err != nil {
		return nil, err
	}
	return ai.ParseGuides(text)
}

func (p *Provider) AnalyzeWellness(ctx context.Context, snapshot ai.WellnessSnapshot) (model.WellnessInsight, error) {
	text, err := p.completeJSON(ctx, ai.WellnessPrompt(snapshot))
	if err != nil {
		return model.WellnessInsight{}, err
	}
	return ai.ParseInsight(text)
}

func (p *Provider) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatReply, error) {
	messages := []openai.ChatCompletionMessage{{
		Role:    openai.ChatMessageRoleSystem,
		Content: ai.ChatSystemPrompt(req.Profile, req.Context, req.Today),
	}}
	messages = append(messages, historyMessages(req.History, req.Attachments)...)

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:      p.model,
		Messages:   messages,
		Tools:      chatTools(),
		ToolChoice: "auto",
	})
	if err != nil {
		return ai.ChatReply{}, wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return ai.ChatReply{}, &ai.ProviderError{Provider: providerName, Code: "empty_response"}
	}

	msg := resp.Choices[0].Message
	reply := ai.ChatReply{Text: strings.TrimSpace(msg.Content)}
	for _, call := range msg.ToolCalls {
		if call.Type != "" && call.Type != openai.ToolTypeFunction {
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, ai.ToolCall{Name: call.Function.Name, Arguments: call.Function.Arguments})
	}
	return reply, nil
}

// ListModels returns the models offered to this key.
func (p *Provider) ListModels(ctx context.Context) ([]model.ModelInfo, error) {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	models := make([]model.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		if m.ID == "" {
			continue
		}
		models = append(models, model.ModelInfo{ID: m.ID, Name: m.ID})
	}
	return models, nil
}

func (p *Provider) completeJSON(ctx context.Context, prompt ai.Prompt) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt.System + ai.JSONOnlySuffix},
			{Role: openai.ChatMessageRoleUser, Content: prompt.User},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
	})
	if err != nil {
		return "", wrapError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &ai.ProviderError{Provider: providerName, Code: "empty_response"}
	}
	return resp.Choices[0].Message.Content, nil
}

func historyMessages(history []ai.ChatMessage, attachments []ai.Attachment) []openai.ChatCompletionMessage {
	lastUser := -1
	for i, msg := range history {
		if msg.Role == ai.RoleUser {
			lastUser = i
		}
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for i, msg := range history {
		role := openai.ChatMessageRoleUser
		if msg.Role == ai.RoleAssistant {
			role = openai.ChatMessageRoleAssistant
		}
		if i != lastUser || len(attachments) == 0 {
			messages = append(messages, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
			continue
		}
		messages = append(messages, attachmentMessage(msg.Content, attachments))
	}
	return messages
}

func attachmentMessage(text string, attachments []ai.Attachment) openai.ChatCompletionMessage {
	if extra := ai.RenderAttachmentText(attachments); extra != "" {
		text = text + "\n\n" + extra
	}
	parts := []openai.ChatMessagePart{{Type: openai.ChatMessagePartTypeText, Text: text}}
	for _, att := range attachments {
		if att.Kind != ai.AttachmentImage || len(att.Data) == 0 {
			continue
		}
		mime := att.MIMEType
		if mime == "" {
			mime = "image/jpeg"
		}
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL:    "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(att.Data),
				Detail: openai.ImageURLDetailAuto,
			},
		})
	}
	if len(parts) == 1 {
		return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: text}
	}
	return openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, MultiContent: parts}
}

func chatTools() []openai.Tool {
	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ai.ToolCreateSchedule,
				Description: ai.ToolDescriptions[ai.ToolCreateSchedule],
				Parameters:  ai.ScheduleToolParameters(),
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        ai.ToolCreateNote,
				Description: ai.ToolDescriptions[ai.ToolCreateNote],
				Parameters:  ai.NoteToolParameters(),
			},
		},
	}
}

func wrapError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &ai.ProviderError{Provider: providerName, Code: ai.StatusBucket(apiErr.HTTPStatusCode), Status: apiErr.HTTPStatusCode, Err: err}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &ai.ProviderError{Provider: providerName, Code: ai.StatusBucket(reqErr.HTTPStatusCode), Status: reqErr.HTTPStatusCode, Err: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ai.ProviderError{Provider: providerName, Code: "timeout", Err: err}
	}
	return &ai.ProviderError{Provider: providerName, Code: "network_error", Err: fmt.Errorf("chat completion: %w", err)}
}

type headerTransport struct {
	base    http.RoundTripper
	referer string
	title   string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if t.referer != "" {
		req.Header.Set("HTTP-Referer", t.referer)
	}
	if t.title != "" {
		req.Header.Set("X-Title", t.title)
	}
	return t.base.RoundTrip(req)
}
