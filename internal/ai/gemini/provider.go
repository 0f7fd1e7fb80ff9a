// Package gemini implements the assistant over the Google Gen AI SDK.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"study-companion/internal/ai"
	"study-companion/internal/model"
)

const (
	DefaultModel = "gemini-2.5-flash"
	providerName = "gemini"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Provider calls Gemini models with response schemas and function declarations.
type Provider struct {
	models contentGenerator
	model  string
}

// New creates a provider for the Gemini API backend.
func New(ctx context.Context, apiKey, modelName string) (*Provider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ai.ErrNotConfigured
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return newWithGenerator(client.Models, modelName), nil
}

func newWithGenerator(models contentGenerator, modelName string) *Provider {
	if modelName == "" {
		modelName = DefaultModel
	}
	return &Provider{models: models, model: modelName}
}

func (p *Provider) Name() string { return providerName }

func (p *Provider) GenerateSchedule(ctx context.Context, subjects []model.Subject, today time.Time) ([]ai.TaskDraft, error) {
	text, err := p.generateJSON(ctx, ai.SchedulePrompt(subjects, today), scheduleSchema())
	if err != nil {
		return nil, err
	}
	return ai.ParseSchedule(text)
}

func (p *Provider) GenerateResourceGuides(ctx context.Context, profile model.Profile, subjects []model.Subject) ([]ai.Guide, error) {
	text, err := p.generateJSON(ctx, ai.GuidesPrompt(profile, subjects), guidesSchema())
	if err != nil {
		return nil, err
	}
	return ai.ParseGuides(text)
}

func (p *Provider) AnalyzeWellness(ctx context.Context, snapshot ai.WellnessSnapshot) (model.WellnessInsight, error) {
	text, err := p.generateJSON(ctx, ai.WellnessPrompt(snapshot), insightSchema())
	if err != nil {
		return model.WellnessInsight{}, err
	}
	return ai.ParseInsight(text)
}

func (p *Provider) Chat(ctx context.Context, req ai.ChatRequest) (ai.ChatReply, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(ai.ChatSystemPrompt(req.Profile, req.Context, req.Today), genai.RoleUser),
		Tools:             []*genai.Tool{{FunctionDeclarations: functionDeclarations()}},
	}

	resp, err := p.models.GenerateContent(ctx, p.model, chatContents(req.History, req.Attachments), cfg)
	if err != nil {
		return ai.ChatReply{}, wrapError(err)
	}
	if resp == nil {
		return ai.ChatReply{}, &ai.ProviderError{Provider: providerName, Code: "empty_response"}
	}

	reply := ai.ChatReply{}
	for _, call := range resp.FunctionCalls() {
		args, err := json.Marshal(call.Args)
		if err != nil {
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, ai.ToolCall{Name: call.Name, Arguments: string(args)})
	}
	reply.Text = strings.TrimSpace(responseText(resp))
	if reply.Text == "" && len(reply.ToolCalls) == 0 {
		return ai.ChatReply{}, &ai.ProviderError{Provider: providerName, Code: "empty_response"}
	}
	return reply, nil
}

func (p *Provider) generateJSON(ctx context.Context, prompt ai.Prompt, schema *genai.Schema) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(prompt.System, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    schema,
	}
	resp, err := p.models.GenerateContent(ctx, p.model, genai.Text(prompt.User), cfg)
	if err != nil {
		return "", wrapError(err)
	}
	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &ai.ProviderError{Provider: providerName, Code: "empty_response"}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String()
}

func chatContents(history []ai.ChatMessage, attachments []ai.Attachment) []*genai.Content {
	lastUser := -1
	for i, msg := range history {
		if msg.Role == ai.RoleUser {
			lastUser = i
		}
	}

	contents := make([]*genai.Content, 0, len(history))
	for i, msg := range history {
		role := genai.Role(genai.RoleUser)
		if msg.Role == ai.RoleAssistant {
			role = genai.RoleModel
		}
		text := msg.Content
		if i != lastUser || len(attachments) == 0 {
			contents = append(contents, genai.NewContentFromText(text, role))
			continue
		}
		if extra := ai.RenderAttachmentText(attachments); extra != "" {
			text = text + "\n\n" + extra
		}
		parts := []*genai.Part{genai.NewPartFromText(text)}
		for _, att := range attachments {
			if att.Kind != ai.AttachmentImage || len(att.Data) == 0 {
				continue
			}
			mime := att.MIMEType
			if mime == "" {
				mime = "image/jpeg"
			}
			parts = append(parts, genai.NewPartFromBytes(att.Data, mime))
		}
		contents = append(contents, genai.NewContentFromParts(parts, role))
	}
	return contents
}

func wrapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ai.ProviderError{Provider: providerName, Code: "timeout", Err: err}
	}
	return &ai.ProviderError{Provider: providerName, Code: "request_failed", Err: err}
}
