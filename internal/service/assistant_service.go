package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"study-companion/internal/ai"
	"study-companion/internal/ai/openrouter"
	"study-companion/internal/model"
)

// ProviderFactory builds the key-based provider for the stored AI config.
type ProviderFactory func(cfg model.AIConfig) (ai.Assistant, error)

// NewOpenRouterFactory returns a factory that applies the user's key and model
// on top of base.
func NewOpenRouterFactory(base openrouter.Config) ProviderFactory {
	return func(cfg model.AIConfig) (ai.Assistant, error) {
		c := base
		c.APIKey = cfg.APIKey
		if cfg.SelectedModel != "" {
			c.Model = cfg.SelectedModel
		}
		return openrouter.New(c)
	}
}

type modelLister interface {
	ListModels(ctx context.Context) ([]model.ModelInfo, error)
}

// AssistantService selects a provider and contains its failures. The
// key-based provider wins whenever the user configured a key; otherwise the
// environment-configured provider is used. A failing call never falls over to
// the other provider.
type AssistantService struct {
	keyed    ProviderFactory
	fallback ai.Assistant
	now      func() time.Time
}

// NewAssistantService creates the gateway. fallback may be nil.
func NewAssistantService(keyed ProviderFactory, fallback ai.Assistant) *AssistantService {
	return &AssistantService{keyed: keyed, fallback: fallback, now: time.Now}
}

func (s *AssistantService) selectAssistant(cfg model.AIConfig) (ai.Assistant, error) {
	if strings.TrimSpace(cfg.APIKey) != "" && s.keyed != nil {
		return s.keyed(cfg)
	}
	if s.fallback != nil {
		return s.fallback, nil
	}
	return nil, ai.ErrNotConfigured
}

// Configured reports whether any provider is available for cfg.
func (s *AssistantService) Configured(cfg model.AIConfig) bool {
	return (strings.TrimSpace(cfg.APIKey) != "" && s.keyed != nil) || s.fallback != nil
}

// GenerateSchedule asks for a study plan and completes the drafts into tasks.
// Any failure yields an empty list.
func (s *AssistantService) GenerateSchedule(ctx context.Context, state model.AppState) []model.StudyTask {
	assistant, err := s.selectAssistant(state.AIConfig)
	if err != nil {
		return []model.StudyTask{}
	}
	now := s.now()
	drafts, err := assistant.GenerateSchedule(ctx, state.Subjects, now)
	if err != nil {
		log.Printf("generate schedule via %s: %v", assistant.Name(), err)
		return []model.StudyTask{}
	}
	return ai.CompleteDrafts(drafts, state.Subjects, now)
}

// GenerateResourceGuides returns study guides, or an empty list on failure.
func (s *AssistantService) GenerateResourceGuides(ctx context.Context, state model.AppState) []ai.Guide {
	assistant, err := s.selectAssistant(state.AIConfig)
	if err != nil {
		return []ai.Guide{}
	}
	guides, err := assistant.GenerateResourceGuides(ctx, state.Profile, state.Subjects)
	if err != nil {
		log.Printf("generate guides via %s: %v", assistant.Name(), err)
		return []ai.Guide{}
	}
	if guides == nil {
		guides = []ai.Guide{}
	}
	return guides
}

// AnalyzeWellness always returns a fully populated insight. The error reports
// whether the insight is the generic fallback.
func (s *AssistantService) AnalyzeWellness(ctx context.Context, state model.AppState) (model.WellnessInsight, error) {
	assistant, err := s.selectAssistant(state.AIConfig)
	if err != nil {
		return ai.FallbackInsight(), err
	}
	insight, err := assistant.AnalyzeWellness(ctx, ai.NewWellnessSnapshot(state))
	if err != nil {
		return ai.FallbackInsight(), fmt.Errorf("analyze wellness via %s: %w", assistant.Name(), err)
	}
	return ai.CompleteInsight(insight), nil
}

// Chat sends one conversation turn. Errors are returned to the caller, which
// shows them to the user.
func (s *AssistantService) Chat(ctx context.Context, state model.AppState, history []ai.ChatMessage, attachments []ai.Attachment) (ai.ChatReply, error) {
	assistant, err := s.selectAssistant(state.AIConfig)
	if err != nil {
		return ai.ChatReply{}, err
	}
	reply, err := assistant.Chat(ctx, ai.ChatRequest{
		Profile:     state.Profile,
		Context:     ai.ChatContext(state),
		History:     history,
		Attachments: attachments,
		Today:       s.now(),
	})
	if err != nil {
		return ai.ChatReply{}, fmt.Errorf("chat via %s: %w", assistant.Name(), err)
	}
	return reply, nil
}

// ListModels lists the models available to the configured key.
func (s *AssistantService) ListModels(ctx context.Context, cfg model.AIConfig) ([]model.ModelInfo, error) {
	if strings.TrimSpace(cfg.APIKey) == "" || s.keyed == nil {
		return nil, ai.ErrNotConfigured
	}
	assistant, err := s.keyed(cfg)
	if err != nil {
		return nil, err
	}
	lister, ok := assistant.(modelLister)
	if !ok {
		return nil, errors.New("provider cannot list models")
	}
	return lister.ListModels(ctx)
}
