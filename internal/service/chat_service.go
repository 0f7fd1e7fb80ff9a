package service

import (
	"context"
	"log"
	"strings"

	"study-companion/internal/ai"
	"study-companion/internal/model"
)

// MaxChatHistory bounds the conversation sent to the model.
const MaxChatHistory = 20

// ChatResult is the outcome of one chat turn after tool actions were applied.
type ChatResult struct {
	Reply          string
	TasksAdded     int
	ResourcesAdded []model.Resource
	Rejected       []string
}

// ChatService sends chat turns and routes tool calls into state intents.
type ChatService struct {
	state     *StateService
	assistant *AssistantService
}

func NewChatService(state *StateService, assistant *AssistantService) *ChatService {
	return &ChatService{state: state, assistant: assistant}
}

// Send runs one turn. history must end with the user's message.
func (s *ChatService) Send(ctx context.Context, history []ai.ChatMessage, attachments []ai.Attachment) (ChatResult, error) {
	if len(history) > MaxChatHistory {
		history = history[len(history)-MaxChatHistory:]
	}
	snapshot := s.state.Snapshot()

	reply, err := s.assistant.Chat(ctx, snapshot, history, attachments)
	if err != nil {
		return ChatResult{}, err
	}

	result := ChatResult{Reply: strings.TrimSpace(reply.Text)}
	for _, call := range reply.ToolCalls {
		action, err := ai.ParseToolCall(call)
		if err != nil {
			log.Printf("chat tool call: %v", err)
			result.Rejected = append(result.Rejected, call.Name)
			continue
		}
		switch action.Name {
		case ai.ToolCreateSchedule:
			tasks := ai.CompleteDrafts(action.Tasks, snapshot.Subjects, s.state.now())
			added, err := s.state.AddTasks(ctx, tasks)
			if err != nil {
				return result, err
			}
			result.TasksAdded += added
		case ai.ToolCreateNote:
			res, err := s.state.AddResource(ctx, ResourceInput{
				SubjectID: noteSubject(action.Note.SubjectID, snapshot),
				Title:     action.Note.Title,
				URL:       action.Note.URL,
				Notes:     action.Note.Content,
			})
			if err != nil {
				return result, err
			}
			result.ResourcesAdded = append(result.ResourcesAdded, res)
		}
	}
	return result, nil
}

func noteSubject(id string, state model.AppState) string {
	if _, ok := state.FindSubject(id); ok {
		return id
	}
	return model.GlobalSubjectID
}
