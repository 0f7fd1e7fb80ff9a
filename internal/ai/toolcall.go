package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Tool names offered to chat models.
const (
	ToolCreateSchedule = "create_study_schedule"
	ToolCreateNote     = "create_note"
)

var validate = validator.New()

type scheduleArgs struct {
	Tasks []scheduleArgTask `json:"tasks" validate:"required,min=1,dive"`
}

type scheduleArgTask struct {
	SubjectID     string     `json:"subjectId" validate:"required"`
	Task          string     `json:"task" validate:"required,max=500"`
	ScheduledDate string     `json:"scheduledDate" validate:"required,datetime=2006-01-02"`
	StartTime     string     `json:"startTime" validate:"required,datetime=15:04"`
	Category      string     `json:"category" validate:"required,oneof=lecture assignment revision exam-prep"`
	Difficulty    Difficulty `json:"difficulty,omitempty"`
}

type noteArgs struct {
	SubjectID string `json:"subjectId"`
	Title     string `json:"title" validate:"required,max=200"`
	Content   string `json:"content"`
	URL       string `json:"url" validate:"omitempty,url"`
}

// ToolAction is a validated tool invocation.
type ToolAction struct {
	Name  string
	Tasks []TaskDraft
	Note  *NoteDraft
}

// ParseToolCall decodes and validates the arguments of call.
func ParseToolCall(call ToolCall) (ToolAction, error) {
	raw, err := ExtractJSON(call.Arguments)
	if err != nil {
		return ToolAction{}, fmt.Errorf("decode %s arguments: %w", call.Name, err)
	}

	switch call.Name {
	case ToolCreateSchedule:
		var args scheduleArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return ToolAction{}, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		if err := validate.Struct(args); err != nil {
			return ToolAction{}, fmt.Errorf("validate %s arguments: %w", call.Name, err)
		}
		drafts := make([]TaskDraft, 0, len(args.Tasks))
		for _, task := range args.Tasks {
			drafts = append(drafts, TaskDraft(task))
		}
		return ToolAction{Name: call.Name, Tasks: drafts}, nil

	case ToolCreateNote:
		var args noteArgs
		if err := json.Unmarshal(raw, &args); err != nil {
			return ToolAction{}, fmt.Errorf("decode %s arguments: %w", call.Name, err)
		}
		args.Title = strings.TrimSpace(args.Title)
		if err := validate.Struct(args); err != nil {
			return ToolAction{}, fmt.Errorf("validate %s arguments: %w", call.Name, err)
		}
		note := NoteDraft(args)
		return ToolAction{Name: call.Name, Note: &note}, nil

	default:
		return ToolAction{}, fmt.Errorf("unknown tool %q", call.Name)
	}
}
