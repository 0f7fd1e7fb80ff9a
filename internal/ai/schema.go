package ai

// Parameter schemas for the chat tools, in JSON Schema form.

// ScheduleToolParameters describes the create_study_schedule arguments.
func ScheduleToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"tasks": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"subjectId":     map[string]any{"type": "string"},
						"task":          map[string]any{"type": "string"},
						"scheduledDate": map[string]any{"type": "string", "description": "YYYY-MM-DD"},
						"startTime":     map[string]any{"type": "string", "description": "HH:mm"},
						"category":      map[string]any{"type": "string", "enum": CategoryEnum()},
						"difficulty":    map[string]any{"type": "number", "minimum": 1, "maximum": 5},
					},
					"required": []string{"subjectId", "task", "scheduledDate", "startTime", "category"},
				},
			},
		},
		"required": []string{"tasks"},
	}
}

// NoteToolParameters describes the create_note arguments.
func NoteToolParameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"subjectId": map[string]any{"type": "string"},
			"title":     map[string]any{"type": "string"},
			"content":   map[string]any{"type": "string"},
			"url":       map[string]any{"type": "string"},
		},
		"required": []string{"title"},
	}
}

// ToolDescriptions maps tool names to their descriptions.
var ToolDescriptions = map[string]string{
	ToolCreateSchedule: "Generate and post study tasks based on material.",
	ToolCreateNote:     "Save a study note or link as a resource.",
}

// CategoryEnum lists the task categories accepted in schemas.
func CategoryEnum() []string {
	return []string{"lecture", "assignment", "revision", "exam-prep"}
}
