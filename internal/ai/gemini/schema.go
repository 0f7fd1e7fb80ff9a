package gemini

import (
	"google.golang.org/genai"

	"study-companion/internal/ai"
)

func stringSchema(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func taskSchema(withDifficulty bool) *genai.Schema {
	s := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"subjectId":     stringSchema(""),
			"task":          stringSchema(""),
			"scheduledDate": stringSchema("YYYY-MM-DD"),
			"startTime":     stringSchema("HH:mm"),
			"category":      {Type: genai.TypeString, Enum: ai.CategoryEnum()},
		},
		Required: []string{"subjectId", "task", "scheduledDate", "startTime", "category"},
	}
	if withDifficulty {
		s.Properties["difficulty"] = &genai.Schema{Type: genai.TypeNumber, Description: "1-5"}
		s.Required = append(s.Required, "difficulty")
	}
	return s
}

func scheduleSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"tasks": {Type: genai.TypeArray, Items: taskSchema(true)},
		},
		Required: []string{"tasks"},
	}
}

func guidesSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"guides": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"title":  stringSchema(""),
						"advice": stringSchema(""),
					},
					Required: []string{"title", "advice"},
				},
			},
		},
		Required: []string{"guides"},
	}
}

func insightSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"summary":        stringSchema(""),
			"tips":           {Type: genai.TypeArray, Items: stringSchema("")},
			"burnoutWarning": {Type: genai.TypeBoolean},
			"correlation":    stringSchema(""),
		},
		Required: []string{"summary", "tips", "burnoutWarning", "correlation"},
	}
}

func functionDeclarations() []*genai.FunctionDeclaration {
	return []*genai.FunctionDeclaration{
		{
			Name:        ai.ToolCreateSchedule,
			Description: ai.ToolDescriptions[ai.ToolCreateSchedule],
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: map[string]*genai.Schema{"tasks": {Type: genai.TypeArray, Items: taskSchema(false)}},
				Required:   []string{"tasks"},
			},
		},
		{
			Name:        ai.ToolCreateNote,
			Description: ai.ToolDescriptions[ai.ToolCreateNote],
			Parameters: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"subjectId": stringSchema(""),
					"title":     stringSchema(""),
					"content":   stringSchema(""),
					"url":       stringSchema(""),
				},
				Required: []string{"title"},
			},
		},
	}
}
