package ai

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"study-companion/internal/model"
)

// JSONOnlySuffix is appended to system prompts of providers without schema support.
const JSONOnlySuffix = " IMPORTANT: You must return ONLY raw JSON. No conversational text."

// Prompt is a system and user message pair.
type Prompt struct {
	System string
	User   string
}

func SchedulePrompt(subjects []model.Subject, today time.Time) Prompt {
	return Prompt{
		System: `You are an expert academic planner. Return ONLY a JSON object with a "tasks" array. ` +
			`Each task must have: subjectId, task, scheduledDate (YYYY-MM-DD), startTime (HH:mm), ` +
			`category ('lecture', 'assignment', 'revision', 'exam-prep'), and difficulty (1-5).`,
		User: fmt.Sprintf("Today is %s. Generate a 7-day study plan for these subjects: %s. "+
			"Distribute tasks logically across working hours between 08:00 and 22:00. "+
			"Ensure subjectId matches provided IDs.", today.Format("2006-01-02"), mustJSON(subjects)),
	}
}

func GuidesPrompt(profile model.Profile, subjects []model.Subject) Prompt {
	profile.Avatar = ""
	return Prompt{
		System: `You are an AI Intelligent Tutor. Return ONLY a JSON object with a "guides" array ` +
			`containing 5 items with "title" and "advice".`,
		User: fmt.Sprintf("Profile: %s. Subjects: %s. Generate 5 specific study resource guides "+
			"or conceptual frameworks the student should follow.", mustJSON(profile), mustJSON(subjects)),
	}
}

func WellnessPrompt(snapshot WellnessSnapshot) Prompt {
	return Prompt{
		System: "You are a wellness consultant for students. Return ONLY a JSON object with: " +
			"summary (string), tips (array of 3 strings), burnoutWarning (boolean) and correlation (string).",
		User: fmt.Sprintf("Analyze this student's data: %s. "+
			"Correlate sleep quality, physical activity (exercise type and macros when present), social connection "+
			"and mood with study session frequency and task completion. "+
			"Give a summary of the current mental and physical state, 3 actionable tips, a burnout warning "+
			"and one specific correlation insight.", mustJSON(snapshot)),
	}
}

// ChatSystemPrompt builds the chat instructions including the reply table conventions.
func ChatSystemPrompt(profile model.Profile, context string, today time.Time) string {
	var sb strings.Builder
	sb.WriteString("You are a study and wellness assistant for a student")
	if name := strings.TrimSpace(profile.Name); name != "" {
		sb.WriteString(" named " + name)
	}
	if profile.Stream != "" {
		sb.WriteString(fmt.Sprintf(" (%s, %s year)", profile.Stream, profile.Year))
	}
	sb.WriteString(". Help with scheduling and wellness.\n")
	sb.WriteString("Today is " + today.Format("2006-01-02") + ".\n\n")
	sb.WriteString("Student context:\n")
	sb.WriteString(context)
	sb.WriteString("\nAnswer format rules, pick by topic:\n")
	sb.WriteString("- nutrition: a markdown table | Food | Protein (g) | Fat (g) | Carbs (g) | Calories |\n")
	sb.WriteString("- study: a markdown table | Topic | Key Idea | Practice |\n")
	sb.WriteString("- health: a markdown table | Habit | Why | How |\n")
	sb.WriteString("- symptoms: a markdown table | Symptom | Possible Cause | Suggested Action |, and recommend a doctor for anything serious\n")
	sb.WriteString("- tasks: a markdown table | Date | Time | Task | Category |\n")
	sb.WriteString("- events: a markdown table | Date | Time | Event |\n")
	sb.WriteString("Otherwise reply in short plain text.\n")
	sb.WriteString(fmt.Sprintf("When the student asks to plan or schedule, call %s with subject ids from the context "+
		"(use %q for personal events). When they ask to save a note or link, call %s.",
		ToolCreateSchedule, model.GlobalSubjectID, ToolCreateNote))
	return sb.String()
}

// RenderAttachmentText renders the text attachments of a chat turn.
func RenderAttachmentText(attachments []Attachment) string {
	var parts []string
	for _, att := range attachments {
		if att.Kind != AttachmentText || strings.TrimSpace(att.Text) == "" {
			continue
		}
		label := att.Name
		if label == "" {
			label = "attachment"
		}
		parts = append(parts, fmt.Sprintf("[%s]\n%s", label, strings.TrimSpace(att.Text)))
	}
	return strings.Join(parts, "\n\n")
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}
