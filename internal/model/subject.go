package model

import "strings"

// Priority ranks a subject in the planner.
type Priority string

const (
	PriorityLow    Priority = "Low"
	PriorityMedium Priority = "Medium"
	PriorityHigh   Priority = "High"
)

// GlobalSubjectID marks tasks that are personal events rather than tied to a subject.
const GlobalSubjectID = "global"

// Subject is an academic subject with an exam date.
type Subject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	ExamDate string   `json:"examDate"`
	Priority Priority `json:"priority"`
	Color    string   `json:"color"`
}

// ParsePriority maps free-form input onto a priority, defaulting to Medium.
func ParsePriority(raw string) Priority {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "low", "l", "1":
		return PriorityLow
	case "high", "h", "3":
		return PriorityHigh
	default:
		return PriorityMedium
	}
}
