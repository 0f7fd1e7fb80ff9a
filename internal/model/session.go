package model

// SessionType distinguishes focus blocks from breaks.
type SessionType string

const (
	SessionFocus SessionType = "focus"
	SessionBreak SessionType = "break"
)

// StudySession is a completed focus or break timer. Sessions are append-only.
type StudySession struct {
	ID              string      `json:"id"`
	SubjectID       string      `json:"subjectId"`
	DurationMinutes int         `json:"durationMinutes"`
	Date            string      `json:"date"` // RFC 3339 timestamp
	Type            SessionType `json:"type"`
}
