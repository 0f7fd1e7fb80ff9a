package model

// TaskCategory classifies a study task.
type TaskCategory string

const (
	CategoryLecture    TaskCategory = "lecture"
	CategoryAssignment TaskCategory = "assignment"
	CategoryRevision   TaskCategory = "revision"
	CategoryExamPrep   TaskCategory = "exam-prep"
)

// TaskCategories lists every valid category in display order.
var TaskCategories = []TaskCategory{CategoryLecture, CategoryAssignment, CategoryRevision, CategoryExamPrep}

// Valid reports whether c is one of the known categories.
func (c TaskCategory) Valid() bool {
	for _, known := range TaskCategories {
		if c == known {
			return true
		}
	}
	return false
}

// StudyTask represents a single scheduled item in the planner.
type StudyTask struct {
	ID            string       `json:"id"`
	SubjectID     string       `json:"subjectId"`
	Task          string       `json:"task"`
	Completed     bool         `json:"completed"`
	ScheduledDate string       `json:"scheduledDate"`
	StartTime     string       `json:"startTime,omitempty"` // HH:MM
	Category      TaskCategory `json:"category"`
	Difficulty    int          `json:"difficulty"` // 1-5
}
