package model

import "strings"

// AppState is the aggregate root persisted as a single document.
type AppState struct {
	Profile         Profile          `json:"profile"`
	Stats           Stats            `json:"stats"`
	Subjects        []Subject        `json:"subjects"`
	Resources       []Resource       `json:"resources"`
	StudyTasks      []StudyTask      `json:"studyTasks"`
	MoodEntries     []MoodEntry      `json:"moodEntries"`
	StudySessions   []StudySession   `json:"studySessions"`
	WellnessInsight *WellnessInsight `json:"wellnessInsight"`
	AIConfig        AIConfig         `json:"aiConfig"`
}

// DefaultState returns the state used when nothing has been persisted yet.
func DefaultState() AppState {
	return AppState{
		Profile: Profile{
			Gender: GenderNotSpecified,
			Year:   "1st",
		},
		Stats:         Stats{Level: 1},
		Subjects:      []Subject{},
		Resources:     []Resource{},
		StudyTasks:    []StudyTask{},
		MoodEntries:   []MoodEntry{},
		StudySessions: []StudySession{},
		AIConfig:      AIConfig{SelectedModel: DefaultModel},
	}
}

// ProfileComplete reports whether every mandatory profile field and the API key are set.
func (s AppState) ProfileComplete() bool {
	p := s.Profile
	return strings.TrimSpace(p.Name) != "" &&
		strings.TrimSpace(p.Stream) != "" &&
		strings.TrimSpace(p.Gender) != "" &&
		p.Gender != GenderNotSpecified &&
		strings.TrimSpace(p.BloodType) != "" &&
		p.Age > 0 &&
		strings.TrimSpace(s.AIConfig.APIKey) != ""
}

// FindSubject returns the subject with the given id.
func (s AppState) FindSubject(id string) (Subject, bool) {
	for _, subject := range s.Subjects {
		if subject.ID == id {
			return subject, true
		}
	}
	return Subject{}, false
}

// SubjectName resolves a subject id to its display name.
func (s AppState) SubjectName(id string) string {
	if subject, ok := s.FindSubject(id); ok {
		return subject.Name
	}
	if id == GlobalSubjectID {
		return "Personal"
	}
	return ""
}

// Clone returns a deep copy, so callers can never mutate shared slices.
func (s AppState) Clone() AppState {
	out := s
	out.Subjects = append([]Subject{}, s.Subjects...)
	out.Resources = append([]Resource{}, s.Resources...)
	out.StudyTasks = append([]StudyTask{}, s.StudyTasks...)
	out.StudySessions = append([]StudySession{}, s.StudySessions...)
	out.MoodEntries = make([]MoodEntry, len(s.MoodEntries))
	for i, entry := range s.MoodEntries {
		entry.WellnessTags = append([]string(nil), entry.WellnessTags...)
		out.MoodEntries[i] = entry
	}
	out.AIConfig.AvailableModels = append([]ModelInfo(nil), s.AIConfig.AvailableModels...)
	if s.WellnessInsight != nil {
		insight := *s.WellnessInsight
		insight.Tips = append([]string(nil), s.WellnessInsight.Tips...)
		out.WellnessInsight = &insight
	}
	return out
}

// Normalize replaces nil collections so the document always serializes arrays.
func (s *AppState) Normalize() {
	if s.Subjects == nil {
		s.Subjects = []Subject{}
	}
	if s.Resources == nil {
		s.Resources = []Resource{}
	}
	if s.StudyTasks == nil {
		s.StudyTasks = []StudyTask{}
	}
	if s.MoodEntries == nil {
		s.MoodEntries = []MoodEntry{}
	}
	if s.StudySessions == nil {
		s.StudySessions = []StudySession{}
	}
	if s.Stats.Level < 1 {
		s.Stats.Level = 1
	}
}
