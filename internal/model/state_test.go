package model

import "testing"

func completeState() AppState {
	s := DefaultState()
	s.Profile = Profile{
		Name:      "Asel",
		Gender:    "Female",
		BloodType: "A+",
		Stream:    "Engineering",
		Year:      "2nd",
		Age:       19,
	}
	s.AIConfig.APIKey = "sk-test"
	return s
}

func TestProfileComplete(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppState)
		want   bool
	}{
		{name: "complete", mutate: func(*AppState) {}, want: true},
		{name: "blank name", mutate: func(s *AppState) { s.Profile.Name = "  " }, want: false},
		{name: "no stream", mutate: func(s *AppState) { s.Profile.Stream = "" }, want: false},
		{name: "gender unset", mutate: func(s *AppState) { s.Profile.Gender = GenderNotSpecified }, want: false},
		{name: "no blood type", mutate: func(s *AppState) { s.Profile.BloodType = "" }, want: false},
		{name: "zero age", mutate: func(s *AppState) { s.Profile.Age = 0 }, want: false},
		{name: "no api key", mutate: func(s *AppState) { s.AIConfig.APIKey = " " }, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := completeState()
			tt.mutate(&s)
			if got := s.ProfileComplete(); got != tt.want {
				t.Fatalf("ProfileComplete() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDefaultStateIsIncomplete(t *testing.T) {
	s := DefaultState()
	if s.ProfileComplete() {
		t.Fatal("default state must not be complete")
	}
	if s.Stats.Level != 1 || s.Stats.Points != 0 || s.Stats.Streak != 0 {
		t.Fatalf("unexpected default stats: %+v", s.Stats)
	}
	if s.WellnessInsight != nil {
		t.Fatal("default insight should be nil")
	}
}

func TestCloneDoesNotShareSlices(t *testing.T) {
	s := completeState()
	s.Subjects = append(s.Subjects, Subject{ID: "s1", Name: "Calc"})
	s.MoodEntries = append(s.MoodEntries, MoodEntry{ID: "m1", WellnessTags: []string{"tired"}})
	s.WellnessInsight = &WellnessInsight{Summary: "ok", Tips: []string{"sleep"}}

	c := s.Clone()
	c.Subjects[0].Name = "Physics"
	c.MoodEntries[0].WellnessTags[0] = "rested"
	c.WellnessInsight.Tips[0] = "run"

	if s.Subjects[0].Name != "Calc" {
		t.Errorf("subject mutated through clone: %q", s.Subjects[0].Name)
	}
	if s.MoodEntries[0].WellnessTags[0] != "tired" {
		t.Errorf("mood tags mutated through clone: %q", s.MoodEntries[0].WellnessTags[0])
	}
	if s.WellnessInsight.Tips[0] != "sleep" {
		t.Errorf("insight mutated through clone: %q", s.WellnessInsight.Tips[0])
	}
}

func TestSubjectName(t *testing.T) {
	s := DefaultState()
	s.Subjects = []Subject{{ID: "s1", Name: "Calc"}}
	if got := s.SubjectName("s1"); got != "Calc" {
		t.Errorf("SubjectName(s1) = %q", got)
	}
	if got := s.SubjectName(GlobalSubjectID); got != "Personal" {
		t.Errorf("SubjectName(global) = %q", got)
	}
	if got := s.SubjectName("missing"); got != "" {
		t.Errorf("SubjectName(missing) = %q", got)
	}
}
