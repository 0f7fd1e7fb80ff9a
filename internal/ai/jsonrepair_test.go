package ai

import (
	"errors"
	"testing"
	"time"
)

func TestExtractJSON(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"surrounding space", "  \n{\"a\":1}\n", `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":[1,2]}\n```", `{"a":[1,2]}`},
		{"prose around", "Sure! Here is the plan: {\"tasks\": []} Hope it helps.", `{"tasks": []}`},
		{"fence with prose", "Here:\n```json\n{\"ok\":true}\n```\nDone", `{"ok":true}`},
		{"array", `[{"a":1}]`, `[{"a":1}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractJSON(tc.in)
			if err != nil {
				t.Fatalf("ExtractJSON error: %v", err)
			}
			if string(got) != tc.want {
				t.Fatalf("ExtractJSON = %s, want %s", got, tc.want)
			}
		})
	}
}

func TestExtractJSONFailures(t *testing.T) {
	for _, in := range []string{"", "   ", "no json here", "{broken: json", "```json\n{\"a\":\n```"} {
		if _, err := ExtractJSON(in); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ExtractJSON(%q) error = %v, want ErrMalformedResponse", in, err)
		}
	}
}

func TestDecodeJSONTypeMismatch(t *testing.T) {
	var v struct {
		Tips []string `json:"tips"`
	}
	err := DecodeJSON(`{"tips": "not a list"}`, &v)
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("DecodeJSON error = %v, want ErrMalformedResponse", err)
	}
}

func TestParseScheduleDropsBadEntries(t *testing.T) {
	text := "```json\n" + `{"tasks": [
		{"subjectId": "s1", "task": "Limits", "scheduledDate": "2025-05-02", "startTime": "10:00", "category": "lecture", "difficulty": 2},
		{"subjectId": 7, "task": "bad id type"},
		{"subjectId": "s1", "task": "Series", "difficulty": "4"}
	]}` + "\n```"

	drafts, err := ParseSchedule(text)
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}
	if len(drafts) != 2 {
		t.Fatalf("got %d drafts, want 2: %+v", len(drafts), drafts)
	}
	if drafts[1].Difficulty != "4" {
		t.Errorf("string difficulty not accepted: %q", drafts[1].Difficulty)
	}
}

func TestParseScheduleToleratesDifficulty(t *testing.T) {
	text := `{"tasks": [
		{"subjectId": "s1", "task": "Limits", "difficulty": "hard"},
		{"subjectId": "s1", "task": "Series", "difficulty": true},
		{"subjectId": "s1", "task": "Proofs", "difficulty": null},
		{"subjectId": "s1", "task": "Vectors", "difficulty": 4.6}
	]}`

	drafts, err := ParseSchedule(text)
	if err != nil {
		t.Fatalf("ParseSchedule failed: %v", err)
	}
	if len(drafts) != 4 {
		t.Fatalf("got %d drafts, want 4: %+v", len(drafts), drafts)
	}
	if drafts[0].Difficulty != "hard" || drafts[1].Difficulty != "" || drafts[2].Difficulty != "" || drafts[3].Difficulty != "4.6" {
		t.Fatalf("difficulties = %q %q %q %q", drafts[0].Difficulty, drafts[1].Difficulty, drafts[2].Difficulty, drafts[3].Difficulty)
	}

	tasks := CompleteDrafts(drafts, nil, time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC))
	want := []int{DefaultDifficulty, DefaultDifficulty, DefaultDifficulty, 5}
	for i, task := range tasks {
		if task.Difficulty != want[i] {
			t.Errorf("task %d difficulty = %d, want %d", i, task.Difficulty, want[i])
		}
	}
}

func TestParseScheduleShapes(t *testing.T) {
	drafts, err := ParseSchedule(`[{"task": "a"}]`)
	if err != nil || len(drafts) != 1 {
		t.Fatalf("bare array: %v, %v", drafts, err)
	}
	drafts, err = ParseSchedule(`{"plan": []}`)
	if err != nil || len(drafts) != 0 {
		t.Fatalf("missing field: %v, %v", drafts, err)
	}
	if _, err := ParseSchedule(`{"tasks": "nope"}`); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("non-list tasks: %v", err)
	}
}

func TestParseGuides(t *testing.T) {
	guides, err := ParseGuides(`{"guides": [{"title": " Feynman ", "advice": "Explain it simply"}, {"title": "", "advice": "x"}]}`)
	if err != nil {
		t.Fatalf("ParseGuides failed: %v", err)
	}
	if len(guides) != 1 || guides[0].Title != "Feynman" {
		t.Fatalf("guides = %+v", guides)
	}
}
