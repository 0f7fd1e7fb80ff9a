package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"study-companion/internal/ai"
	"study-companion/internal/model"
)

type fakeAssistant struct {
	name    string
	calls   int
	drafts  []ai.TaskDraft
	guides  []ai.Guide
	insight model.WellnessInsight
	reply   ai.ChatReply
	err     error
	lastReq ai.ChatRequest
}

func (f *fakeAssistant) Name() string { return f.name }

func (f *fakeAssistant) GenerateSchedule(context.Context, []model.Subject, time.Time) ([]ai.TaskDraft, error) {
	f.calls++
	return f.drafts, f.err
}

func (f *fakeAssistant) GenerateResourceGuides(context.Context, model.Profile, []model.Subject) ([]ai.Guide, error) {
	f.calls++
	return f.guides, f.err
}

func (f *fakeAssistant) AnalyzeWellness(context.Context, ai.WellnessSnapshot) (model.WellnessInsight, error) {
	f.calls++
	return f.insight, f.err
}

func (f *fakeAssistant) Chat(_ context.Context, req ai.ChatRequest) (ai.ChatReply, error) {
	f.calls++
	f.lastReq = req
	return f.reply, f.err
}

func factoryFor(a ai.Assistant) ProviderFactory {
	return func(model.AIConfig) (ai.Assistant, error) { return a, nil }
}

func keyedState() model.AppState {
	state := model.DefaultState()
	state.AIConfig.APIKey = "sk-user"
	state.Subjects = []model.Subject{{ID: "s1", Name: "Calc"}}
	return state
}

func TestProviderPrecedence(t *testing.T) {
	keyed := &fakeAssistant{name: "keyed", drafts: []ai.TaskDraft{{SubjectID: "s1", Task: "from keyed"}}}
	env := &fakeAssistant{name: "env", drafts: []ai.TaskDraft{{SubjectID: "s1", Task: "from env"}}}
	svc := NewAssistantService(factoryFor(keyed), env)

	tasks := svc.GenerateSchedule(context.Background(), keyedState())
	if len(tasks) != 1 || tasks[0].Task != "from keyed" {
		t.Fatalf("with key: tasks = %+v", tasks)
	}

	noKey := keyedState()
	noKey.AIConfig.APIKey = ""
	tasks = svc.GenerateSchedule(context.Background(), noKey)
	if len(tasks) != 1 || tasks[0].Task != "from env" {
		t.Fatalf("without key: tasks = %+v", tasks)
	}
}

func TestNoFailoverBetweenProviders(t *testing.T) {
	keyed := &fakeAssistant{name: "keyed", err: errors.New("boom")}
	env := &fakeAssistant{name: "env", drafts: []ai.TaskDraft{{Task: "x"}}}
	svc := NewAssistantService(factoryFor(keyed), env)

	tasks := svc.GenerateSchedule(context.Background(), keyedState())
	if tasks == nil || len(tasks) != 0 {
		t.Fatalf("tasks = %#v, want empty non-nil list", tasks)
	}
	if env.calls != 0 {
		t.Fatal("failed call fell over to the other provider")
	}
}

func TestNoKeyShortCircuits(t *testing.T) {
	called := false
	factory := func(model.AIConfig) (ai.Assistant, error) {
		called = true
		return nil, errors.New("should not be built")
	}
	svc := NewAssistantService(factory, nil)
	state := model.DefaultState()
	state.Subjects = []model.Subject{{ID: "s1", Name: "Calc"}}

	if tasks := svc.GenerateSchedule(context.Background(), state); tasks == nil || len(tasks) != 0 {
		t.Fatalf("tasks = %#v", tasks)
	}
	if guides := svc.GenerateResourceGuides(context.Background(), state); guides == nil || len(guides) != 0 {
		t.Fatalf("guides = %#v", guides)
	}
	if called {
		t.Fatal("provider built without a key")
	}
	if _, err := svc.Chat(context.Background(), state, nil, nil); !errors.Is(err, ai.ErrNotConfigured) {
		t.Fatalf("chat error = %v", err)
	}
	if svc.Configured(state.AIConfig) {
		t.Fatal("Configured reported true without any credential")
	}
}

func TestAnalyzeWellnessFallback(t *testing.T) {
	cases := map[string]*fakeAssistant{
		"transport error": {name: "keyed", err: &ai.ProviderError{Provider: "keyed", Code: "server_error", Status: 502}},
		"malformed":       {name: "keyed", err: ai.ErrMalformedResponse},
	}
	for name, fake := range cases {
		t.Run(name, func(t *testing.T) {
			svc := NewAssistantService(factoryFor(fake), nil)
			insight, err := svc.AnalyzeWellness(context.Background(), keyedState())
			if err == nil {
				t.Fatal("expected error alongside fallback")
			}
			if insight.Summary == "" || len(insight.Tips) == 0 || insight.Correlation == "" {
				t.Fatalf("fallback insight incomplete: %+v", insight)
			}
		})
	}

	svc := NewAssistantService(nil, nil)
	insight, err := svc.AnalyzeWellness(context.Background(), model.DefaultState())
	if !errors.Is(err, ai.ErrNotConfigured) || insight.Summary == "" {
		t.Fatalf("unconfigured = %+v, %v", insight, err)
	}
}

func TestAnalyzeWellnessFillsMissingFields(t *testing.T) {
	fake := &fakeAssistant{name: "keyed", insight: model.WellnessInsight{Summary: "tired", BurnoutWarning: true}}
	svc := NewAssistantService(factoryFor(fake), nil)

	insight, err := svc.AnalyzeWellness(context.Background(), keyedState())
	if err != nil {
		t.Fatalf("AnalyzeWellness failed: %v", err)
	}
	if insight.Summary != "tired" || !insight.BurnoutWarning || len(insight.Tips) == 0 || insight.Correlation == "" {
		t.Fatalf("insight = %+v", insight)
	}
}

func TestGenerateScheduleCompletesDrafts(t *testing.T) {
	fake := &fakeAssistant{name: "keyed", drafts: []ai.TaskDraft{
		{SubjectID: "Calc", Task: "Limits", ScheduledDate: "2025-05-02", Category: "lecture"},
		{SubjectID: "s1", Task: ""},
	}}
	svc := NewAssistantService(factoryFor(fake), nil)
	svc.now = fixedClock(time.Date(2025, 5, 1, 9, 0, 0, 0, time.Local))

	tasks := svc.GenerateSchedule(context.Background(), keyedState())
	if len(tasks) != 1 {
		t.Fatalf("tasks = %+v", tasks)
	}
	if tasks[0].SubjectID != "s1" || tasks[0].StartTime != "09:00" || tasks[0].Difficulty != 3 || tasks[0].ID == "" || tasks[0].Completed {
		t.Fatalf("task = %+v", tasks[0])
	}
}

func TestChatServiceRoutesToolCalls(t *testing.T) {
	ctx := context.Background()
	store := &memoryStore{state: keyedState()}
	state := startService(t, store, nil)

	fake := &fakeAssistant{name: "keyed", reply: ai.ChatReply{
		Text: "Done!",
		ToolCalls: []ai.ToolCall{
			{Name: ai.ToolCreateSchedule, Arguments: `{"tasks":[{"subjectId":"s1","task":"Limits","scheduledDate":"2025-05-02","startTime":"10:00","category":"lecture"},{"subjectId":"s1","task":"Series","scheduledDate":"2025-05-03","startTime":"11:00","category":"revision"}]}`},
			{Name: ai.ToolCreateNote, Arguments: `{"title":"Recap","content":"chain rule","subjectId":"nope"}`},
			{Name: ai.ToolCreateNote, Arguments: `{"content":"missing title"}`},
		},
	}}
	chat := NewChatService(state, NewAssistantService(factoryFor(fake), nil))

	history := make([]ai.ChatMessage, 0, 30)
	for i := 0; i < 30; i++ {
		history = append(history, ai.ChatMessage{Role: ai.RoleUser, Content: "msg"})
	}
	result, err := chat.Send(ctx, history, nil)
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if result.Reply != "Done!" || result.TasksAdded != 2 || len(result.ResourcesAdded) != 1 || len(result.Rejected) != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(fake.lastReq.History) != MaxChatHistory {
		t.Errorf("history sent = %d, want %d", len(fake.lastReq.History), MaxChatHistory)
	}
	if fake.lastReq.Context == "" {
		t.Errorf("chat context is empty")
	}

	snap := state.Snapshot()
	if len(snap.StudyTasks) != 2 || snap.Stats.Points != 2*PointsPerTask {
		t.Fatalf("tasks=%d points=%d", len(snap.StudyTasks), snap.Stats.Points)
	}
	if len(snap.Resources) != 1 || snap.Resources[0].SubjectID != model.GlobalSubjectID || snap.Resources[0].Type != model.ResourceNote {
		t.Fatalf("resources = %+v", snap.Resources)
	}
}

func TestChatServicePropagatesErrors(t *testing.T) {
	state := startService(t, &memoryStore{state: keyedState()}, nil)
	fake := &fakeAssistant{name: "keyed", err: errors.New("offline")}
	chat := NewChatService(state, NewAssistantService(factoryFor(fake), nil))

	if _, err := chat.Send(context.Background(), []ai.ChatMessage{{Role: ai.RoleUser, Content: "hi"}}, nil); err == nil {
		t.Fatal("expected error")
	}
	if len(state.Snapshot().StudyTasks) != 0 {
		t.Fatal("failed chat changed state")
	}
}
