package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"study-companion/internal/ai"
	"study-companion/internal/model"
	"study-companion/internal/service"
)

// maskKey keeps only the last four characters of a credential.
const maskPrefix = "****"

func maskKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	if len(key) <= 4 {
		return maskPrefix
	}
	return maskPrefix + key[len(key)-4:]
}

func (h *handler) getState(c *gin.Context) {
	state := h.state.Snapshot()
	state.AIConfig.APIKey = maskKey(state.AIConfig.APIKey)
	c.JSON(http.StatusOK, gin.H{
		"state":           state,
		"profileComplete": h.state.ProfileComplete(),
	})
}

func (h *handler) getDashboard(c *gin.Context) {
	c.JSON(http.StatusOK, service.BuildDashboard(h.state.Snapshot(), h.now()))
}

func (h *handler) checkIn(c *gin.Context) {
	stats, err := h.state.CheckIn(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

type profileRequest struct {
	Name      string `json:"name" binding:"max=100"`
	Avatar    string `json:"avatar"`
	Gender    string `json:"gender" binding:"max=50"`
	BloodType string `json:"bloodType" binding:"max=10"`
	Stream    string `json:"stream" binding:"max=100"`
	Year      string `json:"collegeYear" binding:"max=20"`
	Bio       string `json:"bio" binding:"max=1000"`
	Age       int    `json:"age" binding:"gte=0,lte=120"`
}

func (h *handler) updateProfile(c *gin.Context) {
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	profile := model.Profile{
		Name:      strings.TrimSpace(req.Name),
		Avatar:    req.Avatar,
		Gender:    strings.TrimSpace(req.Gender),
		BloodType: strings.TrimSpace(req.BloodType),
		Stream:    strings.TrimSpace(req.Stream),
		Year:      strings.TrimSpace(req.Year),
		Bio:       strings.TrimSpace(req.Bio),
		Age:       req.Age,
	}
	if err := h.state.UpdateProfile(c.Request.Context(), profile); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"profile": h.state.Snapshot().Profile, "profileComplete": h.state.ProfileComplete()})
}

// aiConfigRequest changes only the fields it carries. An empty or masked
// apiKey keeps the stored key; clearApiKey removes it.
type aiConfigRequest struct {
	APIKey        string `json:"apiKey"`
	ClearAPIKey   bool   `json:"clearApiKey"`
	SelectedModel string `json:"selectedModel"`
}

func (h *handler) updateAIConfig(c *gin.Context) {
	var req aiConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	key := strings.TrimSpace(req.APIKey)
	selected := strings.TrimSpace(req.SelectedModel)
	cfg, err := h.state.EditAIConfig(c.Request.Context(), func(cfg *model.AIConfig) {
		switch {
		case req.ClearAPIKey:
			cfg.APIKey = ""
		case key != "" && !strings.HasPrefix(key, maskPrefix):
			cfg.APIKey = key
		}
		if selected != "" {
			cfg.SelectedModel = selected
		}
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"apiKey": maskKey(cfg.APIKey), "selectedModel": cfg.SelectedModel})
}

func (h *handler) listModels(c *gin.Context) {
	ctx := c.Request.Context()
	models, err := h.assistant.ListModels(ctx, h.state.Snapshot().AIConfig)
	if err != nil {
		fail(c, err)
		return
	}
	if _, err := h.state.EditAIConfig(ctx, func(cfg *model.AIConfig) {
		cfg.AvailableModels = models
	}); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"models": models})
}

type subjectRequest struct {
	Name     string `json:"name" binding:"required"`
	ExamDate string `json:"examDate" binding:"required"`
	Priority string `json:"priority"`
	Color    string `json:"color"`
}

func (h *handler) addSubject(c *gin.Context) {
	var req subjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	subject, err := h.state.AddSubject(c.Request.Context(), service.SubjectInput{
		Name:     req.Name,
		ExamDate: req.ExamDate,
		Priority: model.ParsePriority(req.Priority),
		Color:    req.Color,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, subject)
}

func (h *handler) deleteSubject(c *gin.Context) {
	if err := h.state.DeleteSubject(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) listTasks(c *gin.Context) {
	state := h.state.Snapshot()
	var tasks []model.StudyTask
	switch {
	case c.Query("date") != "":
		tasks = service.TasksForDate(state, c.Query("date"))
	case c.Query("pending") == "true":
		tasks = service.PendingTasks(state)
	default:
		tasks = state.StudyTasks
	}
	if tasks == nil {
		tasks = []model.StudyTask{}
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

type taskRequest struct {
	SubjectID     string `json:"subjectId"`
	Task          string `json:"task" binding:"required"`
	ScheduledDate string `json:"scheduledDate"`
	StartTime     string `json:"startTime"`
	Category      string `json:"category"`
	Difficulty    int    `json:"difficulty" binding:"gte=0,lte=5"`
}

func (h *handler) addTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	task, err := h.state.CreateTask(c.Request.Context(), service.TaskInput{
		SubjectID:     req.SubjectID,
		Task:          req.Task,
		ScheduledDate: req.ScheduledDate,
		StartTime:     req.StartTime,
		Category:      model.TaskCategory(req.Category),
		Difficulty:    req.Difficulty,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (h *handler) toggleTask(c *gin.Context) {
	task, err := h.state.ToggleTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"task": task, "stats": h.state.Snapshot().Stats})
}

// requireProfile rejects AI calls until the profile is complete.
func (h *handler) requireProfile(c *gin.Context) bool {
	if h.state.ProfileComplete() {
		return true
	}
	writeError(c, http.StatusPreconditionFailed, "complete the profile and set an API key first")
	return false
}

func (h *handler) generateSchedule(c *gin.Context) {
	if !h.requireProfile(c) {
		return
	}
	ctx := c.Request.Context()
	tasks := h.assistant.GenerateSchedule(ctx, h.state.Snapshot())
	added, err := h.state.AddTasks(ctx, tasks)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"added": added, "tasks": tasks})
}

func (h *handler) addMood(c *gin.Context) {
	var entry model.MoodEntry
	if err := c.ShouldBindJSON(&entry); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	entry.ID = ""
	created, err := h.state.AddMoodEntry(c.Request.Context(), entry)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

type sessionRequest struct {
	SubjectID       string `json:"subjectId"`
	DurationMinutes int    `json:"durationMinutes" binding:"required,gt=0"`
	Type            string `json:"type" binding:"required,oneof=focus break"`
}

func (h *handler) addSession(c *gin.Context) {
	var req sessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	session, err := h.state.AddSession(c.Request.Context(), model.StudySession{
		SubjectID:       req.SubjectID,
		DurationMinutes: req.DurationMinutes,
		Type:            model.SessionType(req.Type),
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session, "stats": h.state.Snapshot().Stats})
}

type resourceRequest struct {
	SubjectID string `json:"subjectId"`
	Title     string `json:"title"`
	URL       string `json:"url"`
	Notes     string `json:"notes"`
	FileName  string `json:"fileName"`
	MIMEType  string `json:"mimeType"`
	// Base64 in JSON.
	FileData []byte `json:"fileData"`
}

func (h *handler) addResource(c *gin.Context) {
	var req resourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.state.AddResource(c.Request.Context(), service.ResourceInput{
		SubjectID: req.SubjectID,
		Title:     req.Title,
		URL:       req.URL,
		Notes:     req.Notes,
		FileName:  req.FileName,
		MIMEType:  req.MIMEType,
		FileData:  req.FileData,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *handler) deleteResource(c *gin.Context) {
	if err := h.state.DeleteResource(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handler) guides(c *gin.Context) {
	if !h.requireProfile(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": h.assistant.GenerateResourceGuides(c.Request.Context(), h.state.Snapshot())})
}

func (h *handler) getInsight(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"insight": h.state.Snapshot().WellnessInsight})
}

func (h *handler) refreshInsight(c *gin.Context) {
	if !h.requireProfile(c) {
		return
	}
	insight, err := h.state.RefreshWellness(c.Request.Context())
	if err != nil && insight.Summary == "" {
		fail(c, err)
		return
	}
	// A failed analysis still yields the fallback insight.
	c.JSON(http.StatusOK, gin.H{"insight": insight, "fallback": err != nil})
}

type chatRequest struct {
	History     []ai.ChatMessage `json:"history" binding:"required,min=1,dive"`
	Attachments []ai.Attachment  `json:"attachments"`
}

type chatResponse struct {
	Reply          string           `json:"reply"`
	TasksAdded     int              `json:"tasksAdded"`
	ResourcesAdded []model.Resource `json:"resourcesAdded"`
	Rejected       []string         `json:"rejected,omitempty"`
}

func (h *handler) sendChat(c *gin.Context) {
	if !h.requireProfile(c) {
		return
	}
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, err.Error())
		return
	}
	if last := req.History[len(req.History)-1]; last.Role != ai.RoleUser {
		writeError(c, http.StatusBadRequest, "history must end with a user message")
		return
	}
	result, err := h.chat.Send(c.Request.Context(), req.History, req.Attachments)
	if err != nil {
		fail(c, err)
		return
	}
	resources := result.ResourcesAdded
	if resources == nil {
		resources = []model.Resource{}
	}
	c.JSON(http.StatusOK, chatResponse{
		Reply:          result.Reply,
		TasksAdded:     result.TasksAdded,
		ResourcesAdded: resources,
		Rejected:       result.Rejected,
	})
}
