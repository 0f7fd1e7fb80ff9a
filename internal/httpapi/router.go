// Package httpapi exposes the application state and the AI operations as a
// JSON API.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"study-companion/internal/service"
)

// Deps are the services the API is built on.
type Deps struct {
	State     *service.StateService
	Assistant *service.AssistantService
	Chat      *service.ChatService
	Now       func() time.Time
	// Requests per second allowed per client IP. Zero disables limiting.
	RateLimit rate.Limit
	Burst     int
}

type handler struct {
	state     *service.StateService
	assistant *service.AssistantService
	chat      *service.ChatService
	now       func() time.Time
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(deps Deps) *gin.Engine {
	h := &handler{
		state:     deps.State,
		assistant: deps.Assistant,
		chat:      deps.Chat,
		now:       deps.Now,
	}
	if h.now == nil {
		h.now = time.Now
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestID())
	if deps.RateLimit > 0 {
		burst := deps.Burst
		if burst < 1 {
			burst = 1
		}
		r.Use(RateLimit(deps.RateLimit, burst))
	}

	r.GET("/api/v1/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ts": h.now().Unix()})
	})

	api := r.Group("/api/v1")
	{
		api.GET("/state", h.getState)
		api.GET("/dashboard", h.getDashboard)
		api.POST("/checkin", h.checkIn)

		api.PUT("/profile", h.updateProfile)
		api.PUT("/ai-config", h.updateAIConfig)
		api.GET("/ai/models", h.listModels)

		api.POST("/subjects", h.addSubject)
		api.DELETE("/subjects/:id", h.deleteSubject)

		api.GET("/tasks", h.listTasks)
		api.POST("/tasks", h.addTask)
		api.POST("/tasks/:id/toggle", h.toggleTask)
		api.POST("/schedule/generate", h.generateSchedule)

		api.POST("/moods", h.addMood)
		api.POST("/sessions", h.addSession)

		api.POST("/resources", h.addResource)
		api.DELETE("/resources/:id", h.deleteResource)
		api.GET("/guides", h.guides)

		api.GET("/insight", h.getInsight)
		api.POST("/insight/refresh", h.refreshInsight)

		api.POST("/chat", h.sendChat)
	}
	return r
}
