package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"study-companion/internal/ai"
	"study-companion/internal/ai/gemini"
	"study-companion/internal/ai/openrouter"
	"study-companion/internal/bot"
	"study-companion/internal/config"
	"study-companion/internal/httpapi"
	"study-companion/internal/repository"
	"study-companion/internal/service"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := repository.NewDB(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	sqlDB, err := db.DB()
	if err == nil {
		defer sqlDB.Close()
	}

	ownerRepo := repository.NewOwnerRepository(db)
	stateRepo := repository.NewStateRepository(db, cfg.StateKey)

	if cfg.TelegramChatID != 0 {
		owners, err := ownerRepo.ListAll(ctx)
		if err != nil {
			log.Fatalf("owners: %v", err)
		}
		if len(owners) == 0 {
			if _, err := ownerRepo.Claim(ctx, cfg.TelegramChatID, "", "", ""); err != nil {
				log.Fatalf("claim owner: %v", err)
			}
			log.Printf("[info] owner bound to chat %d", cfg.TelegramChatID)
		} else if owners[0].TelegramID != cfg.TelegramChatID {
			log.Printf("[warn] TELEGRAM_CHAT_ID ignored, chat %d already owns the state", owners[0].TelegramID)
		}
	}

	var fallback ai.Assistant
	if cfg.GeminiAPIKey != "" {
		provider, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			log.Fatalf("gemini: %v", err)
		}
		fallback = provider
		log.Printf("[info] gemini fallback enabled model=%s", cfg.GeminiModel)
	}

	assistantSvc := service.NewAssistantService(service.NewOpenRouterFactory(openrouter.Config{
		BaseURL: cfg.OpenRouterBaseURL,
		Model:   cfg.OpenRouterDefaultModel,
		Referer: cfg.AppReferer,
		Title:   cfg.AppTitle,
		HTTPClient: &http.Client{
			Timeout: 90 * time.Second,
		},
	}), fallback)

	stateSvc, err := service.NewStateService(ctx, stateRepo, assistantSvc)
	if err != nil {
		log.Fatalf("state: %v", err)
	}
	stateDone := make(chan struct{})
	go func() {
		defer close(stateDone)
		if err := stateSvc.Run(ctx); err != nil {
			log.Printf("state loop: %v", err)
		}
	}()

	chatSvc := service.NewChatService(stateSvc, assistantSvc)
	timerSvc := service.NewTimerService(stateSvc, cfg.FocusDuration, cfg.BreakDuration)
	reminderSvc := service.NewReminderService(stateSvc)

	var server *http.Server
	if cfg.HTTPAddr != "" {
		server = &http.Server{
			Addr: cfg.HTTPAddr,
			Handler: httpapi.NewRouter(httpapi.Deps{
				State:     stateSvc,
				Assistant: assistantSvc,
				Chat:      chatSvc,
				RateLimit: 5,
				Burst:     10,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		}
		go func() {
			log.Printf("[info] http api listening on %s", cfg.HTTPAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("http server: %v", err)
				stop()
			}
		}()
	}

	if cfg.TelegramToken != "" {
		telegramBot, err := bot.New(cfg.TelegramToken, ownerRepo, stateSvc, assistantSvc, chatSvc, timerSvc, reminderSvc)
		if err != nil {
			log.Fatalf("bot: %v", err)
		}

		scheduler := service.NewSchedulerService(time.Local)
		if _, err := scheduler.ScheduleDaily("digest", cfg.DigestTime, func() {
			runJob("digest", telegramBot.SendDailyReports)
		}); err != nil {
			log.Fatalf("schedule digest: %v", err)
		}
		if _, err := scheduler.ScheduleDaily("mood reminder", cfg.MoodReminderTime, func() {
			runJob("mood reminder", telegramBot.SendMoodReminders)
		}); err != nil {
			log.Fatalf("schedule mood reminder: %v", err)
		}
		scheduler.Start()
		defer scheduler.Stop()

		log.Println("Study companion bot started.")
		if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("bot stopped with error: %v", err)
			stop()
		}
	}

	<-ctx.Done()
	if server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("http shutdown: %v", err)
		}
		cancel()
	}
	<-stateDone
	log.Println("Shutdown complete.")
}

func runJob(name string, job func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := job(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("%s: %v", name, err)
	}
}
