package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config keeps runtime settings for the bot, the API and the AI providers.
type Config struct {
	TelegramToken  string
	TelegramChatID int64

	DatabaseURL string
	StateKey    string
	HTTPAddr    string

	OpenRouterBaseURL      string
	OpenRouterDefaultModel string
	AppReferer             string
	AppTitle               string

	GeminiAPIKey string
	GeminiModel  string

	DigestTime       string
	MoodReminderTime string
	FocusDuration    time.Duration
	BreakDuration    time.Duration
}

// Load reads configuration from environment variables with sane defaults.
// A .env file in the working directory is applied first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	httpAddr, hasAddr := os.LookupEnv("HTTP_ADDR")
	if !hasAddr {
		httpAddr = ":8080"
	}

	cfg := Config{
		TelegramToken:          get("TELEGRAM_TOKEN", ""),
		DatabaseURL:            get("DATABASE_URL", "study_companion.db"),
		StateKey:               get("STATE_KEY", "study_companion_state_v1"),
		HTTPAddr:               strings.TrimSpace(httpAddr),
		OpenRouterBaseURL:      strings.TrimRight(get("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"), "/"),
		OpenRouterDefaultModel: get("OPENROUTER_DEFAULT_MODEL", "google/gemini-flash-1.5"),
		AppReferer:             get("APP_REFERER", "https://github.com/study-companion"),
		AppTitle:               get("APP_TITLE", "Study Companion"),
		GeminiAPIKey:           get("GEMINI_API_KEY", ""),
		GeminiModel:            get("GEMINI_MODEL", "gemini-2.5-flash"),
		DigestTime:             parseClock(get("DIGEST_TIME", ""), "21:00"),
		MoodReminderTime:       parseClock(get("MOOD_REMINDER_TIME", ""), "20:00"),
		FocusDuration:          parseMinutes(get("FOCUS_MINUTES", ""), 25*time.Minute),
		BreakDuration:          parseMinutes(get("BREAK_MINUTES", ""), 5*time.Minute),
	}

	if raw := get("TELEGRAM_CHAT_ID", ""); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return cfg, fmt.Errorf("TELEGRAM_CHAT_ID must be an integer: %w", err)
		}
		cfg.TelegramChatID = id
	}

	if cfg.TelegramToken == "" && cfg.HTTPAddr == "" {
		return cfg, fmt.Errorf("either TELEGRAM_TOKEN or HTTP_ADDR is required")
	}

	return cfg, nil
}

func get(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseMinutes(raw string, def time.Duration) time.Duration {
	if raw == "" {
		return def
	}
	minutes, err := strconv.Atoi(raw)
	if err != nil || minutes <= 0 {
		return def
	}
	return time.Duration(minutes) * time.Minute
}

// parseClock validates an HH:MM value.
func parseClock(raw, def string) string {
	if raw == "" {
		return def
	}
	if _, err := time.Parse("15:04", raw); err != nil {
		return def
	}
	return raw
}
