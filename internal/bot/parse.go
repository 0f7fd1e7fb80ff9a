package bot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"study-companion/internal/model"
)

// parseMoodArgs reads "key=value" pairs; text after "|" becomes the journal.
func parseMoodArgs(args string) (model.MoodEntry, error) {
	var entry model.MoodEntry
	pairs, journal, _ := strings.Cut(args, "|")
	entry.Journal = strings.TrimSpace(journal)

	fields := strings.Fields(pairs)
	if len(fields) == 0 {
		return entry, errors.New("укажи хотя бы mood=1..5")
	}
	for _, field := range fields {
		key, value, ok := strings.Cut(field, "=")
		if !ok {
			return entry, fmt.Errorf("не понимаю %q, нужен формат ключ=значение", field)
		}
		key = strings.ToLower(key)
		if key == "tags" {
			for _, tag := range strings.Split(value, ",") {
				if tag = strings.TrimSpace(tag); tag != "" {
					entry.WellnessTags = append(entry.WellnessTags, tag)
				}
			}
			continue
		}
		if key == "exercise" {
			entry.ExerciseType = value
			continue
		}
		if key == "sleep" {
			hours, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
			if err != nil {
				return entry, errors.New("sleep должно быть числом часов")
			}
			entry.SleepHours = hours
			continue
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			return entry, fmt.Errorf("%s должно быть целым числом", key)
		}
		switch key {
		case "mood":
			entry.MoodScore = n
		case "stress":
			entry.StressScore = n
		case "quality":
			entry.SleepQuality = n
		case "activity":
			entry.PhysicalActivity = n
		case "social":
			entry.SocialConnection = n
		case "productivity":
			entry.ProductivityScore = n
		case "water":
			entry.WaterIntake = n
		case "nutrition":
			entry.NutritionScore = n
		default:
			return entry, fmt.Errorf("неизвестный параметр %q", key)
		}
	}
	if entry.MoodScore == 0 {
		return entry, errors.New("укажи mood=1..5")
	}
	return entry, nil
}

// splitNoteArgs splits "title | body". Without a separator the first line is the title.
func splitNoteArgs(args string) (string, string) {
	if title, body, ok := strings.Cut(args, "|"); ok {
		return strings.TrimSpace(title), strings.TrimSpace(body)
	}
	title, body, _ := strings.Cut(strings.TrimSpace(args), "\n")
	return strings.TrimSpace(title), strings.TrimSpace(body)
}
