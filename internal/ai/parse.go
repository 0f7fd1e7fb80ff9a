package ai

import (
	"encoding/json"
	"strings"

	"study-companion/internal/model"
)

// ParseSchedule decodes the {"tasks": [...]} payload. A bare array is also
// accepted. Entries that do not decode are dropped individually.
func ParseSchedule(text string) ([]TaskDraft, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	items, err := listField(raw, "tasks")
	if err != nil {
		return nil, err
	}
	drafts := make([]TaskDraft, 0, len(items))
	for _, item := range items {
		var draft TaskDraft
		if err := json.Unmarshal(item, &draft); err != nil {
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}

// ParseGuides decodes the {"guides": [...]} payload, dropping untitled entries.
func ParseGuides(text string) ([]Guide, error) {
	raw, err := ExtractJSON(text)
	if err != nil {
		return nil, err
	}
	items, err := listField(raw, "guides")
	if err != nil {
		return nil, err
	}
	guides := make([]Guide, 0, len(items))
	for _, item := range items {
		var guide Guide
		if err := json.Unmarshal(item, &guide); err != nil {
			continue
		}
		guide.Title = strings.TrimSpace(guide.Title)
		guide.Advice = strings.TrimSpace(guide.Advice)
		if guide.Title == "" {
			continue
		}
		guides = append(guides, guide)
	}
	return guides, nil
}

// ParseInsight decodes a wellness insight object.
func ParseInsight(text string) (model.WellnessInsight, error) {
	var insight model.WellnessInsight
	if err := DecodeJSON(text, &insight); err != nil {
		return model.WellnessInsight{}, err
	}
	return insight, nil
}

func listField(raw json.RawMessage, field string) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, ErrMalformedResponse
	}
	list, ok := payload[field]
	if !ok || string(list) == "null" {
		return nil, nil
	}
	if err := json.Unmarshal(list, &items); err != nil {
		return nil, ErrMalformedResponse
	}
	return items, nil
}
