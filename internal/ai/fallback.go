package ai

import (
	"strings"

	"study-companion/internal/model"
)

// FallbackInsight is shown when no analysis could be produced.
func FallbackInsight() model.WellnessInsight {
	return model.WellnessInsight{
		Summary:        "Neural state analysis pending more data streams.",
		Tips:           []string{"Prioritize consistent sleep rhythm", "Incremental movement breaks", "Hydration optimization"},
		BurnoutWarning: false,
		Correlation:    "Not enough historical depth for biometric correlation yet.",
	}
}

// CompleteInsight fills every empty field of insight from the fallback.
func CompleteInsight(insight model.WellnessInsight) model.WellnessInsight {
	fallback := FallbackInsight()
	insight.Summary = strings.TrimSpace(insight.Summary)
	if insight.Summary == "" {
		insight.Summary = fallback.Summary
	}
	tips := make([]string, 0, len(insight.Tips))
	for _, tip := range insight.Tips {
		if tip = strings.TrimSpace(tip); tip != "" {
			tips = append(tips, tip)
		}
	}
	if len(tips) == 0 {
		tips = fallback.Tips
	}
	insight.Tips = tips
	insight.Correlation = strings.TrimSpace(insight.Correlation)
	if insight.Correlation == "" {
		insight.Correlation = fallback.Correlation
	}
	return insight
}
