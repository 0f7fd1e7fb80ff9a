package model

// DefaultModel is used when no model has been selected.
const DefaultModel = "google/gemini-flash-1.5"

// ModelInfo describes a model offered by the chat-completion provider.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AIConfig holds the user's provider credential and model choice.
type AIConfig struct {
	APIKey          string      `json:"apiKey"`
	SelectedModel   string      `json:"selectedModel"`
	AvailableModels []ModelInfo `json:"availableModels,omitempty"`
}

// WellnessInsight is the result of a wellness analysis.
type WellnessInsight struct {
	Summary        string   `json:"summary"`
	Tips           []string `json:"tips"`
	BurnoutWarning bool     `json:"burnoutWarning"`
	Correlation    string   `json:"correlation"`
}
