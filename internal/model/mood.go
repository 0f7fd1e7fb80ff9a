package model

// MoodEntry is one wellness log record. Entries are append-only.
type MoodEntry struct {
	ID                string   `json:"id"`
	Date              string   `json:"date"`
	MoodScore         int      `json:"moodScore"`
	StressScore       int      `json:"stressScore"`
	SleepHours        float64  `json:"sleepHours"`
	SleepQuality      int      `json:"sleepQuality"`
	PhysicalActivity  int      `json:"physicalActivity"`
	SocialConnection  int      `json:"socialConnection"`
	ProductivityScore int      `json:"productivityScore"`
	WaterIntake       int      `json:"waterIntake"`
	NutritionScore    int      `json:"nutritionScore"`
	Journal           string   `json:"journal"`
	ProteinGrams      *float64 `json:"proteinGrams,omitempty"`
	FatGrams          *float64 `json:"fatGrams,omitempty"`
	CarbGrams         *float64 `json:"carbGrams,omitempty"`
	TotalCalories     *float64 `json:"totalCalories,omitempty"`
	ExerciseType      string   `json:"exerciseType,omitempty"`
	HealthSymptoms    string   `json:"healthSymptoms,omitempty"`
	WellnessTags      []string `json:"wellnessTags,omitempty"`
}
