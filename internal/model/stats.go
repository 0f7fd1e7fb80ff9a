package model

// Stats carries points, level and the daily check-in streak.
type Stats struct {
	Points          int    `json:"points"`
	Level           int    `json:"level"`
	Streak          int    `json:"streak"`
	LastCheckInDate string `json:"lastCheckInDate,omitempty"` // YYYY-MM-DD
}
