package model

// GenderNotSpecified is the unset gender value.
const GenderNotSpecified = "Not Specified"

// Profile holds the student's personal details.
type Profile struct {
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
	Gender    string `json:"gender"`
	BloodType string `json:"bloodType"`
	Stream    string `json:"stream"`
	Year      string `json:"collegeYear"`
	Bio       string `json:"bio"`
	Age       int    `json:"age"`
}
