package model

// ResourceType is the kind of study material.
type ResourceType string

const (
	ResourceVideo    ResourceType = "video"
	ResourceDocument ResourceType = "document"
	ResourceNote     ResourceType = "note"
	ResourceFile     ResourceType = "file"
	ResourceImage    ResourceType = "image"
)

// Resource is a link, note or embedded file attached to a subject.
type Resource struct {
	ID        string       `json:"id"`
	SubjectID string       `json:"subjectId"`
	Title     string       `json:"title"`
	URL       string       `json:"url,omitempty"`
	Notes     string       `json:"notes,omitempty"`
	Type      ResourceType `json:"type"`
	FileName  string       `json:"fileName,omitempty"`
	FileData  string       `json:"fileData,omitempty"` // data URL
}
