package service

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"study-companion/internal/model"
)

// ResourceInput represents data required to add a resource.
type ResourceInput struct {
	SubjectID string
	Title     string
	URL       string
	Notes     string
	FileName  string
	MIMEType  string
	FileData  []byte
}

// BuildResource detects the resource type and fills the title.
func BuildResource(input ResourceInput) (model.Resource, error) {
	title := strings.TrimSpace(input.Title)
	url := strings.TrimSpace(input.URL)
	notes := strings.TrimSpace(input.Notes)
	hasFile := input.FileName != "" || len(input.FileData) > 0
	if title == "" && !hasFile {
		return model.Resource{}, fmt.Errorf("title or file is required: %w", ErrInvalidInput)
	}

	res := model.Resource{
		ID:        uuid.NewString(),
		SubjectID: strings.TrimSpace(input.SubjectID),
		Title:     title,
		URL:       url,
		Notes:     notes,
		Type:      DetectResourceType(url, notes, hasFile, input.MIMEType),
		FileName:  input.FileName,
	}
	if res.SubjectID == "" {
		res.SubjectID = model.GlobalSubjectID
	}
	if res.Title == "" {
		res.Title = input.FileName
	}
	if res.Title == "" {
		res.Title = "Untitled Resource"
	}
	if len(input.FileData) > 0 {
		mime := input.MIMEType
		if mime == "" {
			mime = "application/octet-stream"
		}
		res.FileData = "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(input.FileData)
	}
	return res, nil
}

// DetectResourceType classifies a resource from its link, notes and attachment.
func DetectResourceType(url, notes string, hasFile bool, mimeType string) model.ResourceType {
	lower := strings.ToLower(url)
	switch {
	case strings.Contains(lower, "youtube.com") || strings.Contains(lower, "youtu.be"):
		return model.ResourceVideo
	case hasFile && strings.HasPrefix(mimeType, "image/"):
		return model.ResourceImage
	case hasFile:
		return model.ResourceFile
	case url == "" && notes != "":
		return model.ResourceNote
	default:
		return model.ResourceDocument
	}
}

// AddResource stores a new resource. Resources award no points.
func (s *StateService) AddResource(ctx context.Context, input ResourceInput) (model.Resource, error) {
	res, err := BuildResource(input)
	if err != nil {
		return model.Resource{}, err
	}
	err = s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		state.Resources = append(state.Resources, res)
		return state, nil
	})
	return res, err
}

func (s *StateService) DeleteResource(ctx context.Context, id string) error {
	return s.dispatch(ctx, func(state model.AppState) (model.AppState, error) {
		before := len(state.Resources)
		state.Resources = filter(state.Resources, func(res model.Resource) bool { return res.ID != id })
		if len(state.Resources) == before {
			return state, fmt.Errorf("resource %s: %w", id, ErrNotFound)
		}
		return state, nil
	})
}
