package domain

import (
	"encoding/json"
	"time"
)

// TaskType enumerates the media a generation task produces.
type TaskType string

const (
	TaskTypeImage TaskType = "image"
	TaskTypeVideo TaskType = "video"
)

// Valid reports whether t is a supported task type.
func (t TaskType) Valid() bool {
	return t == TaskTypeImage || t == TaskTypeVideo
}

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TaskStatus) Terminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed
}

// CanTransition reports whether a task may move from s to next.
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskStatusPending:
		return next == TaskStatusProcessing || next == TaskStatusCompleted || next == TaskStatusFailed
	case TaskStatusProcessing:
		return next == TaskStatusCompleted || next == TaskStatusFailed
	default:
		return false
	}
}

// SourcesFor lists the states from which a task may enter next.
func SourcesFor(next TaskStatus) []TaskStatus {
	var out []TaskStatus
	for _, s := range []TaskStatus{TaskStatusPending, TaskStatusProcessing} {
		if s.CanTransition(next) {
			out = append(out, s)
		}
	}
	return out
}

// Category names the kind of generation and which entity RelatedID points into.
type Category string

const (
	CategoryCharacterImage  Category = "character_image"
	CategoryCharacterVideo  Category = "character_video"
	CategoryStoryboardImage Category = "storyboard_image"
	CategoryStoryboardVideo Category = "storyboard_video"
	CategoryUpscale         Category = "upscale"
	CategorySceneImage      Category = "scene_image"
	CategoryPropImage       Category = "prop_image"
)

// AssetUsage maps the category onto the usage recorded for generated assets.
func (c Category) AssetUsage() AssetUsage {
	switch c {
	case CategoryCharacterImage, CategoryCharacterVideo:
		return AssetUsageCharacter
	case CategoryStoryboardImage, CategoryStoryboardVideo, CategoryUpscale:
		return AssetUsageStoryboard
	case CategorySceneImage:
		return AssetUsageScene
	case CategoryPropImage:
		return AssetUsageProp
	default:
		return AssetUsageGeneral
	}
}

// TaskType reports the media a category produces.
func (c Category) TaskType() TaskType {
	switch c {
	case CategoryCharacterVideo, CategoryStoryboardVideo, CategoryUpscale:
		return TaskTypeVideo
	default:
		return TaskTypeImage
	}
}

const (
	// DirectResponseExternalID marks tasks finished synchronously by the provider.
	DirectResponseExternalID = "direct-response"

	ProgressLaunched = 10
	ProgressDone     = 100
)

// Task is one generation job tracked against an external AI provider.
type Task struct {
	ID             string
	ProjectID      string
	OwnerID        string // user owning ProjectID, joined on read
	Type           TaskType
	Model          string
	ProviderID     string
	Category       Category
	RelatedID      string
	Status         TaskStatus
	InputParams    json.RawMessage
	ExternalTaskID string
	Progress       int
	Error          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TaskUpdate carries the fields written alongside a status change. Nil
// pointers leave the column untouched.
type TaskUpdate struct {
	Status         TaskStatus
	ExternalTaskID *string
	Progress       *int
	Error          *string
}
