package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"aishortx/internal/domain"
)

// Request is the provider-neutral view of a task's input parameters.
type Request struct {
	Model          string
	Prompt         string
	NegativePrompt string
	Size           string
	AspectRatio    string
	ImageURL       string // reference frame for image-to-video and upscale
	Duration       int
	Seed           int
	RequestID      string
}

type requestParams struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt"`
	Size           string `json:"size"`
	AspectRatio    string `json:"aspect_ratio"`
	ImageURL       string `json:"image_url"`
	Duration       int    `json:"duration"`
	Seed           int    `json:"seed"`
}

// RequestFromTask decodes task.InputParams and binds the resolved model.
func RequestFromTask(task *domain.Task, model string) (Request, error) {
	var p requestParams
	if len(task.InputParams) > 0 {
		if err := json.Unmarshal(task.InputParams, &p); err != nil {
			return Request{}, fmt.Errorf("decode input params: %w", err)
		}
	}
	return Request{
		Model:          model,
		Prompt:         strings.TrimSpace(p.Prompt),
		NegativePrompt: strings.TrimSpace(p.NegativePrompt),
		Size:           strings.TrimSpace(p.Size),
		AspectRatio:    strings.TrimSpace(p.AspectRatio),
		ImageURL:       strings.TrimSpace(p.ImageURL),
		Duration:       p.Duration,
		Seed:           p.Seed,
		RequestID:      task.ID,
	}, nil
}

// ImageResult carries either a direct result (URL, URLs) or a remote handle.
type ImageResult struct {
	URL            string
	URLs           []string
	ExternalTaskID string
}

// ResultURLs returns the direct result URLs, URL first, without blanks or repeats.
func (r *ImageResult) ResultURLs() []string {
	if r == nil {
		return nil
	}
	seen := make(map[string]struct{}, len(r.URLs)+1)
	var out []string
	for _, u := range append([]string{r.URL}, r.URLs...) {
		u = strings.TrimSpace(u)
		if u == "" {
			continue
		}
		if _, ok := seen[u]; ok {
			continue
		}
		seen[u] = struct{}{}
		out = append(out, u)
	}
	return out
}

// VideoSubmission is the handle returned by an asynchronous video launch.
type VideoSubmission struct {
	ExternalTaskID string
}

// TaskResult is a provider's answer to a status query, in its own vocabulary.
type TaskResult struct {
	Status     string
	VideoURL   string
	ImageURL   string
	URL        string
	FailReason string
}

// ResultURL picks the usable result: video first, then the generic and image URLs.
func (r *TaskResult) ResultURL() string {
	if r == nil {
		return ""
	}
	for _, u := range []string{r.VideoURL, r.URL, r.ImageURL} {
		if u = strings.TrimSpace(u); u != "" {
			return u
		}
	}
	return ""
}

// Querier polls a remote task by its external handle.
type Querier interface {
	QueryTask(ctx context.Context, externalTaskID, apiKey string) (*TaskResult, error)
}

// ImageProvider generates images. It may additionally implement Querier when
// it returns remote handles.
type ImageProvider interface {
	GenerateImage(ctx context.Context, req Request, apiKey string) (*ImageResult, error)
}

// VideoProvider submits videos asynchronously and polls them.
type VideoProvider interface {
	Querier
	GenerateVideo(ctx context.Context, req Request, apiKey string) (*VideoSubmission, error)
}
