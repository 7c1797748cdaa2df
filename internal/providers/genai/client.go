package genai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	gemini "google.golang.org/genai"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/providers"
)

// ErrMissingAPIKey indicates a call was made without credentials.
var ErrMissingAPIKey = errors.New("genai: api key is required")

// BlobStore keeps inline image bytes and hands back a public URL for them.
type BlobStore interface {
	Write(ctx context.Context, key string, data []byte) (string, error)
	URL(key string) string
}

// Options controls how the Gemini client is configured. A BaseURL ending in
// an API version segment (".../v1beta") sets APIVersion as well.
type Options struct {
	BaseURL    string
	APIVersion string
	ImageModel string
	VideoModel string
	Store      BlobStore
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client speaks the Gemini API through the google genai SDK. Images come back
// inline and are finished synchronously; Veo videos run as long-running
// operations.
type Client struct {
	baseURL    string
	apiVersion string
	imageModel string
	videoModel string
	store      BlobStore
	httpClient *http.Client
	logger     *infra.Logger
}

// NewClient constructs a Gemini client with defaults for unset options.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	baseURL, version := splitVersion(opts.BaseURL)
	if opts.APIVersion != "" {
		version = opts.APIVersion
	}
	if version == "" {
		version = "v1beta"
	}
	imageModel := opts.ImageModel
	if imageModel == "" {
		imageModel = "gemini-2.5-flash-image"
	}
	videoModel := opts.VideoModel
	if videoModel == "" {
		videoModel = "veo-3.0-generate-001"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		baseURL:    baseURL,
		apiVersion: version,
		imageModel: imageModel,
		videoModel: videoModel,
		store:      opts.Store,
		httpClient: client,
		logger:     logger,
	}
}

// DefaultModel returns the model used when a task names none.
func (c *Client) DefaultModel(t domain.TaskType) string {
	if t == domain.TaskTypeVideo {
		return c.videoModel
	}
	return c.imageModel
}

// sdk builds an SDK client bound to one tenant's key. Keys are resolved per
// task, so clients are not shared.
func (c *Client) sdk(ctx context.Context, apiKey string) (*gemini.Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := gemini.NewClient(ctx, &gemini.ClientConfig{
		APIKey:     apiKey,
		Backend:    gemini.BackendGeminiAPI,
		HTTPClient: c.httpClient,
		HTTPOptions: gemini.HTTPOptions{
			BaseURL:    c.baseURL,
			APIVersion: c.apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("genai: new client: %w", err)
	}
	return client, nil
}

// GenerateImage calls generateContent and stores every inline image it gets
// back. The result is always direct; Gemini images have no remote handle.
func (c *Client) GenerateImage(ctx context.Context, req providers.Request, apiKey string) (*providers.ImageResult, error) {
	if c.store == nil {
		return nil, errors.New("genai: no blob store configured for inline images")
	}
	client, err := c.sdk(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	config := &gemini.GenerateContentConfig{ResponseModalities: []string{"IMAGE"}}
	if req.AspectRatio != "" {
		config.ImageConfig = &gemini.ImageConfig{AspectRatio: req.AspectRatio}
	}
	model := firstNonEmpty(req.Model, c.imageModel)
	contents := []*gemini.Content{gemini.NewContentFromText(buildImagePrompt(req), gemini.RoleUser)}

	response, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("genai: generate content: %w", err)
	}

	var urls []string
	reason := ""
	for _, candidate := range response.Candidates {
		if candidate == nil {
			continue
		}
		if reason == "" {
			reason = string(candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
				continue
			}
			key := fmt.Sprintf("genai/%s/%02d.%s", storageSegment(req.RequestID), len(urls)+1, extensionFor(part.InlineData.MIMEType))
			stored, err := c.store.Write(ctx, key, part.InlineData.Data)
			if err != nil {
				return nil, fmt.Errorf("genai: store image: %w", err)
			}
			urls = append(urls, c.store.URL(stored))
		}
	}
	if len(urls) == 0 {
		return nil, fmt.Errorf("genai: no image content returned %s", strings.TrimSpace(reason))
	}

	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", model).
		Int("quantity", len(urls)).
		Msg("genai: generated image assets")

	return &providers.ImageResult{URL: urls[0], URLs: urls}, nil
}

// GenerateVideo starts a Veo long-running operation. The operation name is
// the external task id.
func (c *Client) GenerateVideo(ctx context.Context, req providers.Request, apiKey string) (*providers.VideoSubmission, error) {
	if req.Prompt == "" {
		return nil, errors.New("genai: prompt is required")
	}
	client, err := c.sdk(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	var image *gemini.Image
	if req.ImageURL != "" {
		data, mime, err := c.download(ctx, req.ImageURL)
		if err != nil {
			return nil, fmt.Errorf("genai: fetch reference image: %w", err)
		}
		image = &gemini.Image{ImageBytes: data, MIMEType: firstNonEmpty(mime, "image/png")}
	}
	config := &gemini.GenerateVideosConfig{
		AspectRatio:    req.AspectRatio,
		NegativePrompt: req.NegativePrompt,
	}
	if req.Duration > 0 {
		seconds := int32(req.Duration)
		config.DurationSeconds = &seconds
	}
	model := firstNonEmpty(req.Model, c.videoModel)

	op, err := client.Models.GenerateVideos(ctx, model, req.Prompt, image, config)
	if err != nil {
		return nil, fmt.Errorf("genai: generate videos: %w", err)
	}
	if op == nil || op.Name == "" {
		return nil, errors.New("genai: operation name missing from response")
	}
	c.logger.Debug().
		Str("request_id", req.RequestID).
		Str("model", model).
		Str("operation", op.Name).
		Msg("genai: started video operation")
	return &providers.VideoSubmission{ExternalTaskID: op.Name}, nil
}

// QueryTask polls a long-running operation.
func (c *Client) QueryTask(ctx context.Context, externalTaskID, apiKey string) (*providers.TaskResult, error) {
	name := strings.Trim(strings.TrimSpace(externalTaskID), "/")
	if name == "" {
		return nil, errors.New("genai: operation name is required")
	}
	client, err := c.sdk(ctx, apiKey)
	if err != nil {
		return nil, err
	}
	op, err := client.Operations.GetVideosOperation(ctx, &gemini.GenerateVideosOperation{Name: name}, nil)
	if err != nil {
		return nil, fmt.Errorf("genai: get operation: %w", err)
	}
	if !op.Done {
		return &providers.TaskResult{Status: "running"}, nil
	}
	if len(op.Error) > 0 {
		return &providers.TaskResult{Status: "failed", FailReason: operationMessage(op.Error)}, nil
	}
	result := &providers.TaskResult{Status: "succeeded"}
	if op.Response == nil {
		return result, nil
	}
	for _, generated := range op.Response.GeneratedVideos {
		if generated == nil || generated.Video == nil {
			continue
		}
		if uri := strings.TrimSpace(generated.Video.URI); uri != "" {
			result.VideoURL = uri
			break
		}
	}
	if result.VideoURL == "" && len(op.Response.RAIMediaFilteredReasons) > 0 {
		result.Status = "failed"
		result.FailReason = strings.Join(op.Response.RAIMediaFilteredReasons, "; ")
	}
	return result, nil
}

func operationMessage(status map[string]any) string {
	if msg, ok := status["message"].(string); ok && msg != "" {
		return msg
	}
	return fmt.Sprintf("operation failed: %v", status)
}

func (c *Client) download(ctx context.Context, target string) ([]byte, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create download request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		data, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("download file status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	blob, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	return blob, resp.Header.Get("Content-Type"), nil
}

// splitVersion separates a trailing "/v1" or "/v1beta" segment from base.
func splitVersion(base string) (string, string) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", ""
	}
	idx := strings.LastIndex(base, "/")
	if idx < 0 {
		return base + "/", ""
	}
	last := base[idx+1:]
	if strings.HasPrefix(last, "v1") {
		return base[:idx+1], last
	}
	return base + "/", ""
}

func buildImagePrompt(req providers.Request) string {
	var b strings.Builder
	b.WriteString(req.Prompt)
	if neg := req.NegativePrompt; neg != "" {
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Avoid: ")
		b.WriteString(neg)
	}
	if b.Len() == 0 {
		b.WriteString("Create a cinematic still frame")
	}
	return b.String()
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "png"
	}
}

func storageSegment(requestID string) string {
	if requestID = strings.TrimSpace(requestID); requestID == "" {
		return fmt.Sprintf("adhoc-%d", time.Now().UnixNano())
	}
	return url.PathEscape(requestID)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

var (
	_ providers.ImageProvider = (*Client)(nil)
	_ providers.VideoProvider = (*Client)(nil)
)
