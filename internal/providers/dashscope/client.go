package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"aishortx/internal/domain"
	"aishortx/internal/infra"
	"aishortx/internal/providers"
)

// ErrMissingAPIKey indicates a call was made without credentials.
var ErrMissingAPIKey = errors.New("dashscope: api key is required")

const (
	imageSynthesisPath = "/services/aigc/text2image/image-synthesis"
	videoSynthesisPath = "/services/aigc/video-generation/video-synthesis"
)

// Options configures the DashScope client.
type Options struct {
	BaseURL        string
	ImageModel     string
	VideoModel     string
	DefaultSize    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// Client talks to the DashScope asynchronous image and video synthesis APIs.
// Every launch returns a task handle that is polled through QueryTask.
type Client struct {
	baseURL     string
	imageModel  string
	videoModel  string
	defaultSize string
	httpClient  *http.Client
	logger      *infra.Logger
}

type synthesisRequest struct {
	Model      string          `json:"model"`
	Input      synthesisInput  `json:"input"`
	Parameters synthesisParams `json:"parameters"`
}

type synthesisInput struct {
	Prompt         string `json:"prompt,omitempty"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	ImgURL         string `json:"img_url,omitempty"`
}

type synthesisParams struct {
	Size     string `json:"size,omitempty"`
	N        int    `json:"n,omitempty"`
	Seed     *int   `json:"seed,omitempty"`
	Duration int    `json:"duration,omitempty"`
}

type taskResponse struct {
	Output struct {
		TaskID     string `json:"task_id"`
		TaskStatus string `json:"task_status"`
		VideoURL   string `json:"video_url"`
		Results    []struct {
			URL     string `json:"url"`
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"results"`
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"output"`
	RequestID string `json:"request_id"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewClient constructs a client with defaults for unset options.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 45 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://dashscope-intl.aliyuncs.com/api/v1"
	}
	imageModel := strings.TrimSpace(opts.ImageModel)
	if imageModel == "" {
		imageModel = "wanx2.1-t2i-turbo"
	}
	videoModel := strings.TrimSpace(opts.VideoModel)
	if videoModel == "" {
		videoModel = "wanx2.1-i2v-turbo"
	}
	defaultSize := strings.TrimSpace(opts.DefaultSize)
	if defaultSize == "" {
		defaultSize = "1024*1024"
	}
	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}
	return &Client{
		baseURL:     baseURL,
		imageModel:  imageModel,
		videoModel:  videoModel,
		defaultSize: defaultSize,
		httpClient:  httpClient,
		logger:      logger,
	}
}

// DefaultModel returns the model used when a task names none.
func (c *Client) DefaultModel(t domain.TaskType) string {
	if t == domain.TaskTypeVideo {
		return c.videoModel
	}
	return c.imageModel
}

// GenerateImage submits an asynchronous text-to-image job.
func (c *Client) GenerateImage(ctx context.Context, req providers.Request, apiKey string) (*providers.ImageResult, error) {
	if req.Prompt == "" {
		return nil, errors.New("dashscope: prompt is required")
	}
	size := strings.ReplaceAll(req.Size, "x", "*")
	if size == "" {
		size = c.defaultSize
	}
	payload := synthesisRequest{
		Model: firstNonEmpty(req.Model, c.imageModel),
		Input: synthesisInput{Prompt: req.Prompt, NegativePrompt: req.NegativePrompt},
		Parameters: synthesisParams{
			Size: size,
			N:    1,
		},
	}
	if req.Seed > 0 {
		seed := req.Seed
		payload.Parameters.Seed = &seed
	}
	taskID, err := c.submit(ctx, imageSynthesisPath, payload, apiKey, req.RequestID)
	if err != nil {
		return nil, err
	}
	return &providers.ImageResult{ExternalTaskID: taskID}, nil
}

// GenerateVideo submits an asynchronous image-to-video job.
func (c *Client) GenerateVideo(ctx context.Context, req providers.Request, apiKey string) (*providers.VideoSubmission, error) {
	if req.Prompt == "" && req.ImageURL == "" {
		return nil, errors.New("dashscope: prompt or image_url is required")
	}
	payload := synthesisRequest{
		Model:      firstNonEmpty(req.Model, c.videoModel),
		Input:      synthesisInput{Prompt: req.Prompt, NegativePrompt: req.NegativePrompt, ImgURL: req.ImageURL},
		Parameters: synthesisParams{Duration: req.Duration},
	}
	taskID, err := c.submit(ctx, videoSynthesisPath, payload, apiKey, req.RequestID)
	if err != nil {
		return nil, err
	}
	return &providers.VideoSubmission{ExternalTaskID: taskID}, nil
}

// QueryTask fetches the current state of a submitted job.
func (c *Client) QueryTask(ctx context.Context, externalTaskID, apiKey string) (*providers.TaskResult, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	if strings.TrimSpace(externalTaskID) == "" {
		return nil, errors.New("dashscope: external task id is required")
	}
	endpoint := c.baseURL + "/tasks/" + url.PathEscape(externalTaskID)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("dashscope: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)

	decoded, err := c.do(httpReq)
	if err != nil {
		return nil, err
	}
	out := decoded.Output
	result := &providers.TaskResult{
		Status:     out.TaskStatus,
		VideoURL:   strings.TrimSpace(out.VideoURL),
		FailReason: firstNonEmpty(out.Message, decoded.Message),
	}
	for _, r := range out.Results {
		if u := strings.TrimSpace(r.URL); u != "" {
			result.ImageURL = u
			break
		}
		if result.FailReason == "" && r.Message != "" {
			result.FailReason = r.Message
		}
	}
	c.logger.Debug().
		Str("external_task_id", externalTaskID).
		Str("task_status", out.TaskStatus).
		Msg("dashscope: polled task")
	return result, nil
}

func (c *Client) submit(ctx context.Context, path string, payload synthesisRequest, apiKey, requestID string) (string, error) {
	if strings.TrimSpace(apiKey) == "" {
		return "", ErrMissingAPIKey
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("dashscope: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("dashscope: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("X-DashScope-Async", "enable")

	decoded, err := c.do(httpReq)
	if err != nil {
		return "", err
	}
	taskID := strings.TrimSpace(decoded.Output.TaskID)
	if taskID == "" {
		return "", errors.New("dashscope: response carried no task_id")
	}
	c.logger.Debug().
		Str("model", payload.Model).
		Str("request_id", requestID).
		Str("external_task_id", taskID).
		Msg("dashscope: submitted task")
	return taskID, nil
}

func (c *Client) do(httpReq *http.Request) (*taskResponse, error) {
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("dashscope: http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("dashscope: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		var detail errorResponse
		if err := json.Unmarshal(raw, &detail); err == nil && detail.Message != "" {
			return nil, fmt.Errorf("dashscope: %s (%s)", detail.Message, detail.Code)
		}
		return nil, fmt.Errorf("dashscope: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	var decoded taskResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("dashscope: decode response: %w", err)
	}
	return &decoded, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

var (
	_ providers.ImageProvider = (*Client)(nil)
	_ providers.VideoProvider = (*Client)(nil)
)
