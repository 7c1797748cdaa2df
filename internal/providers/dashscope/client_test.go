package dashscope

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"aishortx/internal/domain"
	"aishortx/internal/providers"
)

func TestGenerateImageSubmitsAsyncTask(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	transport.setJSONResponse("/api/v1"+imageSynthesisPath, map[string]any{
		"output":     map[string]any{"task_id": "ext-img", "task_status": "PENDING"},
		"request_id": "req-1",
	})

	res, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "a knight", Size: "720x1280", RequestID: "t1"}, "sk-test")
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if res.ExternalTaskID != "ext-img" || len(res.ResultURLs()) != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := transport.lastHeader.Get("X-DashScope-Async"); got != "enable" {
		t.Fatalf("X-DashScope-Async = %q", got)
	}
	if got := transport.lastHeader.Get("Authorization"); got != "Bearer sk-test" {
		t.Fatalf("Authorization = %q", got)
	}
	var payload map[string]any
	if err := json.Unmarshal(transport.lastBody, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload["model"] != "wanx2.1-t2i-turbo" {
		t.Fatalf("model = %v", payload["model"])
	}
	params := payload["parameters"].(map[string]any)
	if params["size"] != "720*1280" {
		t.Fatalf("size = %v", params["size"])
	}
	if _, ok := params["seed"]; ok {
		t.Fatalf("seed should be omitted when unset")
	}
}

func TestGenerateVideoUsesReferenceImage(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	transport.setJSONResponse("/api/v1"+videoSynthesisPath, map[string]any{
		"output": map[string]any{"task_id": "ext-1", "task_status": "PENDING"},
	})

	sub, err := client.GenerateVideo(context.Background(), providers.Request{Model: "wanx2.1-i2v-plus", ImageURL: "https://x/ref.png", Duration: 5}, "sk")
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if sub.ExternalTaskID != "ext-1" {
		t.Fatalf("external id = %q", sub.ExternalTaskID)
	}
	var payload map[string]any
	_ = json.Unmarshal(transport.lastBody, &payload)
	if payload["model"] != "wanx2.1-i2v-plus" {
		t.Fatalf("model = %v", payload["model"])
	}
	if input := payload["input"].(map[string]any); input["img_url"] != "https://x/ref.png" {
		t.Fatalf("img_url = %v", input["img_url"])
	}
}

func TestGenerateRequiresKey(t *testing.T) {
	client := NewClient(Options{HTTPClient: &http.Client{Transport: &captureTransport{responses: map[string]responseStub{}}}})
	if _, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "x"}, " "); err != ErrMissingAPIKey {
		t.Fatalf("error = %v, want ErrMissingAPIKey", err)
	}
}

func TestSubmitSurfacesAPIError(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	transport.responses["/api/v1"+imageSynthesisPath] = responseStub{
		status: http.StatusTooManyRequests,
		body:   []byte(`{"code":"Throttling.AllocationQuota","message":"quota exceeded"}`),
	}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	_, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "x"}, "sk")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error = %v, want quota message", err)
	}
}

func TestQueryTaskVideoSucceeded(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	transport.setJSONResponse("https://dashscope-intl.aliyuncs.com/api/v1/tasks/ext-1", map[string]any{
		"output": map[string]any{"task_id": "ext-1", "task_status": "SUCCEEDED", "video_url": "https://x/v.mp4"},
	})

	res, err := client.QueryTask(context.Background(), "ext-1", "sk")
	if err != nil {
		t.Fatalf("query task: %v", err)
	}
	if providers.NormalizeStatus(res.Status) != providers.StatusSuccess || res.ResultURL() != "https://x/v.mp4" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestQueryTaskImageFailed(t *testing.T) {
	transport := &captureTransport{responses: map[string]responseStub{}}
	client := NewClient(Options{HTTPClient: &http.Client{Transport: transport}})
	transport.setJSONResponse("https://dashscope-intl.aliyuncs.com/api/v1/tasks/ext-2", map[string]any{
		"output": map[string]any{
			"task_id":     "ext-2",
			"task_status": "FAILED",
			"code":        "DataInspectionFailed",
			"message":     "input data may contain inappropriate content",
		},
	})

	res, err := client.QueryTask(context.Background(), "ext-2", "sk")
	if err != nil {
		t.Fatalf("query task: %v", err)
	}
	if providers.NormalizeStatus(res.Status) != providers.StatusFailed {
		t.Fatalf("status = %q", res.Status)
	}
	if res.FailReason != "input data may contain inappropriate content" {
		t.Fatalf("fail reason = %q", res.FailReason)
	}
}

func TestDefaultModel(t *testing.T) {
	client := NewClient(Options{ImageModel: "img", VideoModel: "vid"})
	if client.DefaultModel(domain.TaskTypeImage) != "img" || client.DefaultModel(domain.TaskTypeVideo) != "vid" {
		t.Fatalf("unexpected default models")
	}
}

type captureTransport struct {
	responses  map[string]responseStub
	lastBody   []byte
	lastHeader http.Header
}

type responseStub struct {
	status int
	header http.Header
	body   []byte
}

func (c *captureTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	c.lastHeader = req.Header.Clone()
	if req.Method == http.MethodPost {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		req.Body.Close()
		c.lastBody = body
		if stub, ok := c.responses[req.URL.Path]; ok {
			return stub.toResponse(), nil
		}
	}
	if req.Method == http.MethodGet {
		if stub, ok := c.responses[req.URL.String()]; ok {
			return stub.toResponse(), nil
		}
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

func (c *captureTransport) setJSONResponse(key string, payload any) {
	body, _ := json.Marshal(payload)
	c.responses[key] = responseStub{
		status: http.StatusOK,
		header: http.Header{"Content-Type": []string{"application/json"}},
		body:   body,
	}
}

func (s responseStub) toResponse() *http.Response {
	header := http.Header{}
	for k, values := range s.header {
		header[k] = append([]string(nil), values...)
	}
	return &http.Response{
		StatusCode: s.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewReader(s.body)),
	}
}
