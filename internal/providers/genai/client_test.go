package genai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"aishortx/internal/providers"
	"aishortx/internal/storage"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	dir := t.TempDir()
	store, err := storage.NewFileStore(dir, "http://cdn.test/static")
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	return NewClient(Options{BaseURL: srv.URL, Store: store, HTTPClient: srv.Client()}), dir
}

func TestGenerateImageStoresInlineData(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G'}
	var gotKey, gotPath string
	client, dir := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-goog-api-key")
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{map[string]any{
				"content": map[string]any{"parts": []any{
					map[string]any{"text": "here you go"},
					map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": base64.StdEncoding.EncodeToString(png)}},
				}},
			}},
		})
	})

	res, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "a castle", RequestID: "task-1"}, "g-key")
	if err != nil {
		t.Fatalf("generate image: %v", err)
	}
	if gotKey != "g-key" {
		t.Fatalf("api key header = %q", gotKey)
	}
	if gotPath != "/v1beta/models/gemini-2.5-flash-image:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if res.URL != "http://cdn.test/static/genai/task-1/01.png" || res.ExternalTaskID != "" {
		t.Fatalf("unexpected result %+v", res)
	}
	stored, err := os.ReadFile(filepath.Join(dir, "genai", "task-1", "01.png"))
	if err != nil || string(stored) != string(png) {
		t.Fatalf("stored image mismatch: %v", err)
	}
}

func TestGenerateImageWithoutImageFails(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"no"}]},"finishReason":"SAFETY"}]}`))
	})
	_, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "x"}, "k")
	if err == nil || !strings.Contains(err.Error(), "SAFETY") {
		t.Fatalf("error = %v, want finish reason", err)
	}
}

func TestGenerateImageAPIError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	})
	_, err := client.GenerateImage(context.Background(), providers.Request{Prompt: "x"}, "k")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error = %v", err)
	}
}

func TestVideoOperationLifecycle(t *testing.T) {
	polls := 0
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && strings.HasSuffix(r.URL.Path, ":predictLongRunning"):
			_, _ = w.Write([]byte(`{"name":"models/veo-3.0-generate-001/operations/op-1"}`))
		case r.Method == http.MethodGet && r.URL.Path == "/v1beta/models/veo-3.0-generate-001/operations/op-1":
			polls++
			if polls == 1 {
				_, _ = w.Write([]byte(`{"name":"op-1","done":false}`))
				return
			}
			_, _ = w.Write([]byte(`{"name":"op-1","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://x/v.mp4"}}]}}}`))
		default:
			http.NotFound(w, r)
		}
	})

	sub, err := client.GenerateVideo(context.Background(), providers.Request{Prompt: "a chase"}, "k")
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if sub.ExternalTaskID != "models/veo-3.0-generate-001/operations/op-1" {
		t.Fatalf("external id = %q", sub.ExternalTaskID)
	}

	res, err := client.QueryTask(context.Background(), sub.ExternalTaskID, "k")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if providers.NormalizeStatus(res.Status) != providers.StatusRunning {
		t.Fatalf("first poll status = %q", res.Status)
	}
	res, err = client.QueryTask(context.Background(), sub.ExternalTaskID, "k")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if providers.NormalizeStatus(res.Status) != providers.StatusSuccess || res.ResultURL() != "https://x/v.mp4" {
		t.Fatalf("second poll = %+v", res)
	}
}

func TestQueryTaskOperationError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"op-2","done":true,"error":{"code":3,"message":"prompt rejected"}}`))
	})
	res, err := client.QueryTask(context.Background(), "operations/op-2", "k")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if providers.NormalizeStatus(res.Status) != providers.StatusFailed || res.FailReason != "prompt rejected" {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestMissingKey(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("no request expected")
	})
	if _, err := client.QueryTask(context.Background(), "operations/x", ""); err != ErrMissingAPIKey {
		t.Fatalf("error = %v", err)
	}
}

func TestGenerateVideoSendsReferenceImage(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/ref.jpg":
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("jpeg-bytes"))
		case strings.HasSuffix(r.URL.Path, "/models/veo-custom:predictLongRunning"):
			_ = json.NewDecoder(r.Body).Decode(&body)
			_, _ = w.Write([]byte(`{"name":"models/veo-custom/operations/op-9"}`))
		default:
			http.NotFound(w, r)
		}
	})
	refURL := client.baseURL + "ref.jpg"

	sub, err := client.GenerateVideo(context.Background(), providers.Request{
		Prompt:      "a chase",
		Model:       "veo-custom",
		ImageURL:    refURL,
		AspectRatio: "9:16",
		Duration:    8,
	}, "k")
	if err != nil {
		t.Fatalf("generate video: %v", err)
	}
	if sub.ExternalTaskID != "models/veo-custom/operations/op-9" {
		t.Fatalf("external id = %q", sub.ExternalTaskID)
	}
	instances, _ := body["instances"].([]any)
	if len(instances) != 1 {
		t.Fatalf("instances = %v", body["instances"])
	}
	instance, _ := instances[0].(map[string]any)
	if instance["prompt"] != "a chase" || instance["image"] == nil {
		t.Fatalf("instance = %v", instance)
	}
	params, _ := body["parameters"].(map[string]any)
	if params["aspectRatio"] != "9:16" || params["durationSeconds"] != float64(8) {
		t.Fatalf("parameters = %v", params)
	}
}

func TestSplitVersion(t *testing.T) {
	cases := []struct{ in, base, version string }{
		{"https://generativelanguage.googleapis.com/v1beta", "https://generativelanguage.googleapis.com/", "v1beta"},
		{"https://generativelanguage.googleapis.com/", "https://generativelanguage.googleapis.com/", ""},
		{"http://127.0.0.1:8080", "http://127.0.0.1:8080/", ""},
		{"", "", ""},
	}
	for _, tc := range cases {
		base, version := splitVersion(tc.in)
		if base != tc.base || version != tc.version {
			t.Fatalf("splitVersion(%q) = %q, %q", tc.in, base, version)
		}
	}
}
