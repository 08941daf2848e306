package engine

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"server/internal/domain"
)

func TestVeoSubmitStartsOperation(t *testing.T) {
	var gotPath string
	var gotBody veoPredictRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if key := r.URL.Query().Get("key"); key != "test-key" {
			t.Errorf("api key = %q, want test-key", key)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(veoOperation{Name: "operations/abc123"})
	}))
	defer ts.Close()

	client := NewVeo(VeoOptions{APIKey: "test-key", BaseURL: ts.URL, Model: "veo-test"})
	handle, err := client.Submit(context.Background(), SubmitRequest{
		ImageBytes:  []byte{0x89, 0x50, 0x4e, 0x47},
		Prompt:      "Cinematic video, high quality, 4k",
		AspectRatio: domain.AspectLandscape,
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if handle != "operations/abc123" {
		t.Fatalf("handle = %q, want operations/abc123", handle)
	}
	if !strings.Contains(gotPath, "veo-test:predictLongRunning") {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if len(gotBody.Instances) != 1 || gotBody.Instances[0].Image == nil {
		t.Fatalf("expected one instance with image, got %+v", gotBody.Instances)
	}
	if gotBody.Parameters.AspectRatio != "16:9" {
		t.Fatalf("aspect = %q, want 16:9", gotBody.Parameters.AspectRatio)
	}
}

func TestVeoSubmitNormalizesSquareAspect(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body veoPredictRequest
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.Parameters.AspectRatio != "9:16" {
			t.Errorf("aspect = %q, want 9:16", body.Parameters.AspectRatio)
		}
		_ = json.NewEncoder(w).Encode(veoOperation{Name: "operations/sq1"})
	}))
	defer ts.Close()

	client := NewVeo(VeoOptions{APIKey: "test-key", BaseURL: ts.URL})
	if _, err := client.Submit(context.Background(), SubmitRequest{AspectRatio: domain.AspectSquare}); err != nil {
		t.Fatalf("submit: %v", err)
	}
}

func TestVeoSubmitWithoutKeyIsUnavailable(t *testing.T) {
	client := NewVeo(VeoOptions{})
	_, err := client.Submit(context.Background(), SubmitRequest{AspectRatio: domain.AspectPortrait})
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
}

func TestVeoSubmitProviderErrorIsUnavailable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"code":429,"message":"quota exceeded"}}`))
	}))
	defer ts.Close()

	client := NewVeo(VeoOptions{APIKey: "test-key", BaseURL: ts.URL})
	_, err := client.Submit(context.Background(), SubmitRequest{AspectRatio: domain.AspectPortrait})
	if !errors.Is(err, domain.ErrEngineUnavailable) {
		t.Fatalf("err = %v, want ErrEngineUnavailable", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("error should carry provider message, got %v", err)
	}
}

func TestVeoPollStates(t *testing.T) {
	responses := map[string]string{
		"operations/pending": `{"name":"operations/pending","done":false}`,
		"operations/failed":  `{"name":"operations/failed","done":true,"error":{"code":13,"message":"render failed"}}`,
		"operations/done":    `{"name":"operations/done","done":true,"response":{"generateVideoResponse":{"generatedSamples":[{"video":{"uri":"https://cdn.example.com/out.mp4"}}]}}}`,
	}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := responses[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	defer ts.Close()

	client := NewVeo(VeoOptions{APIKey: "test-key", BaseURL: ts.URL})

	res, err := client.Poll(context.Background(), "operations/pending")
	if err != nil || res.Done {
		t.Fatalf("pending poll = %+v, %v; want not done", res, err)
	}

	res, err = client.Poll(context.Background(), "operations/failed")
	if err != nil || !res.Done || !res.Failed {
		t.Fatalf("failed poll = %+v, %v; want done+failed", res, err)
	}

	res, err = client.Poll(context.Background(), "operations/done")
	if err != nil || !res.Done || res.Failed {
		t.Fatalf("done poll = %+v, %v; want done", res, err)
	}
	if !strings.HasPrefix(res.ResultURI, "https://cdn.example.com/out.mp4") {
		t.Fatalf("result uri = %q", res.ResultURI)
	}
	if !strings.Contains(res.ResultURI, "key=test-key") {
		t.Fatalf("result uri should be signed with the api key, got %q", res.ResultURI)
	}
}

func TestSimulatorCompletesAfterConfiguredPolls(t *testing.T) {
	sim := NewSimulator(3)
	handle, err := sim.Submit(context.Background(), SubmitRequest{})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	for i := 0; i < 2; i++ {
		res, err := sim.Poll(context.Background(), handle)
		if err != nil {
			t.Fatalf("poll %d: %v", i, err)
		}
		if res.Done {
			t.Fatalf("poll %d completed early", i)
		}
	}
	res, err := sim.Poll(context.Background(), handle)
	if err != nil {
		t.Fatalf("final poll: %v", err)
	}
	if !res.Done || res.ResultURI != DemoResultURI {
		t.Fatalf("final poll = %+v, want done with demo uri", res)
	}
}
