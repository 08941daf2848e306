package engine

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"server/internal/domain"
	"server/internal/infra"
)

// VeoOptions controls how the Veo client is configured.
type VeoOptions struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Veo talks to the Generative Language video API. Submit launches a
// long-running operation and Poll fetches its state by name.
type Veo struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type veoInstance struct {
	Prompt string    `json:"prompt"`
	Image  *veoImage `json:"image,omitempty"`
}

type veoImage struct {
	BytesBase64Encoded string `json:"bytesBase64Encoded"`
	MimeType           string `json:"mimeType"`
}

type veoParameters struct {
	AspectRatio     string `json:"aspectRatio,omitempty"`
	NumberOfVideos  int    `json:"sampleCount,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

type veoPredictRequest struct {
	Instances  []veoInstance  `json:"instances"`
	Parameters *veoParameters `json:"parameters,omitempty"`
}

type veoOperation struct {
	Name     string           `json:"name"`
	Done     bool             `json:"done"`
	Response *veoOperationRsp `json:"response,omitempty"`
	Error    *veoOperationErr `json:"error,omitempty"`
}

type veoOperationRsp struct {
	GenerateVideoResponse struct {
		GeneratedSamples []struct {
			Video struct {
				URI string `json:"uri"`
			} `json:"video"`
		} `json:"generatedSamples"`
	} `json:"generateVideoResponse"`
}

type veoOperationErr struct {
	Code    int    `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

type veoErrorResponse struct {
	Error struct {
		Code    int    `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewVeo constructs a Veo client with sane defaults. Callers may provide a
// nil HTTP client; a reusable one with a bounded timeout will be created.
func NewVeo(opts VeoOptions) *Veo {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://generativelanguage.googleapis.com/v1beta"
	}

	model := opts.Model
	if model == "" {
		model = "veo-3.1-fast-generate-preview"
	}

	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}

	return &Veo{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (v *Veo) Model() string {
	return v.model
}

// Submit launches a video generation operation and returns its handle.
func (v *Veo) Submit(ctx context.Context, req SubmitRequest) (string, error) {
	if v.apiKey == "" {
		return "", fmt.Errorf("%w: api key not configured", domain.ErrEngineUnavailable)
	}

	aspect := normalizeAspect(req.AspectRatio)
	if aspect != req.AspectRatio {
		v.logger.Warn().
			Str("requested", string(req.AspectRatio)).
			Str("forwarded", string(aspect)).
			Msg("veo: unsupported aspect ratio normalized")
	}

	payload := veoPredictRequest{
		Instances:  []veoInstance{{Prompt: req.Prompt}},
		Parameters: &veoParameters{AspectRatio: string(aspect), NumberOfVideos: 1},
	}
	if len(req.ImageBytes) > 0 {
		mime := req.ImageMIME
		if mime == "" {
			mime = "image/png"
		}
		payload.Instances[0].Image = &veoImage{
			BytesBase64Encoded: base64.StdEncoding.EncodeToString(req.ImageBytes),
			MimeType:           mime,
		}
	}

	var op veoOperation
	path := fmt.Sprintf("/models/%s:predictLongRunning", url.PathEscape(v.model))
	if err := v.invoke(ctx, http.MethodPost, path, payload, &op); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrEngineUnavailable, err)
	}
	if op.Name == "" {
		return "", fmt.Errorf("%w: provider returned no operation name", domain.ErrEngineUnavailable)
	}

	v.logger.Info().Str("operation", op.Name).Str("model", v.model).Msg("veo: operation started")
	return op.Name, nil
}

// Poll fetches the current state of an operation by handle.
func (v *Veo) Poll(ctx context.Context, handle string) (PollResult, error) {
	var op veoOperation
	if err := v.invoke(ctx, http.MethodGet, "/"+strings.TrimLeft(handle, "/"), nil, &op); err != nil {
		return PollResult{}, err
	}
	if !op.Done {
		return PollResult{}, nil
	}
	if op.Error != nil {
		v.logger.Warn().
			Str("operation", handle).
			Int("code", op.Error.Code).
			Str("message", op.Error.Message).
			Msg("veo: operation failed")
		return PollResult{Done: true, Failed: true}, nil
	}
	uri := ""
	if op.Response != nil {
		samples := op.Response.GenerateVideoResponse.GeneratedSamples
		if len(samples) > 0 {
			uri = samples[0].Video.URI
		}
	}
	if uri == "" {
		return PollResult{Done: true, Failed: true}, nil
	}
	return PollResult{Done: true, ResultURI: v.signedURI(uri)}, nil
}

// signedURI appends the API key so the result can be fetched directly.
func (v *Veo) signedURI(uri string) string {
	if v.apiKey == "" || strings.Contains(uri, "key=") {
		return uri
	}
	sep := "?"
	if strings.Contains(uri, "?") {
		sep = "&"
	}
	return uri + sep + "key=" + url.QueryEscape(v.apiKey)
}

func (v *Veo) invoke(ctx context.Context, method, path string, payload, out any) error {
	endpoint := v.baseURL + path
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	q := req.URL.Query()
	if v.apiKey != "" {
		q.Set("key", v.apiKey)
	}
	req.URL.RawQuery = q.Encode()
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := v.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("invoke veo: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr veoErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("veo status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		data, _ := io.ReadAll(resp.Body)
		if len(data) > 0 {
			return fmt.Errorf("veo status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
		}
		return fmt.Errorf("veo status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode veo response: %w", err)
	}
	return nil
}

var _ Client = (*Veo)(nil)
