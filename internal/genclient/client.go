// Package genclient wraps the external image-generation API. The API renders
// only an enumerated set of square sizes; the client negotiates the closest
// supported render size and letterboxes the result to the caller's exact
// dimensions.
package genclient

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

	"imageforge/internal/domain"
	"imageforge/internal/infra"
)

// Generator is the contract the pipeline depends on.
type Generator interface {
	Generate(ctx context.Context, prompt string, width, height int) ([]byte, error)
}

// Options controls how the generation client is configured.
type Options struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *infra.Logger
}

// Client calls the generation API over HTTP. Responses carry either inline
// base64 image bytes or a fetchable reference; the client resolves both to
// raw bytes before normalizing.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *infra.Logger
}

type renderRequest struct {
	Model      string `json:"model"`
	Prompt     string `json:"prompt"`
	RenderSize string `json:"render_size"`
}

type renderResponse struct {
	Images []struct {
		B64Data  string `json:"b64_data,omitempty"`
		URL      string `json:"url,omitempty"`
		MimeType string `json:"mime_type,omitempty"`
	} `json:"images"`
	Error struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message,omitempty"`
	} `json:"error"`
}

// NewClient constructs a generation client with sane defaults. Callers may
// provide a nil HTTP client; a reusable one with a generation-length timeout
// will be created.
func NewClient(opts Options) *Client {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 120 * time.Second}
	}

	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.imagegen.example.com/v1"
	}

	model := opts.Model
	if model == "" {
		model = "imagegen-standard"
	}

	logger := opts.Logger
	if logger == nil {
		discard := zerolog.New(io.Discard)
		logger = &discard
	}

	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    baseURL,
		model:      model,
		httpClient: client,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// Generate requests a render at the closest supported size and returns PNG
// bytes of exactly width x height. Width and height fall back to the default
// portrait size when non-positive.
func (c *Client) Generate(ctx context.Context, prompt string, width, height int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: prompt is required", domain.ErrValidation)
	}
	if width <= 0 || height <= 0 {
		width, height = DefaultWidth, DefaultHeight
	}

	renderEdge := pickRenderSize(width, height)
	payload := renderRequest{
		Model:      c.model,
		Prompt:     prompt,
		RenderSize: fmt.Sprintf("%dx%d", renderEdge, renderEdge),
	}

	var response renderResponse
	if err := c.invoke(ctx, "/images/generate", payload, &response); err != nil {
		return nil, err
	}
	if response.Error.Message != "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrGeneration, response.Error.Message)
	}

	raw, err := c.resolveImage(ctx, response)
	if err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("model", c.model).
		Int("render_edge", renderEdge).
		Int("width", width).
		Int("height", height).
		Msg("genclient: image rendered")

	return normalizeImage(raw, width, height)
}

// resolveImage extracts raw bytes from the first usable image in the
// response, following a fetchable reference when no inline data is present.
func (c *Client) resolveImage(ctx context.Context, response renderResponse) ([]byte, error) {
	for _, img := range response.Images {
		if img.B64Data != "" {
			data, err := base64.StdEncoding.DecodeString(img.B64Data)
			if err != nil {
				return nil, fmt.Errorf("%w: decode inline data: %v", domain.ErrGeneration, err)
			}
			return data, nil
		}
		if img.URL != "" {
			data, err := c.fetchReference(ctx, img.URL)
			if err != nil {
				return nil, err
			}
			return data, nil
		}
	}
	return nil, fmt.Errorf("%w: response contained no image payload", domain.ErrGeneration)
}

func (c *Client) invoke(ctx context.Context, path string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr renderResponse
		if decodeErr := json.NewDecoder(resp.Body).Decode(&apiErr); decodeErr == nil && apiErr.Error.Message != "" {
			return fmt.Errorf("%w: status %d: %s", domain.ErrGeneration, resp.StatusCode, apiErr.Error.Message)
		}
		return fmt.Errorf("%w: status %d", domain.ErrGeneration, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", domain.ErrGeneration, err)
	}
	return nil
}

// fetchReference downloads a referenced (non-inline) render.
func (c *Client) fetchReference(ctx context.Context, uri string) ([]byte, error) {
	target := uri
	if !strings.HasPrefix(uri, "http://") && !strings.HasPrefix(uri, "https://") {
		target = c.baseURL + "/" + strings.TrimLeft(uri, "/")
	}
	if _, err := url.Parse(target); err != nil {
		return nil, fmt.Errorf("%w: reference url: %v", domain.ErrFetch, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", domain.ErrFetch, err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("%w: status %d", domain.ErrFetch, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty reference body", domain.ErrFetch)
	}
	return data, nil
}

var _ Generator = (*Client)(nil)
