// Package predict talks to the rice-plant prediction service.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/Veraticus/paddy/internal/common"
	"github.com/Veraticus/paddy/internal/model"
	"github.com/Veraticus/paddy/internal/service"
)

// Default endpoint paths of the prediction service.
const (
	DefaultImagePath   = "/predict-image/"
	DefaultTabularPath = "/predict-tabular/"
)

// maxErrorBody caps how much of a failed response is kept for logs.
const maxErrorBody = 4 << 10

// Config holds client configuration.
type Config struct {
	HTTPClient  *http.Client
	BaseURL     string
	ImagePath   string
	TabularPath string
	Timeout     time.Duration
}

// Client implements service.Predictor over HTTP.
type Client struct {
	httpClient *http.Client
	imageURL   string
	tabularURL string
}

// predictionResponse is the JSON body returned by both endpoints. The image
// endpoint adds probabilities, the tabular endpoint adds condition, and
// model failures come back as HTTP 200 with only error set.
type predictionResponse struct {
	Message       string    `json:"message"`
	Condition     string    `json:"condition,omitempty"`
	Error         string    `json:"error,omitempty"`
	Probabilities []float64 `json:"probabilities,omitempty"`
}

// NewClient creates a new prediction client.
func NewClient(cfg Config) (*Client, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("%w: invalid prediction base URL %q", common.ErrInvalidConfig, cfg.BaseURL)
	}
	if cfg.ImagePath == "" {
		cfg.ImagePath = DefaultImagePath
	}
	if cfg.TabularPath == "" {
		cfg.TabularPath = DefaultTabularPath
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		httpClient: httpClient,
		imageURL:   joinURL(base, cfg.ImagePath),
		tabularURL: joinURL(base, cfg.TabularPath),
	}, nil
}

func joinURL(base *url.URL, path string) string {
	u := *base
	u.Path = strings.TrimSuffix(base.Path, "/") + "/" + strings.TrimPrefix(path, "/")
	return u.String()
}

// SubmitImage uploads the selected image as multipart field "file".
func (c *Client) SubmitImage(ctx context.Context, asset *model.ImageAsset) (*service.Prediction, error) {
	if asset.Empty() {
		return nil, common.ErrMissingInput
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	contentType := asset.ContentType
	if contentType == "" {
		contentType = http.DetectContentType(asset.Data)
	}
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, escapeQuotes(asset.Name)))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create multipart part: %w", err)
	}
	if _, err := part.Write(asset.Data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	slog.Debug("Submitting image for prediction",
		"file", asset.Name,
		"bytes", len(asset.Data),
		"content_type", contentType)

	return c.post(ctx, c.imageURL, writer.FormDataContentType(), body)
}

// SubmitTabular posts the six measurements as JSON.
func (c *Client) SubmitTabular(ctx context.Context, sample model.TabularSample) (*service.Prediction, error) {
	payload, err := json.Marshal(sample)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tabular sample: %w", err)
	}

	slog.Debug("Submitting tabular sample for prediction", "sample", sample)

	return c.post(ctx, c.tabularURL, "application/json", bytes.NewReader(payload))
}

func (c *Client) post(ctx context.Context, endpoint, contentType string, body io.Reader) (*service.Prediction, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("%w: prediction API error: %d - %s", common.ErrTransport, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var decoded predictionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: failed to decode response: %w", common.ErrTransport, err)
	}
	if decoded.Error != "" {
		return nil, fmt.Errorf("%w: prediction service error: %s", common.ErrTransport, decoded.Error)
	}
	if strings.TrimSpace(decoded.Message) == "" {
		return nil, fmt.Errorf("%w: response has no message", common.ErrTransport)
	}

	slog.Debug("Prediction received",
		"endpoint", endpoint,
		"message", decoded.Message,
		"condition", decoded.Condition,
		"probabilities", decoded.Probabilities)

	return &service.Prediction{
		Message:       decoded.Message,
		Condition:     decoded.Condition,
		Probabilities: decoded.Probabilities,
	}, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
