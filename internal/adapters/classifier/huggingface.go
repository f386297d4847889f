package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/bainoculars/internal/domain/model"
	"github.com/okian/bainoculars/pkg/logger"
)

const (
	defaultEndpoint = "https://api-inference.huggingface.co/models"
	defaultModel    = "chriamue/bird-species-classifier"
	defaultTimeout  = 15 * time.Second
	uploadQuality   = 90
	maxErrorBody    = 512
)

// HuggingFace classifies frames through the Hugging Face Inference API
// image-classification task.
type HuggingFace struct {
	endpoint   string
	model      string
	token      string
	normalize  bool
	httpClient *http.Client
	logger     logger.Logger
}

// HFOption configures the HuggingFace client.
type HFOption func(*HuggingFace)

// WithEndpoint overrides the API base URL.
func WithEndpoint(u string) HFOption {
	return func(h *HuggingFace) {
		if u != "" {
			h.endpoint = strings.TrimRight(u, "/")
		}
	}
}

// WithModel sets the model repository id.
func WithModel(m string) HFOption {
	return func(h *HuggingFace) {
		if m != "" {
			h.model = m
		}
	}
}

// WithToken sets the bearer token.
func WithToken(t string) HFOption {
	return func(h *HuggingFace) { h.token = t }
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) HFOption {
	return func(h *HuggingFace) {
		if d > 0 {
			h.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) HFOption {
	return func(h *HuggingFace) {
		if c != nil {
			h.httpClient = c
		}
	}
}

// WithRawLabels keeps labels exactly as the model returns them.
func WithRawLabels() HFOption {
	return func(h *HuggingFace) { h.normalize = false }
}

// NewHuggingFace creates an Inference API client.
func NewHuggingFace(opts ...HFOption) *HuggingFace {
	h := &HuggingFace{
		endpoint:   defaultEndpoint,
		model:      defaultModel,
		normalize:  true,
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     logger.Get().Named("classifier"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

type hfPrediction struct {
	Label string  `json:"label"`
	Score float64 `json:"score"`
}

type hfError struct {
	Error         string  `json:"error"`
	EstimatedTime float64 `json:"estimated_time"`
}

// Classify uploads f as JPEG and returns the ranked labels.
func (h *HuggingFace) Classify(ctx context.Context, f model.Frame) ([]model.Prediction, error) {
	var body bytes.Buffer
	if err := jpeg.Encode(&body, f.Image(), &jpeg.Options{Quality: uploadQuality}); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrClassify, err)
	}
	return h.ClassifyJPEG(ctx, body.Bytes())
}

// ClassifyJPEG classifies an already encoded image.
func (h *HuggingFace) ClassifyJPEG(ctx context.Context, img []byte) ([]model.Prediction, error) {
	url := h.endpoint + "/" + h.model
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(img))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %w", ErrClassify, err)
	}
	req.Header.Set("Content-Type", "image/jpeg")
	if h.token != "" {
		req.Header.Set("Authorization", "Bearer "+h.token)
	}

	start := time.Now()
	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to make request: %w", ErrClassify, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", ErrClassify, err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr hfError
		_ = json.Unmarshal(data, &apiErr)
		if resp.StatusCode == http.StatusServiceUnavailable {
			return nil, fmt.Errorf("%w: retry in %.0fs", ErrModelLoading, apiErr.EstimatedTime)
		}
		msg := apiErr.Error
		if msg == "" {
			msg = truncate(string(data), maxErrorBody)
		}
		return nil, fmt.Errorf("%w: status %d: %s", ErrClassify, resp.StatusCode, msg)
	}

	raw, err := decodePredictions(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrClassify, err)
	}

	out := make([]model.Prediction, 0, len(raw))
	for _, p := range raw {
		label := p.Label
		if h.normalize {
			label = NormalizeLabel(label)
		}
		if label == "" {
			continue
		}
		out = append(out, model.Prediction{Label: label, Confidence: p.Score * 100})
	}
	h.logger.Debug(ctx, "classified",
		logger.String("model", h.model),
		logger.Int("labels", len(out)),
		logger.Duration("took", time.Since(start)),
	)
	return rank(out), nil
}

// decodePredictions accepts both the flat list and the batched list-of-lists
// response shapes.
func decodePredictions(data []byte) ([]hfPrediction, error) {
	var flat []hfPrediction
	if err := json.Unmarshal(data, &flat); err == nil {
		return flat, nil
	}
	var nested [][]hfPrediction
	if err := json.Unmarshal(data, &nested); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(nested) == 0 {
		return nil, nil
	}
	return nested[0], nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
