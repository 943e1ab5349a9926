// Package gemini asks a Gemini model to turn crop photos into structured
// disease reports.
package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"github.com/cropsure/cropsure-api/internal/core/domain"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/"
	DefaultModel   = "gemini-3-flash-preview"

	apiVersion     = "v1beta"
	defaultTimeout = 60 * time.Second
)

const prompt = `Analyze this crop image for diseases.
Provide a detailed report including the disease name (or "Healthy" if no disease is found),
confidence level, symptoms observed, recommended treatment, fertilizer recommendations to boost health,
and prevention tips.

Return the result in JSON format.`

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// Client implements ports.Analyzer. It makes exactly one request per call.
type Client struct {
	genai *genai.Client
	model string
	log   zerolog.Logger
}

func NewClient(ctx context.Context, cfg Config, log zerolog.Logger) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: timeout},
		HTTPOptions: genai.HTTPOptions{
			BaseURL:    baseURL,
			APIVersion: apiVersion,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}

	return &Client{genai: gc, model: model, log: log}, nil
}

func (c *Client) Analyze(ctx context.Context, image []byte, mimeType string) (*domain.Report, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   reportSchema,
	}

	start := time.Now()
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, contents, config)
	c.log.Debug().
		Str("model", c.model).
		Dur("latency", time.Since(start)).
		Bool("ok", err == nil).
		Msg("generateContent response")
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, fmt.Errorf("%w: upstream status %d: %s", domain.ErrAnalysisFailed, apiErr.Code, apiErr.Message)
		}
		return nil, fmt.Errorf("%w: request: %v", domain.ErrAnalysisFailed, err)
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		return nil, err
	}

	return parseReport(text)
}

func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("%w: prompt blocked: %s", domain.ErrAnalysisFailed, resp.PromptFeedback.BlockReason)
		}
		return "", fmt.Errorf("%w: no candidates", domain.ErrAnalysisFailed)
	}

	var sb strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if p != nil {
			sb.WriteString(p.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("%w: empty candidate", domain.ErrAnalysisFailed)
	}
	return sb.String(), nil
}

func parseReport(text string) (*domain.Report, error) {
	text = strings.TrimSpace(text)
	// some models still fence JSON output
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	var report domain.Report
	if err := json.Unmarshal([]byte(text), &report); err != nil {
		return nil, fmt.Errorf("%w: malformed report: %v", domain.ErrAnalysisFailed, err)
	}
	if report.DiseaseName == "" {
		return nil, fmt.Errorf("%w: report has no disease name", domain.ErrAnalysisFailed)
	}

	report = report.Normalized()
	return &report, nil
}
