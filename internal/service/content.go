package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/timmy/devmeme/internal/domain"
	"github.com/timmy/devmeme/internal/logger"
	"github.com/timmy/devmeme/internal/prompts"
)

// ContentGenerator writes captions and paints backgrounds. The Orchestrator
// depends on this interface; ContentService is the production implementation.
type ContentGenerator interface {
	GenerateMemeContent(ctx context.Context, topic, templateContext string) (*domain.MemeContent, error)
	GenerateMemeImage(ctx context.Context, prompt string) (string, error)
}

// ContentService talks to an OpenAI-compatible API for captions and images.
type ContentService struct {
	client         *resty.Client
	textModel      string
	imageModel     string
	imageSize      string
	chatEndpoint   string
	imagesEndpoint string
}

// ContentConfig holds configuration for the content service.
type ContentConfig struct {
	BaseURL    string
	TextModel  string
	ImageModel string
	ImageSize  string
	APIKey     string
	Timeout    time.Duration
}

// NewContentService creates a new content service client.
// Parameters:
//   - cfg: endpoint, models and credentials.
//
// Returns:
//   - *ContentService: initialized client wrapper.
func NewContentService(cfg *ContentConfig) *ContentService {
	client := resty.New()
	client.SetHeader("Authorization", "Bearer "+cfg.APIKey)
	client.SetHeader("Content-Type", "application/json")

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	client.SetTimeout(timeout)

	// Default to OpenAI compatible endpoint if not specified
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}

	imageSize := cfg.ImageSize
	if imageSize == "" {
		imageSize = "1024x1024"
	}

	return &ContentService{
		client:         client,
		textModel:      cfg.TextModel,
		imageModel:     cfg.ImageModel,
		imageSize:      imageSize,
		chatEndpoint:   baseURL + "/chat/completions",
		imagesEndpoint: baseURL + "/images/generations",
	}
}

// OpenAI-compatible Chat Completion API request/response structures
type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    float64         `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

// OpenAI-compatible Images API request/response structures
type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size,omitempty"`
}

type imageResponse struct {
	Data []struct {
		URL     string `json:"url"`
		B64JSON string `json:"b64_json"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// GenerateMemeContent asks the text model for a caption pair and an image
// prompt.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - topic: the user's topic.
//   - templateContext: description of a fixed background, empty in AI mode.
//
// Returns:
//   - *domain.MemeContent: captions and image prompt.
//   - error: non-nil if the request fails or the reply is not valid JSON.
func (s *ContentService) GenerateMemeContent(ctx context.Context, topic, templateContext string) (*domain.MemeContent, error) {
	start := time.Now()

	req := chatRequest{
		Model: s.textModel,
		Messages: []chatMessage{
			{Role: "system", Content: prompts.CaptionSystemPrompt},
			{Role: "user", Content: prompts.BuildCaptionPrompt(topic, templateContext)},
		},
		ResponseFormat: &responseFormat{Type: "json_object"},
		Temperature:    0.9,
	}

	var resp chatResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.chatEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to call caption API: %w", err)
	}
	if err := checkResponse("caption", httpResp, resp.Error); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from caption API (status: %d)", httpResp.StatusCode())
	}

	content, err := parseMemeContent(resp.Choices[0].Message.Content)
	if err != nil {
		return nil, err
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		"model":                s.textModel,
	}).Debug(ctx, "Captions generated: top=%q, bottom=%q", content.TopText, content.BottomText)

	return content, nil
}

// GenerateMemeImage asks the image model for a background.
// Parameters:
//   - ctx: context for cancellation and deadlines.
//   - prompt: scene description from GenerateMemeContent.
//
// Returns:
//   - string: an image URL, or a data: URL when the API returns base64.
//   - error: non-nil if the request fails or no image came back.
func (s *ContentService) GenerateMemeImage(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("image prompt is empty")
	}
	start := time.Now()

	req := imageRequest{
		Model:  s.imageModel,
		Prompt: prompts.BuildImagePrompt(prompt),
		N:      1,
		Size:   s.imageSize,
	}

	var resp imageResponse
	httpResp, err := s.client.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&resp).
		SetError(&resp).
		Post(s.imagesEndpoint)
	if err != nil {
		return "", fmt.Errorf("failed to call image API: %w", err)
	}
	if err := checkResponse("image", httpResp, resp.Error); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no image in response (status: %d)", httpResp.StatusCode())
	}

	var imageURL string
	switch d := resp.Data[0]; {
	case d.URL != "":
		imageURL = d.URL
	case d.B64JSON != "":
		imageURL = "data:image/png;base64," + d.B64JSON
	default:
		return "", errors.New("image API returned neither url nor b64_json")
	}

	logger.With(logger.Fields{
		logger.FieldDurationMs: time.Since(start).Milliseconds(),
		"model":                s.imageModel,
	}).Debug(ctx, "Image generated")

	return imageURL, nil
}

func checkResponse(api string, httpResp *resty.Response, apiErr *apiError) error {
	if httpResp.StatusCode() < 200 || httpResp.StatusCode() >= 300 {
		errorMsg := fmt.Sprintf("HTTP %d", httpResp.StatusCode())
		if apiErr != nil && apiErr.Message != "" {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), apiErr.Message)
		} else if len(httpResp.Body()) > 0 {
			errorMsg = fmt.Sprintf("HTTP %d: %s", httpResp.StatusCode(), truncate(string(httpResp.Body()), 200))
		}
		return fmt.Errorf("%s API returned error: %s", api, errorMsg)
	}
	if apiErr != nil && apiErr.Message != "" {
		return fmt.Errorf("%s API error: %s", api, apiErr.Message)
	}
	return nil
}

// parseMemeContent decodes the model reply, tolerating a markdown code fence.
func parseMemeContent(raw string) (*domain.MemeContent, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	var content domain.MemeContent
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, fmt.Errorf("failed to parse caption JSON: %w", err)
	}
	if content.TopText == "" && content.BottomText == "" {
		return nil, errors.New("caption API returned empty captions")
	}
	return &content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
