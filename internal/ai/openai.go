package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"golang.org/x/time/rate"

	"github.com/campusfind/campusfind/pkg/models"
)

// OpenAIProvider implements Provider on OpenAI-compatible chat APIs,
// using JSON mode. JSON mode requires an object at the root, so list
// responses are wrapped in a single-key envelope.
type OpenAIProvider struct {
	client      *openai.Client
	model       string
	visionModel string
	limiter     *rate.Limiter
	timeout     time.Duration
}

// NewOpenAIProvider creates an OpenAI provider.
func NewOpenAIProvider(cfg Config) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = openai.GPT4o
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, 1)
	}

	return &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       model,
		visionModel: visionModel,
		limiter:     limiter,
		timeout:     timeout,
	}, nil
}

// Name returns the provider name.
func (p *OpenAIProvider) Name() string {
	return "openai"
}

func (p *OpenAIProvider) chat(ctx context.Context, model string, messages []openai.ChatCompletionMessage) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.2,
	})
	if err != nil {
		return "", fmt.Errorf("OpenAI API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from OpenAI")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func (p *OpenAIProvider) vision(ctx context.Context, prompt string, imageData []byte, mimeType string) (string, error) {
	imageURL := fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(imageData))
	return p.chat(ctx, p.visionModel, []openai.ChatCompletionMessage{
		{
			Role: openai.ChatMessageRoleUser,
			MultiContent: []openai.ChatMessagePart{
				{Type: openai.ChatMessagePartTypeText, Text: prompt},
				{Type: openai.ChatMessagePartTypeImageURL, ImageURL: &openai.ChatMessageImageURL{URL: imageURL}},
			},
		},
	})
}

// AnalyzeItemImage extracts item details and visible text from a photo.
func (p *OpenAIProvider) AnalyzeItemImage(ctx context.Context, imageData []byte, mimeType string) (*models.ItemAnalysis, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	prompt := analyzePrompt + `

Respond with a JSON object with keys: title, description, category, tags (array of strings), color, condition, ocrText.`

	text, err := p.vision(ctx, prompt, imageData, mimeType)
	if err != nil {
		log.Printf("ai: openai analysis: %v", err)
		return FallbackAnalysis(), nil
	}

	var analysis models.ItemAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		log.Printf("ai: openai analysis decode: %v", err)
		return FallbackAnalysis(), nil
	}
	return &analysis, nil
}

// FindMatches scores candidate reports against a target item.
func (p *OpenAIProvider) FindMatches(ctx context.Context, target *models.Item, candidates []*models.Item) ([]models.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	prompt, err := buildMatchPrompt(target, candidates)
	if err != nil {
		return nil, err
	}
	prompt += `

Respond with a JSON object: {"matches": [{"itemId": ..., "confidence": ..., "reasoning": ...}]}.`

	text, err := p.chat(ctx, p.model, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		log.Printf("ai: openai matching: %v", err)
		return nil, nil
	}

	var envelope struct {
		Matches []matchRecord `json:"matches"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		log.Printf("ai: openai matching decode: %v", err)
		return nil, nil
	}
	return toMatchResults(envelope.Matches), nil
}

// SemanticSearch returns the IDs of items matching a natural-language query.
func (p *OpenAIProvider) SemanticSearch(ctx context.Context, query string, items []*models.Item) ([]string, error) {
	if strings.TrimSpace(query) == "" || len(items) == 0 {
		return nil, nil
	}
	prompt, err := buildSearchPrompt(query, items)
	if err != nil {
		return nil, err
	}
	prompt += `

Respond with a JSON object: {"ids": [...]}.`

	text, err := p.chat(ctx, p.model, []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		log.Printf("ai: openai search: %v", err)
		return nil, nil
	}

	var envelope struct {
		IDs []string `json:"ids"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		log.Printf("ai: openai search decode: %v", err)
		return nil, nil
	}
	return envelope.IDs, nil
}

// AnalyzeSurveillanceFrame detects unattended belongings in a camera frame.
func (p *OpenAIProvider) AnalyzeSurveillanceFrame(ctx context.Context, frame []byte) ([]models.DetectedObject, error) {
	prompt := surveillancePrompt + `

Respond with a JSON object: {"detections": [{"object": ..., "description": ..., "confidence": 0-1}]}.`

	text, err := p.vision(ctx, prompt, frame, "image/jpeg")
	if err != nil {
		log.Printf("ai: openai surveillance: %v", err)
		return nil, nil
	}

	var envelope struct {
		Detections []models.DetectedObject `json:"detections"`
	}
	if err := json.Unmarshal([]byte(text), &envelope); err != nil {
		log.Printf("ai: openai surveillance decode: %v", err)
		return nil, nil
	}
	return envelope.Detections, nil
}
