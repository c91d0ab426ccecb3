package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/campusfind/campusfind/pkg/models"
)

const (
	defaultGeminiModel       = "gemini-3-flash-preview"
	defaultGeminiVisionModel = "gemini-2.5-flash-image"
)

// GeminiProvider implements Provider on the Google Gemini API, using
// structured JSON output for every call.
type GeminiProvider struct {
	client      *genai.Client
	model       string
	visionModel string
	limiter     *rate.Limiter
	timeout     time.Duration
}

// NewGeminiProvider creates a Gemini provider.
func NewGeminiProvider(cfg Config) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey: cfg.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	model := cfg.Model
	if model == "" {
		model = defaultGeminiModel
	}
	visionModel := cfg.VisionModel
	if visionModel == "" {
		visionModel = defaultGeminiVisionModel
	}
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 1)
	if cfg.RequestsPerMinute > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerMinute)/60, 1)
	}

	return &GeminiProvider{
		client:      client,
		model:       model,
		visionModel: visionModel,
		limiter:     limiter,
		timeout:     timeout,
	}, nil
}

// Name returns the provider name.
func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) generate(ctx context.Context, model string, contents []*genai.Content, schema *genai.Schema) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("empty response from Gemini")
	}
	return text, nil
}

var analysisSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":       {Type: genai.TypeString},
		"description": {Type: genai.TypeString},
		"category":    {Type: genai.TypeString},
		"tags":        {Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}},
		"color":       {Type: genai.TypeString},
		"condition":   {Type: genai.TypeString},
		"ocrText":     {Type: genai.TypeString, Description: "Any text visible on the item for identity matching."},
	},
	Required: []string{"title", "description", "category", "tags", "color", "condition", "ocrText"},
}

// AnalyzeItemImage extracts item details and visible text from a photo.
func (p *GeminiProvider) AnalyzeItemImage(ctx context.Context, imageData []byte, mimeType string) (*models.ItemAnalysis, error) {
	if mimeType == "" {
		mimeType = "image/jpeg"
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(imageData, mimeType),
			genai.NewPartFromText(analyzePrompt),
		}, genai.RoleUser),
	}

	text, err := p.generate(ctx, p.visionModel, contents, analysisSchema)
	if err != nil {
		log.Printf("ai: gemini analysis: %v", err)
		return FallbackAnalysis(), nil
	}

	var analysis models.ItemAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		log.Printf("ai: gemini analysis decode: %v", err)
		return FallbackAnalysis(), nil
	}
	return &analysis, nil
}

var matchSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"itemId":     {Type: genai.TypeString},
			"confidence": {Type: genai.TypeNumber},
			"reasoning":  {Type: genai.TypeString},
		},
		Required: []string{"itemId", "confidence", "reasoning"},
	},
}

// FindMatches scores candidate reports against a target item.
func (p *GeminiProvider) FindMatches(ctx context.Context, target *models.Item, candidates []*models.Item) ([]models.MatchResult, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	prompt, err := buildMatchPrompt(target, candidates)
	if err != nil {
		return nil, err
	}

	text, err := p.generate(ctx, p.model, genai.Text(prompt), matchSchema)
	if err != nil {
		log.Printf("ai: gemini matching: %v", err)
		return nil, nil
	}

	var records []matchRecord
	if err := json.Unmarshal([]byte(text), &records); err != nil {
		log.Printf("ai: gemini matching decode: %v", err)
		return nil, nil
	}
	return toMatchResults(records), nil
}

// SemanticSearch returns the IDs of items matching a natural-language query.
func (p *GeminiProvider) SemanticSearch(ctx context.Context, query string, items []*models.Item) ([]string, error) {
	if strings.TrimSpace(query) == "" || len(items) == 0 {
		return nil, nil
	}
	prompt, err := buildSearchPrompt(query, items)
	if err != nil {
		return nil, err
	}

	schema := &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
	text, err := p.generate(ctx, p.model, genai.Text(prompt), schema)
	if err != nil {
		log.Printf("ai: gemini search: %v", err)
		return nil, nil
	}

	var ids []string
	if err := json.Unmarshal([]byte(text), &ids); err != nil {
		log.Printf("ai: gemini search decode: %v", err)
		return nil, nil
	}
	return ids, nil
}

var detectionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"object":      {Type: genai.TypeString, Description: "Name of the object (e.g., Black Backpack)"},
			"description": {Type: genai.TypeString, Description: "Brief visual description"},
			"confidence":  {Type: genai.TypeNumber, Description: "Confidence 0-1"},
		},
		Required: []string{"object", "description", "confidence"},
	},
}

// AnalyzeSurveillanceFrame detects unattended belongings in a camera frame.
func (p *GeminiProvider) AnalyzeSurveillanceFrame(ctx context.Context, frame []byte) ([]models.DetectedObject, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(frame, "image/jpeg"),
			genai.NewPartFromText(surveillancePrompt),
		}, genai.RoleUser),
	}

	text, err := p.generate(ctx, p.visionModel, contents, detectionSchema)
	if err != nil {
		log.Printf("ai: gemini surveillance: %v", err)
		return nil, nil
	}

	var detections []models.DetectedObject
	if err := json.Unmarshal([]byte(text), &detections); err != nil {
		log.Printf("ai: gemini surveillance decode: %v", err)
		return nil, nil
	}
	return detections, nil
}
