package ai

import (
	"context"

	"github.com/campusfind/campusfind/pkg/models"
)

// Provider defines the interface for AI vision and matching backends.
type Provider interface {
	// Name returns the provider name.
	Name() string

	// AnalyzeItemImage extracts item details and visible text from a photo.
	// On failure it returns the fixed fallback analysis, not an error.
	AnalyzeItemImage(ctx context.Context, imageData []byte, mimeType string) (*models.ItemAnalysis, error)

	// FindMatches scores candidate reports against a target item.
	// Candidates must already be filtered to the opposite type and OPEN
	// status. An exact OCR identity match scores 100; the backend omits
	// candidates below 40. Failure degrades to an empty list.
	FindMatches(ctx context.Context, target *models.Item, candidates []*models.Item) ([]models.MatchResult, error)

	// SemanticSearch returns the IDs of items matching a natural-language
	// query. An empty query or a backend failure yields an empty list.
	SemanticSearch(ctx context.Context, query string, items []*models.Item) ([]string, error)

	// AnalyzeSurveillanceFrame detects unattended personal belongings in
	// a camera frame. Confidence is 0-1. Failure degrades to an empty list.
	AnalyzeSurveillanceFrame(ctx context.Context, frame []byte) ([]models.DetectedObject, error)
}

// Config holds AI provider configuration.
type Config struct {
	// Provider name: "gemini", "openai", ""
	Provider string

	// APIKey authenticates against the provider.
	APIKey string

	// Model is the text model for matching and search.
	Model string

	// VisionModel is the multimodal model for image analysis.
	VisionModel string

	// BaseURL overrides the provider endpoint (OpenAI-compatible proxies).
	BaseURL string

	// Timeout per request, in seconds. Zero means 30.
	Timeout int

	// RequestsPerMinute paces outbound calls. Zero disables pacing.
	RequestsPerMinute int
}

// FallbackAnalysis is returned whenever image analysis cannot produce a
// usable result. The report form stays fillable by hand.
func FallbackAnalysis() *models.ItemAnalysis {
	return &models.ItemAnalysis{
		Title:       "Unknown Item",
		Description: "Could not analyze image.",
		Category:    string(models.CategoryOther),
		Tags:        []string{},
		Color:       "Unknown",
		Condition:   "Unknown",
		OCRText:     "",
	}
}

// Disabled is the no-op provider used when no backend is configured.
// Every method returns its documented fallback.
type Disabled struct{}

func (Disabled) Name() string { return "disabled" }

func (Disabled) AnalyzeItemImage(context.Context, []byte, string) (*models.ItemAnalysis, error) {
	return FallbackAnalysis(), nil
}

func (Disabled) FindMatches(context.Context, *models.Item, []*models.Item) ([]models.MatchResult, error) {
	return nil, nil
}

func (Disabled) SemanticSearch(context.Context, string, []*models.Item) ([]string, error) {
	return nil, nil
}

func (Disabled) AnalyzeSurveillanceFrame(context.Context, []byte) ([]models.DetectedObject, error) {
	return nil, nil
}
