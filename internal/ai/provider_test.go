package ai

import (
	"context"
	"strings"
	"testing"

	"github.com/campusfind/campusfind/pkg/models"
)

func TestNewProvider_Selection(t *testing.T) {
	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "disabled when unset", cfg: Config{}, wantName: "disabled"},
		{name: "gemini", cfg: Config{Provider: "gemini", APIKey: "test-key"}, wantName: "gemini"},
		{name: "google alias", cfg: Config{Provider: "google", APIKey: "test-key"}, wantName: "gemini"},
		{name: "openai", cfg: Config{Provider: "openai", APIKey: "test-key"}, wantName: "openai"},
		{name: "gemini without key", cfg: Config{Provider: "gemini"}, wantErr: true},
		{name: "openai without key", cfg: Config{Provider: "openai"}, wantErr: true},
		{name: "unknown provider", cfg: Config{Provider: "cohere"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewProvider: %v", err)
			}
			if p.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}

func TestDisabledProviderFallbacks(t *testing.T) {
	ctx := context.Background()
	p := Disabled{}

	analysis, err := p.AnalyzeItemImage(ctx, []byte{0xff}, "image/jpeg")
	if err != nil {
		t.Fatalf("AnalyzeItemImage: %v", err)
	}
	if analysis.Title != "Unknown Item" || analysis.Category != "Other" {
		t.Errorf("fallback analysis = %+v", analysis)
	}
	if analysis.Description != "Could not analyze image." {
		t.Errorf("fallback description = %q", analysis.Description)
	}
	if len(analysis.Tags) != 0 || analysis.OCRText != "" {
		t.Errorf("fallback analysis carries data: %+v", analysis)
	}

	matches, err := p.FindMatches(ctx, &models.Item{}, []*models.Item{{}})
	if err != nil || len(matches) != 0 {
		t.Errorf("FindMatches = (%v, %v), want empty", matches, err)
	}
	ids, err := p.SemanticSearch(ctx, "blue backpack", []*models.Item{{}})
	if err != nil || len(ids) != 0 {
		t.Errorf("SemanticSearch = (%v, %v), want empty", ids, err)
	}
	detections, err := p.AnalyzeSurveillanceFrame(ctx, []byte{0xff})
	if err != nil || len(detections) != 0 {
		t.Errorf("AnalyzeSurveillanceFrame = (%v, %v), want empty", detections, err)
	}
}

func TestBuildMatchPrompt(t *testing.T) {
	target := &models.Item{
		ID:          "target-1",
		Type:        models.ItemTypeLost,
		Title:       "Student ID Card",
		Category:    models.CategoryIDCards,
		Description: "ID card, name Riley Chen",
		Location:    "Bus stop",
	}
	candidates := []*models.Item{{
		ID:              "cand-1",
		Title:           "Found ID card",
		Category:        models.CategoryIDCards,
		AITags:          []string{"card", "plastic"},
		OCRDetectedText: "RILEY CHEN 20441858",
	}}

	prompt, err := buildMatchPrompt(target, candidates)
	if err != nil {
		t.Fatalf("buildMatchPrompt: %v", err)
	}
	for _, want := range []string{
		"Find matches for a LOST item",
		"Student ID Card",
		"OCR Text: N/A",
		`"id":"cand-1"`,
		"RILEY CHEN 20441858",
		"Confidence should be 100",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestBuildMatchPrompt_TargetOCRIncluded(t *testing.T) {
	target := &models.Item{Type: models.ItemTypeFound, Title: "Notebook", OCRDetectedText: "Prop. of S. Ortiz"}
	prompt, err := buildMatchPrompt(target, []*models.Item{{ID: "c"}})
	if err != nil {
		t.Fatalf("buildMatchPrompt: %v", err)
	}
	if !strings.Contains(prompt, "OCR Text: Prop. of S. Ortiz") {
		t.Error("target OCR text not carried into prompt")
	}
}

func TestBuildSearchPrompt(t *testing.T) {
	items := []*models.Item{{
		ID:          "item-1",
		Title:       "MacBook Air",
		Description: "Silver laptop",
		Category:    models.CategoryElectronics,
		Location:    "Library",
		AITags:      []string{"laptop", "silver"},
	}}

	prompt, err := buildSearchPrompt("something to type on", items)
	if err != nil {
		t.Fatalf("buildSearchPrompt: %v", err)
	}
	for _, want := range []string{
		`"something to type on"`,
		"MacBook Air | Silver laptop | Electronics | Library | laptop, silver",
		"ONLY the IDs",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestToMatchResults(t *testing.T) {
	records := []matchRecord{
		{ItemID: "a", Confidence: 100, Reasoning: "OCR identity match"},
		{ItemID: "b", Confidence: 62.5, Reasoning: "similar description"},
	}
	results := toMatchResults(records)
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}
	if results[0].ItemID != "a" || results[0].Confidence != 100 {
		t.Errorf("results[0] = %+v", results[0])
	}
	if results[1].Reasoning != "similar description" {
		t.Errorf("results[1] = %+v", results[1])
	}
}
