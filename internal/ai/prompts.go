package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/campusfind/campusfind/pkg/models"
)

const analyzePrompt = `Analyze this image of a lost or found item on a university campus.

1. Visual Details: Provide a title, description, category, tags, color, and condition.
2. OCR / Identity Shield: Carefully extract ANY visible text, names, student ID numbers, or emails visible on the item (e.g., on an ID card, notebook cover, or sticky note). If none, return empty string.

Categories: Electronics, Clothing, Accessories, Books, Keys, ID Cards, Other.`

const surveillancePrompt = `You are a security AI analyzing a CCTV frame.
Identify any personal belongings (backpacks, laptops, bottles, wallets, phones, jackets) that look unattended.
Ignore structural elements like tables, chairs, or walls unless an item is on them.
Return a list of detected objects.`

// candidateSummary is the trimmed-down item payload sent to the matching
// model. OCR text rides along so identity matches can score 100.
type candidateSummary struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Location    string `json:"location"`
	Date        string `json:"date"`
	Color       string `json:"color"`
	OCR         string `json:"ocr"`
}

func buildMatchPrompt(target *models.Item, candidates []*models.Item) (string, error) {
	summaries := make([]candidateSummary, 0, len(candidates))
	for _, c := range candidates {
		summaries = append(summaries, candidateSummary{
			ID:          c.ID,
			Title:       c.Title,
			Description: c.Description,
			Category:    string(c.Category),
			Location:    c.Location,
			Date:        c.Date,
			Color:       strings.Join(c.AITags, ", "),
			OCR:         c.OCRDetectedText,
		})
	}
	payload, err := json.Marshal(summaries)
	if err != nil {
		return "", fmt.Errorf("encode candidates: %w", err)
	}

	ocr := target.OCRDetectedText
	if ocr == "" {
		ocr = "N/A"
	}

	return fmt.Sprintf(`Find matches for a %s item.

Target:
%s (%s)
Desc: %s
Loc: %s
OCR Text: %s

Candidates:
%s

Task:
Return list of matches.
- If OCR text matches (e.g., same Name or ID), Confidence should be 100.
- Otherwise compare description/location.
- Return empty array if no matches > 40 confidence.`,
		target.Type, target.Title, target.Category, target.Description,
		target.Location, ocr, payload), nil
}

// searchCandidate flattens an item into one searchable line.
type searchCandidate struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

func buildSearchPrompt(query string, items []*models.Item) (string, error) {
	candidates := make([]searchCandidate, 0, len(items))
	for _, it := range items {
		candidates = append(candidates, searchCandidate{
			ID: it.ID,
			Content: fmt.Sprintf("%s | %s | %s | %s | %s",
				it.Title, it.Description, it.Category, it.Location, strings.Join(it.AITags, ", ")),
		})
	}
	payload, err := json.Marshal(candidates)
	if err != nil {
		return "", fmt.Errorf("encode items: %w", err)
	}

	return fmt.Sprintf(`You are a semantic search engine for a campus lost-and-found.
User Query: %q

Task: Identify which items from the list below semantically match the user's query.
- Handle synonyms (e.g., "phone" matches "iPhone", "bag" matches "backpack").
- Handle vague descriptions (e.g., "something to type on" matches "laptop").

Items:
%s

Return:
A JSON array containing ONLY the IDs of the matching items. Return empty array if no matches.`,
		query, payload), nil
}

// matchRecord is the wire shape the matching model replies with.
type matchRecord struct {
	ItemID     string  `json:"itemId"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

func toMatchResults(records []matchRecord) []models.MatchResult {
	results := make([]models.MatchResult, 0, len(records))
	for _, r := range records {
		results = append(results, models.MatchResult{
			ItemID:     r.ItemID,
			Confidence: r.Confidence,
			Reasoning:  r.Reasoning,
		})
	}
	return results
}
