package match

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/campusfind/campusfind/internal/ai"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

const (
	searchCacheTTL     = 5 * time.Minute
	searchCacheCleanup = 10 * time.Minute
)

// Service finds counterpart reports for an item and answers dashboard
// searches. Semantic-search results are cached so repeated queries over
// an unchanged item set skip the provider.
type Service struct {
	db          *database.DB
	provider    ai.Provider
	searchCache *cache.Cache
}

// New creates a match service.
func New(db *database.DB, provider ai.Provider) *Service {
	return &Service{
		db:          db,
		provider:    provider,
		searchCache: cache.New(searchCacheTTL, searchCacheCleanup),
	}
}

// FindMatches returns candidate counterpart reports for an item, highest
// confidence first. Candidates are open reports of the opposite type.
func (s *Service) FindMatches(ctx context.Context, itemID string) ([]models.MatchResult, error) {
	target, err := s.db.GetItem(itemID)
	if err != nil {
		return nil, err
	}

	opposite := models.ItemTypeFound
	if target.Type == models.ItemTypeFound {
		opposite = models.ItemTypeLost
	}
	candidates, err := s.db.ListOpenItemsByType(opposite)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	results, err := s.provider.FindMatches(ctx, target, candidates)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Confidence > results[j].Confidence
	})
	return results, nil
}

// Search returns the items matching a free-text query. When semantic is
// set and a provider is configured the query goes to the AI backend;
// otherwise it is a plain substring search over title, description,
// location, and tags.
func (s *Service) Search(ctx context.Context, query string, items []*models.Item, semantic bool) ([]*models.Item, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil
	}
	if !semantic {
		return filterByIDs(items, textSearch(query, items)), nil
	}

	key := searchKey(query, items)
	if cached, ok := s.searchCache.Get(key); ok {
		return filterByIDs(items, cached.([]string)), nil
	}

	ids, err := s.provider.SemanticSearch(ctx, query, items)
	if err != nil {
		return nil, err
	}
	if ids == nil {
		// No provider (or it returned nothing): plain text search.
		ids = textSearch(query, items)
	}

	s.searchCache.Set(key, ids, cache.DefaultExpiration)
	return filterByIDs(items, ids), nil
}

// searchKey fingerprints the query together with the item set, so a new
// or changed report invalidates cached results.
func searchKey(query string, items []*models.Item) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\n", strings.ToLower(query))
	for _, it := range items {
		fmt.Fprintf(h, "%s|%s\n", it.ID, it.UpdatedAt.UTC().Format(time.RFC3339Nano))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// textSearch is the no-provider path: case-insensitive substring match
// over the item's text fields.
func textSearch(query string, items []*models.Item) []string {
	q := strings.ToLower(query)
	var ids []string
	for _, it := range items {
		haystack := strings.ToLower(strings.Join(append([]string{
			it.Title, it.Description, it.Location, string(it.Category),
		}, it.AITags...), " "))
		if strings.Contains(haystack, q) {
			ids = append(ids, it.ID)
		}
	}
	return ids
}

func filterByIDs(items []*models.Item, ids []string) []*models.Item {
	if len(ids) == 0 {
		return nil
	}
	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	var out []*models.Item
	for _, it := range items {
		if wanted[it.ID] {
			out = append(out, it)
		}
	}
	return out
}

// Analytics summarizes report activity for the dashboard panel.
type Analytics struct {
	TotalItems     int            `json:"total_items"`
	OpenItems      int            `json:"open_items"`
	ResolvedItems  int            `json:"resolved_items"`
	TopLocations   []LocationRank `json:"top_locations"`
	CategoryCounts map[string]int `json:"category_counts"`
}

// LocationRank is one entry in the hot-spot list.
type LocationRank struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// Report computes dashboard analytics over all items.
func (s *Service) Report() (*Analytics, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, err
	}

	a := &Analytics{CategoryCounts: make(map[string]int)}
	locations := make(map[string]int)
	for _, it := range items {
		a.TotalItems++
		switch it.Status {
		case models.ItemStatusResolved:
			a.ResolvedItems++
		default:
			a.OpenItems++
		}
		a.CategoryCounts[string(it.Category)]++
		if it.Location != "" {
			locations[it.Location]++
		}
	}

	for loc, n := range locations {
		a.TopLocations = append(a.TopLocations, LocationRank{Location: loc, Count: n})
	}
	sort.Slice(a.TopLocations, func(i, j int) bool {
		if a.TopLocations[i].Count != a.TopLocations[j].Count {
			return a.TopLocations[i].Count > a.TopLocations[j].Count
		}
		return a.TopLocations[i].Location < a.TopLocations[j].Location
	})
	if len(a.TopLocations) > 5 {
		a.TopLocations = a.TopLocations[:5]
	}
	return a, nil
}
