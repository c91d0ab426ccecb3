package surveillance

import (
	"context"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/campusfind/campusfind/internal/ai"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

// Feed is one camera source. Frames arrives through the Source func so
// tests and file-backed feeds plug in the same way.
type Feed struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`

	// Source returns the current frame as JPEG bytes.
	Source func(ctx context.Context) ([]byte, error) `json:"-"`
}

// FeedResult is the outcome of scanning one feed. A failed feed reports
// an empty detection list rather than an error.
type FeedResult struct {
	FeedID     string                  `json:"feed_id"`
	FeedName   string                  `json:"feed_name"`
	Detections []models.DetectedObject `json:"detections"`

	// MatchedItems maps a detected object label to the first open LOST
	// report it cross-referenced against.
	MatchedItems map[string]*models.Item `json:"matched_items,omitempty"`
}

// Scanner runs the AI analyzer across all active camera feeds.
type Scanner struct {
	db       *database.DB
	provider ai.Provider

	mu    sync.RWMutex
	feeds []Feed
}

// New creates a scanner over the given feeds.
func New(db *database.DB, provider ai.Provider, feeds []Feed) *Scanner {
	return &Scanner{db: db, provider: provider, feeds: feeds}
}

// Feeds returns the configured feeds.
func (s *Scanner) Feeds() []Feed {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Feed(nil), s.feeds...)
}

// SetFeedActive toggles one feed. Unknown IDs are ignored.
func (s *Scanner) SetFeedActive(id string, active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.feeds {
		if s.feeds[i].ID == id {
			s.feeds[i].Active = active
		}
	}
}

// Scan analyzes every active feed concurrently. One feed failing or
// timing out never blocks the others; its result degrades to an empty
// detection list. Results are merged only after all feeds settle.
func (s *Scanner) Scan(ctx context.Context) ([]FeedResult, error) {
	feeds := s.Feeds()

	results := make([]FeedResult, 0, len(feeds))
	slots := make([]*FeedResult, len(feeds))

	g, ctx := errgroup.WithContext(ctx)
	for i, feed := range feeds {
		if !feed.Active {
			continue
		}
		g.Go(func() error {
			slots[i] = s.scanFeed(ctx, feed)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, r := range slots {
		if r != nil {
			results = append(results, *r)
		}
	}
	return results, nil
}

func (s *Scanner) scanFeed(ctx context.Context, feed Feed) *FeedResult {
	result := &FeedResult{FeedID: feed.ID, FeedName: feed.Name}

	frame, err := feed.Source(ctx)
	if err != nil {
		log.Printf("surveillance: feed %s frame: %v", feed.ID, err)
		return result
	}

	detections, err := s.provider.AnalyzeSurveillanceFrame(ctx, frame)
	if err != nil {
		log.Printf("surveillance: feed %s analysis: %v", feed.ID, err)
		return result
	}
	result.Detections = detections

	if len(detections) == 0 {
		return result
	}
	openLost, err := s.db.ListOpenItemsByType(models.ItemTypeLost)
	if err != nil {
		log.Printf("surveillance: feed %s cross-reference: %v", feed.ID, err)
		return result
	}
	for _, d := range detections {
		if item := crossReference(d, openLost); item != nil {
			if result.MatchedItems == nil {
				result.MatchedItems = make(map[string]*models.Item)
			}
			result.MatchedItems[d.Object] = item
		}
	}
	return result
}

// crossReference links a detection to the first open lost report whose
// title contains the object label, or whose tags appear in the detection
// description. Case-insensitive; first match wins.
func crossReference(d models.DetectedObject, openLost []*models.Item) *models.Item {
	object := strings.ToLower(d.Object)
	description := strings.ToLower(d.Description)

	for _, item := range openLost {
		if strings.Contains(strings.ToLower(item.Title), object) {
			return item
		}
		for _, tag := range item.AITags {
			if tag != "" && strings.Contains(description, strings.ToLower(tag)) {
				return item
			}
		}
	}
	return nil
}
