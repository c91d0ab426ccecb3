package surveillance

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/campusfind/campusfind/internal/ai"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

// frameProvider returns scripted detections per frame payload.
type frameProvider struct {
	ai.Disabled
	detections map[string][]models.DetectedObject
	failOn     string
}

func (p *frameProvider) AnalyzeSurveillanceFrame(_ context.Context, frame []byte) ([]models.DetectedObject, error) {
	if string(frame) == p.failOn {
		return nil, errors.New("vision backend unavailable")
	}
	return p.detections[string(frame)], nil
}

func setupScannerDB(t *testing.T) *database.DB {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "campusfind-scan-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := database.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func staticFeed(id, name string, frame []byte, active bool) Feed {
	return Feed{
		ID:     id,
		Name:   name,
		Active: active,
		Source: func(context.Context) ([]byte, error) { return frame, nil },
	}
}

func seedLostItem(t *testing.T, db *database.DB, id, title string, tags []string) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	if err := db.CreateItem(&models.Item{
		ID:        id,
		Type:      models.ItemTypeLost,
		Title:     title,
		Category:  models.CategoryOther,
		Status:    models.ItemStatusOpen,
		AITags:    tags,
		CreatedAt: now,
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateItem(%s): %v", id, err)
	}
}

func TestScan_FanOutAndCrossReference(t *testing.T) {
	db := setupScannerDB(t)
	seedLostItem(t, db, "lost-backpack", "Black Backpack", nil)
	seedLostItem(t, db, "lost-bottle", "Water bottle", []string{"hydro flask", "blue"})

	provider := &frameProvider{detections: map[string][]models.DetectedObject{
		"frame-a": {{Object: "Backpack", Description: "black backpack under a bench", Confidence: 0.92}},
		"frame-b": {{Object: "Bottle", Description: "blue hydro flask on a table", Confidence: 0.81}},
	}}
	scanner := New(db, provider, []Feed{
		staticFeed("cam-1", "Library East", []byte("frame-a"), true),
		staticFeed("cam-2", "Student Union", []byte("frame-b"), true),
		staticFeed("cam-3", "Offline Cam", []byte("frame-a"), false),
	})

	results, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %d feeds, want 2 (inactive skipped)", len(results))
	}

	byFeed := make(map[string]FeedResult)
	for _, r := range results {
		byFeed[r.FeedID] = r
	}

	cam1 := byFeed["cam-1"]
	if len(cam1.Detections) != 1 {
		t.Fatalf("cam-1 detections = %v", cam1.Detections)
	}
	// "Black Backpack" title contains the object label "Backpack".
	if m := cam1.MatchedItems["Backpack"]; m == nil || m.ID != "lost-backpack" {
		t.Errorf("cam-1 match = %+v, want lost-backpack", m)
	}

	cam2 := byFeed["cam-2"]
	// Tag "hydro flask" appears in the detection description.
	if m := cam2.MatchedItems["Bottle"]; m == nil || m.ID != "lost-bottle" {
		t.Errorf("cam-2 match = %+v, want lost-bottle via tag", m)
	}
}

func TestScan_OneFeedFailureDoesNotBlockOthers(t *testing.T) {
	db := setupScannerDB(t)
	seedLostItem(t, db, "lost-laptop", "Silver Laptop", nil)

	provider := &frameProvider{
		detections: map[string][]models.DetectedObject{
			"good": {{Object: "Laptop", Description: "silver laptop", Confidence: 0.9}},
		},
		failOn: "bad",
	}
	scanner := New(db, provider, []Feed{
		staticFeed("cam-ok", "Working", []byte("good"), true),
		staticFeed("cam-broken", "Broken", []byte("bad"), true),
		{
			ID: "cam-dead", Name: "Dead source", Active: true,
			Source: func(context.Context) ([]byte, error) { return nil, errors.New("no signal") },
		},
	})

	results, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %d feeds, want 3", len(results))
	}

	for _, r := range results {
		switch r.FeedID {
		case "cam-ok":
			if len(r.Detections) != 1 {
				t.Errorf("cam-ok detections = %v, want 1", r.Detections)
			}
		case "cam-broken", "cam-dead":
			if len(r.Detections) != 0 {
				t.Errorf("%s detections = %v, want empty on failure", r.FeedID, r.Detections)
			}
		}
	}
}

func TestSetFeedActive(t *testing.T) {
	db := setupScannerDB(t)
	scanner := New(db, ai.Disabled{}, []Feed{
		staticFeed("cam-1", "One", nil, true),
	})

	scanner.SetFeedActive("cam-1", false)
	feeds := scanner.Feeds()
	if feeds[0].Active {
		t.Error("cam-1 still active after SetFeedActive(false)")
	}

	results, err := scanner.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("results = %v, want none with all feeds inactive", results)
	}
}

func TestCrossReference_FirstMatchWins(t *testing.T) {
	older := &models.Item{ID: "first", Title: "Black Backpack", Status: models.ItemStatusOpen}
	newer := &models.Item{ID: "second", Title: "Backpack with patches", Status: models.ItemStatusOpen}

	d := models.DetectedObject{Object: "backpack", Description: "a backpack"}
	got := crossReference(d, []*models.Item{older, newer})
	if got == nil || got.ID != "first" {
		t.Errorf("crossReference = %+v, want first listed item", got)
	}

	none := crossReference(models.DetectedObject{Object: "umbrella", Description: "red umbrella"},
		[]*models.Item{older, newer})
	if none != nil {
		t.Errorf("crossReference = %+v, want nil for no match", none)
	}
}
