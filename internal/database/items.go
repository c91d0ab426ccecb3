package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusfind/campusfind/pkg/models"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const itemColumns = `id, type, title, description, category, condition, location, date, time_lost,
	contact_name, contact_email, status, ai_tags, image_url, ocr_detected_text,
	is_urgent, is_high_value, is_moved_to_hub, drop_off_hub_id,
	quiz_question, quiz_options, quiz_correct_answer, exchange_pin,
	resolution_details, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*models.Item, error) {
	var it models.Item
	var tags, options, resolution sql.NullString
	err := row.Scan(
		&it.ID, &it.Type, &it.Title, &it.Description, &it.Category, &it.Condition,
		&it.Location, &it.Date, &it.TimeLost,
		&it.ContactName, &it.ContactEmail, &it.Status, &tags, &it.ImageURL, &it.OCRDetectedText,
		&it.IsUrgent, &it.IsHighValue, &it.IsMovedToHub, &it.DropOffHubID,
		&it.QuizQuestion, &options, &it.QuizCorrectAnswer, &it.ExchangePin,
		&resolution, &it.CreatedAt, &it.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if tags.Valid && tags.String != "" {
		if err := json.Unmarshal([]byte(tags.String), &it.AITags); err != nil {
			return nil, fmt.Errorf("decode ai_tags: %w", err)
		}
	}
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &it.QuizOptions); err != nil {
			return nil, fmt.Errorf("decode quiz_options: %w", err)
		}
	}
	if resolution.Valid && resolution.String != "" {
		var rd models.ResolutionDetails
		if err := json.Unmarshal([]byte(resolution.String), &rd); err != nil {
			return nil, fmt.Errorf("decode resolution_details: %w", err)
		}
		it.ResolutionDetails = &rd
	}
	return &it, nil
}

// CreateItem inserts a new item report.
func (db *DB) CreateItem(it *models.Item) error {
	tags, err := json.Marshal(it.AITags)
	if err != nil {
		return fmt.Errorf("encode ai_tags: %w", err)
	}
	options, err := json.Marshal(it.QuizOptions)
	if err != nil {
		return fmt.Errorf("encode quiz_options: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO items (id, type, title, description, category, condition, location, date, time_lost,
			contact_name, contact_email, status, ai_tags, image_url, ocr_detected_text,
			is_urgent, is_high_value, is_moved_to_hub, drop_off_hub_id,
			quiz_question, quiz_options, quiz_correct_answer, exchange_pin,
			resolution_details, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, ?, ?)`,
		it.ID, it.Type, it.Title, it.Description, it.Category, it.Condition,
		it.Location, it.Date, it.TimeLost,
		it.ContactName, it.ContactEmail, it.Status, string(tags), it.ImageURL, it.OCRDetectedText,
		it.IsUrgent, it.IsHighValue, it.IsMovedToHub, it.DropOffHubID,
		it.QuizQuestion, string(options), it.QuizCorrectAnswer, it.ExchangePin,
		it.CreatedAt, it.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetItem returns a single item by ID.
func (db *DB) GetItem(id string) (*models.Item, error) {
	row := db.conn.QueryRow(`SELECT `+itemColumns+` FROM items WHERE id = ?`, id)
	it, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// ListItems returns all items, newest first.
func (db *DB) ListItems() ([]*models.Item, error) {
	rows, err := db.conn.Query(`SELECT ` + itemColumns + ` FROM items ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// ListOpenItemsByType returns OPEN items of the given type, newest first.
// Used when searching for candidate matches on the opposite side of a report.
func (db *DB) ListOpenItemsByType(itemType models.ItemType) ([]*models.Item, error) {
	rows, err := db.conn.Query(`SELECT `+itemColumns+` FROM items
		WHERE type = ? AND status = ? ORDER BY created_at DESC`,
		itemType, models.ItemStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("list open items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

func collectItems(rows *sql.Rows) ([]*models.Item, error) {
	var items []*models.Item
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// UpdateItemStatus transitions an item to a new status and bumps updated_at.
func (db *DB) UpdateItemStatus(id string, status models.ItemStatus) error {
	res, err := db.conn.Exec(`UPDATE items SET status = ?, updated_at = ? WHERE id = ?`,
		status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update item status: %w", err)
	}
	return requireRow(res)
}

// SetItemPin stores the exchange PIN generated when a peer-to-peer
// handoff is approved.
func (db *DB) SetItemPin(id, pin string) error {
	res, err := db.conn.Exec(`UPDATE items SET exchange_pin = ?, updated_at = ? WHERE id = ?`,
		pin, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set item pin: %w", err)
	}
	return requireRow(res)
}

// SetItemHub marks a found item as moved to a drop-off hub.
func (db *DB) SetItemHub(id, hubID string) error {
	res, err := db.conn.Exec(`UPDATE items SET is_moved_to_hub = 1, drop_off_hub_id = ?, updated_at = ? WHERE id = ?`,
		hubID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set item hub: %w", err)
	}
	return requireRow(res)
}

// ResolveItem marks an item RESOLVED and records how the exchange completed.
func (db *DB) ResolveItem(id string, details *models.ResolutionDetails) error {
	encoded, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("encode resolution_details: %w", err)
	}
	res, err := db.conn.Exec(`UPDATE items SET status = ?, resolution_details = ?, updated_at = ? WHERE id = ?`,
		models.ItemStatusResolved, string(encoded), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("resolve item: %w", err)
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
