package database

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/campusfind/campusfind/pkg/models"
)

const claimColumns = `id, item_id, item_title, claimant_name, claimant_contact, claimant_image,
	quiz_passed, status, created_at`

func scanClaim(row scanner) (*models.ClaimRequest, error) {
	var c models.ClaimRequest
	err := row.Scan(
		&c.ID, &c.ItemID, &c.ItemTitle, &c.ClaimantName, &c.ClaimantContact, &c.ClaimantImage,
		&c.QuizPassed, &c.Status, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// CreateClaim inserts a new claim request.
func (db *DB) CreateClaim(c *models.ClaimRequest) error {
	_, err := db.conn.Exec(`
		INSERT INTO claims (id, item_id, item_title, claimant_name, claimant_contact, claimant_image,
			quiz_passed, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, c.ItemID, c.ItemTitle, c.ClaimantName, c.ClaimantContact, c.ClaimantImage,
		c.QuizPassed, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

// GetClaim returns a single claim by ID.
func (db *DB) GetClaim(id string) (*models.ClaimRequest, error) {
	row := db.conn.QueryRow(`SELECT `+claimColumns+` FROM claims WHERE id = ?`, id)
	c, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get claim: %w", err)
	}
	return c, nil
}

// ListClaims returns all claims, newest first.
func (db *DB) ListClaims() ([]*models.ClaimRequest, error) {
	rows, err := db.conn.Query(`SELECT ` + claimColumns + ` FROM claims ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

// ListClaimsByItem returns all claims against one item, newest first.
func (db *DB) ListClaimsByItem(itemID string) ([]*models.ClaimRequest, error) {
	rows, err := db.conn.Query(`SELECT `+claimColumns+` FROM claims
		WHERE item_id = ? ORDER BY created_at DESC`, itemID)
	if err != nil {
		return nil, fmt.Errorf("list claims by item: %w", err)
	}
	defer rows.Close()
	return collectClaims(rows)
}

func collectClaims(rows *sql.Rows) ([]*models.ClaimRequest, error) {
	var claims []*models.ClaimRequest
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		claims = append(claims, c)
	}
	return claims, rows.Err()
}

// UpdateClaimStatus moves a claim to a terminal status.
func (db *DB) UpdateClaimStatus(id string, status models.ClaimStatus) error {
	res, err := db.conn.Exec(`UPDATE claims SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update claim status: %w", err)
	}
	return requireRow(res)
}
