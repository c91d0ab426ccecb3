package database

import (
	"database/sql"
	"errors"
	"fmt"
)

// ReputationScore returns the current community reputation score.
func (db *DB) ReputationScore() (int, error) {
	var score int
	err := db.conn.QueryRow(`SELECT score FROM reputation WHERE id = 1`).Scan(&score)
	if err != nil {
		return 0, fmt.Errorf("get reputation: %w", err)
	}
	return score, nil
}

// AdjustReputation applies a delta to the reputation score, clamping at zero.
// Returns the new score.
func (db *DB) AdjustReputation(delta int) (int, error) {
	_, err := db.conn.Exec(`UPDATE reputation SET score = MAX(0, score + ?) WHERE id = 1`, delta)
	if err != nil {
		return 0, fmt.Errorf("adjust reputation: %w", err)
	}
	return db.ReputationScore()
}

// QuizFailureCount returns the number of recorded quiz failures for an item,
// scoped to a claimant key. An empty key counts failures across all claimants.
func (db *DB) QuizFailureCount(itemID, claimantKey string) (int, error) {
	var count int
	err := db.conn.QueryRow(`SELECT count FROM quiz_failures WHERE item_id = ? AND claimant_key = ?`,
		itemID, claimantKey).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get quiz failures: %w", err)
	}
	return count, nil
}

// IncrementQuizFailures bumps the failure counter and returns the new count.
func (db *DB) IncrementQuizFailures(itemID, claimantKey string) (int, error) {
	_, err := db.conn.Exec(`
		INSERT INTO quiz_failures (item_id, claimant_key, count) VALUES (?, ?, 1)
		ON CONFLICT (item_id, claimant_key) DO UPDATE SET count = count + 1`,
		itemID, claimantKey)
	if err != nil {
		return 0, fmt.Errorf("increment quiz failures: %w", err)
	}
	return db.QuizFailureCount(itemID, claimantKey)
}

// ResetQuizFailures clears the failure counters for an item, for all claimants.
func (db *DB) ResetQuizFailures(itemID string) error {
	_, err := db.conn.Exec(`DELETE FROM quiz_failures WHERE item_id = ?`, itemID)
	if err != nil {
		return fmt.Errorf("reset quiz failures: %w", err)
	}
	return nil
}
