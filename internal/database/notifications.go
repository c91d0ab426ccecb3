package database

import (
	"fmt"

	"github.com/campusfind/campusfind/pkg/models"
)

// CreateNotification appends an entry to the alert log.
func (db *DB) CreateNotification(n *models.Notification) error {
	_, err := db.conn.Exec(`
		INSERT INTO notifications (id, type, title, message, read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		n.ID, n.Type, n.Title, n.Message, n.Read, n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns all notifications, newest first.
func (db *DB) ListNotifications() ([]*models.Notification, error) {
	rows, err := db.conn.Query(`SELECT id, type, title, message, read, created_at
		FROM notifications ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var notifs []*models.Notification
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.Type, &n.Title, &n.Message, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		notifs = append(notifs, &n)
	}
	return notifs, rows.Err()
}

// MarkNotificationRead flips the read flag. Re-marking is a no-op.
func (db *DB) MarkNotificationRead(id string) error {
	res, err := db.conn.Exec(`UPDATE notifications SET read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return requireRow(res)
}

// UnreadNotificationCount returns how many notifications are unread.
func (db *DB) UnreadNotificationCount() (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM notifications WHERE read = 0`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return n, nil
}
