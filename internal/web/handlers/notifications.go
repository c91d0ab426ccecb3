package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

// ListNotifications returns the alert log, newest first, with the
// unread count.
func (h *Handler) ListNotifications(w http.ResponseWriter, _ *http.Request) {
	notifs, err := h.db.ListNotifications()
	if err != nil {
		log.Printf("Error listing notifications: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	unread, err := h.db.UnreadNotificationCount()
	if err != nil {
		log.Printf("Error counting notifications: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if notifs == nil {
		notifs = []*models.Notification{}
	}
	jsonResponse(w, map[string]interface{}{
		"notifications": notifs,
		"unread":        unread,
	})
}

// MarkNotificationRead flips a notification's read flag.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := h.db.MarkNotificationRead(id)
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "notification not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error marking notification %s read: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}

// Reputation returns the community reputation score.
func (h *Handler) Reputation(w http.ResponseWriter, _ *http.Request) {
	score, err := h.db.ReputationScore()
	if err != nil {
		log.Printf("Error getting reputation: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]int{"score": score})
}
