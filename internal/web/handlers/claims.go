package handlers

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusfind/campusfind/pkg/models"
)

// ListClaims returns claims, optionally filtered by status.
func (h *Handler) ListClaims(w http.ResponseWriter, r *http.Request) {
	claims, err := h.db.ListClaims()
	if err != nil {
		log.Printf("Error listing claims: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	if status := r.URL.Query().Get("status"); status != "" {
		var filtered []*models.ClaimRequest
		for _, c := range claims {
			if string(c.Status) == status {
				filtered = append(filtered, c)
			}
		}
		claims = filtered
	}

	if claims == nil {
		claims = []*models.ClaimRequest{}
	}
	jsonResponse(w, claims)
}

// ApproveClaim approves a pending claim and starts the handoff. Missing
// claims and items are a silent no-op.
func (h *Handler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	outcome, err := h.lifecycle.ApproveClaim(r.Context(), id)
	if err != nil {
		log.Printf("Error approving claim %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if outcome == nil {
		jsonResponse(w, map[string]string{"status": "ok"})
		return
	}
	jsonResponse(w, outcome)
}

// RejectClaim rejects a pending claim. A missing claim is a silent no-op.
func (h *Handler) RejectClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.lifecycle.RejectClaim(r.Context(), id); err != nil {
		log.Printf("Error rejecting claim %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, map[string]string{"status": "ok"})
}
