package handlers

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/internal/lifecycle"
	"github.com/campusfind/campusfind/pkg/models"
)

// ListItems returns items, optionally filtered by type, category, status,
// and a free-text query. ai=1 routes the query through semantic search.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.db.ListItems()
	if err != nil {
		log.Printf("Error listing items: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	items = filterItems(items, q.Get("type"), q.Get("category"), q.Get("status"))

	if query := strings.TrimSpace(q.Get("q")); query != "" {
		semantic := q.Get("ai") == "1"
		items, err = h.match.Search(r.Context(), query, items, semantic)
		if err != nil {
			log.Printf("Error searching items: %v", err)
			jsonError(w, "internal server error", http.StatusInternalServerError)
			return
		}
	}

	if items == nil {
		items = []*models.Item{}
	}
	jsonResponse(w, items)
}

func filterItems(items []*models.Item, itemType, category, status string) []*models.Item {
	var out []*models.Item
	for _, it := range items {
		if itemType != "" && string(it.Type) != itemType {
			continue
		}
		if category != "" && string(it.Category) != category {
			continue
		}
		if status != "" && string(it.Status) != status {
			continue
		}
		out = append(out, it)
	}
	return out
}

type createItemRequest struct {
	Type         models.ItemType     `json:"type"`
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	Category     models.ItemCategory `json:"category"`
	Condition    string              `json:"condition"`
	Location     string              `json:"location"`
	Date         string              `json:"date"`
	TimeLost     string              `json:"time_lost"`
	ContactName  string              `json:"contact_name"`
	ContactEmail string              `json:"contact_email"`

	AITags          []string `json:"ai_tags"`
	ImageURL        string   `json:"image_url"`
	OCRDetectedText string   `json:"ocr_detected_text"`

	IsUrgent     bool   `json:"is_urgent"`
	IsHighValue  bool   `json:"is_high_value"`
	DropOffHubID string `json:"drop_off_hub_id"`

	QuizQuestion      string   `json:"quiz_question"`
	QuizOptions       []string `json:"quiz_options"`
	QuizCorrectAnswer string   `json:"quiz_correct_answer"`
}

// CreateItem reports a new lost or found item.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.lifecycle.CreateItem(r.Context(), lifecycle.CreateItemInput{
		Type:              req.Type,
		Title:             req.Title,
		Description:       req.Description,
		Category:          req.Category,
		Condition:         req.Condition,
		Location:          req.Location,
		Date:              req.Date,
		TimeLost:          req.TimeLost,
		ContactName:       req.ContactName,
		ContactEmail:      req.ContactEmail,
		AITags:            req.AITags,
		ImageURL:          req.ImageURL,
		OCRDetectedText:   req.OCRDetectedText,
		IsUrgent:          req.IsUrgent,
		IsHighValue:       req.IsHighValue,
		DropOffHubID:      req.DropOffHubID,
		QuizQuestion:      req.QuizQuestion,
		QuizOptions:       req.QuizOptions,
		QuizCorrectAnswer: req.QuizCorrectAnswer,
	})
	if errors.Is(err, lifecycle.ErrInvalidQuiz) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Error creating item: %v", err)
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, item)
}

// GetItem returns a single item with its likely-owner hint.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	item, err := h.db.GetItem(id)
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error getting item %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	jsonResponse(w, map[string]interface{}{
		"item":          item,
		"owner_context": h.campus.LikelyOwnerContext(item),
	})
}

// FindMatches returns AI-ranked counterpart candidates for an item.
func (h *Handler) FindMatches(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	results, err := h.match.FindMatches(r.Context(), id)
	if errors.Is(err, database.ErrNotFound) {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error finding matches for %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []models.MatchResult{}
	}
	jsonResponse(w, results)
}

type resolveRequest struct {
	ResolvedBy     string                `json:"resolved_by"`
	ContactInfo    string                `json:"contact_info"`
	Notes          string                `json:"notes"`
	ExchangeMethod models.ExchangeMethod `json:"exchange_method"`
	LinkedItemID   string                `json:"linked_item_id"`
}

// ResolveItem marks an item returned, optionally resolving a matched
// counterpart report in the same request.
func (h *Handler) ResolveItem(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req resolveRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	item, err := h.lifecycle.SelfResolve(r.Context(), id, models.ResolutionDetails{
		ResolvedBy:     req.ResolvedBy,
		ContactInfo:    req.ContactInfo,
		Notes:          req.Notes,
		ExchangeMethod: req.ExchangeMethod,
	}, req.LinkedItemID)
	if errors.Is(err, lifecycle.ErrItemNotFound) {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, lifecycle.ErrAlreadyResolved) {
		jsonError(w, "item already resolved", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("Error resolving item %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, item)
}

type submitClaimRequest struct {
	ClaimantName    string `json:"claimant_name"`
	ClaimantContact string `json:"claimant_contact"`
	ClaimantImage   string `json:"claimant_image"`
	QuizAnswer      string `json:"quiz_answer"`
}

// SubmitClaim evaluates the ownership quiz and, on success, files a
// pending claim. Failed verification is a 200 with the outcome payload.
func (h *Handler) SubmitClaim(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req submitClaimRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.ClaimantName == "" {
		jsonError(w, "claimant_name is required", http.StatusBadRequest)
		return
	}

	outcome, err := h.lifecycle.SubmitClaim(r.Context(), lifecycle.SubmitClaimInput{
		ItemID:          id,
		ClaimantName:    req.ClaimantName,
		ClaimantContact: req.ClaimantContact,
		ClaimantImage:   req.ClaimantImage,
		QuizAnswer:      req.QuizAnswer,
	})
	if errors.Is(err, lifecycle.ErrItemNotFound) {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	if err != nil {
		log.Printf("Error submitting claim for %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, outcome)
}

type handshakeRequest struct {
	Pin          string `json:"pin"`
	NearSafeZone bool   `json:"near_safe_zone"`
}

// VerifyHandshake completes the peer-to-peer pickup. Wrong PIN and
// out-of-zone attempts are 200 outcomes; trying to handshake an item
// that is not awaiting pickup is a conflict.
func (h *Handler) VerifyHandshake(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var req handshakeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	outcome, err := h.lifecycle.VerifyHandshake(r.Context(), id, req.Pin, req.NearSafeZone)
	if errors.Is(err, lifecycle.ErrItemNotFound) {
		jsonError(w, "item not found", http.StatusNotFound)
		return
	}
	if errors.Is(err, lifecycle.ErrNotPendingPickup) {
		jsonError(w, "item is not pending pickup", http.StatusConflict)
		return
	}
	if err != nil {
		log.Printf("Error verifying handshake for %s: %v", id, err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, outcome)
}
