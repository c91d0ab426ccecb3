package handlers

import (
	"encoding/base64"
	"log"
	"net/http"
)

type analyzeRequest struct {
	// Image is base64-encoded image data.
	Image    string `json:"image"`
	MimeType string `json:"mime_type"`
}

// AnalyzeImage runs AI analysis over an uploaded photo. On provider
// failure the client gets the fixed fallback analysis and fills in the
// form by hand.
func (h *Handler) AnalyzeImage(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Image == "" {
		jsonError(w, "image is required", http.StatusBadRequest)
		return
	}
	imageData, err := base64.StdEncoding.DecodeString(req.Image)
	if err != nil {
		jsonError(w, "image must be base64-encoded", http.StatusBadRequest)
		return
	}

	analysis, err := h.provider.AnalyzeItemImage(r.Context(), imageData, req.MimeType)
	if err != nil {
		log.Printf("Error analyzing image: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, analysis)
}

// SurveillanceScan analyzes all active camera feeds and cross-references
// detections against open lost reports.
func (h *Handler) SurveillanceScan(w http.ResponseWriter, r *http.Request) {
	results, err := h.scanner.Scan(r.Context())
	if err != nil {
		log.Printf("Error scanning feeds: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, results)
}

// ListHubs returns the campus drop-off hubs.
func (h *Handler) ListHubs(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, h.campus.Hubs)
}

// Analytics returns dashboard report analytics.
func (h *Handler) Analytics(w http.ResponseWriter, _ *http.Request) {
	report, err := h.match.Report()
	if err != nil {
		log.Printf("Error computing analytics: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	jsonResponse(w, report)
}
