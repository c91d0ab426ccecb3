// Package handlers exposes the JSON API.
package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/campusfind/campusfind/internal/ai"
	"github.com/campusfind/campusfind/internal/auth"
	"github.com/campusfind/campusfind/internal/campus"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/internal/lifecycle"
	"github.com/campusfind/campusfind/internal/match"
	"github.com/campusfind/campusfind/internal/surveillance"
)

// Handler holds all HTTP handler dependencies.
type Handler struct {
	db        *database.DB
	auth      *auth.Service
	lifecycle *lifecycle.Service
	match     *match.Service
	scanner   *surveillance.Scanner
	provider  ai.Provider
	campus    *campus.Directory
	secure    bool // mark session cookies Secure (production)
}

// New creates a new Handler.
func New(db *database.DB, authService *auth.Service, lifecycleService *lifecycle.Service,
	matchService *match.Service, scanner *surveillance.Scanner, provider ai.Provider,
	campusDir *campus.Directory, secure bool) *Handler {
	return &Handler{
		db:        db,
		auth:      authService,
		lifecycle: lifecycleService,
		match:     matchService,
		scanner:   scanner,
		provider:  provider,
		campus:    campusDir,
		secure:    secure,
	}
}

// Routes mounts all API routes on a router.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/signup", h.Signup)
		r.Post("/auth/login", h.Login)
		r.Post("/auth/logout", h.Logout)

		// Public: browsing and reading.
		r.Get("/items", h.ListItems)
		r.Get("/items/{id}", h.GetItem)
		r.Get("/hubs", h.ListHubs)
		r.Get("/analytics", h.Analytics)

		// Authenticated: everything that mutates or costs AI calls.
		r.Group(func(r chi.Router) {
			r.Use(AuthMiddleware(h.auth))

			r.Post("/items", h.CreateItem)
			r.Get("/items/{id}/matches", h.FindMatches)
			r.Post("/items/{id}/resolve", h.ResolveItem)
			r.Post("/items/{id}/claims", h.SubmitClaim)
			r.Post("/items/{id}/handshake", h.VerifyHandshake)

			r.Get("/claims", h.ListClaims)
			r.Post("/claims/{id}/approve", h.ApproveClaim)
			r.Post("/claims/{id}/reject", h.RejectClaim)

			r.Get("/notifications", h.ListNotifications)
			r.Post("/notifications/{id}/read", h.MarkNotificationRead)
			r.Get("/reputation", h.Reputation)

			r.Post("/analyze", h.AnalyzeImage)
			r.Post("/surveillance/scan", h.SurveillanceScan)
		})
	})
}

// Health reports service liveness.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	jsonResponse(w, map[string]string{"status": "ok"})
}

func jsonResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("Error encoding JSON response: %v", err)
	}
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func decodeJSON(r *http.Request, dst interface{}) error {
	return json.NewDecoder(r.Body).Decode(dst)
}
