package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/campusfind/campusfind/internal/auth"
)

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Signup registers a new account and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if len(req.Password) < 8 {
		jsonError(w, "password must be at least 8 characters", http.StatusBadRequest)
		return
	}

	user, err := h.auth.Signup(req.Email, req.Password, req.Name)
	if errors.Is(err, auth.ErrEmailTaken) {
		jsonError(w, "email already registered", http.StatusConflict)
		return
	}
	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonError(w, "email and password are required", http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Printf("Error creating user: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	sessionID, err := h.auth.Login(req.Email, req.Password)
	if err != nil {
		log.Printf("Error creating session after signup: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}
	h.setSessionCookie(w, sessionID, 0)

	w.WriteHeader(http.StatusCreated)
	jsonResponse(w, user)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login verifies credentials and sets the session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	sessionID, err := h.auth.Login(req.Email, req.Password)
	if errors.Is(err, auth.ErrInvalidCredentials) {
		jsonError(w, "invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		log.Printf("Error logging in: %v", err)
		jsonError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	h.setSessionCookie(w, sessionID, 0)
	jsonResponse(w, map[string]string{"status": "ok"})
}

// Logout deletes the session and clears the cookie.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(sessionCookieName); err == nil && cookie.Value != "" {
		if err := h.auth.Logout(cookie.Value); err != nil {
			log.Printf("Error deleting session: %v", err)
		}
	}
	clearSessionCookie(w)
	jsonResponse(w, map[string]string{"status": "ok"})
}
