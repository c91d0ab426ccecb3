package auth

import (
	"errors"
	"os"
	"testing"
	"time"

	"github.com/campusfind/campusfind/internal/database"
)

func setupAuth(t *testing.T) *Service {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "campusfind-auth-*.db")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	tmpFile.Close()
	t.Cleanup(func() { os.Remove(tmpFile.Name()) })

	db, err := database.New(tmpFile.Name())
	if err != nil {
		t.Fatalf("database.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return New(db, time.Hour)
}

func TestSignupAndLogin(t *testing.T) {
	svc := setupAuth(t)

	user, err := svc.Signup("Sortiz@Campus.EDU", "hunter2-but-longer", "Sam Ortiz")
	if err != nil {
		t.Fatalf("Signup: %v", err)
	}
	if user.Email != "sortiz@campus.edu" {
		t.Errorf("email = %q, want lowercased", user.Email)
	}
	if user.PasswordHash == "hunter2-but-longer" {
		t.Error("password stored in plaintext")
	}

	if _, err := svc.Signup("sortiz@campus.edu", "another", "Dup"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup err = %v, want ErrEmailTaken", err)
	}

	sessionID, err := svc.Login("sortiz@campus.edu", "hunter2-but-longer")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	got, err := svc.ValidateSession(sessionID)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if got == nil || got.ID != user.ID {
		t.Errorf("session user = %+v, want %s", got, user.ID)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc := setupAuth(t)
	if _, err := svc.Signup("a@campus.edu", "correct-horse", "A"); err != nil {
		t.Fatalf("Signup: %v", err)
	}

	if _, err := svc.Login("a@campus.edu", "battery-staple"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("err = %v, want ErrInvalidCredentials", err)
	}
	if _, err := svc.Login("nobody@campus.edu", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown user err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogout(t *testing.T) {
	svc := setupAuth(t)
	if _, err := svc.Signup("a@campus.edu", "correct-horse", "A"); err != nil {
		t.Fatalf("Signup: %v", err)
	}
	sessionID, err := svc.Login("a@campus.edu", "correct-horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(sessionID); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	user, err := svc.ValidateSession(sessionID)
	if err != nil {
		t.Fatalf("ValidateSession: %v", err)
	}
	if user != nil {
		t.Errorf("session still valid after logout: %+v", user)
	}
}
