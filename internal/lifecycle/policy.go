package lifecycle

import (
	"strings"

	"github.com/campusfind/campusfind/pkg/models"
)

// HandoffPolicy decides how an approved claim is fulfilled.
type HandoffPolicy int

const (
	// HandoffEscrow routes the exchange through the campus security hub.
	HandoffEscrow HandoffPolicy = iota
	// HandoffPeerToPeer lets the parties meet directly, verified by PIN.
	HandoffPeerToPeer
)

// handoffPolicyFor is computed once per approval, from the item alone.
// High-value items always go through security escrow.
func handoffPolicyFor(item *models.Item) HandoffPolicy {
	if item.IsHighValue {
		return HandoffEscrow
	}
	return HandoffPeerToPeer
}

// validateQuiz enforces the ownership-challenge invariant at report time:
// a quiz either is absent entirely, or its options contain the correct
// answer exactly once.
func validateQuiz(question string, options []string, correct string) error {
	if question == "" && len(options) == 0 && correct == "" {
		return nil
	}
	if question == "" || len(options) == 0 || correct == "" {
		return ErrInvalidQuiz
	}
	n := 0
	for _, opt := range options {
		if opt == correct {
			n++
		}
	}
	if n != 1 {
		return ErrInvalidQuiz
	}
	return nil
}

// quizAnswerCorrect compares a submitted answer to the configured one.
// Comparison is exact after trimming surrounding whitespace.
func quizAnswerCorrect(item *models.Item, answer string) bool {
	return strings.TrimSpace(answer) == item.QuizCorrectAnswer
}

// claimantKeyFor returns the lockout-counter key for a claimant. In
// per-item mode every claimant shares one counter.
func claimantKeyFor(perClaimant bool, contact string) string {
	if perClaimant {
		return strings.ToLower(strings.TrimSpace(contact))
	}
	return ""
}
