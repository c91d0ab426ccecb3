package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/campusfind/campusfind/config"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

const (
	reputationHandshakeBonus = 25
	reputationQuizPenalty    = -10
)

// AlertPublisher pushes high-priority notifications to the alerts outbox.
// Publishing is fire and forget; failures are logged and never block the
// item lifecycle.
type AlertPublisher interface {
	Publish(ctx context.Context, n *models.Notification) error
}

// Service implements the item lifecycle: reporting, claim verification,
// approvals, and the pickup handshake.
type Service struct {
	db      *database.DB
	alerts  AlertPublisher
	lockout config.LockoutConfig
	rng     *rand.Rand
	now     func() time.Time
}

// New creates a lifecycle service. alerts may be nil when no broker is
// configured.
func New(db *database.DB, alerts AlertPublisher, lockout config.LockoutConfig) *Service {
	return &Service{
		db:      db,
		alerts:  alerts,
		lockout: lockout,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// CreateItemInput carries a new lost or found report.
type CreateItemInput struct {
	Type         models.ItemType
	Title        string
	Description  string
	Category     models.ItemCategory
	Condition    string
	Location     string
	Date         string
	TimeLost     string
	ContactName  string
	ContactEmail string

	AITags          []string
	ImageURL        string
	OCRDetectedText string

	IsUrgent     bool
	IsHighValue  bool
	DropOffHubID string

	QuizQuestion      string
	QuizOptions       []string
	QuizCorrectAnswer string
}

// CreateItem validates and persists a new report. High-value found items
// are routed to a drop-off hub immediately; urgent lost items raise an
// urgency alert.
func (s *Service) CreateItem(ctx context.Context, in CreateItemInput) (*models.Item, error) {
	if in.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	if in.Type != models.ItemTypeLost && in.Type != models.ItemTypeFound {
		return nil, fmt.Errorf("invalid item type %q", in.Type)
	}
	if err := validateQuiz(in.QuizQuestion, in.QuizOptions, in.QuizCorrectAnswer); err != nil {
		return nil, err
	}

	now := s.now()
	category := in.Category
	if category == "" {
		category = models.CategoryOther
	}

	item := &models.Item{
		ID:                uuid.New().String(),
		Type:              in.Type,
		Title:             in.Title,
		Description:       in.Description,
		Category:          category,
		Condition:         in.Condition,
		Location:          in.Location,
		Date:              in.Date,
		TimeLost:          in.TimeLost,
		ContactName:       in.ContactName,
		ContactEmail:      in.ContactEmail,
		Status:            models.ItemStatusOpen,
		AITags:            in.AITags,
		ImageURL:          in.ImageURL,
		OCRDetectedText:   in.OCRDetectedText,
		IsUrgent:          in.IsUrgent,
		IsHighValue:       in.IsHighValue,
		QuizQuestion:      in.QuizQuestion,
		QuizOptions:       in.QuizOptions,
		QuizCorrectAnswer: in.QuizCorrectAnswer,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	// High-value found items never circulate peer to peer; they are held
	// at a security hub from the moment they are reported.
	if item.Type == models.ItemTypeFound && item.IsHighValue {
		item.IsMovedToHub = true
		item.DropOffHubID = in.DropOffHubID
	}

	if err := s.db.CreateItem(item); err != nil {
		return nil, err
	}

	if item.Type == models.ItemTypeLost && item.IsUrgent {
		s.notify(ctx, models.NotifUrgencyAlert, "Urgent item reported",
			fmt.Sprintf("%q was reported lost and flagged urgent near %s.", item.Title, item.Location))
	}

	return item, nil
}

// ClaimOutcome reports the result of a claim submission. Verification
// failures are outcomes, not errors.
type ClaimOutcome struct {
	Accepted     bool                 `json:"accepted"`
	Locked       bool                 `json:"locked"`
	ManualReview bool                 `json:"manual_review"`
	Message      string               `json:"message"`
	Claim        *models.ClaimRequest `json:"claim,omitempty"`
}

// SubmitClaimInput carries a claimant's answer to an item's ownership quiz.
type SubmitClaimInput struct {
	ItemID          string
	ClaimantName    string
	ClaimantContact string
	ClaimantImage   string
	QuizAnswer      string
}

// SubmitClaim evaluates the ownership quiz before anything else. A wrong
// answer costs reputation and counts toward the two-strike lockout; a
// locked item rejects further attempts without looking at the answer.
func (s *Service) SubmitClaim(ctx context.Context, in SubmitClaimInput) (*ClaimOutcome, error) {
	item, err := s.db.GetItem(in.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}

	key := claimantKeyFor(s.lockout.PerClaimant, in.ClaimantContact)
	failures, err := s.db.QuizFailureCount(item.ID, key)
	if err != nil {
		return nil, err
	}
	if failures >= s.lockout.MaxAttempts {
		return &ClaimOutcome{
			Locked:  true,
			Message: "Verification is locked for this item after too many failed attempts.",
		}, nil
	}

	manualReview := false
	if item.HasQuiz() {
		if !quizAnswerCorrect(item, in.QuizAnswer) {
			return s.recordQuizFailure(ctx, item, key)
		}
	} else {
		// No quiz configured by the finder: the claim goes through but
		// is flagged for manual verification by the item owner.
		manualReview = true
	}

	claim := &models.ClaimRequest{
		ID:              uuid.New().String(),
		ItemID:          item.ID,
		ItemTitle:       item.Title,
		ClaimantName:    in.ClaimantName,
		ClaimantContact: in.ClaimantContact,
		ClaimantImage:   in.ClaimantImage,
		QuizPassed:      true,
		Status:          models.ClaimStatusPending,
		CreatedAt:       s.now(),
	}
	if err := s.db.CreateClaim(claim); err != nil {
		return nil, err
	}

	msg := "Identity verified. Your claim is pending review."
	if manualReview {
		msg = "No verification quiz is set for this item. Your claim is pending manual review."
	}
	return &ClaimOutcome{
		Accepted:     true,
		ManualReview: manualReview,
		Message:      msg,
		Claim:        claim,
	}, nil
}

func (s *Service) recordQuizFailure(ctx context.Context, item *models.Item, key string) (*ClaimOutcome, error) {
	failures, err := s.db.IncrementQuizFailures(item.ID, key)
	if err != nil {
		return nil, err
	}
	if _, err := s.db.AdjustReputation(reputationQuizPenalty); err != nil {
		return nil, err
	}

	if failures >= s.lockout.MaxAttempts {
		s.notify(ctx, models.NotifFraudAlert, "Verification locked",
			fmt.Sprintf("Multiple failed verification attempts on %q. Claims are now locked.", item.Title))
		return &ClaimOutcome{
			Locked:  true,
			Message: "Incorrect answer. Verification is now locked for this item.",
		}, nil
	}
	return &ClaimOutcome{
		Message: "Incorrect answer. One attempt remaining before verification locks.",
	}, nil
}

// ApprovalOutcome reports how an approved claim will be fulfilled.
type ApprovalOutcome struct {
	Policy      HandoffPolicy `json:"-"`
	Escrow      bool          `json:"escrow"`
	ExchangePin string        `json:"exchange_pin,omitempty"`
	Message     string        `json:"message"`
}

// ApproveClaim marks a claim approved and starts the handoff. A missing
// claim or item is a silent no-op.
func (s *Service) ApproveClaim(ctx context.Context, claimID string) (*ApprovalOutcome, error) {
	claim, err := s.db.GetClaim(claimID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item, err := s.db.GetItem(claim.ItemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	if err := s.db.UpdateClaimStatus(claim.ID, models.ClaimStatusApproved); err != nil {
		return nil, err
	}

	policy := handoffPolicyFor(item)
	if policy == HandoffEscrow {
		details := &models.ResolutionDetails{
			ResolvedBy:     claim.ClaimantName,
			ContactInfo:    claim.ClaimantContact,
			Notes:          "High-value item released through campus security escrow.",
			ResolutionDate: s.now(),
			ExchangeMethod: models.ExchangeSecurityEscrow,
		}
		if err := s.db.ResolveItem(item.ID, details); err != nil {
			return nil, err
		}
		s.notify(ctx, models.NotifClaimUpdate, "Claim approved",
			fmt.Sprintf("Your claim for %q was approved. Collect it at the campus security hub with photo ID.", item.Title))
		return &ApprovalOutcome{
			Policy:  HandoffEscrow,
			Escrow:  true,
			Message: "Claim approved. The item will be released at the security hub.",
		}, nil
	}

	pin := s.newExchangePin()
	if err := s.db.SetItemPin(item.ID, pin); err != nil {
		return nil, err
	}
	if err := s.db.UpdateItemStatus(item.ID, models.ItemStatusPendingPickup); err != nil {
		return nil, err
	}
	s.notify(ctx, models.NotifClaimUpdate, "Claim approved",
		fmt.Sprintf("Your claim for %q was approved. Exchange PIN: %s. Meet at a designated safe zone.", item.Title, pin))
	return &ApprovalOutcome{
		Policy:      HandoffPeerToPeer,
		ExchangePin: pin,
		Message:     "Claim approved. Share the exchange PIN only at the safe zone.",
	}, nil
}

// RejectClaim marks a claim rejected. A missing claim is a silent no-op.
func (s *Service) RejectClaim(ctx context.Context, claimID string) error {
	err := s.db.UpdateClaimStatus(claimID, models.ClaimStatusRejected)
	if errors.Is(err, database.ErrNotFound) {
		return nil
	}
	return err
}

// newExchangePin draws a uniform 4-digit PIN in [1000, 9999].
func (s *Service) newExchangePin() string {
	return fmt.Sprintf("%d", 1000+s.rng.Intn(9000))
}

// HandshakeOutcome reports a pickup-handshake attempt. Wrong PIN and
// out-of-zone attempts are retryable outcomes, not errors.
type HandshakeOutcome struct {
	Resolved   bool   `json:"resolved"`
	Message    string `json:"message"`
	Reputation int    `json:"reputation,omitempty"`
}

// VerifyHandshake completes (or retries) the peer-to-peer pickup. The
// geofence check runs before the PIN is compared, and a failed attempt
// never consumes the PIN.
func (s *Service) VerifyHandshake(ctx context.Context, itemID, pin string, nearSafeZone bool) (*HandshakeOutcome, error) {
	item, err := s.db.GetItem(itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.Status != models.ItemStatusPendingPickup {
		return nil, ErrNotPendingPickup
	}

	if !nearSafeZone {
		return &HandshakeOutcome{
			Message: "You must be at a designated safe zone to complete the exchange.",
		}, nil
	}
	if pin != item.ExchangePin {
		return &HandshakeOutcome{
			Message: "Incorrect PIN. Check the code with the other party and try again.",
		}, nil
	}

	details := &models.ResolutionDetails{
		ResolvedBy:     "Verified Claimant",
		ContactInfo:    item.ContactEmail,
		Notes:          "Peer-to-peer exchange verified by PIN at a safe zone.",
		ResolutionDate: s.now(),
		ExchangeMethod: models.ExchangeP2PPin,
	}
	if err := s.db.ResolveItem(item.ID, details); err != nil {
		return nil, err
	}
	if err := s.db.SetItemPin(item.ID, ""); err != nil {
		return nil, err
	}

	score, err := s.db.AdjustReputation(reputationHandshakeBonus)
	if err != nil {
		return nil, err
	}
	s.notify(ctx, models.NotifClaimUpdate, "Exchange complete",
		fmt.Sprintf("%q was returned to its owner. Community reputation +%d.", item.Title, reputationHandshakeBonus))

	return &HandshakeOutcome{
		Resolved:   true,
		Message:    "Exchange verified. Item marked as returned.",
		Reputation: score,
	}, nil
}

// ResolveItem marks an item returned with caller-supplied details. An
// already-resolved item is rejected.
func (s *Service) ResolveItem(ctx context.Context, itemID string, details models.ResolutionDetails) (*models.Item, error) {
	item, err := s.db.GetItem(itemID)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	if item.Status == models.ItemStatusResolved {
		return nil, ErrAlreadyResolved
	}

	details.ResolutionDate = s.now()
	if details.ExchangeMethod == "" {
		details.ExchangeMethod = models.ExchangeSecurityEscrow
	}
	if err := s.db.ResolveItem(item.ID, &details); err != nil {
		return nil, err
	}
	if item.ExchangePin != "" {
		if err := s.db.SetItemPin(item.ID, ""); err != nil {
			return nil, err
		}
	}
	return s.db.GetItem(item.ID)
}

// SelfResolve resolves an item on behalf of its reporter and, optionally,
// a matched counterpart report in the same request. The counterpart is
// resolved best-effort: its failure does not roll back the first.
func (s *Service) SelfResolve(ctx context.Context, itemID string, details models.ResolutionDetails, linkedItemID string) (*models.Item, error) {
	item, err := s.ResolveItem(ctx, itemID, details)
	if err != nil {
		return nil, err
	}

	if linkedItemID != "" && linkedItemID != itemID {
		linked := models.ResolutionDetails{
			ResolvedBy:     details.ResolvedBy,
			ContactInfo:    details.ContactInfo,
			Notes:          fmt.Sprintf("Automatically resolved with matched report %q.", item.Title),
			ExchangeMethod: details.ExchangeMethod,
		}
		if _, err := s.ResolveItem(ctx, linkedItemID, linked); err != nil {
			log.Printf("lifecycle: resolve linked item %s: %v", linkedItemID, err)
		}
	}
	return item, nil
}

// SweepStalePickups raises a safety-timer notification for every item
// that has been awaiting pickup longer than maxAge. It returns the number
// of items flagged. Intended to run periodically from the server.
func (s *Service) SweepStalePickups(ctx context.Context, maxAge time.Duration) (int, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return 0, err
	}
	cutoff := s.now().Add(-maxAge)
	flagged := 0
	for _, item := range items {
		if item.Status != models.ItemStatusPendingPickup || item.UpdatedAt.After(cutoff) {
			continue
		}
		s.notify(ctx, models.NotifSafetyTimer, "Pickup overdue",
			fmt.Sprintf("The exchange for %q has been pending for over %s. Check in with the other party or contact campus security.", item.Title, maxAge))
		// Bumping updated_at restarts the timer so the next sweep does
		// not flag the same item again.
		if err := s.db.UpdateItemStatus(item.ID, item.Status); err != nil {
			return flagged, err
		}
		flagged++
	}
	return flagged, nil
}

// notify appends to the alert log and forwards high-priority types to the
// alerts outbox.
func (s *Service) notify(ctx context.Context, typ models.NotificationType, title, message string) {
	n := &models.Notification{
		ID:        uuid.New().String(),
		Type:      typ,
		Title:     title,
		Message:   message,
		CreatedAt: s.now(),
	}
	if err := s.db.CreateNotification(n); err != nil {
		log.Printf("lifecycle: create notification: %v", err)
		return
	}
	if s.alerts == nil {
		return
	}
	if typ == models.NotifFraudAlert || typ == models.NotifUrgencyAlert {
		if err := s.alerts.Publish(ctx, n); err != nil {
			log.Printf("lifecycle: publish alert: %v", err)
		}
	}
}
