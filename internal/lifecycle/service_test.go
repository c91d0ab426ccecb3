package lifecycle

import (
	"context"
	"errors"
	"os"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/campusfind/campusfind/config"
	"github.com/campusfind/campusfind/internal/database"
	"github.com/campusfind/campusfind/pkg/models"
)

type capturePublisher struct {
	mu        sync.Mutex
	published []*models.Notification
}

func (p *capturePublisher) Publish(_ context.Context, n *models.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, n)
	return nil
}

func (p *capturePublisher) byType(typ models.NotificationType) []*models.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []*models.Notification
	for _, n := range p.published {
		if n.Type == typ {
			out = append(out, n)
		}
	}
	return out
}

func setupService(t *testing.T) (*Service, *database.DB, *capturePublisher) {
	t.Helper()
	tmpFile, err := os.CreateTemp("", "campusfind-lifecycle-*.db")
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

	pub := &capturePublisher{}
	svc := New(db, pub, config.LockoutConfig{MaxAttempts: 2})
	return svc, db, pub
}

func reportItem(t *testing.T, svc *Service, in CreateItemInput) *models.Item {
	t.Helper()
	item, err := svc.CreateItem(context.Background(), in)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	return item
}

func foundWithQuiz() CreateItemInput {
	return CreateItemInput{
		Type:              models.ItemTypeFound,
		Title:             "Black AirPods Case",
		Category:          models.CategoryElectronics,
		Location:          "Student Union",
		Date:              "2026-08-21",
		ContactName:       "Dana Fox",
		ContactEmail:      "dfox@campus.edu",
		QuizQuestion:      "What sticker is on the case?",
		QuizOptions:       []string{"None", "Smiley face", "Campus logo"},
		QuizCorrectAnswer: "Smiley face",
	}
}

func TestCreateItem_QuizInvariant(t *testing.T) {
	svc, _, _ := setupService(t)

	in := foundWithQuiz()
	in.QuizCorrectAnswer = "Not an option"
	if _, err := svc.CreateItem(context.Background(), in); !errors.Is(err, ErrInvalidQuiz) {
		t.Errorf("CreateItem with bad quiz: err = %v, want ErrInvalidQuiz", err)
	}

	// Duplicate correct answer in the options is also rejected.
	in = foundWithQuiz()
	in.QuizOptions = []string{"Smiley face", "Smiley face", "None"}
	if _, err := svc.CreateItem(context.Background(), in); !errors.Is(err, ErrInvalidQuiz) {
		t.Errorf("CreateItem with duplicate answer: err = %v, want ErrInvalidQuiz", err)
	}
}

func TestCreateItem_HighValueFoundForcedToHub(t *testing.T) {
	svc, _, _ := setupService(t)

	in := foundWithQuiz()
	in.IsHighValue = true
	in.DropOffHubID = "hub-security"
	item := reportItem(t, svc, in)

	if !item.IsMovedToHub {
		t.Error("high-value found item not moved to hub")
	}
	if item.DropOffHubID != "hub-security" {
		t.Errorf("DropOffHubID = %q, want hub-security", item.DropOffHubID)
	}
}

func TestCreateItem_UrgentLostRaisesAlert(t *testing.T) {
	svc, db, pub := setupService(t)

	reportItem(t, svc, CreateItemInput{
		Type:         models.ItemTypeLost,
		Title:        "Insulin kit",
		Category:     models.CategoryOther,
		Location:     "Gym locker room",
		ContactName:  "Ash Patel",
		ContactEmail: "apatel@campus.edu",
		IsUrgent:     true,
	})

	notifs, err := db.ListNotifications()
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Type != models.NotifUrgencyAlert {
		t.Fatalf("notifications = %+v, want one URGENCY_ALERT", notifs)
	}
	if len(pub.byType(models.NotifUrgencyAlert)) != 1 {
		t.Error("urgency alert was not published to the outbox")
	}
}

// Scenario: two wrong quiz answers lock the item and raise a fraud alert,
// and no claim row is ever created.
func TestSubmitClaim_TwoStrikeLockout(t *testing.T) {
	svc, db, pub := setupService(t)
	ctx := context.Background()
	item := reportItem(t, svc, foundWithQuiz())

	claimIn := SubmitClaimInput{
		ItemID:          item.ID,
		ClaimantName:    "Riley Chen",
		ClaimantContact: "rchen@campus.edu",
		QuizAnswer:      "None",
	}

	// First strike.
	out, err := svc.SubmitClaim(ctx, claimIn)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if out.Accepted || out.Locked {
		t.Fatalf("first wrong answer: outcome = %+v, want retryable failure", out)
	}
	score, _ := db.ReputationScore()
	if score != 90 {
		t.Errorf("reputation after first strike = %d, want 90", score)
	}

	// Second strike locks.
	out, err = svc.SubmitClaim(ctx, claimIn)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if !out.Locked {
		t.Fatalf("second wrong answer: outcome = %+v, want locked", out)
	}
	score, _ = db.ReputationScore()
	if score != 80 {
		t.Errorf("reputation after second strike = %d, want 80", score)
	}
	if len(pub.byType(models.NotifFraudAlert)) != 1 {
		t.Error("fraud alert was not published to the outbox")
	}

	// Locked: even the correct answer is rejected without evaluation,
	// and reputation is not charged again.
	claimIn.QuizAnswer = "Smiley face"
	out, err = svc.SubmitClaim(ctx, claimIn)
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if !out.Locked || out.Accepted {
		t.Fatalf("locked item: outcome = %+v, want locked rejection", out)
	}
	if score, _ = db.ReputationScore(); score != 80 {
		t.Errorf("reputation after locked attempt = %d, want 80", score)
	}

	claims, err := db.ListClaimsByItem(item.ID)
	if err != nil {
		t.Fatalf("ListClaimsByItem: %v", err)
	}
	if len(claims) != 0 {
		t.Errorf("claims created = %d, want 0", len(claims))
	}
}

func TestSubmitClaim_CorrectAnswerCreatesPendingClaim(t *testing.T) {
	svc, db, _ := setupService(t)
	item := reportItem(t, svc, foundWithQuiz())

	out, err := svc.SubmitClaim(context.Background(), SubmitClaimInput{
		ItemID:          item.ID,
		ClaimantName:    "Riley Chen",
		ClaimantContact: "rchen@campus.edu",
		QuizAnswer:      "Smiley face",
	})
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if !out.Accepted || out.Claim == nil {
		t.Fatalf("outcome = %+v, want accepted with claim", out)
	}
	if !out.Claim.QuizPassed || out.Claim.Status != models.ClaimStatusPending {
		t.Errorf("claim = %+v, want quiz_passed PENDING", out.Claim)
	}

	// Submitting a claim does not transition the item.
	got, err := db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Status != models.ItemStatusOpen {
		t.Errorf("item status = %q, want OPEN", got.Status)
	}
}

func TestSubmitClaim_NoQuizManualReview(t *testing.T) {
	svc, _, _ := setupService(t)
	in := foundWithQuiz()
	in.QuizQuestion, in.QuizOptions, in.QuizCorrectAnswer = "", nil, ""
	item := reportItem(t, svc, in)

	out, err := svc.SubmitClaim(context.Background(), SubmitClaimInput{
		ItemID:       item.ID,
		ClaimantName: "Riley Chen",
		QuizAnswer:   "whatever",
	})
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if !out.Accepted || !out.ManualReview {
		t.Errorf("outcome = %+v, want accepted with manual-review advisory", out)
	}
}

func TestSubmitClaim_PerClaimantLockout(t *testing.T) {
	svc, _, _ := setupService(t)
	svc.lockout = config.LockoutConfig{PerClaimant: true, MaxAttempts: 2}
	item := reportItem(t, svc, foundWithQuiz())
	ctx := context.Background()

	wrong := func(contact string) *ClaimOutcome {
		out, err := svc.SubmitClaim(ctx, SubmitClaimInput{
			ItemID:          item.ID,
			ClaimantName:    "X",
			ClaimantContact: contact,
			QuizAnswer:      "None",
		})
		if err != nil {
			t.Fatalf("SubmitClaim: %v", err)
		}
		return out
	}

	wrong("a@campus.edu")
	if out := wrong("a@campus.edu"); !out.Locked {
		t.Fatal("claimant a not locked after two strikes")
	}

	// A different claimant still gets their own attempts.
	if out := wrong("b@campus.edu"); out.Locked {
		t.Error("claimant b locked by claimant a's strikes")
	}
}

// Scenario: approving a claim on a high-value item resolves it through
// security escrow, with no PIN issued.
func TestApproveClaim_EscrowBranch(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	in := foundWithQuiz()
	in.Title = "MacBook Pro 14"
	in.IsHighValue = true
	item := reportItem(t, svc, in)

	claimOut, err := svc.SubmitClaim(ctx, SubmitClaimInput{
		ItemID:          item.ID,
		ClaimantName:    "Riley Chen",
		ClaimantContact: "rchen@campus.edu",
		QuizAnswer:      "Smiley face",
	})
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	out, err := svc.ApproveClaim(ctx, claimOut.Claim.ID)
	if err != nil {
		t.Fatalf("ApproveClaim: %v", err)
	}
	if out == nil || !out.Escrow || out.ExchangePin != "" {
		t.Fatalf("outcome = %+v, want escrow with no PIN", out)
	}

	got, err := db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Status != models.ItemStatusResolved {
		t.Errorf("item status = %q, want RESOLVED", got.Status)
	}
	if got.ExchangePin != "" {
		t.Errorf("ExchangePin = %q, want empty", got.ExchangePin)
	}
	if got.ResolutionDetails == nil || got.ResolutionDetails.ExchangeMethod != models.ExchangeSecurityEscrow {
		t.Errorf("ResolutionDetails = %+v, want SECURITY_ESCROW", got.ResolutionDetails)
	}

	claim, err := db.GetClaim(claimOut.Claim.ID)
	if err != nil {
		t.Fatalf("GetClaim: %v", err)
	}
	if claim.Status != models.ClaimStatusApproved {
		t.Errorf("claim status = %q, want APPROVED", claim.Status)
	}
}

// Scenario: approving a claim on a regular item issues a 4-digit PIN and
// parks the item at PENDING_PICKUP; the handshake then resolves it.
func TestApproveClaim_HandshakeBranch(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	item := reportItem(t, svc, foundWithQuiz())

	claimOut, err := svc.SubmitClaim(ctx, SubmitClaimInput{
		ItemID:          item.ID,
		ClaimantName:    "Riley Chen",
		ClaimantContact: "rchen@campus.edu",
		QuizAnswer:      "Smiley face",
	})
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}

	out, err := svc.ApproveClaim(ctx, claimOut.Claim.ID)
	if err != nil {
		t.Fatalf("ApproveClaim: %v", err)
	}
	if out == nil || out.Escrow {
		t.Fatalf("outcome = %+v, want peer-to-peer", out)
	}
	pin, err := strconv.Atoi(out.ExchangePin)
	if err != nil || pin < 1000 || pin > 9999 {
		t.Fatalf("ExchangePin = %q, want 4-digit number in [1000,9999]", out.ExchangePin)
	}

	got, err := db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Status != models.ItemStatusPendingPickup {
		t.Fatalf("item status = %q, want PENDING_PICKUP", got.Status)
	}
	if got.ExchangePin != out.ExchangePin {
		t.Errorf("stored PIN %q != issued PIN %q", got.ExchangePin, out.ExchangePin)
	}

	// Out of zone: nothing changes, PIN survives.
	hs, err := svc.VerifyHandshake(ctx, item.ID, out.ExchangePin, false)
	if err != nil {
		t.Fatalf("VerifyHandshake (out of zone): %v", err)
	}
	if hs.Resolved {
		t.Error("handshake resolved outside the safe zone")
	}

	// Wrong PIN: retryable, PIN survives.
	hs, err = svc.VerifyHandshake(ctx, item.ID, "0000", true)
	if err != nil {
		t.Fatalf("VerifyHandshake (wrong pin): %v", err)
	}
	if hs.Resolved {
		t.Error("handshake resolved with wrong PIN")
	}
	got, _ = db.GetItem(item.ID)
	if got.Status != models.ItemStatusPendingPickup || got.ExchangePin == "" {
		t.Fatalf("item after failed attempts = (%q, pin %q), want PENDING_PICKUP with PIN intact", got.Status, got.ExchangePin)
	}

	// Correct PIN in zone: resolved, PIN cleared, reputation +25.
	before, _ := db.ReputationScore()
	hs, err = svc.VerifyHandshake(ctx, item.ID, out.ExchangePin, true)
	if err != nil {
		t.Fatalf("VerifyHandshake: %v", err)
	}
	if !hs.Resolved {
		t.Fatalf("outcome = %+v, want resolved", hs)
	}
	if hs.Reputation != before+25 {
		t.Errorf("reputation = %d, want %d", hs.Reputation, before+25)
	}

	got, err = db.GetItem(item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got.Status != models.ItemStatusResolved {
		t.Errorf("item status = %q, want RESOLVED", got.Status)
	}
	if got.ExchangePin != "" {
		t.Errorf("ExchangePin = %q, want cleared", got.ExchangePin)
	}
	if got.ResolutionDetails == nil || got.ResolutionDetails.ExchangeMethod != models.ExchangeP2PPin {
		t.Errorf("ResolutionDetails = %+v, want P2P_PIN", got.ResolutionDetails)
	}
	if got.ResolutionDetails != nil && got.ResolutionDetails.ResolvedBy != "Verified Claimant" {
		t.Errorf("ResolvedBy = %q, want Verified Claimant", got.ResolutionDetails.ResolvedBy)
	}
}

func TestVerifyHandshake_RequiresPendingPickup(t *testing.T) {
	svc, _, _ := setupService(t)
	item := reportItem(t, svc, foundWithQuiz())

	_, err := svc.VerifyHandshake(context.Background(), item.ID, "1234", true)
	if !errors.Is(err, ErrNotPendingPickup) {
		t.Errorf("err = %v, want ErrNotPendingPickup", err)
	}
}

func TestApproveClaim_MissingClaimOrItemIsNoOp(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	out, err := svc.ApproveClaim(ctx, "no-such-claim")
	if err != nil || out != nil {
		t.Errorf("ApproveClaim(missing claim) = (%+v, %v), want (nil, nil)", out, err)
	}

	// Claim pointing at a deleted item: also a no-op.
	orphan := &models.ClaimRequest{
		ID:           "claim-orphan",
		ItemID:       "gone",
		ClaimantName: "X",
		Status:       models.ClaimStatusPending,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.CreateClaim(orphan); err != nil {
		t.Fatalf("CreateClaim: %v", err)
	}
	out, err = svc.ApproveClaim(ctx, "claim-orphan")
	if err != nil || out != nil {
		t.Errorf("ApproveClaim(orphan claim) = (%+v, %v), want (nil, nil)", out, err)
	}
}

func TestResolveItem_RejectsDoubleResolve(t *testing.T) {
	svc, _, _ := setupService(t)
	ctx := context.Background()
	item := reportItem(t, svc, foundWithQuiz())

	details := models.ResolutionDetails{ResolvedBy: "Dana Fox", ContactInfo: "dfox@campus.edu"}
	if _, err := svc.ResolveItem(ctx, item.ID, details); err != nil {
		t.Fatalf("ResolveItem: %v", err)
	}
	if _, err := svc.ResolveItem(ctx, item.ID, details); !errors.Is(err, ErrAlreadyResolved) {
		t.Errorf("second resolve err = %v, want ErrAlreadyResolved", err)
	}
}

func TestSelfResolve_LinkedItemBestEffort(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	lost := reportItem(t, svc, CreateItemInput{
		Type:         models.ItemTypeLost,
		Title:        "Gray North Face Jacket",
		Category:     models.CategoryClothing,
		ContactName:  "Sam Ortiz",
		ContactEmail: "sortiz@campus.edu",
	})
	found := reportItem(t, svc, foundWithQuiz())

	details := models.ResolutionDetails{ResolvedBy: "Sam Ortiz", ContactInfo: "sortiz@campus.edu"}
	if _, err := svc.SelfResolve(ctx, lost.ID, details, found.ID); err != nil {
		t.Fatalf("SelfResolve: %v", err)
	}

	for _, id := range []string{lost.ID, found.ID} {
		got, err := db.GetItem(id)
		if err != nil {
			t.Fatalf("GetItem(%s): %v", id, err)
		}
		if got.Status != models.ItemStatusResolved {
			t.Errorf("item %s status = %q, want RESOLVED", id, got.Status)
		}
	}

	// A bad linked ID does not roll back the first resolve.
	second := reportItem(t, svc, CreateItemInput{
		Type:        models.ItemTypeLost,
		Title:       "Umbrella",
		ContactName: "Sam Ortiz",
	})
	if _, err := svc.SelfResolve(ctx, second.ID, details, "no-such-item"); err != nil {
		t.Fatalf("SelfResolve with bad link: %v", err)
	}
	got, _ := db.GetItem(second.ID)
	if got.Status != models.ItemStatusResolved {
		t.Errorf("item status = %q, want RESOLVED despite bad link", got.Status)
	}
}

func TestReputationFloor(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()

	// Burn reputation down with repeated two-strike lockouts across
	// many items; the score must never go below zero.
	for i := 0; i < 12; i++ {
		item := reportItem(t, svc, foundWithQuiz())
		for j := 0; j < 2; j++ {
			if _, err := svc.SubmitClaim(ctx, SubmitClaimInput{
				ItemID:       item.ID,
				ClaimantName: "X",
				QuizAnswer:   "None",
			}); err != nil {
				t.Fatalf("SubmitClaim: %v", err)
			}
		}
	}

	score, err := db.ReputationScore()
	if err != nil {
		t.Fatalf("ReputationScore: %v", err)
	}
	if score != 0 {
		t.Errorf("score = %d, want 0 floor", score)
	}
}

func TestSweepStalePickups(t *testing.T) {
	svc, db, _ := setupService(t)
	ctx := context.Background()
	item := reportItem(t, svc, foundWithQuiz())

	claimOut, err := svc.SubmitClaim(ctx, SubmitClaimInput{
		ItemID: item.ID, ClaimantName: "Riley Chen", QuizAnswer: "Smiley face",
	})
	if err != nil {
		t.Fatalf("SubmitClaim: %v", err)
	}
	if _, err := svc.ApproveClaim(ctx, claimOut.Claim.ID); err != nil {
		t.Fatalf("ApproveClaim: %v", err)
	}

	// Pretend time passed since the approval.
	svc.now = func() time.Time { return time.Now().UTC().Add(2 * time.Hour) }

	flagged, err := svc.SweepStalePickups(ctx, time.Hour)
	if err != nil {
		t.Fatalf("SweepStalePickups: %v", err)
	}
	if flagged != 1 {
		t.Fatalf("flagged = %d, want 1", flagged)
	}

	var sawTimer bool
	notifs, _ := db.ListNotifications()
	for _, n := range notifs {
		if n.Type == models.NotifSafetyTimer {
			sawTimer = true
		}
	}
	if !sawTimer {
		t.Error("no SAFETY_TIMER notification after sweep")
	}

	// The sweep restarts the timer; an immediate second sweep is quiet.
	svc.now = func() time.Time { return time.Now().UTC() }
	flagged, err = svc.SweepStalePickups(ctx, time.Hour)
	if err != nil {
		t.Fatalf("SweepStalePickups (second): %v", err)
	}
	if flagged != 0 {
		t.Errorf("second sweep flagged = %d, want 0", flagged)
	}
}
