package models

import "time"

// ItemType distinguishes lost reports from found reports.
type ItemType string

const (
	ItemTypeLost  ItemType = "LOST"
	ItemTypeFound ItemType = "FOUND"
)

// ItemStatus represents the lifecycle state of a report.
type ItemStatus string

const (
	ItemStatusOpen          ItemStatus = "OPEN"
	ItemStatusPendingPickup ItemStatus = "PENDING_PICKUP"
	ItemStatusResolved      ItemStatus = "RESOLVED"
)

// ItemCategory is the coarse classification used by filters and the AI analyzer.
type ItemCategory string

const (
	CategoryElectronics ItemCategory = "Electronics"
	CategoryClothing    ItemCategory = "Clothing"
	CategoryAccessories ItemCategory = "Accessories"
	CategoryBooks       ItemCategory = "Books"
	CategoryKeys        ItemCategory = "Keys"
	CategoryIDCards     ItemCategory = "ID Cards"
	CategoryOther       ItemCategory = "Other"
)

// Categories lists all item categories in display order.
func Categories() []ItemCategory {
	return []ItemCategory{
		CategoryElectronics, CategoryClothing, CategoryAccessories,
		CategoryBooks, CategoryKeys, CategoryIDCards, CategoryOther,
	}
}

// ExchangeMethod records how a resolved item changed hands.
type ExchangeMethod string

const (
	ExchangeSecurityEscrow ExchangeMethod = "SECURITY_ESCROW"
	ExchangeP2PPin         ExchangeMethod = "P2P_PIN"
)

// Item is a lost or found report.
type Item struct {
	ID           string       `json:"id"`
	Type         ItemType     `json:"type"`
	Title        string       `json:"title"`
	Description  string       `json:"description"`
	Category     ItemCategory `json:"category"`
	Condition    string       `json:"condition"`
	Location     string       `json:"location"`
	Date         string       `json:"date"`
	TimeLost     string       `json:"time_lost,omitempty"`
	ContactName  string       `json:"contact_name"`
	ContactEmail string       `json:"contact_email"`
	Status       ItemStatus   `json:"status"`

	AITags          []string `json:"ai_tags"`
	ImageURL        string   `json:"image_url,omitempty"`
	OCRDetectedText string   `json:"ocr_detected_text,omitempty"`

	IsUrgent     bool   `json:"is_urgent,omitempty"`
	IsHighValue  bool   `json:"is_high_value,omitempty"`
	IsMovedToHub bool   `json:"is_moved_to_hub,omitempty"`
	DropOffHubID string `json:"drop_off_hub_id,omitempty"`

	// Ownership challenge configured by the finder. QuizOptions must
	// contain QuizCorrectAnswer exactly once when a quiz is set.
	QuizQuestion      string   `json:"quiz_question,omitempty"`
	QuizOptions       []string `json:"quiz_options,omitempty"`
	QuizCorrectAnswer string   `json:"quiz_correct_answer,omitempty"`

	// ExchangePin is set if and only if Status is PENDING_PICKUP.
	ExchangePin string `json:"exchange_pin,omitempty"`

	ResolutionDetails *ResolutionDetails `json:"resolution_details,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HasQuiz reports whether a verification quiz is configured.
func (i *Item) HasQuiz() bool {
	return i.QuizQuestion != "" && len(i.QuizOptions) > 0
}

// ResolutionDetails is attached to an item exactly once, when it resolves.
type ResolutionDetails struct {
	ResolvedBy     string         `json:"resolved_by"`
	ContactInfo    string         `json:"contact_info"`
	Notes          string         `json:"notes,omitempty"`
	ResolutionDate time.Time      `json:"resolution_date"`
	ExchangeMethod ExchangeMethod `json:"exchange_method"`
}

// ClaimStatus represents the lifecycle state of a claim request.
type ClaimStatus string

const (
	ClaimStatusPending  ClaimStatus = "PENDING"
	ClaimStatusApproved ClaimStatus = "APPROVED"
	ClaimStatusRejected ClaimStatus = "REJECTED"
)

// ClaimRequest is a claimant's request to receive a found item. A claim is
// created PENDING and transitions terminally to APPROVED or REJECTED.
type ClaimRequest struct {
	ID              string      `json:"id"`
	ItemID          string      `json:"item_id"`
	ItemTitle       string      `json:"item_title"`
	ClaimantName    string      `json:"claimant_name"`
	ClaimantContact string      `json:"claimant_contact"`
	ClaimantImage   string      `json:"claimant_image,omitempty"`
	QuizPassed      bool        `json:"quiz_passed"`
	Status          ClaimStatus `json:"status"`
	CreatedAt       time.Time   `json:"created_at"`
}

// NotificationType tags the kind of user-facing alert.
type NotificationType string

const (
	NotifClaimUpdate  NotificationType = "CLAIM_UPDATE"
	NotifFraudAlert   NotificationType = "FRAUD_ALERT"
	NotifUrgencyAlert NotificationType = "URGENCY_ALERT"
	NotifSafetyTimer  NotificationType = "SAFETY_TIMER"
)

// Notification is one entry in the append-only alert log. The only mutation
// a notification undergoes is flipping Read from false to true.
type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Read      bool             `json:"read"`
	CreatedAt time.Time        `json:"created_at"`
}

// MatchResult is one candidate match proposed by the match-finding service.
// Confidence is 0-100; 100 means an exact OCR identity match.
type MatchResult struct {
	ItemID     string  `json:"item_id"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// ItemAnalysis is the structured output of the image-analysis service.
type ItemAnalysis struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Color       string   `json:"color"`
	Condition   string   `json:"condition"`
	OCRText     string   `json:"ocrText"`
}

// DetectedObject is one object reported by the surveillance analyzer.
// Confidence is 0-1.
type DetectedObject struct {
	Object      string  `json:"object"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
}

// User represents a registered user.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	LastLoginAt  time.Time `json:"last_login_at"`
}

// Session represents an active user session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}
