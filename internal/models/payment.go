package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MilestoneType string

const (
	MilestoneUpfront    MilestoneType = "upfront_50"
	MilestoneCompletion MilestoneType = "completion_50"
)

// Milestones lists the tranches in payment order
var Milestones = []MilestoneType{MilestoneUpfront, MilestoneCompletion}

func (m MilestoneType) Valid() bool {
	return m == MilestoneUpfront || m == MilestoneCompletion
}

// Payment intent statuses mirror the processor vocabulary. PaymentStatusPending
// marks a checkout session that has been created but not yet paid.
type PaymentStatus string

const (
	PaymentStatusPending               PaymentStatus = "pending"
	PaymentStatusRequiresPaymentMethod PaymentStatus = "requires_payment_method"
	PaymentStatusProcessing            PaymentStatus = "processing"
	PaymentStatusSucceeded             PaymentStatus = "succeeded"
	PaymentStatusCanceled              PaymentStatus = "canceled"
)

// Terminal reports whether the processor will not move the intent any further
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusSucceeded || s == PaymentStatusCanceled
}

// JSONB for PostgreSQL JSON support
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	var raw []byte
	switch v := value.(type) {
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source %T", value)
	}
	return json.Unmarshal(raw, j)
}

// PaymentIntent tracks one milestone charge of a project. Status changes come
// from the processor; this service only creates the row and mirrors state.
type PaymentIntent struct {
	ID                    uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID             uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_payment_intents_project_milestone" json:"project_id"`
	ClientID              uuid.UUID     `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID          uuid.UUID     `gorm:"type:uuid;not null;index" json:"freelancer_id"`
	StripePaymentIntentID *string       `gorm:"size:255;index" json:"stripe_payment_intent_id"`
	CheckoutSessionID     string        `gorm:"size:255;index" json:"checkout_session_id"`
	CheckoutURL           string        `gorm:"type:text" json:"checkout_url,omitempty"`
	IdempotencyKey        string        `gorm:"size:255" json:"-"`
	Attempt               int           `gorm:"not null;default:0" json:"attempt"`
	Amount                int64         `gorm:"not null" json:"amount"`
	Currency              string        `gorm:"size:3;not null;default:usd" json:"currency"`
	Status                PaymentStatus `gorm:"size:40;not null;default:pending;index" json:"status"`
	MilestoneType         MilestoneType `gorm:"size:20;not null;uniqueIndex:idx_payment_intents_project_milestone" json:"milestone_type"`
	PlatformFee           int64         `gorm:"not null;default:0" json:"platform_fee"`
	ApplicationFee        int64         `gorm:"not null;default:0" json:"application_fee"`
	Metadata              JSONB         `gorm:"type:jsonb" json:"metadata"`
	CreatedAt             time.Time     `json:"created_at"`
	UpdatedAt             time.Time     `json:"updated_at"`
}

func (PaymentIntent) TableName() string {
	return "payment_intents"
}

func (p *PaymentIntent) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// StripeAccount holds a freelancer's payout account readiness flags
type StripeAccount struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProfileID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"profile_id"`
	StripeAccountID  string    `gorm:"size:255;not null;uniqueIndex" json:"stripe_account_id"`
	ChargesEnabled   bool      `gorm:"not null;default:false" json:"charges_enabled"`
	PayoutsEnabled   bool      `gorm:"not null;default:false" json:"payouts_enabled"`
	DetailsSubmitted bool      `gorm:"not null;default:false" json:"details_submitted"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (StripeAccount) TableName() string {
	return "stripe_accounts"
}

func (a *StripeAccount) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Ready requires all three onboarding flags; partial onboarding blocks checkout
func (a *StripeAccount) Ready() bool {
	return a != nil && a.ChargesEnabled && a.PayoutsEnabled && a.DetailsSubmitted
}

// MilestonePlan is the integer-cent split of an accepted bid
type MilestonePlan struct {
	TotalCents      int64 `json:"total_cents"`
	UpfrontCents    int64 `json:"upfront_cents"`
	CompletionCents int64 `json:"completion_cents"`
}

// AmountFor returns the planned amount of a milestone
func (p MilestonePlan) AmountFor(m MilestoneType) int64 {
	switch m {
	case MilestoneUpfront:
		return p.UpfrontCents
	case MilestoneCompletion:
		return p.CompletionCents
	}
	return 0
}

// MilestoneProgress is the state of one tranche
type MilestoneProgress struct {
	Type        MilestoneType  `json:"type"`
	AmountCents int64          `json:"amount_cents"`
	Paid        bool           `json:"paid"`
	Intent      *PaymentIntent `json:"intent,omitempty"`
}

// MilestoneState is the payment page view of a project
type MilestoneState struct {
	ProjectID        uuid.UUID           `json:"project_id"`
	AcceptedProposal *Proposal           `json:"accepted_proposal"`
	Plan             MilestonePlan       `json:"plan"`
	Milestones       []MilestoneProgress `json:"milestones"`
	NextMilestone    *MilestoneType      `json:"next_milestone"`
	AmountDueCents   int64               `json:"amount_due_cents"`
	PaymentComplete  bool                `json:"payment_complete"`
}

type StartCheckoutRequest struct {
	MilestoneType MilestoneType `json:"milestone_type" binding:"required"`
	Amount        int64         `json:"amount" binding:"required"`
	Currency      string        `json:"currency"`
	SuccessURL    string        `json:"success_url"`
	CancelURL     string        `json:"cancel_url"`
}

type CheckoutResponse struct {
	CheckoutURL     string    `json:"checkout_url"`
	PaymentIntentID uuid.UUID `json:"payment_intent_id"`
}

type RegisterPayoutAccountRequest struct {
	StripeAccountID string `json:"stripe_account_id" binding:"required"`
}
