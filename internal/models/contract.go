package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Contract freezes the milestone amounts at the moment a proposal is accepted.
// Rows are written once and never updated.
type Contract struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"project_id"`
	ProposalID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"proposal_id"`
	ClientID        uuid.UUID `gorm:"type:uuid;not null;index" json:"client_id"`
	FreelancerID    uuid.UUID `gorm:"type:uuid;not null;index" json:"freelancer_id"`
	TotalCents      int64     `gorm:"not null" json:"total_cents"`
	UpfrontCents    int64     `gorm:"not null" json:"upfront_cents"`
	CompletionCents int64     `gorm:"not null" json:"completion_cents"`
	Currency        string    `gorm:"size:3;not null;default:usd" json:"currency"`
	CreatedAt       time.Time `json:"created_at"`
}

func (Contract) TableName() string {
	return "contracts"
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// Plan returns the frozen split
func (c *Contract) Plan() MilestonePlan {
	return MilestonePlan{
		TotalCents:      c.TotalCents,
		UpfrontCents:    c.UpfrontCents,
		CompletionCents: c.CompletionCents,
	}
}
