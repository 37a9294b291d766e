package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProposalStatus string

const (
	ProposalStatusPending  ProposalStatus = "pending"
	ProposalStatusAccepted ProposalStatus = "accepted"
	ProposalStatusRejected ProposalStatus = "rejected"
)

// Proposal is a freelancer's bid against an open project
type Proposal struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProjectID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_proposals_project_freelancer" json:"project_id"`
	Project      *Project        `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
	FreelancerID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_proposals_project_freelancer;index" json:"freelancer_id"`
	CoverLetter  string          `gorm:"type:text;not null" json:"cover_letter"`
	BidAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"bid_amount"`
	Status       ProposalStatus  `gorm:"size:20;not null;default:pending;index" json:"status"`
	CreatedAt    time.Time       `gorm:"index" json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (Proposal) TableName() string {
	return "proposals"
}

func (p *Proposal) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type CreateProposalRequest struct {
	CoverLetter string          `json:"cover_letter" binding:"required"`
	BidAmount   decimal.Decimal `json:"bid_amount"`
}

// AcceptProposalResult is returned by the acceptance workflow
type AcceptProposalResult struct {
	Proposal *Proposal `json:"proposal"`
	Contract *Contract `json:"contract"`
}
