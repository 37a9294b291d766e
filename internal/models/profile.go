package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Role string

const (
	RoleClient     Role = "client"
	RoleFreelancer Role = "freelancer"
)

// Valid reports whether r is one of the known marketplace roles
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleFreelancer
}

// Profile is the marketplace record behind an identity-provider user
type Profile struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ExternalID  string    `gorm:"size:255;uniqueIndex;not null" json:"external_id"`
	FullName    *string   `gorm:"size:255" json:"full_name"`
	CompanyName *string   `gorm:"size:255" json:"company_name"`
	Role        *Role     `gorm:"size:20;index" json:"role"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Profile) TableName() string {
	return "profiles"
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// HasRole reports whether the profile finished onboarding with the given role
func (p *Profile) HasRole(role Role) bool {
	return p.Role != nil && *p.Role == role
}

// ProfileSeed carries the optional fields used when a profile is created lazily
type ProfileSeed struct {
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
	Role        *Role   `json:"role"`
}

// OnboardingRequest completes a profile created without a role
type OnboardingRequest struct {
	Role        Role    `json:"role" binding:"required"`
	FullName    *string `json:"full_name"`
	CompanyName *string `json:"company_name"`
}
