package repository

import (
	"context"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
)

// GetProfileByExternalID retrieves a profile by identity provider id
func (r *Repository) GetProfileByExternalID(ctx context.Context, externalID string) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("external_id = ?", externalID).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfileByID retrieves a profile by ID
func (r *Repository) GetProfileByID(ctx context.Context, id uuid.UUID) (*models.Profile, error) {
	var profile models.Profile
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// CreateProfile creates a new profile
func (r *Repository) CreateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

// UpdateProfile saves profile fields
func (r *Repository) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	return r.db.WithContext(ctx).Save(profile).Error
}
