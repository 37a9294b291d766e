package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freelance-hub/internal/models"
	"freelance-hub/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// IdentityService maps identity-provider users onto marketplace profiles
type IdentityService struct {
	repo *repository.Repository
	log  *zap.Logger
}

// NewIdentityService creates a new IdentityService
func NewIdentityService(repo *repository.Repository, log *zap.Logger) *IdentityService {
	return &IdentityService{repo: repo, log: log}
}

// EnsureProfile finds or creates the profile of an external identity. Two
// first requests racing on the same identity converge on one row.
func (s *IdentityService) EnsureProfile(
	ctx context.Context,
	externalID string,
	seed *models.ProfileSeed,
) (*models.Profile, error) {
	if strings.TrimSpace(externalID) == "" {
		return nil, fmt.Errorf("external id is empty: %w", ErrValidation)
	}

	profile, err := s.repo.GetProfileByExternalID(ctx, externalID)
	if err == nil {
		return profile, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile = &models.Profile{ExternalID: externalID}
	if seed != nil {
		if seed.Role != nil && !seed.Role.Valid() {
			return nil, fmt.Errorf("unknown role %q: %w", *seed.Role, ErrValidation)
		}
		profile.FullName = trimmedOrNil(seed.FullName)
		profile.Role = seed.Role
		if profile.HasRole(models.RoleClient) {
			profile.CompanyName = trimmedOrNil(seed.CompanyName)
		}
	}

	if err := s.repo.CreateProfile(ctx, profile); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return s.repo.GetProfileByExternalID(ctx, externalID)
		}
		return nil, fmt.Errorf("failed to create profile: %w", err)
	}

	s.log.Info("profile created", zap.String("external_id", externalID), zap.String("profile_id", profile.ID.String()))
	return profile, nil
}

// GetProfile retrieves a profile by ID
func (s *IdentityService) GetProfile(ctx context.Context, profileID uuid.UUID) (*models.Profile, error) {
	profile, err := s.repo.GetProfileByID(ctx, profileID)
	if err != nil {
		return nil, notFound(err, "profile")
	}
	return profile, nil
}

// CompleteOnboarding sets the role of a profile. The role can be chosen once;
// repeating the same choice is accepted so the call is safe to retry.
func (s *IdentityService) CompleteOnboarding(
	ctx context.Context,
	profileID uuid.UUID,
	req *models.OnboardingRequest,
) (*models.Profile, error) {
	if !req.Role.Valid() {
		return nil, fmt.Errorf("unknown role %q: %w", req.Role, ErrValidation)
	}

	profile, err := s.GetProfile(ctx, profileID)
	if err != nil {
		return nil, err
	}

	if profile.Role != nil && *profile.Role != req.Role {
		return nil, fmt.Errorf("role already set to %s: %w", *profile.Role, ErrInvalidState)
	}

	role := req.Role
	profile.Role = &role
	if name := trimmedOrNil(req.FullName); name != nil {
		profile.FullName = name
	}
	if role == models.RoleClient {
		if company := trimmedOrNil(req.CompanyName); company != nil {
			profile.CompanyName = company
		}
	} else {
		profile.CompanyName = nil
	}

	if err := s.repo.UpdateProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}

	s.log.Info("onboarding completed", zap.String("profile_id", profile.ID.String()), zap.String("role", string(role)))
	return profile, nil
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
