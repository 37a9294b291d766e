package repository

import (
	"context"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
)

// CreateProposal creates a new proposal
func (r *Repository) CreateProposal(ctx context.Context, proposal *models.Proposal) error {
	return r.db.WithContext(ctx).Create(proposal).Error
}

// GetProposalByID retrieves a proposal by ID
func (r *Repository) GetProposalByID(ctx context.Context, id uuid.UUID) (*models.Proposal, error) {
	var proposal models.Proposal
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&proposal).Error
	if err != nil {
		return nil, err
	}
	return &proposal, nil
}

// GetProposalsByProject retrieves all proposals of a project, newest first
func (r *Repository) GetProposalsByProject(ctx context.Context, projectID uuid.UUID) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// GetProposalsByFreelancer retrieves a freelancer's proposals with their project, newest first
func (r *Repository) GetProposalsByFreelancer(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	var proposals []*models.Proposal
	err := r.db.WithContext(ctx).
		Where("freelancer_id = ?", freelancerID).
		Preload("Project").
		Order("created_at DESC").
		Find(&proposals).Error
	if err != nil {
		return nil, err
	}
	return proposals, nil
}

// ProposalExists reports whether a freelancer already bid on a project
func (r *Repository) ProposalExists(ctx context.Context, projectID, freelancerID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("project_id = ? AND freelancer_id = ?", projectID, freelancerID).
		Count(&count).Error
	return count > 0, err
}

// RejectOtherProposals rejects every proposal of a project except keepID
func (r *Repository) RejectOtherProposals(ctx context.Context, projectID, keepID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("project_id = ? AND id <> ?", projectID, keepID).
		Update("status", models.ProposalStatusRejected)
	return result.RowsAffected, result.Error
}

// AcceptPendingProposal marks a pending proposal accepted. Zero rows means the
// proposal was not pending anymore.
func (r *Repository) AcceptPendingProposal(ctx context.Context, proposalID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Where("id = ? AND status = ?", proposalID, models.ProposalStatusPending).
		Update("status", models.ProposalStatusAccepted)
	return result.RowsAffected, result.Error
}
