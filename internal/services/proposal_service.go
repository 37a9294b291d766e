package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/metrics"
	"freelance-hub/internal/models"
	"freelance-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ProposalService struct {
	repo     *repository.Repository
	currency string
	log      *zap.Logger
}

func NewProposalService(repo *repository.Repository, currency string, log *zap.Logger) *ProposalService {
	return &ProposalService{repo: repo, currency: currency, log: log}
}

// CreateProposal submits the acting freelancer's bid on an open project
func (s *ProposalService) CreateProposal(
	ctx context.Context,
	actor *auth.Actor,
	projectID uuid.UUID,
	req *models.CreateProposalRequest,
) (*models.Proposal, error) {
	if !actor.Is(models.RoleFreelancer) {
		return nil, fmt.Errorf("only freelancers can submit proposals: %w", ErrForbidden)
	}

	coverLetter := strings.TrimSpace(req.CoverLetter)
	if coverLetter == "" {
		return nil, fmt.Errorf("cover letter is required: %w", ErrValidation)
	}
	if err := validateMoney(req.BidAmount, "bid amount"); err != nil {
		return nil, err
	}

	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, fmt.Errorf("project is %s: %w", project.Status, ErrInvalidState)
	}
	if project.ClientID == actor.ProfileID {
		return nil, fmt.Errorf("cannot bid on your own project: %w", ErrForbidden)
	}
	if req.BidAmount.GreaterThan(project.Budget) {
		return nil, fmt.Errorf("bid %s exceeds budget %s: %w",
			req.BidAmount.StringFixed(2), project.Budget.StringFixed(2), ErrValidation)
	}

	proposal := &models.Proposal{
		ProjectID:    projectID,
		FreelancerID: actor.ProfileID,
		CoverLetter:  coverLetter,
		BidAmount:    req.BidAmount,
		Status:       models.ProposalStatusPending,
	}
	if err := s.repo.CreateProposal(ctx, proposal); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("proposal already submitted: %w", ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	s.log.Info("proposal submitted",
		zap.String("proposal_id", proposal.ID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("freelancer_id", actor.ProfileID.String()),
	)
	return proposal, nil
}

// GetProposalsForProject lists a project's proposals. The owner sees every
// bid; anyone else only sees their own.
func (s *ProposalService) GetProposalsForProject(
	ctx context.Context,
	actor *auth.Actor,
	projectID uuid.UUID,
) ([]*models.Proposal, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}

	proposals, err := s.repo.GetProposalsByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}

	if project.ClientID != actor.ProfileID {
		proposals = lo.Filter(proposals, func(p *models.Proposal, _ int) bool {
			return p.FreelancerID == actor.ProfileID
		})
	}
	if proposals == nil {
		proposals = []*models.Proposal{}
	}
	return proposals, nil
}

// GetFreelancerProposals lists a freelancer's proposals with their projects
func (s *ProposalService) GetFreelancerProposals(ctx context.Context, freelancerID uuid.UUID) ([]*models.Proposal, error) {
	proposals, err := s.repo.GetProposalsByFreelancer(ctx, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	if proposals == nil {
		proposals = []*models.Proposal{}
	}
	return proposals, nil
}

// CheckExistingProposal reports whether the freelancer already bid on the project
func (s *ProposalService) CheckExistingProposal(ctx context.Context, freelancerID, projectID uuid.UUID) (bool, error) {
	exists, err := s.repo.ProposalExists(ctx, projectID, freelancerID)
	if err != nil {
		return false, fmt.Errorf("failed to check proposal: %w", err)
	}
	return exists, nil
}

// AcceptProposal hires the freelancer behind a proposal. The project moves to
// in_progress, every other proposal is rejected and the milestone split is
// frozen into a contract, all in one transaction. A project that already left
// open cannot be accepted again.
func (s *ProposalService) AcceptProposal(
	ctx context.Context,
	actor *auth.Actor,
	proposalID uuid.UUID,
	projectID uuid.UUID,
) (*models.AcceptProposalResult, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if project.ClientID != actor.ProfileID {
		return nil, fmt.Errorf("project belongs to another client: %w", ErrForbidden)
	}

	proposal, err := s.repo.GetProposalByID(ctx, proposalID)
	if err != nil {
		return nil, notFound(err, "proposal")
	}
	if proposal.ProjectID != projectID {
		return nil, fmt.Errorf("proposal does not belong to project: %w", ErrNotFound)
	}
	if project.Status != models.ProjectStatusOpen {
		return nil, fmt.Errorf("project is %s: %w", project.Status, ErrInvalidState)
	}
	if proposal.Status != models.ProposalStatusPending {
		return nil, fmt.Errorf("proposal is %s: %w", proposal.Status, ErrInvalidState)
	}

	plan := SplitMilestones(proposal.BidAmount)
	contract := &models.Contract{
		ProjectID:       projectID,
		ProposalID:      proposalID,
		ClientID:        project.ClientID,
		FreelancerID:    proposal.FreelancerID,
		TotalCents:      plan.TotalCents,
		UpfrontCents:    plan.UpfrontCents,
		CompletionCents: plan.CompletionCents,
		Currency:        s.currency,
	}

	var rejected int64
	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		changed, err := tx.TransitionProjectStatus(ctx, projectID,
			[]models.ProjectStatus{models.ProjectStatusOpen}, models.ProjectStatusInProgress)
		if err != nil {
			return fmt.Errorf("failed to update project: %w", err)
		}
		if changed == 0 {
			return fmt.Errorf("project is no longer open: %w", ErrInvalidState)
		}

		rejected, err = tx.RejectOtherProposals(ctx, projectID, proposalID)
		if err != nil {
			return fmt.Errorf("failed to reject other proposals: %w", err)
		}

		changed, err = tx.AcceptPendingProposal(ctx, proposalID)
		if err != nil {
			return fmt.Errorf("failed to accept proposal: %w", err)
		}
		if changed == 0 {
			return fmt.Errorf("proposal is no longer pending: %w", ErrInvalidState)
		}

		if err := tx.CreateContract(ctx, contract); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("project already has a contract: %w", ErrInvalidState)
			}
			return fmt.Errorf("failed to create contract: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	proposal.Status = models.ProposalStatusAccepted
	metrics.IncrementProposalsAccepted()
	s.log.Info("proposal accepted",
		zap.String("proposal_id", proposalID.String()),
		zap.String("project_id", projectID.String()),
		zap.String("freelancer_id", proposal.FreelancerID.String()),
		zap.Int64("rejected", rejected),
		zap.Int64("upfront_cents", plan.UpfrontCents),
		zap.Int64("completion_cents", plan.CompletionCents),
	)

	return &models.AcceptProposalResult{Proposal: proposal, Contract: contract}, nil
}
