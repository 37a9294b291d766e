package services

import (
	"context"
	"fmt"
	"strings"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/models"
	"freelance-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	maxTitleLength     = 255
	defaultProjectPage = 50
	maxProjectPage     = 100
)

// allowedProjectTransitions lists the manual status changes an owner may make.
// open -> in_progress only happens through proposal acceptance.
var allowedProjectTransitions = map[models.ProjectStatus][]models.ProjectStatus{
	models.ProjectStatusCompleted: {models.ProjectStatusInProgress},
	models.ProjectStatusCancelled: {models.ProjectStatusOpen, models.ProjectStatusInProgress},
}

type ProjectService struct {
	repo *repository.Repository
	log  *zap.Logger
}

func NewProjectService(repo *repository.Repository, log *zap.Logger) *ProjectService {
	return &ProjectService{repo: repo, log: log}
}

// CreateProject posts a new open project owned by the acting client
func (s *ProjectService) CreateProject(
	ctx context.Context,
	actor *auth.Actor,
	req *models.CreateProjectRequest,
) (*models.Project, error) {
	if !actor.Is(models.RoleClient) {
		return nil, fmt.Errorf("only clients can post projects: %w", ErrForbidden)
	}

	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" || description == "" {
		return nil, fmt.Errorf("title and description are required: %w", ErrValidation)
	}
	if len(title) > maxTitleLength {
		return nil, fmt.Errorf("title longer than %d characters: %w", maxTitleLength, ErrValidation)
	}
	if err := validateMoney(req.Budget, "budget"); err != nil {
		return nil, err
	}

	project := &models.Project{
		ClientID:    actor.ProfileID,
		Title:       title,
		Description: description,
		Budget:      req.Budget,
		Status:      models.ProjectStatusOpen,
	}
	if err := s.repo.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.log.Info("project created",
		zap.String("project_id", project.ID.String()),
		zap.String("client_id", actor.ProfileID.String()),
		zap.String("budget", project.Budget.StringFixed(2)),
	)
	return project, nil
}

// GetClientProjects lists a client's projects with the number of proposals each received
func (s *ProjectService) GetClientProjects(ctx context.Context, clientID uuid.UUID) ([]*models.ProjectWithProposalCount, error) {
	projects, err := s.repo.GetProjectsByClient(ctx, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}

	ids := make([]uuid.UUID, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
	}
	counts, err := s.repo.CountProposalsByProject(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count proposals: %w", err)
	}

	result := make([]*models.ProjectWithProposalCount, len(projects))
	for i, p := range projects {
		result[i] = &models.ProjectWithProposalCount{Project: *p, ProposalCount: counts[p.ID]}
	}
	return result, nil
}

// GetOpenProjects lists projects still accepting proposals
func (s *ProjectService) GetOpenProjects(ctx context.Context, limit, offset int) ([]*models.Project, error) {
	if limit <= 0 {
		limit = defaultProjectPage
	}
	if limit > maxProjectPage {
		limit = maxProjectPage
	}
	if offset < 0 {
		offset = 0
	}

	projects, err := s.repo.GetProjectsByStatus(ctx, models.ProjectStatusOpen, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to get open projects: %w", err)
	}
	return projects, nil
}

// GetProject retrieves a project by ID
func (s *ProjectService) GetProject(ctx context.Context, projectID uuid.UUID) (*models.Project, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	return project, nil
}

// UpdateProjectStatus lets the owner complete or cancel a project
func (s *ProjectService) UpdateProjectStatus(
	ctx context.Context,
	actor *auth.Actor,
	projectID uuid.UUID,
	status models.ProjectStatus,
) (*models.Project, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.ClientID != actor.ProfileID {
		return nil, fmt.Errorf("project belongs to another client: %w", ErrForbidden)
	}

	from, ok := allowedProjectTransitions[status]
	if !ok {
		return nil, fmt.Errorf("cannot set status %q manually: %w", status, ErrValidation)
	}

	changed, err := s.repo.TransitionProjectStatus(ctx, projectID, from, status)
	if err != nil {
		return nil, fmt.Errorf("failed to update project status: %w", err)
	}
	if changed == 0 {
		return nil, fmt.Errorf("project is %s: %w", project.Status, ErrInvalidState)
	}

	s.log.Info("project status changed",
		zap.String("project_id", projectID.String()),
		zap.String("from", string(project.Status)),
		zap.String("to", string(status)),
	)
	project.Status = status
	return project, nil
}

// validateMoney requires a positive amount with at most two decimal places
func validateMoney(amount decimal.Decimal, field string) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%s must be positive: %w", field, ErrValidation)
	}
	if !amount.Equal(amount.Truncate(2)) {
		return fmt.Errorf("%s has more than two decimal places: %w", field, ErrValidation)
	}
	if amount.GreaterThanOrEqual(maxMoney) {
		return fmt.Errorf("%s is too large: %w", field, ErrValidation)
	}
	return nil
}

// decimal(12,2) upper bound
var maxMoney = decimal.New(1, 10)
