package repository

import (
	"context"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
)

// CreateProject creates a new project
func (r *Repository) CreateProject(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Create(project).Error
}

// GetProjectByID retrieves a project by ID
func (r *Repository) GetProjectByID(ctx context.Context, id uuid.UUID) (*models.Project, error) {
	var project models.Project
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// GetProjectsByClient retrieves a client's projects, newest first
func (r *Repository) GetProjectsByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Where("client_id = ?", clientID).
		Order("created_at DESC").
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProjectsByStatus retrieves projects in a status with their client, newest first
func (r *Repository) GetProjectsByStatus(ctx context.Context, status models.ProjectStatus, limit, offset int) ([]*models.Project, error) {
	var projects []*models.Project
	err := r.db.WithContext(ctx).
		Preload("Client").
		Where("status = ?", status).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&projects).Error
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// TransitionProjectStatus moves a project to status only if it is currently
// in one of from. It returns the number of rows changed, so callers can
// detect a lost race or a stale read.
func (r *Repository) TransitionProjectStatus(
	ctx context.Context,
	projectID uuid.UUID,
	from []models.ProjectStatus,
	to models.ProjectStatus,
) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Project{}).
		Where("id = ? AND status IN ?", projectID, from).
		Update("status", to)
	return result.RowsAffected, result.Error
}

type proposalCount struct {
	ProjectID uuid.UUID
	Count     int64
}

// CountProposalsByProject returns proposal counts keyed by project in one query
func (r *Repository) CountProposalsByProject(ctx context.Context, projectIDs []uuid.UUID) (map[uuid.UUID]int64, error) {
	counts := make(map[uuid.UUID]int64, len(projectIDs))
	if len(projectIDs) == 0 {
		return counts, nil
	}

	var rows []proposalCount
	err := r.db.WithContext(ctx).
		Model(&models.Proposal{}).
		Select("project_id, COUNT(*) AS count").
		Where("project_id IN ?", projectIDs).
		Group("project_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.ProjectID] = row.Count
	}
	return counts, nil
}
