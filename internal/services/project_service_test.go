package services

import (
	"context"
	"errors"
	"testing"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProjectValidation(t *testing.T) {
	m := newMarketplace(t)
	ctx := context.Background()
	freelancer := createProfile(t, m.repo, models.RoleFreelancer)

	cases := []struct {
		name  string
		actor bool
		req   models.CreateProjectRequest
		want  error
	}{
		{"freelancer cannot post", false, models.CreateProjectRequest{Title: "t", Description: "d", Budget: decimal.NewFromInt(10)}, ErrForbidden},
		{"blank title", true, models.CreateProjectRequest{Title: "  ", Description: "d", Budget: decimal.NewFromInt(10)}, ErrValidation},
		{"zero budget", true, models.CreateProjectRequest{Title: "t", Description: "d"}, ErrValidation},
		{"sub-cent budget", true, models.CreateProjectRequest{Title: "t", Description: "d", Budget: decimal.RequireFromString("10.001")}, ErrValidation},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			actor := freelancer
			if tc.actor {
				actor = m.client
			}
			_, err := m.projects.CreateProject(ctx, actor, &tc.req)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCreateProjectStartsOpen(t *testing.T) {
	m := newMarketplace(t)
	project := m.postProject(t, "4800")

	assert.Equal(t, models.ProjectStatusOpen, project.Status)
	assert.Equal(t, m.client.ProfileID, project.ClientID)

	open, err := m.projects.GetOpenProjects(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, project.ID, open[0].ID)
}

func TestGetOpenProjectsIncludesClient(t *testing.T) {
	m := newMarketplace(t)
	require.NoError(t, m.db.Model(&models.Profile{}).
		Where("id = ?", m.client.ProfileID).
		Update("company_name", "Acme Studio").Error)
	m.postProject(t, "1200")

	open, err := m.projects.GetOpenProjects(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, open, 1)
	require.NotNil(t, open[0].Client)
	assert.Equal(t, m.client.ProfileID, open[0].Client.ID)
	require.NotNil(t, open[0].Client.CompanyName)
	assert.Equal(t, "Acme Studio", *open[0].Client.CompanyName)
}

func TestGetClientProjectsCountsProposals(t *testing.T) {
	m := newMarketplace(t)
	busy := m.postProject(t, "1000")
	quiet := m.postProject(t, "500")
	m.bid(t, busy.ID, "900")
	m.bid(t, busy.ID, "800")

	projects, err := m.projects.GetClientProjects(context.Background(), m.client.ProfileID)
	require.NoError(t, err)
	require.Len(t, projects, 2)

	counts := map[uuid.UUID]int64{}
	for _, p := range projects {
		counts[p.ID] = p.ProposalCount
	}
	assert.Equal(t, int64(2), counts[busy.ID])
	assert.Equal(t, int64(0), counts[quiet.ID])
}

func TestGetProjectNotFound(t *testing.T) {
	m := newMarketplace(t)
	_, err := m.projects.GetProject(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpdateProjectStatus(t *testing.T) {
	m := newMarketplace(t)
	ctx := context.Background()
	project := m.postProject(t, "100")
	stranger := createProfile(t, m.repo, models.RoleClient)

	_, err := m.projects.UpdateProjectStatus(ctx, stranger, project.ID, models.ProjectStatusCancelled)
	assert.True(t, errors.Is(err, ErrForbidden))

	_, err = m.projects.UpdateProjectStatus(ctx, m.client, project.ID, models.ProjectStatusInProgress)
	assert.True(t, errors.Is(err, ErrValidation))

	_, err = m.projects.UpdateProjectStatus(ctx, m.client, project.ID, models.ProjectStatusCompleted)
	assert.True(t, errors.Is(err, ErrInvalidState))

	updated, err := m.projects.UpdateProjectStatus(ctx, m.client, project.ID, models.ProjectStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectStatusCancelled, updated.Status)

	_, err = m.projects.UpdateProjectStatus(ctx, m.client, project.ID, models.ProjectStatusCancelled)
	assert.True(t, errors.Is(err, ErrInvalidState))
}
