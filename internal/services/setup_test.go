package services

import (
	"context"
	"testing"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/database"
	"freelance-hub/internal/models"
	"freelance-hub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) (*gorm.DB, *repository.Repository) {
	t.Helper()

	db, err := database.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), zap.NewNop())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db, repository.NewRepository(db)
}

func createProfile(t *testing.T, repo *repository.Repository, role models.Role) *auth.Actor {
	t.Helper()
	profile := &models.Profile{ExternalID: "user_" + uuid.NewString(), Role: &role}
	require.NoError(t, repo.CreateProfile(context.Background(), profile))
	return &auth.Actor{ProfileID: profile.ID, ExternalID: profile.ExternalID, Role: profile.Role}
}

type marketplace struct {
	db        *gorm.DB
	repo      *repository.Repository
	projects  *ProjectService
	proposals *ProposalService
	client    *auth.Actor
}

func newMarketplace(t *testing.T) *marketplace {
	t.Helper()
	db, repo := setupTestDB(t)
	return &marketplace{
		db:        db,
		repo:      repo,
		projects:  NewProjectService(repo, zap.NewNop()),
		proposals: NewProposalService(repo, "usd", zap.NewNop()),
		client:    createProfile(t, repo, models.RoleClient),
	}
}

func (m *marketplace) postProject(t *testing.T, budget string) *models.Project {
	t.Helper()
	project, err := m.projects.CreateProject(context.Background(), m.client, &models.CreateProjectRequest{
		Title:       "Landing page",
		Description: "Build a landing page",
		Budget:      decimal.RequireFromString(budget),
	})
	require.NoError(t, err)
	return project
}

func (m *marketplace) bid(t *testing.T, projectID uuid.UUID, amount string) (*auth.Actor, *models.Proposal) {
	t.Helper()
	freelancer := createProfile(t, m.repo, models.RoleFreelancer)
	proposal, err := m.proposals.CreateProposal(context.Background(), freelancer, projectID, &models.CreateProposalRequest{
		CoverLetter: "I can do this",
		BidAmount:   decimal.RequireFromString(amount),
	})
	require.NoError(t, err)
	return freelancer, proposal
}
