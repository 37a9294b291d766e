package services

import (
	"testing"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitMilestones(t *testing.T) {
	cases := []struct {
		bid                        string
		total, upfront, completion int64
	}{
		{"4800", 480000, 240000, 240000},
		{"4999.99", 499999, 249999, 250000},
		{"0.01", 1, 0, 1},
		{"10.5", 1050, 525, 525},
	}

	for _, tc := range cases {
		t.Run(tc.bid, func(t *testing.T) {
			plan := SplitMilestones(decimal.RequireFromString(tc.bid))
			assert.Equal(t, tc.total, plan.TotalCents)
			assert.Equal(t, tc.upfront, plan.UpfrontCents)
			assert.Equal(t, tc.completion, plan.CompletionCents)
			assert.Equal(t, plan.TotalCents, plan.UpfrontCents+plan.CompletionCents)
		})
	}
}

func TestComputeMilestoneState(t *testing.T) {
	project := &models.Project{ID: uuid.New(), Status: models.ProjectStatusInProgress}
	accepted := &models.Proposal{ID: uuid.New(), Status: models.ProposalStatusAccepted, BidAmount: decimal.NewFromInt(4800)}
	proposals := []*models.Proposal{
		{ID: uuid.New(), Status: models.ProposalStatusRejected, BidAmount: decimal.NewFromInt(100)},
		accepted,
	}

	t.Run("no accepted proposal", func(t *testing.T) {
		_, ok := ComputeMilestoneState(project, proposals[:1], nil)
		assert.False(t, ok)
	})

	t.Run("nothing paid", func(t *testing.T) {
		state, ok := ComputeMilestoneState(project, proposals, []*models.PaymentIntent{
			{MilestoneType: models.MilestoneUpfront, Status: models.PaymentStatusPending},
		})
		require.True(t, ok)
		require.NotNil(t, state.NextMilestone)
		assert.Equal(t, models.MilestoneUpfront, *state.NextMilestone)
		assert.Equal(t, int64(240000), state.AmountDueCents)
		assert.False(t, state.Milestones[0].Paid)
		assert.NotNil(t, state.Milestones[0].Intent)
		assert.Equal(t, accepted.ID, state.AcceptedProposal.ID)
	})

	t.Run("upfront paid", func(t *testing.T) {
		state, ok := ComputeMilestoneState(project, proposals, []*models.PaymentIntent{
			{MilestoneType: models.MilestoneUpfront, Status: models.PaymentStatusSucceeded},
		})
		require.True(t, ok)
		require.NotNil(t, state.NextMilestone)
		assert.Equal(t, models.MilestoneCompletion, *state.NextMilestone)
		assert.True(t, state.Milestones[0].Paid)
		assert.False(t, state.PaymentComplete)
	})

	t.Run("both paid", func(t *testing.T) {
		state, ok := ComputeMilestoneState(project, proposals, []*models.PaymentIntent{
			{MilestoneType: models.MilestoneUpfront, Status: models.PaymentStatusSucceeded},
			{MilestoneType: models.MilestoneCompletion, Status: models.PaymentStatusSucceeded},
		})
		require.True(t, ok)
		assert.Nil(t, state.NextMilestone)
		assert.Equal(t, int64(0), state.AmountDueCents)
		assert.True(t, state.PaymentComplete)
	})
}
