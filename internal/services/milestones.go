package services

import (
	"freelance-hub/internal/models"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// SplitMilestones converts a bid into cents and splits it in two. The upfront
// half is rounded down and the completion half takes the remainder, so the two
// always add up to the total.
func SplitMilestones(bid decimal.Decimal) models.MilestonePlan {
	total := bid.Mul(hundred).Round(0).IntPart()
	upfront := total / 2
	return models.MilestonePlan{
		TotalCents:      total,
		UpfrontCents:    upfront,
		CompletionCents: total - upfront,
	}
}

// ComputeMilestoneState derives the payment page view from a project, its
// proposals and its recorded payment intents. It returns false when no
// proposal has been accepted, in which case payment is unavailable.
func ComputeMilestoneState(
	project *models.Project,
	proposals []*models.Proposal,
	intents []*models.PaymentIntent,
) (*models.MilestoneState, bool) {
	accepted, ok := lo.Find(proposals, func(p *models.Proposal) bool {
		return p.Status == models.ProposalStatusAccepted
	})
	if !ok {
		return nil, false
	}
	return milestoneStateFromPlan(project, accepted, SplitMilestones(accepted.BidAmount), intents), true
}

// milestoneStateFromPlan builds the view from a known split, such as the one
// frozen in a contract.
func milestoneStateFromPlan(
	project *models.Project,
	accepted *models.Proposal,
	plan models.MilestonePlan,
	intents []*models.PaymentIntent,
) *models.MilestoneState {
	byType := lo.KeyBy(intents, func(i *models.PaymentIntent) models.MilestoneType {
		return i.MilestoneType
	})

	state := &models.MilestoneState{
		ProjectID:        project.ID,
		AcceptedProposal: accepted,
		Plan:             plan,
		Milestones:       make([]models.MilestoneProgress, 0, len(models.Milestones)),
	}

	for _, m := range models.Milestones {
		progress := models.MilestoneProgress{Type: m, AmountCents: plan.AmountFor(m)}
		if intent, ok := byType[m]; ok {
			progress.Intent = intent
			progress.Paid = intent.Status == models.PaymentStatusSucceeded
		}
		state.Milestones = append(state.Milestones, progress)

		if !progress.Paid && state.NextMilestone == nil {
			next := m
			state.NextMilestone = &next
			state.AmountDueCents = progress.AmountCents
		}
	}

	state.PaymentComplete = state.NextMilestone == nil
	return state
}
