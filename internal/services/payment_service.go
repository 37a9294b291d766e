package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/metrics"
	"freelance-hub/internal/models"
	"freelance-hub/internal/repository"
	"freelance-hub/internal/stripe"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentProcessor is the part of the processor API the payment flow uses
type PaymentProcessor interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams, idempotencyKey string) (*stripe.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*stripe.CheckoutSession, error)
	GetAccount(ctx context.Context, accountID string) (*stripe.Account, error)
}

// CheckoutGuard serializes checkout attempts sharing an idempotency key
type CheckoutGuard interface {
	Acquire(ctx context.Context, key string) bool
	Release(ctx context.Context, key string)
}

type noopGuard struct{}

func (noopGuard) Acquire(context.Context, string) bool { return true }
func (noopGuard) Release(context.Context, string)      {}

// PaymentSettings configures checkout sessions
type PaymentSettings struct {
	Currency           string
	PlatformFeePercent decimal.Decimal
	FrontendURL        string
}

type PaymentService struct {
	repo      *repository.Repository
	processor PaymentProcessor
	guard     CheckoutGuard
	settings  PaymentSettings
	log       *zap.Logger
}

func NewPaymentService(
	repo *repository.Repository,
	processor PaymentProcessor,
	guard CheckoutGuard,
	settings PaymentSettings,
	log *zap.Logger,
) *PaymentService {
	if guard == nil {
		guard = noopGuard{}
	}
	settings.FrontendURL = strings.TrimRight(settings.FrontendURL, "/")
	if settings.Currency == "" {
		settings.Currency = "usd"
	}
	return &PaymentService{
		repo:      repo,
		processor: processor,
		guard:     guard,
		settings:  settings,
		log:       log,
	}
}

// CheckoutIdempotencyKey identifies one checkout attempt of a milestone.
// attempt counts the canceled sessions before it.
func CheckoutIdempotencyKey(projectID uuid.UUID, milestone models.MilestoneType, attempt int) string {
	return fmt.Sprintf("checkout:%s:%s:%d", projectID, milestone, attempt)
}

// PlatformFee is the application fee kept from a milestone amount, in cents
func (s *PaymentService) PlatformFee(amountCents int64) int64 {
	return decimal.NewFromInt(amountCents).
		Mul(s.settings.PlatformFeePercent).
		Div(hundred).
		Round(0).
		IntPart()
}

// GetMilestoneState returns the payment view of a project for its owner or
// the hired freelancer.
func (s *PaymentService) GetMilestoneState(
	ctx context.Context,
	actor *auth.Actor,
	projectID uuid.UUID,
) (*models.MilestoneState, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}

	state, err := s.loadMilestoneState(ctx, project)
	if errors.Is(err, ErrNoAcceptedProposal) && project.ClientID != actor.ProfileID {
		return nil, fmt.Errorf("not a party to this project: %w", ErrForbidden)
	}
	if err != nil {
		return nil, err
	}

	if project.ClientID != actor.ProfileID && state.AcceptedProposal.FreelancerID != actor.ProfileID {
		return nil, fmt.Errorf("not a party to this project: %w", ErrForbidden)
	}
	return state, nil
}

func (s *PaymentService) loadMilestoneState(ctx context.Context, project *models.Project) (*models.MilestoneState, error) {
	proposals, err := s.repo.GetProposalsByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get proposals: %w", err)
	}
	intents, err := s.repo.GetPaymentIntentsByProject(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payment intents: %w", err)
	}

	accepted, ok := lo.Find(proposals, func(p *models.Proposal) bool {
		return p.Status == models.ProposalStatusAccepted
	})
	if !ok {
		return nil, ErrNoAcceptedProposal
	}

	contract, err := s.repo.GetContractByProject(ctx, project.ID)
	switch {
	case err == nil:
		return milestoneStateFromPlan(project, accepted, contract.Plan(), intents), nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		// projects accepted before contracts were recorded
		state, _ := ComputeMilestoneState(project, proposals, intents)
		return state, nil
	default:
		return nil, fmt.Errorf("failed to get contract: %w", err)
	}
}

// StartCheckout opens a hosted checkout for the next unpaid milestone and
// returns its URL. The milestone is only marked paid later, from processor state.
func (s *PaymentService) StartCheckout(
	ctx context.Context,
	actor *auth.Actor,
	projectID uuid.UUID,
	req *models.StartCheckoutRequest,
) (*models.CheckoutResponse, error) {
	project, err := s.repo.GetProjectByID(ctx, projectID)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if project.ClientID != actor.ProfileID {
		return nil, fmt.Errorf("project belongs to another client: %w", ErrForbidden)
	}

	state, err := s.loadMilestoneState(ctx, project)
	if err != nil {
		return nil, err
	}
	if state.NextMilestone == nil {
		return nil, ErrPaymentComplete
	}
	milestone := *state.NextMilestone
	if req.MilestoneType != milestone {
		return nil, fmt.Errorf("milestone %q is not due, next is %s: %w", req.MilestoneType, milestone, ErrValidation)
	}
	if req.Amount != state.AmountDueCents {
		return nil, fmt.Errorf("amount %d does not match the %d due: %w", req.Amount, state.AmountDueCents, ErrValidation)
	}

	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.settings.Currency
	}
	if currency != s.settings.Currency {
		return nil, fmt.Errorf("unsupported currency %q: %w", req.Currency, ErrValidation)
	}

	successURL, cancelURL, err := s.redirectURLs(projectID, req)
	if err != nil {
		return nil, err
	}

	freelancerID := state.AcceptedProposal.FreelancerID
	account, err := s.repo.GetStripeAccountByProfile(ctx, freelancerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPayoutAccountMissing
		}
		return nil, fmt.Errorf("failed to get payout account: %w", err)
	}
	if !account.Ready() {
		return nil, ErrPayoutAccountNotReady
	}

	existing, err := s.repo.GetPaymentIntentByMilestone(ctx, projectID, milestone)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to get payment intent: %w", err)
	}

	attempt := 0
	if existing != nil {
		s.refreshIntent(ctx, existing)

		switch existing.Status {
		case models.PaymentStatusSucceeded:
			return nil, fmt.Errorf("milestone %s was just paid: %w", milestone, ErrInvalidState)
		case models.PaymentStatusProcessing:
			return nil, fmt.Errorf("payment for milestone %s is processing: %w", milestone, ErrInvalidState)
		case models.PaymentStatusCanceled:
			attempt = existing.Attempt + 1
		default:
			if existing.CheckoutURL != "" {
				metrics.IncrementCheckout(string(milestone), "reused")
				return &models.CheckoutResponse{CheckoutURL: existing.CheckoutURL, PaymentIntentID: existing.ID}, nil
			}
			attempt = existing.Attempt
		}
	}

	key := CheckoutIdempotencyKey(projectID, milestone, attempt)
	if !s.guard.Acquire(ctx, key) {
		metrics.IncrementCheckout(string(milestone), "in_progress")
		return nil, ErrCheckoutInProgress
	}
	defer s.guard.Release(ctx, key)

	fee := s.PlatformFee(req.Amount)
	metadata := map[string]string{
		"project_id":     projectID.String(),
		"proposal_id":    state.AcceptedProposal.ID.String(),
		"milestone_type": string(milestone),
		"attempt":        strconv.Itoa(attempt),
	}

	session, err := s.processor.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		ProductName:        milestoneProductName(milestone, project.Title),
		AmountCents:        req.Amount,
		Currency:           currency,
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
		ClientReferenceID:  projectID.String(),
		ApplicationFee:     fee,
		DestinationAccount: account.StripeAccountID,
		Metadata:           metadata,
	}, key)
	if err != nil {
		metrics.IncrementCheckout(string(milestone), "failed")
		s.log.Error("checkout session failed",
			zap.String("project_id", projectID.String()),
			zap.String("milestone", string(milestone)),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrCheckoutFailed, err)
	}

	intent := existing
	if intent == nil {
		intent = &models.PaymentIntent{ProjectID: projectID, MilestoneType: milestone}
	}
	intent.ClientID = project.ClientID
	intent.FreelancerID = freelancerID
	intent.CheckoutSessionID = session.ID
	intent.CheckoutURL = session.URL
	intent.StripePaymentIntentID = session.PaymentIntent
	intent.IdempotencyKey = key
	intent.Attempt = attempt
	intent.Amount = req.Amount
	intent.Currency = currency
	intent.Status = models.PaymentStatusPending
	intent.PlatformFee = fee
	intent.ApplicationFee = fee
	intent.Metadata = models.JSONB(lo.MapValues(metadata, func(v string, _ string) interface{} { return v }))

	// A failed write is recovered on retry: the same key returns the same session.
	if err := s.repo.SavePaymentIntent(ctx, intent); err != nil {
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("failed to save payment intent: %w", err)
		}
		// a concurrent request stored the same session under the same key
		stored, getErr := s.repo.GetPaymentIntentByMilestone(ctx, projectID, milestone)
		if getErr != nil || stored.CheckoutSessionID != session.ID {
			return nil, fmt.Errorf("failed to save payment intent: %w", err)
		}
		metrics.IncrementCheckout(string(milestone), "reused")
		return &models.CheckoutResponse{CheckoutURL: session.URL, PaymentIntentID: stored.ID}, nil
	}

	metrics.IncrementCheckout(string(milestone), "created")
	s.log.Info("checkout started",
		zap.String("project_id", projectID.String()),
		zap.String("milestone", string(milestone)),
		zap.Int64("amount", req.Amount),
		zap.Int64("fee", fee),
		zap.String("session_id", session.ID),
		zap.Int("attempt", attempt),
	)

	return &models.CheckoutResponse{CheckoutURL: session.URL, PaymentIntentID: intent.ID}, nil
}

// refreshIntent pulls the latest session state of an open intent so an expired
// session is not handed out again. Processor errors leave the intent as is.
func (s *PaymentService) refreshIntent(ctx context.Context, intent *models.PaymentIntent) {
	if intent.Status.Terminal() || intent.CheckoutSessionID == "" {
		return
	}

	session, err := s.processor.GetCheckoutSession(ctx, intent.CheckoutSessionID)
	if err != nil {
		s.log.Warn("failed to refresh checkout session",
			zap.String("payment_intent_id", intent.ID.String()),
			zap.Error(err),
		)
		return
	}

	status := SessionPaymentStatus(session)
	if status == intent.Status {
		return
	}
	if err := s.repo.UpdatePaymentIntentStatus(ctx, intent.ID, status, session.PaymentIntent); err != nil {
		s.log.Warn("failed to update payment intent", zap.String("payment_intent_id", intent.ID.String()), zap.Error(err))
		return
	}
	intent.Status = status
	if session.PaymentIntent != nil {
		intent.StripePaymentIntentID = session.PaymentIntent
	}
}

// redirectURLs fills in the default return pages and refuses redirects that
// leave the frontend.
func (s *PaymentService) redirectURLs(projectID uuid.UUID, req *models.StartCheckoutRequest) (string, string, error) {
	base := fmt.Sprintf("%s/project/%s", s.settings.FrontendURL, projectID)
	successURL := lo.Ternary(req.SuccessURL != "", req.SuccessURL, base)
	cancelURL := lo.Ternary(req.CancelURL != "", req.CancelURL, base+"/checkout?canceled=true")

	for _, u := range []string{successURL, cancelURL} {
		if !strings.HasPrefix(u, s.settings.FrontendURL+"/") {
			return "", "", fmt.Errorf("redirect %q is outside the app: %w", u, ErrValidation)
		}
	}
	return successURL, cancelURL, nil
}

func milestoneProductName(m models.MilestoneType, title string) string {
	switch m {
	case models.MilestoneUpfront:
		return "Upfront payment (50%): " + title
	default:
		return "Completion payment (50%): " + title
	}
}

// GetPayoutAccount returns a profile's payout account
func (s *PaymentService) GetPayoutAccount(ctx context.Context, profileID uuid.UUID) (*models.StripeAccount, error) {
	account, err := s.repo.GetStripeAccountByProfile(ctx, profileID)
	if err != nil {
		return nil, notFound(err, "payout account")
	}
	return account, nil
}

// RegisterPayoutAccount links a processor account to the acting freelancer and
// records its current readiness.
func (s *PaymentService) RegisterPayoutAccount(
	ctx context.Context,
	actor *auth.Actor,
	stripeAccountID string,
) (*models.StripeAccount, error) {
	if !actor.Is(models.RoleFreelancer) {
		return nil, fmt.Errorf("only freelancers receive payouts: %w", ErrForbidden)
	}
	stripeAccountID = strings.TrimSpace(stripeAccountID)
	if !strings.HasPrefix(stripeAccountID, "acct_") {
		return nil, fmt.Errorf("invalid account id %q: %w", stripeAccountID, ErrValidation)
	}

	remote, err := s.processor.GetAccount(ctx, stripeAccountID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payout account: %w", err)
	}

	account := &models.StripeAccount{
		ProfileID:        actor.ProfileID,
		StripeAccountID:  remote.ID,
		ChargesEnabled:   remote.ChargesEnabled,
		PayoutsEnabled:   remote.PayoutsEnabled,
		DetailsSubmitted: remote.DetailsSubmitted,
	}
	if err := s.repo.UpsertStripeAccount(ctx, account); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, fmt.Errorf("account is linked to another profile: %w", ErrInvalidState)
		}
		return nil, fmt.Errorf("failed to save payout account: %w", err)
	}

	s.log.Info("payout account registered",
		zap.String("profile_id", actor.ProfileID.String()),
		zap.String("account_id", remote.ID),
		zap.Bool("ready", account.Ready()),
	)
	return s.GetPayoutAccount(ctx, actor.ProfileID)
}

// SyncPaymentIntents mirrors processor state onto unsettled intents and
// returns how many changed. Per-intent failures are logged and skipped.
func (s *PaymentService) SyncPaymentIntents(ctx context.Context, limit int) (int, error) {
	intents, err := s.repo.GetUnsettledPaymentIntents(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("failed to get unsettled payment intents: %w", err)
	}

	updated := 0
	for _, intent := range intents {
		if ctx.Err() != nil {
			return updated, ctx.Err()
		}

		session, err := s.processor.GetCheckoutSession(ctx, intent.CheckoutSessionID)
		if err != nil {
			s.log.Warn("failed to fetch checkout session",
				zap.String("payment_intent_id", intent.ID.String()),
				zap.String("session_id", intent.CheckoutSessionID),
				zap.Error(err),
			)
			continue
		}

		status := SessionPaymentStatus(session)
		piChanged := session.PaymentIntent != nil &&
			(intent.StripePaymentIntentID == nil || *intent.StripePaymentIntentID != *session.PaymentIntent)
		if status == intent.Status && !piChanged {
			continue
		}

		if err := s.repo.UpdatePaymentIntentStatus(ctx, intent.ID, status, session.PaymentIntent); err != nil {
			s.log.Error("failed to update payment intent",
				zap.String("payment_intent_id", intent.ID.String()),
				zap.Error(err),
			)
			continue
		}

		updated++
		metrics.IncrementPaymentSync(string(status))
		s.log.Info("payment intent synced",
			zap.String("payment_intent_id", intent.ID.String()),
			zap.String("project_id", intent.ProjectID.String()),
			zap.String("milestone", string(intent.MilestoneType)),
			zap.String("from", string(intent.Status)),
			zap.String("to", string(status)),
		)
	}
	return updated, nil
}

// SessionPaymentStatus maps a checkout session onto the intent status vocabulary
func SessionPaymentStatus(session *stripe.CheckoutSession) models.PaymentStatus {
	switch {
	case session.PaymentStatus == stripe.PaymentStatusPaid:
		return models.PaymentStatusSucceeded
	case session.Status == stripe.SessionStatusExpired:
		return models.PaymentStatusCanceled
	case session.Status == stripe.SessionStatusComplete:
		return models.PaymentStatusProcessing
	default:
		return models.PaymentStatusPending
	}
}
