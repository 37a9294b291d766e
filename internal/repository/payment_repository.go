package repository

import (
	"context"

	"freelance-hub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"
)

// CreateContract records the frozen milestone split of an accepted proposal
func (r *Repository) CreateContract(ctx context.Context, contract *models.Contract) error {
	return r.db.WithContext(ctx).Create(contract).Error
}

// GetContractByProject retrieves the contract of a project
func (r *Repository) GetContractByProject(ctx context.Context, projectID uuid.UUID) (*models.Contract, error) {
	var contract models.Contract
	err := r.db.WithContext(ctx).Where("project_id = ?", projectID).First(&contract).Error
	if err != nil {
		return nil, err
	}
	return &contract, nil
}

// GetPaymentIntentsByProject retrieves a project's payment intents, oldest first
func (r *Repository) GetPaymentIntentsByProject(ctx context.Context, projectID uuid.UUID) ([]*models.PaymentIntent, error) {
	var intents []*models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}

// GetPaymentIntentByMilestone retrieves the intent of one milestone
func (r *Repository) GetPaymentIntentByMilestone(
	ctx context.Context,
	projectID uuid.UUID,
	milestone models.MilestoneType,
) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("project_id = ? AND milestone_type = ?", projectID, milestone).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

// SavePaymentIntent inserts or updates a payment intent
func (r *Repository) SavePaymentIntent(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}

// GetUnsettledPaymentIntents retrieves intents the processor may still move
func (r *Repository) GetUnsettledPaymentIntents(ctx context.Context, limit int) ([]*models.PaymentIntent, error) {
	var intents []*models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status NOT IN ? AND checkout_session_id <> ''", []models.PaymentStatus{
			models.PaymentStatusSucceeded,
			models.PaymentStatusCanceled,
		}).
		Order("updated_at ASC").
		Limit(limit).
		Find(&intents).Error
	if err != nil {
		return nil, err
	}
	return intents, nil
}

// UpdatePaymentIntentStatus mirrors processor state onto an intent
func (r *Repository) UpdatePaymentIntentStatus(
	ctx context.Context,
	id uuid.UUID,
	status models.PaymentStatus,
	stripePaymentIntentID *string,
) error {
	updates := map[string]interface{}{"status": status}
	if stripePaymentIntentID != nil {
		updates["stripe_payment_intent_id"] = *stripePaymentIntentID
	}
	return r.db.WithContext(ctx).
		Model(&models.PaymentIntent{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// GetStripeAccountByProfile retrieves a freelancer's payout account
func (r *Repository) GetStripeAccountByProfile(ctx context.Context, profileID uuid.UUID) (*models.StripeAccount, error) {
	var account models.StripeAccount
	err := r.db.WithContext(ctx).Where("profile_id = ?", profileID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpsertStripeAccount inserts a payout account or refreshes its flags
func (r *Repository) UpsertStripeAccount(ctx context.Context, account *models.StripeAccount) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "profile_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_account_id",
			"charges_enabled",
			"payouts_enabled",
			"details_submitted",
			"updated_at",
		}),
	}).Create(account).Error
}
