package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Error taxonomy shared with the HTTP layer. Services wrap these with context;
// handlers match them with errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
	ErrInvalidState = errors.New("invalid state")

	ErrNoAcceptedProposal    = errors.New("no accepted proposal for this project")
	ErrPaymentComplete       = errors.New("all milestones are already paid")
	ErrPayoutAccountMissing  = errors.New("freelancer has no payout account")
	ErrPayoutAccountNotReady = errors.New("freelancer payout account is not ready to receive funds")
	ErrCheckoutInProgress    = errors.New("a checkout for this milestone is already being created")
	ErrCheckoutFailed        = errors.New("unable to start checkout")
)

// notFound converts a missing-record error into ErrNotFound and wraps anything
// else with the failed operation.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("failed to get %s: %w", what, err)
}
