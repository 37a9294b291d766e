package handlers

import (
	"net/http"

	"freelance-hub/internal/models"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	payments *services.PaymentService
}

func NewPaymentHandler(payments *services.PaymentService) *PaymentHandler {
	return &PaymentHandler{payments: payments}
}

// GetMilestoneState returns the milestone payment view of a project
// GET /api/projects/:id/payments
func (h *PaymentHandler) GetMilestoneState(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	state, err := h.payments.GetMilestoneState(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, state)
}

// StartCheckout opens a hosted checkout for the next milestone
// POST /api/projects/:id/payments/checkout
func (h *PaymentHandler) StartCheckout(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	var req models.StartCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	if !req.MilestoneType.Valid() {
		badRequest(c, "unknown milestone type")
		return
	}

	resp, err := h.payments.StartCheckout(c.Request.Context(), actor, projectID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// GetPayoutAccount returns the caller's payout account
// GET /api/payout-account
func (h *PaymentHandler) GetPayoutAccount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	account, err := h.payments.GetPayoutAccount(c.Request.Context(), actor.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account, "ready": account.Ready()})
}

// RegisterPayoutAccount links a processor account to the freelancer
// POST /api/payout-account
func (h *PaymentHandler) RegisterPayoutAccount(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.RegisterPayoutAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	account, err := h.payments.RegisterPayoutAccount(c.Request.Context(), actor, req.StripeAccountID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"account": account, "ready": account.Ready()})
}
