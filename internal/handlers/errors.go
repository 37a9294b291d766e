package handlers

import (
	"errors"
	"net/http"

	"freelance-hub/internal/logger"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes returned next to the message so clients can branch without
// parsing text.
const (
	CodeBadRequest            = 40000
	CodeValidation            = 40001
	CodeForbidden             = 40301
	CodeNotFound              = 40401
	CodeInvalidState          = 40901
	CodeNoAcceptedProposal    = 40902
	CodePaymentComplete       = 40903
	CodeCheckoutInProgress    = 40904
	CodePayoutAccountMissing  = 42201
	CodePayoutAccountNotReady = 42202
	CodeUpstream              = 50201
	CodeCheckoutFailed        = 50202
)

type errorMapping struct {
	target error
	status int
	code   int
}

// Order matters: specific payment errors before the generic kinds.
var errorMappings = []errorMapping{
	{services.ErrNoAcceptedProposal, http.StatusConflict, CodeNoAcceptedProposal},
	{services.ErrPaymentComplete, http.StatusConflict, CodePaymentComplete},
	{services.ErrCheckoutInProgress, http.StatusConflict, CodeCheckoutInProgress},
	{services.ErrPayoutAccountMissing, http.StatusUnprocessableEntity, CodePayoutAccountMissing},
	{services.ErrPayoutAccountNotReady, http.StatusUnprocessableEntity, CodePayoutAccountNotReady},
	{services.ErrNotFound, http.StatusNotFound, CodeNotFound},
	{services.ErrForbidden, http.StatusForbidden, CodeForbidden},
	{services.ErrValidation, http.StatusBadRequest, CodeValidation},
	{services.ErrInvalidState, http.StatusConflict, CodeInvalidState},
}

// respondError writes the response for a service error. Remote failures get a
// generic retry message; the cause is only logged.
func respondError(c *gin.Context, err error) {
	_ = c.Error(err)

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			c.JSON(m.status, gin.H{"error": err.Error(), "code": m.code})
			return
		}
	}

	if errors.Is(err, services.ErrCheckoutFailed) {
		logger.Log.Error("checkout failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error": "Unable to start checkout. Please try again.",
			"code":  CodeCheckoutFailed,
		})
		return
	}

	logger.Log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{
		"error": "Something went wrong. Please try again.",
		"code":  CodeUpstream,
	})
}

// badRequest reports malformed input
func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg, "code": CodeBadRequest})
}
