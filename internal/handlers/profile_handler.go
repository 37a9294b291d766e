package handlers

import (
	"net/http"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/models"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
)

// ProfileHandler serves the current user's marketplace profile
type ProfileHandler struct {
	identity *services.IdentityService
}

func NewProfileHandler(identity *services.IdentityService) *ProfileHandler {
	return &ProfileHandler{identity: identity}
}

// EnsureProfile creates the caller's profile on first sign-in
// POST /api/profile/ensure
func (h *ProfileHandler) EnsureProfile(c *gin.Context) {
	externalID, ok := auth.GetExternalID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var seed models.ProfileSeed
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&seed); err != nil {
			badRequest(c, err.Error())
			return
		}
	}

	if seed.FullName == nil {
		if name := auth.GetIdentityName(c); name != "" {
			seed.FullName = &name
		}
	}

	profile, err := h.identity.EnsureProfile(c.Request.Context(), externalID, &seed)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// GetProfile returns the current user's profile
// GET /api/profile
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	profile, err := h.identity.GetProfile(c.Request.Context(), actor.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// CompleteOnboarding sets the role chosen after sign-up
// POST /api/profile/onboarding
func (h *ProfileHandler) CompleteOnboarding(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	profile, err := h.identity.CompleteOnboarding(c.Request.Context(), actor.ProfileID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}
