package handlers

import (
	"net/http"

	"freelance-hub/internal/models"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
)

type ProposalHandler struct {
	proposals *services.ProposalService
}

func NewProposalHandler(proposals *services.ProposalService) *ProposalHandler {
	return &ProposalHandler{proposals: proposals}
}

// CreateProposal submits a bid on a project
// POST /api/projects/:id/proposals
func (h *ProposalHandler) CreateProposal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	var req models.CreateProposalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	proposal, err := h.proposals.CreateProposal(c.Request.Context(), actor, projectID, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, proposal)
}

// GetProjectProposals lists the proposals of a project visible to the caller
// GET /api/projects/:id/proposals
func (h *ProposalHandler) GetProjectProposals(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	proposals, err := h.proposals.GetProposalsForProject(c.Request.Context(), actor, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// CheckExistingProposal tells a freelancer whether they already bid
// GET /api/projects/:id/proposals/mine/exists
func (h *ProposalHandler) CheckExistingProposal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	exists, err := h.proposals.CheckExistingProposal(c.Request.Context(), actor.ProfileID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"exists": exists})
}

// GetMyProposals lists the freelancer's proposals
// GET /api/proposals/mine
func (h *ProposalHandler) GetMyProposals(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	proposals, err := h.proposals.GetFreelancerProposals(c.Request.Context(), actor.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"proposals": proposals})
}

// AcceptProposal hires the freelancer behind a proposal
// POST /api/projects/:id/proposals/:proposalId/accept
func (h *ProposalHandler) AcceptProposal(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}
	proposalID, ok := uuidParam(c, "proposalId", "proposal")
	if !ok {
		return
	}

	result, err := h.proposals.AcceptProposal(c.Request.Context(), actor, proposalID, projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
