package handlers

import (
	"freelance-hub/internal/auth"
	"freelance-hub/internal/models"
	"freelance-hub/internal/ratelimit"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services bundles what the HTTP layer serves
type Services struct {
	Identity  *services.IdentityService
	Projects  *services.ProjectService
	Proposals *services.ProposalService
	Payments  *services.PaymentService
}

// RegisterRoutes mounts the API under /api
func RegisterRoutes(r *gin.Engine, svc Services, limiter *ratelimit.RateLimiter, log *zap.Logger) {
	profileHandler := NewProfileHandler(svc.Identity)
	projectHandler := NewProjectHandler(svc.Projects)
	proposalHandler := NewProposalHandler(svc.Proposals)
	paymentHandler := NewPaymentHandler(svc.Payments)

	clientOnly := auth.RequireRole(models.RoleClient)
	freelancerOnly := auth.RequireRole(models.RoleFreelancer)

	api := r.Group("/api")
	api.POST("/profile/ensure", auth.AuthMiddleware(log), profileHandler.EnsureProfile)

	protected := api.Group("")
	protected.Use(auth.AuthMiddleware(log), auth.ActorMiddleware(svc.Identity, log))
	{
		// Profile
		protected.GET("/profile", profileHandler.GetProfile)
		protected.POST("/profile/onboarding", profileHandler.CompleteOnboarding)

		// Projects
		protected.GET("/projects", projectHandler.GetOpenProjects)
		protected.GET("/projects/mine", clientOnly, projectHandler.GetMyProjects)
		protected.POST("/projects", clientOnly, projectHandler.CreateProject)
		protected.GET("/projects/:id", projectHandler.GetProject)
		protected.PATCH("/projects/:id/status", clientOnly, projectHandler.UpdateProjectStatus)

		// Proposals
		protected.POST("/projects/:id/proposals", freelancerOnly, proposalHandler.CreateProposal)
		protected.GET("/projects/:id/proposals", proposalHandler.GetProjectProposals)
		protected.GET("/projects/:id/proposals/mine/exists", freelancerOnly, proposalHandler.CheckExistingProposal)
		protected.GET("/proposals/mine", freelancerOnly, proposalHandler.GetMyProposals)
		protected.POST("/projects/:id/proposals/:proposalId/accept", clientOnly, limiter.Limit(), proposalHandler.AcceptProposal)

		// Payments
		protected.GET("/projects/:id/payments", paymentHandler.GetMilestoneState)
		protected.POST("/projects/:id/payments/checkout", clientOnly, limiter.Limit(), paymentHandler.StartCheckout)
		protected.GET("/payout-account", freelancerOnly, paymentHandler.GetPayoutAccount)
		protected.POST("/payout-account", freelancerOnly, paymentHandler.RegisterPayoutAccount)
	}
}
