package handlers

import (
	"net/http"
	"strconv"

	"freelance-hub/internal/models"
	"freelance-hub/internal/services"

	"github.com/gin-gonic/gin"
)

type ProjectHandler struct {
	projects *services.ProjectService
}

func NewProjectHandler(projects *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// CreateProject posts a new project
// POST /api/projects
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	var req models.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.projects.CreateProject(c.Request.Context(), actor, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// GetOpenProjects lists projects accepting proposals
// GET /api/projects?limit=&offset=
func (h *ProjectHandler) GetOpenProjects(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))

	projects, err := h.projects.GetOpenProjects(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetMyProjects lists the client's projects with proposal counts
// GET /api/projects/mine
func (h *ProjectHandler) GetMyProjects(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}

	projects, err := h.projects.GetClientProjects(c.Request.Context(), actor.ProfileID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject retrieves a project by ID
// GET /api/projects/:id
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	project, err := h.projects.GetProject(c.Request.Context(), projectID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// UpdateProjectStatus completes or cancels a project
// PATCH /api/projects/:id/status
func (h *ProjectHandler) UpdateProjectStatus(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	projectID, ok := uuidParam(c, "id", "project")
	if !ok {
		return
	}

	var req models.UpdateProjectStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	project, err := h.projects.UpdateProjectStatus(c.Request.Context(), actor, projectID, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}
