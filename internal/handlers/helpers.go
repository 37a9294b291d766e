package handlers

import (
	"net/http"

	"freelance-hub/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// currentActor loads the request actor or answers 401
func currentActor(c *gin.Context) (*auth.Actor, bool) {
	actor, ok := auth.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return &actor, true
}

// uuidParam parses a path parameter or answers 400
func uuidParam(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+label+" id")
		return uuid.Nil, false
	}
	return id, true
}
