package auth

import (
	"context"
	"net/http"
	"strings"

	"freelance-hub/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	ctxExternalID   = "external_id"
	ctxIdentityName = "identity_name"
	ctxActor        = "actor"
	ctxProfileID    = "profile_id"
)

// Actor is the resolved current user of a request. It is built once by
// ActorMiddleware and only read afterwards.
type Actor struct {
	ProfileID  uuid.UUID
	ExternalID string
	Role       *models.Role
}

// Is reports whether the actor holds role
func (a Actor) Is(role models.Role) bool {
	return a.Role != nil && *a.Role == role
}

// ProfileResolver maps an identity to a profile, creating it on first sight
type ProfileResolver interface {
	EnsureProfile(ctx context.Context, externalID string, seed *models.ProfileSeed) (*models.Profile, error)
}

// AuthMiddleware validates identity tokens and protects routes
func AuthMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")

		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization header required",
			})
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>" format
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid authorization header format. Expected: Bearer <token>",
			})
			c.Abort()
			return
		}

		claims, err := ValidateToken(parts[1])
		if err != nil {
			log.Debug("token validation failed", zap.Error(err))
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			c.Abort()
			return
		}

		c.Set(ctxExternalID, claims.Subject)
		c.Set(ctxIdentityName, claims.Name)

		c.Next()
	}
}

// ActorMiddleware resolves the profile of the authenticated identity and
// stores it as the request's Actor. Must run after AuthMiddleware.
func ActorMiddleware(resolver ProfileResolver, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		externalID, ok := GetExternalID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		var seed *models.ProfileSeed
		if name := c.GetString(ctxIdentityName); name != "" {
			seed = &models.ProfileSeed{FullName: &name}
		}

		profile, err := resolver.EnsureProfile(c.Request.Context(), externalID, seed)
		if err != nil {
			log.Error("failed to resolve profile", zap.String("external_id", externalID), zap.Error(err))
			c.JSON(http.StatusBadGateway, gin.H{"error": "Unable to load your profile. Please try again."})
			c.Abort()
			return
		}

		c.Set(ctxActor, Actor{
			ProfileID:  profile.ID,
			ExternalID: profile.ExternalID,
			Role:       profile.Role,
		})
		c.Set(ctxProfileID, profile.ID)

		c.Next()
	}
}

// RequireRole rejects actors that did not onboard with one of roles
func RequireRole(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := CurrentActor(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			c.Abort()
			return
		}

		for _, role := range roles {
			if actor.Is(role) {
				c.Next()
				return
			}
		}

		c.JSON(http.StatusForbidden, gin.H{"error": "Your account role cannot perform this action"})
		c.Abort()
	}
}

// GetExternalID retrieves the identity provider user id from the context
func GetExternalID(c *gin.Context) (string, bool) {
	id, exists := c.Get(ctxExternalID)
	if !exists {
		return "", false
	}

	externalID, ok := id.(string)
	return externalID, ok && externalID != ""
}

// CurrentActor retrieves the resolved actor from the context
func CurrentActor(c *gin.Context) (Actor, bool) {
	v, exists := c.Get(ctxActor)
	if !exists {
		return Actor{}, false
	}

	actor, ok := v.(Actor)
	return actor, ok
}

// SetActor stores an actor on the context. Used by tests that bypass tokens.
func SetActor(c *gin.Context, actor Actor) {
	c.Set(ctxActor, actor)
	c.Set(ctxProfileID, actor.ProfileID)
}

// GetIdentityName retrieves the display name carried by the identity token
func GetIdentityName(c *gin.Context) string {
	return c.GetString(ctxIdentityName)
}
