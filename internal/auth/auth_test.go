package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freelance-hub/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	profile *models.Profile
	err     error
	calls   int
}

func (f *fakeResolver) EnsureProfile(_ context.Context, externalID string, _ *models.ProfileSeed) (*models.Profile, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	f.profile.ExternalID = externalID
	return f.profile, nil
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestTokenRoundTrip(t *testing.T) {
	InitJWT("test-secret", "")

	token, err := GenerateToken("user_123", "Ada", time.Hour)
	require.NoError(t, err)

	claims, err := ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user_123", claims.Subject)
	assert.Equal(t, "Ada", claims.Name)
}

func TestValidateTokenRejectsForeignSecretAndIssuer(t *testing.T) {
	InitJWT("other-secret", "")
	token, err := GenerateToken("user_123", "", time.Hour)
	require.NoError(t, err)

	InitJWT("test-secret", "")
	_, err = ValidateToken(token)
	require.Error(t, err)

	InitJWT("test-secret", "issuer-a")
	token, err = GenerateToken("user_123", "", time.Hour)
	require.NoError(t, err)
	InitJWT("test-secret", "issuer-b")
	_, err = ValidateToken(token)
	require.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	InitJWT("test-secret", "")
	token, err := GenerateToken("user_123", "", -time.Minute)
	require.NoError(t, err)

	_, err = ValidateToken(token)
	require.Error(t, err)
}

func newRouter(resolver ProfileResolver, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(zap.NewNop()), ActorMiddleware(resolver, zap.NewNop())}
	handlers = append(handlers, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		actor, _ := CurrentActor(c)
		c.JSON(http.StatusOK, gin.H{"profile_id": actor.ProfileID})
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddlewareRejectsMissingAndMalformedHeaders(t *testing.T) {
	InitJWT("test-secret", "")
	r := newRouter(&fakeResolver{profile: &models.Profile{ID: uuid.New()}})

	for _, header := range []string{"", "Token abc", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/me", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusUnauthorized, w.Code, header)
	}
}

func TestActorMiddlewareResolvesProfile(t *testing.T) {
	InitJWT("test-secret", "")
	profileID := uuid.New()
	resolver := &fakeResolver{profile: &models.Profile{ID: profileID}}
	r := newRouter(resolver)

	token, err := GenerateToken("user_1", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), profileID.String())
	assert.Equal(t, 1, resolver.calls)
}

func TestActorMiddlewareSurfacesResolverFailure(t *testing.T) {
	InitJWT("test-secret", "")
	r := newRouter(&fakeResolver{err: errors.New("db down")})

	token, err := GenerateToken("user_1", "", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestRequireRole(t *testing.T) {
	InitJWT("test-secret", "")
	client := models.RoleClient

	token, err := GenerateToken("user_1", "", time.Hour)
	require.NoError(t, err)

	cases := []struct {
		name string
		role *models.Role
		want int
	}{
		{"matching role", &client, http.StatusOK},
		{"no role yet", nil, http.StatusForbidden},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver := &fakeResolver{profile: &models.Profile{ID: uuid.New(), Role: tc.role}}
			r := newRouter(resolver, RequireRole(models.RoleClient))

			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.want, w.Code)
		})
	}
}
