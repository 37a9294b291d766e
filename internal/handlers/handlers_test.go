package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"freelance-hub/internal/auth"
	"freelance-hub/internal/database"
	"freelance-hub/internal/ratelimit"
	"freelance-hub/internal/repository"
	"freelance-hub/internal/services"
	"freelance-hub/internal/stripe"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
)

type stubProcessor struct {
	accounts   map[string]*stripe.Account
	accountErr error
	sessions   int
}

func (p *stubProcessor) CreateCheckoutSession(_ context.Context, _ stripe.CheckoutSessionParams, key string) (*stripe.CheckoutSession, error) {
	p.sessions++
	return &stripe.CheckoutSession{
		ID:            "cs_test",
		URL:           "https://checkout.test/" + key,
		Status:        stripe.SessionStatusOpen,
		PaymentStatus: stripe.PaymentStatusUnpaid,
	}, nil
}

func (p *stubProcessor) GetCheckoutSession(_ context.Context, id string) (*stripe.CheckoutSession, error) {
	return &stripe.CheckoutSession{ID: id, Status: stripe.SessionStatusOpen, PaymentStatus: stripe.PaymentStatusUnpaid}, nil
}

func (p *stubProcessor) GetAccount(_ context.Context, id string) (*stripe.Account, error) {
	if p.accountErr != nil {
		return nil, p.accountErr
	}
	a, ok := p.accounts[id]
	if !ok {
		return nil, &stripe.APIError{StatusCode: http.StatusNotFound}
	}
	return a, nil
}

type testServer struct {
	router    *gin.Engine
	processor *stubProcessor
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	auth.InitJWT("handler-secret", "")

	db, err := database.Open(sqlite.Open("file:"+uuid.NewString()+"?mode=memory&cache=shared"), zap.NewNop())
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, database.Migrate(db))

	repo := repository.NewRepository(db)
	log := zap.NewNop()
	processor := &stubProcessor{accounts: map[string]*stripe.Account{}}

	router := gin.New()
	RegisterRoutes(router, Services{
		Identity:  services.NewIdentityService(repo, log),
		Projects:  services.NewProjectService(repo, log),
		Proposals: services.NewProposalService(repo, "usd", log),
		Payments: services.NewPaymentService(repo, processor, nil, services.PaymentSettings{
			Currency:           "usd",
			PlatformFeePercent: decimal.NewFromInt(10),
			FrontendURL:        "http://app.test",
		}, log),
	}, ratelimit.NewRateLimiter(600, 100), log)

	return &testServer{router: router, processor: processor}
}

func token(t *testing.T, externalID string) string {
	t.Helper()
	tok, err := auth.GenerateToken(externalID, "", time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) (int, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	out := map[string]interface{}{}
	if w.Body.Len() > 0 {
		_ = json.Unmarshal(w.Body.Bytes(), &out)
	}
	return w.Code, out
}

func (s *testServer) signUp(t *testing.T, role string) string {
	t.Helper()
	tok := token(t, "user_"+uuid.NewString())
	code, body := s.do(t, http.MethodPost, "/api/profile/ensure", tok, gin.H{"role": role})
	require.Equal(t, http.StatusOK, code, body)
	return tok
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t)
	code, _ := s.do(t, http.MethodGet, "/api/projects", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestOnboardingThenRoleGuards(t *testing.T) {
	s := newTestServer(t)
	tok := token(t, "user_fresh")

	code, body := s.do(t, http.MethodGet, "/api/profile", tok, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["role"])

	code, _ = s.do(t, http.MethodPost, "/api/projects", tok, gin.H{"title": "t", "description": "d", "budget": "10"})
	assert.Equal(t, http.StatusForbidden, code)

	code, body = s.do(t, http.MethodPost, "/api/profile/onboarding", tok, gin.H{"role": "freelancer"})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "freelancer", body["role"])

	code, body = s.do(t, http.MethodPost, "/api/profile/onboarding", tok, gin.H{"role": "client"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, float64(CodeInvalidState), body["code"])
}

func TestMarketplaceFlow(t *testing.T) {
	s := newTestServer(t)
	client := s.signUp(t, "client")
	freelancer := s.signUp(t, "freelancer")
	rival := s.signUp(t, "freelancer")

	code, project := s.do(t, http.MethodPost, "/api/projects", client, gin.H{
		"title":       "Mobile app",
		"description": "Build it",
		"budget":      "5000",
	})
	require.Equal(t, http.StatusCreated, code, project)
	projectID := project["id"].(string)
	base := "/api/projects/" + projectID

	code, body := s.do(t, http.MethodGet, base+"/proposals", client, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["proposals"])

	code, body = s.do(t, http.MethodGet, base+"/proposals/mine/exists", freelancer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, false, body["exists"])

	code, proposal := s.do(t, http.MethodPost, base+"/proposals", freelancer, gin.H{"cover_letter": "Hire me", "bid_amount": "4800"})
	require.Equal(t, http.StatusCreated, code, proposal)
	code, _ = s.do(t, http.MethodPost, base+"/proposals", rival, gin.H{"cover_letter": "No, me", "bid_amount": "4700"})
	require.Equal(t, http.StatusCreated, code)

	code, body = s.do(t, http.MethodGet, base+"/proposals/mine/exists", freelancer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["exists"])

	code, body = s.do(t, http.MethodGet, base+"/payments", client, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, float64(CodeNoAcceptedProposal), body["code"])

	acceptPath := base + "/proposals/" + proposal["id"].(string) + "/accept"
	code, _ = s.do(t, http.MethodPost, acceptPath, freelancer, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, accepted := s.do(t, http.MethodPost, acceptPath, client, nil)
	require.Equal(t, http.StatusOK, code, accepted)
	contract := accepted["contract"].(map[string]interface{})
	assert.Equal(t, float64(240000), contract["upfront_cents"])

	code, body = s.do(t, http.MethodPost, acceptPath, client, nil)
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, float64(CodeInvalidState), body["code"])

	code, state := s.do(t, http.MethodGet, base+"/payments", freelancer, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "upfront_50", state["next_milestone"])
	assert.Equal(t, float64(240000), state["amount_due_cents"])

	checkout := gin.H{"milestone_type": "upfront_50", "amount": 240000}
	code, body = s.do(t, http.MethodPost, base+"/payments/checkout", client, checkout)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, float64(CodePayoutAccountMissing), body["code"])

	s.processor.accounts["acct_ready"] = &stripe.Account{ID: "acct_ready", ChargesEnabled: true, PayoutsEnabled: true, DetailsSubmitted: true}
	code, body = s.do(t, http.MethodPost, "/api/payout-account", freelancer, gin.H{"stripe_account_id": "acct_ready"})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["ready"])

	code, body = s.do(t, http.MethodPost, base+"/payments/checkout", client, gin.H{"milestone_type": "completion_50", "amount": 240000})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, float64(CodeValidation), body["code"])

	code, body = s.do(t, http.MethodPost, base+"/payments/checkout", client, checkout)
	require.Equal(t, http.StatusOK, code, body)
	assert.Contains(t, body["checkout_url"], "checkout:"+projectID+":upfront_50:0")

	code, again := s.do(t, http.MethodPost, base+"/payments/checkout", client, checkout)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, body["checkout_url"], again["checkout_url"])
	assert.Equal(t, 1, s.processor.sessions)
}

func TestBadInputAndRemoteFailures(t *testing.T) {
	s := newTestServer(t)
	client := s.signUp(t, "client")
	freelancer := s.signUp(t, "freelancer")

	code, body := s.do(t, http.MethodGet, "/api/projects/not-a-uuid", client, nil)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, float64(CodeBadRequest), body["code"])

	code, _ = s.do(t, http.MethodGet, "/api/projects/"+uuid.NewString(), client, nil)
	assert.Equal(t, http.StatusNotFound, code)

	s.processor.accountErr = errors.New("connection reset")
	code, body = s.do(t, http.MethodPost, "/api/payout-account", freelancer, gin.H{"stripe_account_id": "acct_x"})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, float64(CodeUpstream), body["code"])
	assert.NotContains(t, body["error"], "connection reset")
}
