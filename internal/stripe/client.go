package stripe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/imroc/req/v3"
)

const DefaultAPIURL = "https://api.stripe.com"

// Client talks to the payment processor REST API
type Client struct {
	http *req.Client
}

// CheckoutSession is the subset of a hosted checkout session this service reads
type CheckoutSession struct {
	ID            string            `json:"id"`
	URL           string            `json:"url"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	PaymentIntent *string           `json:"payment_intent"`
	AmountTotal   int64             `json:"amount_total"`
	Currency      string            `json:"currency"`
	Metadata      map[string]string `json:"metadata"`
}

// Checkout session states
const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"

	PaymentStatusPaid   = "paid"
	PaymentStatusUnpaid = "unpaid"
)

// Account is a connected payout account
type Account struct {
	ID               string `json:"id"`
	ChargesEnabled   bool   `json:"charges_enabled"`
	PayoutsEnabled   bool   `json:"payouts_enabled"`
	DetailsSubmitted bool   `json:"details_submitted"`
}

// CheckoutSessionParams describes a single-item hosted checkout whose funds
// are transferred to DestinationAccount minus ApplicationFee.
type CheckoutSessionParams struct {
	ProductName        string
	AmountCents        int64
	Currency           string
	SuccessURL         string
	CancelURL          string
	ClientReferenceID  string
	ApplicationFee     int64
	DestinationAccount string
	Metadata           map[string]string
}

// APIError is an error body returned by the processor
type APIError struct {
	StatusCode int    `json:"-"`
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Param      string `json:"param"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("stripe: %d %s (%s): %s", e.StatusCode, e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("stripe: %d %s: %s", e.StatusCode, e.Type, e.Message)
}

type errorEnvelope struct {
	Error *APIError `json:"error"`
}

func NewClient(baseURL, secretKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultAPIURL
	}
	return &Client{
		http: req.C().
			SetBaseURL(baseURL).
			SetCommonBearerAuthToken(secretKey).
			SetUserAgent("freelance-hub").
			SetTimeout(30 * time.Second),
	}
}

// CreateCheckoutSession creates a hosted checkout session. Requests repeated
// with the same idempotency key return the session created first.
func (c *Client) CreateCheckoutSession(
	ctx context.Context,
	params CheckoutSessionParams,
	idempotencyKey string,
) (*CheckoutSession, error) {
	var session CheckoutSession
	r := c.http.R().
		SetContext(ctx).
		SetFormDataFromValues(params.Form()).
		SetSuccessResult(&session)
	if idempotencyKey != "" {
		r.SetHeader("Idempotency-Key", idempotencyKey)
	}

	if err := do(r.Post("/v1/checkout/sessions")); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return &session, nil
}

// GetCheckoutSession retrieves a checkout session by ID
func (c *Client) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	var session CheckoutSession
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetSuccessResult(&session).
		Get("/v1/checkout/sessions/{id}")
	if err := do(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get checkout session %s: %w", sessionID, err)
	}
	return &session, nil
}

// GetAccount retrieves a connected account by ID
func (c *Client) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	var account Account
	resp, err := c.http.R().
		SetContext(ctx).
		SetPathParam("id", accountID).
		SetSuccessResult(&account).
		Get("/v1/accounts/{id}")
	if err := do(resp, err); err != nil {
		return nil, fmt.Errorf("failed to get account %s: %w", accountID, err)
	}
	return &account, nil
}

// do turns transport failures and non-2xx responses into errors
func do(resp *req.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsSuccessState() {
		return nil
	}

	var envelope errorEnvelope
	if uerr := resp.Unmarshal(&envelope); uerr != nil || envelope.Error == nil {
		return &APIError{StatusCode: resp.StatusCode, Type: "api_error", Message: resp.String()}
	}
	envelope.Error.StatusCode = resp.StatusCode
	return envelope.Error
}

// Form encodes the params the way the processor expects nested fields
func (p CheckoutSessionParams) Form() url.Values {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", p.SuccessURL)
	form.Set("cancel_url", p.CancelURL)
	if p.ClientReferenceID != "" {
		form.Set("client_reference_id", p.ClientReferenceID)
	}

	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", p.Currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(p.AmountCents, 10))
	form.Set("line_items[0][price_data][product_data][name]", p.ProductName)

	if p.DestinationAccount != "" {
		form.Set("payment_intent_data[transfer_data][destination]", p.DestinationAccount)
		form.Set("payment_intent_data[application_fee_amount]", strconv.FormatInt(p.ApplicationFee, 10))
	}

	for k, v := range p.Metadata {
		form.Set("metadata["+k+"]", v)
		form.Set("payment_intent_data[metadata]["+k+"]", v)
	}
	return form
}
