// Package stripe is a minimal client for the Stripe Checkout Sessions API.
// It covers only what the deposit flow needs: creating a hosted session and
// fetching one back for reconciliation.
package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	quotesvc "studio_sales_backend/internal/quotes/service"
	"studio_sales_backend/platform/apperr"
	"studio_sales_backend/platform/config"
)

const (
	requestTimeout  = 20 * time.Second
	maxResponseSize = 1 << 20
)

// Client talks to the Stripe API over HTTPS with form-encoded requests.
type Client struct {
	secretKey  string
	baseURL    string
	successURL string
	cancelURL  string
	currency   string
	httpClient *http.Client
}

// New creates a Stripe client from checkout configuration.
func New(cfg config.CheckoutConfig) *Client {
	return &Client{
		secretKey:  cfg.GetCheckoutSecretKey(),
		baseURL:    strings.TrimSuffix(cfg.GetCheckoutAPIBaseURL(), "/"),
		successURL: cfg.GetCheckoutSuccessURL(),
		cancelURL:  cfg.GetCheckoutCancelURL(),
		currency:   cfg.GetCheckoutCurrency(),
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

// session is the subset of Stripe's checkout session payload we read.
type session struct {
	ID                string `json:"id"`
	URL               string `json:"url"`
	PaymentStatus     string `json:"payment_status"`
	AmountTotal       int64  `json:"amount_total"`
	Currency          string `json:"currency"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	CustomerDetails   struct {
		Email string `json:"email"`
	} `json:"customer_details"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// CreateSession opens a hosted checkout session for a deposit.
// Amounts are whole currency units on our side; Stripe wants minor units.
func (c *Client) CreateSession(ctx context.Context, params quotesvc.CreateSessionParams) (*quotesvc.CheckoutSession, error) {
	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("success_url", c.successURL+"?session_id={CHECKOUT_SESSION_ID}")
	form.Set("cancel_url", c.cancelURL)
	form.Set("client_reference_id", params.QuoteID.String())
	form.Set("customer_email", params.CustomerEmail)
	form.Set("line_items[0][price_data][currency]", c.currency)
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(params.Amount*100, 10))
	form.Set("line_items[0][price_data][product_data][name]", params.Description)
	form.Set("line_items[0][quantity]", "1")

	var resp session
	if err := c.do(ctx, http.MethodPost, "/v1/checkout/sessions", form, &resp); err != nil {
		return nil, err
	}
	return c.toCheckoutSession(&resp), nil
}

// GetSession fetches a session for payment reconciliation.
func (c *Client) GetSession(ctx context.Context, sessionID string) (*quotesvc.CheckoutSession, error) {
	var resp session
	path := "/v1/checkout/sessions/" + url.PathEscape(sessionID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return c.toCheckoutSession(&resp), nil
}

func (c *Client) toCheckoutSession(s *session) *quotesvc.CheckoutSession {
	email := s.CustomerDetails.Email
	if email == "" {
		email = s.CustomerEmail
	}
	return &quotesvc.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		PaymentStatus: s.PaymentStatus,
		Amount:        s.AmountTotal / 100,
		Currency:      s.Currency,
		CustomerEmail: email,
		QuoteRef:      s.ClientReferenceID,
	}
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out interface{}) error {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build checkout request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperr.Upstream("checkout provider unreachable", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return apperr.Upstream("failed to read checkout response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Message != "" {
			return apperr.Upstream(fmt.Sprintf("checkout provider error: %s", apiErr.Error.Message), nil)
		}
		return apperr.Upstream(fmt.Sprintf("checkout provider returned status %d", resp.StatusCode), nil)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return apperr.Upstream("failed to decode checkout response", err)
	}
	return nil
}

// ensure the client satisfies the gateway the quotes service expects
var _ quotesvc.CheckoutGateway = (*Client)(nil)
