// Package paypal is the HTTP client for the PayPal checkout REST API. The
// order engine only depends on the service.PaymentGateway interface; this
// package is the real implementation behind it.
package paypal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"rentwheels-backend/internal/service"
)

const (
	sandboxBaseURL = "https://api-m.sandbox.paypal.com"
	liveBaseURL    = "https://api-m.paypal.com"
)

type Client struct {
	baseURL    string
	clientID   string
	secret     string
	httpClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewClient(mode, clientID, secret string) *Client {
	base := sandboxBaseURL
	if mode == "live" {
		base = liveBaseURL
	}
	return &Client{
		baseURL:  base,
		clientID: clientID,
		secret:   secret,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// token returns a cached OAuth access token, fetching a new one when the
// cached one is absent or within a minute of expiring.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.SetBasicAuth(c.clientID, c.secret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return "", fmt.Errorf("token request failed with status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}

type amountPayload struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type purchaseUnitPayload struct {
	ReferenceID string        `json:"reference_id"`
	Amount      amountPayload `json:"amount"`
}

type createOrderPayload struct {
	Intent        string                `json:"intent"`
	PurchaseUnits []purchaseUnitPayload `json:"purchase_units"`
}

type linkPayload struct {
	Href string `json:"href"`
	Rel  string `json:"rel"`
}

type orderResponse struct {
	ID     string        `json:"id"`
	Status string        `json:"status"`
	Links  []linkPayload `json:"links"`
}

type captureResponse struct {
	ID            string `json:"id"`
	Status        string `json:"status"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				ID     string `json:"id"`
				Status string `json:"status"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

func (c *Client) CreateOrder(ctx context.Context, reference string, amount decimal.Decimal, currency string) (*service.GatewayOrder, error) {
	payload := createOrderPayload{
		Intent: "CAPTURE",
		PurchaseUnits: []purchaseUnitPayload{{
			ReferenceID: reference,
			Amount: amountPayload{
				CurrencyCode: currency,
				Value:        amount.StringFixed(2),
			},
		}},
	}

	var out orderResponse
	if err := c.post(ctx, "/v2/checkout/orders", payload, &out); err != nil {
		return nil, err
	}

	order := &service.GatewayOrder{GatewayOrderID: out.ID}
	for _, link := range out.Links {
		if link.Rel == "approve" {
			order.ApproveLink = link.Href
			break
		}
	}
	return order, nil
}

func (c *Client) CaptureOrder(ctx context.Context, gatewayOrderID string) (*service.GatewayCapture, error) {
	var out captureResponse
	path := fmt.Sprintf("/v2/checkout/orders/%s/capture", gatewayOrderID)
	if err := c.post(ctx, path, struct{}{}, &out); err != nil {
		return nil, err
	}

	capture := &service.GatewayCapture{Status: out.Status}
	for _, unit := range out.PurchaseUnits {
		if len(unit.Payments.Captures) > 0 {
			capture.TransactionID = unit.Payments.Captures[0].ID
			capture.Status = unit.Payments.Captures[0].Status
			break
		}
	}
	return capture, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out any) error {
	tok, err := c.token(ctx)
	if err != nil {
		return err
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("paypal returned status %d: %s", resp.StatusCode, respBody)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
