package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/Nestly-dev/Nestly-App-sub001/config"
	"github.com/google/uuid"
)

type Status string

const (
	StatusSuccess Status = "success"
	StatusPending Status = "pending"
	StatusFailed  Status = "failed"
)

type CheckoutRequest struct {
	Amount       float64
	Currency     string
	Email        string
	PhoneNumber  string
	Description  string
	SubaccountID string
}

type CheckoutSession struct {
	CheckoutURL string
	TxRef       string
}

// Client talks to the payment gateway's REST API. Only two calls matter here:
// creating a hosted checkout session and verifying a charge by tx_ref.
type Client struct {
	baseURL     string
	secretKey   string
	redirectURL string
	httpClient  *http.Client
}

func NewClient(cfg config.PaymentConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		secretKey:   cfg.SecretKey,
		redirectURL: cfg.RedirectURL,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

type checkoutPayload struct {
	TxRef       string `json:"tx_ref"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	RedirectURL string `json:"redirect_url"`
	Customer    struct {
		Email       string `json:"email"`
		PhoneNumber string `json:"phonenumber,omitempty"`
	} `json:"customer"`
	Customizations struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"customizations"`
	Subaccounts []struct {
		ID string `json:"id"`
	} `json:"subaccounts,omitempty"`
}

type gatewayResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Link   string `json:"link"`
		Status string `json:"status"`
	} `json:"data"`
}

func (c *Client) InitiateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	txRef := "nestly-" + uuid.NewString()

	payload := checkoutPayload{
		TxRef:       txRef,
		Amount:      fmt.Sprintf("%.2f", req.Amount),
		Currency:    req.Currency,
		RedirectURL: c.redirectURL,
	}
	payload.Customer.Email = req.Email
	payload.Customer.PhoneNumber = req.PhoneNumber
	payload.Customizations.Title = "Nestly Booking"
	payload.Customizations.Description = req.Description
	if req.SubaccountID != "" {
		payload.Subaccounts = []struct {
			ID string `json:"id"`
		}{{ID: req.SubaccountID}}
	}

	var resp gatewayResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/payments", payload, &resp); err != nil {
		return nil, err
	}
	if resp.Status != "success" || resp.Data.Link == "" {
		return nil, fmt.Errorf("payment gateway rejected checkout: %s", resp.Message)
	}

	return &CheckoutSession{CheckoutURL: resp.Data.Link, TxRef: txRef}, nil
}

func (c *Client) VerifyPayment(ctx context.Context, txRef string) (Status, error) {
	endpoint := c.baseURL + "/transactions/verify_by_reference?tx_ref=" + url.QueryEscape(txRef)

	var resp gatewayResponse
	if err := c.do(ctx, http.MethodGet, endpoint, nil, &resp); err != nil {
		return StatusFailed, err
	}

	switch resp.Data.Status {
	case "successful":
		return StatusSuccess, nil
	case "pending":
		return StatusPending, nil
	default:
		return StatusFailed, nil
	}
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal gateway payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.secretKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("payment gateway request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("payment gateway returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode gateway response: %w", err)
	}
	return nil
}
