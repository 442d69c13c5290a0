package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"voicenotes-backend-go/internal/models"
)

// Client-side guard errors: both are raised before anything goes over the
// wire.
var (
	ErrAuthRequired = errors.New("please log in to redeem a gift code")
	ErrEmptyCode    = errors.New("please enter a gift code")
)

// Client calls the public backend endpoints with the client-safe credential.
// It implements Provisioner.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a backend client. baseURL is the public endpoint URL and
// apiKey the client-safe credential; the privileged credential stays on the
// server and is never seen here.
func NewClient(baseURL, apiKey string, httpClient *http.Client) (*Client, error) {
	if baseURL == "" {
		return nil, errors.New("backend base URL is not configured")
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: httpClient,
	}, nil
}

type provisionResponse struct {
	Success bool            `json:"success"`
	Profile *models.Profile `json:"profile"`
	Error   string          `json:"error"`
}

// Provision calls POST /api/profile, which creates the profile with defaults
// on first sign-in and returns the existing row untouched afterwards.
func (c *Client) Provision(ctx context.Context, userID, email string) (*models.Profile, error) {
	body := map[string]string{"userId": userID, "userEmail": email}

	var resp provisionResponse
	status, err := c.postJSON(ctx, "/api/profile", "", body, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("profile provisioning failed: %s", resp.Error)
		}
		return nil, fmt.Errorf("profile provisioning failed with status %d", status)
	}
	return resp.Profile, nil
}

type redeemResponse struct {
	NewCredits int64  `json:"newCredits"`
	Error      string `json:"error"`
}

// Redeem invokes the gift-code redemption procedure. Guards run first: a
// missing token or blank code fails locally without contacting the server.
// The returned balance is authoritative; the caller propagates it into the
// session manager via UpdateCredits.
func (c *Client) Redeem(ctx context.Context, idToken, code string) (int64, error) {
	if idToken == "" {
		return 0, ErrAuthRequired
	}
	if strings.TrimSpace(code) == "" {
		return 0, ErrEmptyCode
	}

	body := map[string]string{"code": strings.TrimSpace(code)}

	var resp redeemResponse
	status, err := c.postJSON(ctx, "/api/v1/billing/redeem-gift-code", idToken, body, &resp)
	if err != nil {
		return 0, err
	}
	if status < 200 || status >= 300 {
		if resp.Error != "" {
			return 0, fmt.Errorf("redemption failed: %s", resp.Error)
		}
		return 0, fmt.Errorf("redemption failed with status %d", status)
	}
	return resp.NewCredits, nil
}

// SelectPlan invokes the one-time free-plan selection for the signed-in user.
func (c *Client) SelectPlan(ctx context.Context, idToken string) (*models.Profile, error) {
	if idToken == "" {
		return nil, ErrAuthRequired
	}

	var resp provisionResponse
	status, err := c.postJSON(ctx, "/api/v1/billing/select-plan", idToken, struct{}{}, &resp)
	if err != nil {
		return nil, err
	}
	if status < 200 || status >= 300 || !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("plan selection failed: %s", resp.Error)
		}
		return nil, fmt.Errorf("plan selection failed with status %d", status)
	}
	return resp.Profile, nil
}

func (c *Client) postJSON(ctx context.Context, path, idToken string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}
	if idToken != "" {
		req.Header.Set("Authorization", "Bearer "+idToken)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request to %s failed: %w", path, err)
	}
	defer res.Body.Close()

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return res.StatusCode, fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return res.StatusCode, nil
}
