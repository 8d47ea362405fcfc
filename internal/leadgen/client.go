package leadgen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/config"
	"gitlab.com/timkado/api/daisi-wa-webhook-ingestor/internal/validator"
)

const defaultTimeout = 10 * time.Second

// Client calls the external lead-creation service. One shot, no retries:
// the webhook response never depends on the outcome.
type Client struct {
	httpClient *http.Client
	cfg        config.LeadConfig
}

func NewClient(cfg config.LeadConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		cfg:        cfg,
	}
}

// CreateLeadRequest is the downstream contract payload.
type CreateLeadRequest struct {
	TenantID         string `json:"tenant_id" validate:"required"`
	SenderIdentifier string `json:"sender_identifier" validate:"required"`
	Phone            string `json:"phone,omitempty"`
	DisplayName      string `json:"display_name,omitempty"`
	ProfilePicURL    string `json:"profile_picture_url,omitempty"`
}

// CreateLeadResponse is read only for logging.
type CreateLeadResponse struct {
	Created bool   `json:"created"`
	LeadID  string `json:"lead_id,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

// CreateLead submits one lead to the downstream service.
func (c *Client) CreateLead(ctx context.Context, payload *CreateLeadRequest) (*CreateLeadResponse, error) {
	if c.cfg.URL == "" {
		return nil, fmt.Errorf("lead service URL not configured")
	}
	if err := validator.Validate(payload); err != nil {
		return nil, fmt.Errorf("invalid lead payload: %w", err)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal lead payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new lead request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.ServiceToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call lead service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		var raw map[string]interface{}
		_ = json.NewDecoder(resp.Body).Decode(&raw)
		return nil, fmt.Errorf("lead service error: status=%d body=%v", resp.StatusCode, raw)
	}

	var data CreateLeadResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode lead response: %w", err)
	}

	return &data, nil
}
