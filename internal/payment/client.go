// Package payment talks to the payment collaborator that captures or refunds the charge
// attached to a web intake order once the lab approves or rejects it.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
)

type Decision string

const (
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// Request identifies the order a decision applies to. Reason is only meaningful for
// rejections.
type Request struct {
	OrganizationID string
	OrderID        uuid.UUID
	Decision       Decision
	Reason         string
}

// StatusError is returned when the collaborator answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("payment collaborator returned %d: %s", e.Code, e.Body)
}

type Client struct {
	baseURL  string
	apiToken string
	client   *http.Client
}

func NewClient(baseURL, apiToken string) *Client {
	return &Client{
		baseURL:  baseURL,
		apiToken: apiToken,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

type decisionBody struct {
	Decision Decision `json:"decision"`
	Reason   string   `json:"reason,omitempty"`
}

// Decide hands the decision over. A nil error means the collaborator accepted it.
func (c *Client) Decide(ctx context.Context, req Request) error {
	if req.Decision != DecisionApprove && req.Decision != DecisionReject {
		return fmt.Errorf("unknown decision %q", req.Decision)
	}

	endpoint, err := url.JoinPath(c.baseURL, "organizations", req.OrganizationID, "orders", req.OrderID.String(), "decision")
	if err != nil {
		return fmt.Errorf("building url: %w", err)
	}

	payload, err := json.Marshal(decisionBody{Decision: req.Decision, Reason: req.Reason})
	if err != nil {
		return fmt.Errorf("encoding body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	if c.apiToken != "" {
		httpReq.Header.Set("Authorization", "Token "+c.apiToken)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Code: resp.StatusCode, Body: string(bytes.TrimSpace(body))}
	}

	return nil
}
