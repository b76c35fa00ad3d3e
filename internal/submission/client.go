// client.go - Kilometer report submission to the fleet back office

package submission

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrMissingField is returned when a required value is empty. No request is sent.
var ErrMissingField = errors.New("missing field")

// SubmitRequest is one kilometer reading for one vehicle
type SubmitRequest struct {
	Kilometer string `json:"kilometer"`
	LicenseID string `json:"licenseid"`
}

// Validate checks that both values are present
func (r SubmitRequest) Validate() error {
	var missing []string
	if strings.TrimSpace(r.Kilometer) == "" {
		missing = append(missing, "kilometer")
	}
	if strings.TrimSpace(r.LicenseID) == "" {
		missing = append(missing, "licenseid")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingField, strings.Join(missing, ", "))
	}
	return nil
}

// StatusError reports a non-2xx reply
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("submission rejected with status %d", e.StatusCode)
}

// Client sends readings with a single GET. The reply body is ignored.
type Client struct {
	endpoint string
	http     *resty.Client
}

// NewClient creates a client for endpoint (e.g. https://oye-oscam.co.il/UpdateMakor/Index)
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		http:     resty.New().SetTimeout(30 * time.Second),
	}
}

// Submit sends req. Success means a 2xx status.
func (c *Client) Submit(ctx context.Context, req SubmitRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"kilometer": req.Kilometer,
			"licenseid": req.LicenseID,
		}).
		Get(c.endpoint)
	if err != nil {
		return fmt.Errorf("submission request failed: %w", err)
	}

	if !resp.IsSuccess() {
		return &StatusError{StatusCode: resp.StatusCode()}
	}
	return nil
}
