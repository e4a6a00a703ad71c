// Package patient provides the client for the external patient directory.
// All lookups are keyed by TR identity number and forward the caller's
// bearer token so the directory applies its own authorization.
package patient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

var (
	ErrInvalidIdentifier = errors.New("invalid tr identity number")
	ErrPatientNotFound   = errors.New("patient not found")
	ErrEmailEmpty        = errors.New("patient has no email address")
	ErrUnexpected        = errors.New("patient directory request failed")
)

// Client looks up patients in the external directory. The token argument is
// the caller's raw bearer token, forwarded unchanged.
type Client interface {
	Check(ctx context.Context, token, trid string) (bool, error)
	Get(ctx context.Context, token, trid string) (*Patient, error)
	Email(ctx context.Context, token, trid string) (string, error)
}

// HTTPClient is the directory client over HTTP.
type HTTPClient struct {
	baseURL string
	http    *http.Client
}

// NewHTTPClient returns a Client for the directory at baseURL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) get(ctx context.Context, token, path, trid string, out any) error {
	if !IsValidTRID(trid) {
		return ErrInvalidIdentifier
	}

	u := fmt.Sprintf("%s%s?trIdNumber=%s", c.baseURL, path, url.QueryEscape(trid))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// the directory reports every client-side failure for an
		// identifier lookup as an unknown patient
		return ErrPatientNotFound
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%w: status %d", ErrUnexpected, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnexpected, err)
	}
	return nil
}

// Check reports whether a patient with the given TR identity number exists.
func (c *HTTPClient) Check(ctx context.Context, token, trid string) (bool, error) {
	var exists bool
	if err := c.get(ctx, token, "/patients/check-tr-id-number", trid, &exists); err != nil {
		return false, err
	}
	return exists, nil
}

// Get fetches the full patient record.
func (c *HTTPClient) Get(ctx context.Context, token, trid string) (*Patient, error) {
	var p Patient
	if err := c.get(ctx, token, "/patients/tr-id-number", trid, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Email resolves the patient's email address. A present patient with no
// address yields ErrEmailEmpty.
func (c *HTTPClient) Email(ctx context.Context, token, trid string) (string, error) {
	var email string
	if err := c.get(ctx, token, "/patients/email", trid, &email); err != nil {
		return "", err
	}
	if email == "" {
		return "", ErrEmailEmpty
	}
	return email, nil
}
