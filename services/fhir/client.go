package fhir

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// AuthError signals that the password-grant exchange with the source failed.
// It is fatal for a whole resolver batch.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("fhir authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// ClientConfig carries the connection settings for the FHIR source.
type ClientConfig struct {
	AuthURL      string
	BaseURL      string
	ClientID     string
	ClientSecret string
	Username     string
	Password     string
	// HTTPClient overrides the transport used for both the token exchange
	// and resource fetches. Nil uses a default client with a 30s timeout.
	HTTPClient *http.Client
}

// Client talks to the FHIR source of truth. Authenticate must succeed before
// any resource access; afterwards the underlying token source refreshes
// itself near expiry. The client is shared between resolver batches that may
// overlap, so the authenticated transport is swapped under a lock.
type Client struct {
	baseURL string
	cfg     ClientConfig

	mu   sync.RWMutex
	http *http.Client
}

// NewClient builds an unauthenticated client.
func NewClient(cfg ClientConfig) *Client {
	return &Client{baseURL: cfg.BaseURL, cfg: cfg}
}

// Authenticate performs the OAuth2 password-grant exchange against the
// source's token endpoint.
func (c *Client) Authenticate(ctx context.Context) error {
	base := c.cfg.HTTPClient
	if base == nil {
		base = &http.Client{Timeout: 30 * time.Second}
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, base)

	conf := &oauth2.Config{
		ClientID:     c.cfg.ClientID,
		ClientSecret: c.cfg.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: c.cfg.AuthURL},
		Scopes:       []string{"openid", "profile"},
	}

	token, err := conf.PasswordCredentialsToken(ctx, c.cfg.Username, c.cfg.Password)
	if err != nil {
		return &AuthError{Err: err}
	}

	authed := oauth2.NewClient(ctx, conf.TokenSource(ctx, token))
	authed.Timeout = 30 * time.Second

	c.mu.Lock()
	c.http = authed
	c.mu.Unlock()
	return nil
}

// httpClient returns the authenticated transport, or nil before the first
// successful Authenticate.
func (c *Client) httpClient() *http.Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.http
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	httpClient := c.httpClient()
	if httpClient == nil {
		return &AuthError{Err: fmt.Errorf("client not authenticated")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("GET %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", path, err)
	}
	return nil
}

func (c *Client) put(ctx context.Context, path string, resource any, out any) error {
	httpClient := c.httpClient()
	if httpClient == nil {
		return &AuthError{Err: fmt.Errorf("client not authenticated")}
	}

	body, err := json.Marshal(resource)
	if err != nil {
		return fmt.Errorf("failed to marshal resource for %s: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("PUT %s failed: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("PUT %s returned %d: %s", path, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("failed to decode response from %s: %w", path, err)
		}
	}
	return nil
}

// GetAppointments fetches the current appointment collection.
func (c *Client) GetAppointments(ctx context.Context) (*Bundle, error) {
	var bundle Bundle
	if err := c.get(ctx, "/Appointment", &bundle); err != nil {
		return nil, err
	}
	return &bundle, nil
}

// GetPatient fetches a patient by id.
func (c *Client) GetPatient(ctx context.Context, id string) (*Patient, error) {
	var patient Patient
	if err := c.get(ctx, "/Patient/"+id, &patient); err != nil {
		return nil, err
	}
	return &patient, nil
}

// GetServiceRequest fetches a service request by id.
func (c *Client) GetServiceRequest(ctx context.Context, id string) (*ServiceRequest, error) {
	var sr ServiceRequest
	if err := c.get(ctx, "/ServiceRequest/"+id, &sr); err != nil {
		return nil, err
	}
	return &sr, nil
}

// GetPractitionerRole fetches a practitioner role by id.
func (c *Client) GetPractitionerRole(ctx context.Context, id string) (*PractitionerRole, error) {
	var pr PractitionerRole
	if err := c.get(ctx, "/PractitionerRole/"+id, &pr); err != nil {
		return nil, err
	}
	return &pr, nil
}

// GetOrganization fetches an organization by id.
func (c *Client) GetOrganization(ctx context.Context, id string) (*Organization, error) {
	var org Organization
	if err := c.get(ctx, "/Organization/"+id, &org); err != nil {
		return nil, err
	}
	return &org, nil
}
