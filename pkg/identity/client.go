// Package identity provisions and removes accounts in the external identity
// provider that backs end-user sign in.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/Rashmi7205/admin-fam-tree/pkg/config"
	"github.com/Rashmi7205/admin-fam-tree/prometheus"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

// ErrAccountNotFound is returned when the provider has no account for the uid
var ErrAccountNotFound = errors.New("identity account not found")

// Provider is implemented by identity provider clients
type Provider interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (string, error)
	DeleteAccount(ctx context.Context, uid string) error
}

type CreateAccountRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	DisplayName   string `json:"displayName,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

type accountResponse struct {
	UID string `json:"uid"`
}

// ErrorResponse is the error body returned by the provider
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// APIError is a non-2xx answer from the provider
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("identity provider returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to the provider's admin API
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewClient creates a client whose requests carry a client-credentials token.
// Without a token URL requests are sent unauthenticated.
func NewClient(cfg *config.IdentityConfig) *Client {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	if cfg.TokenURL != "" {
		cc := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		}
		ctx := context.WithValue(context.Background(), oauth2.HTTPClient, &http.Client{Timeout: cfg.Timeout})
		httpClient = cc.Client(ctx)
		httpClient.Timeout = cfg.Timeout
	}
	return &Client{
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		HTTPClient: httpClient,
	}
}

// CreateAccount registers an email/password account and returns its uid
func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (uid string, err error) {
	defer prometheus.TrackExternalCall("identity", "create")(&err)

	body, err := json.Marshal(req)
	if err != nil {
		return "", err
	}

	var resp accountResponse
	if err := c.do(ctx, http.MethodPost, "/accounts", bytes.NewReader(body), &resp); err != nil {
		return "", err
	}
	if resp.UID == "" {
		return "", errors.New("identity provider returned no uid")
	}
	return resp.UID, nil
}

// DeleteAccount removes the account. ErrAccountNotFound is returned when it is already gone.
func (c *Client) DeleteAccount(ctx context.Context, uid string) (err error) {
	defer prometheus.TrackExternalCall("identity", "delete")(&err)

	return c.do(ctx, http.MethodDelete, "/accounts/"+url.PathEscape(uid), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, body)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusNotFound {
		return ErrAccountNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errorResp ErrorResponse
		msg := strings.TrimSpace(string(data))
		if err := json.Unmarshal(data, &errorResp); err == nil && errorResp.Error != "" {
			msg = errorResp.Error
			if errorResp.ErrorDescription != "" {
				msg += ": " + errorResp.ErrorDescription
			}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode identity response: %w", err)
		}
	}
	return nil
}

// Disabled is used when no provider is configured. Accounts get a local uid
// and deletions always succeed.
type Disabled struct{}

func (Disabled) CreateAccount(ctx context.Context, req CreateAccountRequest) (string, error) {
	return "local-" + uuid.NewString(), nil
}

func (Disabled) DeleteAccount(ctx context.Context, uid string) error {
	return nil
}

// New returns the HTTP client when a base URL is configured and Disabled otherwise
func New(cfg *config.IdentityConfig) Provider {
	if cfg.BaseURL == "" {
		return Disabled{}
	}
	return NewClient(cfg)
}
