package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// TokenSource supplies the bearer credential attached to every request.
// It is implemented by the identity credential provider.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Client is the typed HTTP client for the Tempora REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	userAgent  string
}

// ClientOptions configures Client construction.
type ClientOptions struct {
	HTTPClient *http.Client
	UserAgent  string
}

// ClientOption mutates ClientOptions.
type ClientOption func(*ClientOptions)

// WithHTTPClient overrides the HTTP client used for API calls.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(opts *ClientOptions) {
		opts.HTTPClient = client
	}
}

// WithUserAgent overrides the User-Agent header sent with every request.
func WithUserAgent(userAgent string) ClientOption {
	return func(opts *ClientOptions) {
		opts.UserAgent = userAgent
	}
}

// NewClient creates a client for the API served at baseURL. Requests
// are authenticated with bearer credentials drawn from tokens.
func NewClient(baseURL string, tokens TokenSource, optFns ...ClientOption) *Client {
	opts := ClientOptions{}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "tempora-desktop"
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: opts.HTTPClient,
		tokens:     tokens,
		userAgent:  opts.UserAgent,
	}
}

// CreateSession creates the server-side session record for the user
// identified by subjectID. This is the bootstrap call: it is itself an
// authenticated request, which is what makes a rejected bootstrap a
// deadlock rather than an ordinary failure.
func (c *Client) CreateSession(ctx context.Context, subjectID string) (*SessionRecord, error) {
	var record SessionRecord
	path := fmt.Sprintf("/users/%s/sessions", subjectID)
	if err := c.do(ctx, http.MethodPost, path, nil, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Logout tells the backend to invalidate the current session. Callers
// treat failures as best-effort; a dead session cannot always be
// cleaned up remotely.
func (c *Client) Logout(ctx context.Context, subjectID string) error {
	path := fmt.Sprintf("/users/%s/logout", subjectID)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}

// GetProfile fetches the authenticated user's account data.
func (c *Client) GetProfile(ctx context.Context) (*Profile, error) {
	var profile Profile
	if err := c.do(ctx, http.MethodGet, "/profile", nil, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// ListProjects fetches all projects visible to the user.
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var projects []Project
	if err := c.do(ctx, http.MethodGet, "/projects", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// ListClients fetches the billing clients of the workspace.
func (c *Client) ListClients(ctx context.Context) ([]BillingClient, error) {
	var clients []BillingClient
	if err := c.do(ctx, http.MethodGet, "/clients", nil, &clients); err != nil {
		return nil, err
	}
	return clients, nil
}

// ListTags fetches the workspace's tags.
func (c *Client) ListTags(ctx context.Context) ([]Tag, error) {
	var tags []Tag
	if err := c.do(ctx, http.MethodGet, "/tags", nil, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// ListTimeEntries fetches the user's recent time entries.
func (c *Client) ListTimeEntries(ctx context.Context) ([]TimeEntry, error) {
	var entries []TimeEntry
	if err := c.do(ctx, http.MethodGet, "/time-entries", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// ListInvoices fetches invoice summaries for the workspace.
func (c *Client) ListInvoices(ctx context.Context) ([]Invoice, error) {
	var invoices []Invoice
	if err := c.do(ctx, http.MethodGet, "/invoices", nil, &invoices); err != nil {
		return nil, err
	}
	return invoices, nil
}

// GetWorkspaceSettings fetches workspace-wide defaults.
func (c *Client) GetWorkspaceSettings(ctx context.Context) (*WorkspaceSettings, error) {
	var settings WorkspaceSettings
	if err := c.do(ctx, http.MethodGet, "/workspace/settings", nil, &settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// do executes one API call. Any failure, transport-level or HTTP-level,
// is returned as a *TransportFailure so callers can classify it.
func (c *Client) do(ctx context.Context, method, path string, body any, out any) error {
	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return &TransportFailure{Err: err}
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &TransportFailure{Err: err}
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return &TransportFailure{Err: err}
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	log.Debug().Str("method", method).Str("path", path).Msg("api request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportFailure{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failureFromResponse(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &TransportFailure{Status: resp.StatusCode, Err: err}
	}
	return nil
}

// failureFromResponse folds a non-2xx response into a TransportFailure,
// picking up the structured {code, message} body when present.
func failureFromResponse(resp *http.Response) *TransportFailure {
	failure := &TransportFailure{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return failure
	}

	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil {
		failure.Code = body.Code
		failure.Message = body.Message
	}
	return failure
}
