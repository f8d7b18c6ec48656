package fastspring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-cashier-fastspring/core"
	"github.com/goliatone/go-cashier-fastspring/transport"
)

const (
	PathSessions = "/sessions"
	PathAccounts = "/accounts"
)

// Client talks to the FastSpring REST API with basic authentication.
type Client struct {
	BaseURL   string
	Transport core.TransportAdapter
	Timeout   time.Duration
	Observer  core.Observer
}

func NewClient(cfg core.FastSpringConfig, doer transport.HTTPDoer) *Client {
	rest := transport.NewRESTAdapter(doer)
	rest.DefaultHeaders["Accept"] = "application/json"
	rest.BasicAuth = &transport.BasicAuth{
		Username: cfg.Username,
		Password: cfg.Password,
	}
	baseURL := strings.TrimSpace(cfg.APIURL)
	if baseURL == "" {
		baseURL = core.DefaultAPIURL
	}
	return &Client{
		BaseURL:   strings.TrimRight(baseURL, "/"),
		Transport: rest,
		Timeout:   cfg.Timeout,
	}
}

// CreateSession posts a session payload and returns the created session.
func (c *Client) CreateSession(ctx context.Context, payload map[string]any) (core.Session, error) {
	res, err := c.send(ctx, http.MethodPost, PathSessions, nil, payload)
	if err != nil {
		return core.Session{}, err
	}
	session := core.Session{}
	if err := decodeBody(res.Body, &session); err != nil {
		return core.Session{}, err
	}
	raw := map[string]any{}
	if err := decodeBody(res.Body, &raw); err == nil {
		session.Raw = raw
	}
	return session, nil
}

// CreateAccount creates a FastSpring account for the contact.
func (c *Client) CreateAccount(ctx context.Context, contact core.Contact) (core.Account, error) {
	res, err := c.send(ctx, http.MethodPost, PathAccounts, nil, map[string]any{
		"contact": contact.Map(),
	})
	if err != nil {
		return core.Account{}, err
	}
	account := core.Account{}
	if err := decodeBody(res.Body, &account); err != nil {
		return core.Account{}, err
	}
	return account, nil
}

// GetAccounts searches accounts, typically with {"email": "..."}.
func (c *Client) GetAccounts(ctx context.Context, query map[string]string) (core.AccountsPage, error) {
	res, err := c.send(ctx, http.MethodGet, PathAccounts, query, nil)
	if err != nil {
		return core.AccountsPage{}, err
	}
	page := core.AccountsPage{}
	if err := decodeBody(res.Body, &page); err != nil {
		return core.AccountsPage{}, err
	}
	return page, nil
}

func (c *Client) send(
	ctx context.Context,
	method string,
	path string,
	query map[string]string,
	payload any,
) (core.TransportResponse, error) {
	if c == nil || c.Transport == nil {
		return core.TransportResponse{}, core.InternalError("fastspring: client transport is not configured", nil)
	}
	req := core.TransportRequest{
		Method:  method,
		URL:     c.BaseURL + path,
		Query:   query,
		Timeout: c.Timeout,
		Headers: map[string]string{},
	}
	if payload != nil {
		body, err := json.Marshal(payload)
		if err != nil {
			return core.TransportResponse{}, core.WrapBadInput(err, "fastspring: encode request payload", map[string]any{"path": path})
		}
		req.Body = body
		req.Headers["Content-Type"] = "application/json"
	}

	startedAt := time.Now()
	res, err := c.Transport.Do(ctx, req)
	fields := map[string]any{
		"method":      method,
		"path":        path,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	}
	if err != nil {
		c.Observer.Error(ctx, "fastspring request failed", core.ErrorFields(err, fields))
		return core.TransportResponse{}, err
	}
	fields["status_code"] = res.StatusCode
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		apiErr := newAPIError(method, path, res)
		wrapped := core.ProviderRequestFailure(apiErr, fmt.Sprintf("fastspring: %s %s failed", method, path), map[string]any{
			"status_code": res.StatusCode,
			"path":        path,
		})
		c.Observer.Error(ctx, "fastspring request rejected", core.ErrorFields(wrapped, fields))
		return core.TransportResponse{}, wrapped
	}
	c.Observer.Debug(ctx, "fastspring request completed", fields)
	return res, nil
}

func decodeBody(body []byte, target any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, target); err != nil {
		return core.ProviderRequestFailure(err, "fastspring: decode response body", nil)
	}
	return nil
}

var (
	_ core.AccountsAPI = (*Client)(nil)
	_ core.SessionsAPI = (*Client)(nil)
)
