// Package challenge provides the HTTP client for the challenge service API
// boundary.
package challenge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/silentoaq/zuvi-auth/core"
	"github.com/silentoaq/zuvi-auth/ports"
)

// Client implements ports.ChallengeService against the HTTP API described by
// the external interface: POST /auth/message, POST /auth/login,
// GET /auth/verify and GET /user/credentials.
type Client struct {
	baseURL string
	http    *http.Client
}

var _ ports.ChallengeService = (*Client)(nil)

// NewClient creates a client for the API at baseURL.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.http = hc }
}

// RequestChallenge issues a fresh single-use login message for the public
// key. The returned message is opaque and must not be reused across attempts.
func (c *Client) RequestChallenge(ctx context.Context, publicKey string) (core.Challenge, error) {
	var out core.Challenge
	err := c.do(ctx, http.MethodPost, "/auth/message", "", map[string]string{"publicKey": publicKey}, &out)
	if err != nil {
		return core.Challenge{}, err
	}
	return out, nil
}

type loginRequest struct {
	PublicKey string `json:"publicKey"`
	DID       string `json:"did,omitempty"`
	Signature string `json:"signature"`
	Message   string `json:"message"`
}

type loginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    core.User `json:"user"`
}

// Login submits the signed challenge and returns the issued session token
// plus the user's current credential status.
func (c *Client) Login(ctx context.Context, publicKey, did, signature, message string) (core.LoginResult, error) {
	req := loginRequest{
		PublicKey: publicKey,
		DID:       did,
		Signature: signature,
		Message:   message,
	}
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", req, &out); err != nil {
		return core.LoginResult{}, err
	}
	if !out.Success {
		return core.LoginResult{}, core.ErrAuthRejected
	}
	return core.LoginResult{Token: out.Token, User: out.User}, nil
}

// Verify checks whether a previously issued token is still valid. It is
// idempotent and side-effect free.
func (c *Client) Verify(ctx context.Context, token string) (core.VerifyResult, error) {
	var out core.VerifyResult
	if err := c.do(ctx, http.MethodGet, "/auth/verify", token, nil, &out); err != nil {
		return core.VerifyResult{}, err
	}
	return out, nil
}

// RefreshCredentialStatus fetches the current credential status for the
// session identified by token.
func (c *Client) RefreshCredentialStatus(ctx context.Context, token string) (core.CredentialStatus, error) {
	var out struct {
		CredentialStatus core.CredentialStatus `json:"credentialStatus"`
	}
	if err := c.do(ctx, http.MethodGet, "/user/credentials", token, nil, &out); err != nil {
		return core.CredentialStatus{}, err
	}
	return out.CredentialStatus, nil
}

// Logout revokes the session token server-side. Best-effort companion to the
// local session clear.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", token, nil, nil)
}

// do performs one JSON round-trip. Transport failures map to core.ErrNetwork,
// 401/403 to core.ErrAuthRejected and any other non-2xx status to
// core.ErrService. The error message comes from the response's {"error": ...}
// body when parseable, else "HTTP <status>: <statusText>".
func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", core.ErrService, err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	msg := fmt.Sprintf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode))
	var apiErr struct {
		Error string `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error != "" {
		msg = apiErr.Error
	}

	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return fmt.Errorf("%w: %s", core.ErrAuthRejected, msg)
	default:
		return fmt.Errorf("%w: %s", core.ErrService, msg)
	}
}
