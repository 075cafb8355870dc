// Package api provides the HTTP client for the HiTemp vendor cloud: login,
// batched parameter reads, batched writes and the shared-device directory.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the fixed vendor endpoint.
	DefaultBaseURL = "https://cloud.linked-go.com:449/crmservice/api"

	// ProductID identifies the HiTemp water-heater product line in
	// directory queries.
	ProductID = "1245226668902080512"

	pathLogin      = "/app/user/login"
	pathGetData    = "/app/device/getDataByCode"
	pathControl    = "/app/device/control"
	pathDeviceList = "/app/device/getMyAppectDeviceShareDataList"

	// successSentinel is the only stable value in the vendor's error_msg
	// field; everything else is opaque text.
	successSentinel = "Success"
)

// Client handles HTTP requests to the vendor API. It is stateless with
// respect to authentication: callers pass the session token per request.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a vendor API client. An empty baseURL selects the fixed
// production endpoint.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// envelope is the uniform vendor response wrapper.
type envelope struct {
	ErrorMsg     string          `json:"error_msg"`
	ErrorCode    string          `json:"error_code"`
	ObjectResult json.RawMessage `json:"objectResult"`
}

// postJSON performs an authenticated POST and unwraps the vendor envelope.
// token may be empty for the login call. Non-success envelopes come back as
// *VendorError, wrapped with ErrTokenRejected when the message looks like an
// authorization failure.
func (c *Client) postJSON(ctx context.Context, path, token string, body any) (json.RawMessage, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	if token != "" {
		req.Header.Set("x-token", token)
	}

	c.logger.Debug("API request", "path", path, "bytes", len(payload))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("POST %s: %v: %w", path, err, ErrUnreachable)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %v: %w", err, ErrUnreachable)
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("Non-200 status", "path", path, "status", resp.StatusCode)
		return nil, fmt.Errorf("POST %s: status %d: %w", path, resp.StatusCode, ErrUnreachable)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}

	if env.ErrorMsg != successSentinel || (env.ErrorCode != "" && env.ErrorCode != "0") {
		verr := &VendorError{Msg: env.ErrorMsg, Code: env.ErrorCode}
		if looksLikeAuthFailure(env.ErrorMsg) {
			return nil, fmt.Errorf("%w: %w", verr, ErrTokenRejected)
		}
		return nil, verr
	}

	c.logger.Debug("API response", "path", path, "bytes", len(data))
	return env.ObjectResult, nil
}

// LoginResult carries the session token issued by a successful login.
type LoginResult struct {
	Token  string `json:"x-token"`
	UserID string `json:"userId"`
}

// Login authenticates with the vendor. passwordMD5 is the lowercase hex MD5
// of the account password; the cleartext never goes over the wire. Any vendor
// rejection is an *AuthError: the protocol does not distinguish bad
// credentials from an account conflict.
func (c *Client) Login(ctx context.Context, userName, passwordMD5 string) (LoginResult, error) {
	body := map[string]string{"userName": userName, "password": passwordMD5}

	raw, err := c.postJSON(ctx, pathLogin, "", body)
	if err != nil {
		var verr *VendorError
		if errors.As(err, &verr) {
			return LoginResult{}, &AuthError{Msg: verr.Msg}
		}
		return LoginResult{}, err
	}

	var result LoginResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return LoginResult{}, fmt.Errorf("unmarshal login result: %w", err)
	}
	if result.Token == "" {
		return LoginResult{}, &AuthError{Msg: "no token in response"}
	}
	return result, nil
}
