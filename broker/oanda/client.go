// Package oanda drives a live or practice OANDA v20 account through the
// broker.Gateway interface.
package oanda

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cgmoganedi/amo-gym-rayan/broker"
)

const (
	// PracticeURL is the URL for OANDA's practice/demo environment
	PracticeURL = "https://api-fxpractice.oanda.com"
	// LiveURL is the URL for OANDA's live trading environment
	LiveURL = "https://api-fxtrade.oanda.com"
)

var ErrLiveDisabled = errors.New("live trading not enabled")

// BaseURL resolves an environment name. Live needs an explicit opt in.
func BaseURL(env string, allowLive bool) (string, error) {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "practice", "demo", "":
		return PracticeURL, nil
	case "live":
		if !allowLive {
			return "", ErrLiveDisabled
		}
		return LiveURL, nil
	default:
		return "", fmt.Errorf("unknown OANDA env %q (want practice|live)", env)
	}
}

// Client represents an OANDA API client bound to one account
type Client struct {
	baseURL    string
	token      string
	accountID  string
	httpClient *http.Client
	log        logrus.FieldLogger
}

var _ broker.Gateway = (*Client)(nil)
var _ broker.Pinger = (*Client)(nil)

// NewClient creates a new OANDA API client
func NewClient(baseURL, token, accountID string, log logrus.FieldLogger) *Client {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		token:     token,
		accountID: accountID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.WithField("gateway", "oanda"),
	}
}

// APIError is a non-2xx answer from the v20 API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("oanda: API error (status %d): %s", e.Status, e.Message)
}

// Ping checks the token against the account summary.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.GetAccount(ctx)
	return err
}

func (c *Client) accountPath(parts ...string) string {
	return "/v3/accounts/" + url.PathEscape(c.accountID) + "/" + strings.Join(parts, "/")
}

// do sends one request and decodes the JSON body into out.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body, out any) error {
	if c.token == "" {
		return fmt.Errorf("oanda: missing token: %w", broker.ErrUnauthenticated)
	}

	apiURL := c.baseURL + path
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept-Datetime-Format", "RFC3339")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.log.WithFields(logrus.Fields{
		"method":  method,
		"path":    path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start),
	}).Debug("oanda request")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(b)}
		switch resp.StatusCode {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %v", broker.ErrUnauthenticated, apiErr)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %v", broker.ErrPositionNotFound, apiErr)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func errorMessage(b []byte) string {
	var e struct {
		ErrorMessage string `json:"errorMessage"`
	}
	if json.Unmarshal(b, &e) == nil && e.ErrorMessage != "" {
		return e.ErrorMessage
	}
	return strings.TrimSpace(string(b))
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func parseTime(s string) (time.Time, error) {
	if sec, err := strconv.ParseFloat(s, 64); err == nil {
		return time.Unix(0, int64(sec*float64(time.Second))).UTC(), nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
