// Package mapbox provides a minimal client for the Mapbox Tilesets API: creating tileset sources,
// creating and publishing tilesets and monitoring their processing status.
package mapbox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/jtacoma/uritemplates"
)

const DEFAULT_BASE_URL string = "https://api.mapbox.com"

const REDACTED string = "REDACTED"

const (
	SOURCE_TEMPLATE  string = "{+base}/tilesets/v1/sources/{username}/{source_id}{?access_token}"
	TILESET_TEMPLATE string = "{+base}/tilesets/v1/{tileset_id}{?access_token}"
	PUBLISH_TEMPLATE string = "{+base}/tilesets/v1/{tileset_id}/publish{?access_token}"
	STATUS_TEMPLATE  string = "{+base}/tilesets/v1/{tileset_id}/status{?access_token}"
)

// StatusError is returned when the Tilesets API responds with an unexpected status code. Op names the
// stage that failed.
type StatusError struct {
	Op         string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.StatusCode, e.Body)
}

type Client struct {
	http_client  *http.Client
	base_url     string
	access_token string
}

type ClientOption func(*Client)

func WithBaseURL(base_url string) ClientOption {
	return func(c *Client) {
		c.base_url = base_url
	}
}

func WithHTTPClient(http_client *http.Client) ClientOption {
	return func(c *Client) {
		c.http_client = http_client
	}
}

func NewClient(access_token string, opts ...ClientOption) (*Client, error) {

	if access_token == "" {
		return nil, fmt.Errorf("Missing access token")
	}

	c := &Client{
		http_client:  http.DefaultClient,
		base_url:     DEFAULT_BASE_URL,
		access_token: access_token,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *Client) expandURL(uri_template string, vars map[string]interface{}) (string, error) {

	t, err := uritemplates.Parse(uri_template)

	if err != nil {
		return "", fmt.Errorf("Failed to parse URI template, %w", err)
	}

	vars["base"] = c.base_url
	vars["access_token"] = c.access_token

	return t.Expand(vars)
}

// redactError removes the access token from the request URL that net/http includes in transport errors.
func (c *Client) redactError(err error) error {

	var u_err *url.Error

	if !errors.As(err, &u_err) {
		return err
	}

	u := u_err.URL
	u = strings.ReplaceAll(u, url.QueryEscape(c.access_token), REDACTED)
	u = strings.ReplaceAll(u, c.access_token, REDACTED)

	return &url.Error{
		Op:  u_err.Op,
		URL: u,
		Err: u_err.Err,
	}
}

// do executes 'req' and decodes the response body in to 'target' if the status code is one of 'expected'.
func (c *Client) do(op string, req *http.Request, target any, expected ...int) error {

	rsp, err := c.http_client.Do(req)

	if err != nil {
		return fmt.Errorf("%s failed, %w", op, c.redactError(err))
	}

	defer rsp.Body.Close()

	body, err := io.ReadAll(rsp.Body)

	if err != nil {
		return fmt.Errorf("%s failed to read response, %w", op, err)
	}

	ok := false

	for _, code := range expected {
		if rsp.StatusCode == code {
			ok = true
			break
		}
	}

	if !ok {
		slog.Error("Unexpected response", "op", op, "status", rsp.StatusCode, "body", string(body))
		return &StatusError{
			Op:         op,
			StatusCode: rsp.StatusCode,
			Body:       string(body),
		}
	}

	if target == nil || len(body) == 0 {
		return nil
	}

	err = json.Unmarshal(body, target)

	if err != nil {
		return fmt.Errorf("%s failed to decode response, %w", op, err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method string, uri_template string, vars map[string]interface{}, body io.Reader) (*http.Request, error) {

	u, err := c.expandURL(uri_template, vars)

	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)

	if err != nil {
		return nil, fmt.Errorf("Failed to create request, %w", err)
	}

	return req, nil
}
