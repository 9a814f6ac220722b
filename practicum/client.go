// Package practicum queries the homework status API.
package practicum

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"homework-notifier/pkg/notifier"
)

// DefaultEndpoint is the production homework status endpoint.
const DefaultEndpoint = "https://practicum.yandex.ru/api/user_api/homework_statuses/"

const maxBodySize = 1 << 20

// Client fetches homework statuses.
type Client struct {
	client   *http.Client
	logger   *slog.Logger
	endpoint string
	token    string
}

// New creates a new status API client.
func New(client *http.Client, endpoint, token string, logger *slog.Logger) *Client {
	return &Client{
		client:   client,
		logger:   logger,
		endpoint: endpoint,
		token:    token,
	}
}

// Fetch requests the statuses changed since cursor (a Unix timestamp).
// It does not retry; every failure is returned as a *notifier.FetchError.
func (c *Client) Fetch(ctx context.Context, cursor int64) (notifier.Payload, error) {
	reqURL, err := c.requestURL(cursor)
	if err != nil {
		return nil, &notifier.FetchError{URL: c.endpoint, Err: err}
	}

	c.logger.Info("HTTP request starting",
		"method", "GET",
		"url", reqURL,
		"from_date", cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, &notifier.FetchError{URL: reqURL, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Authorization", "OAuth "+c.token)
	req.Header.Set("Accept", "application/json")

	startTime := time.Now()
	resp, err := c.client.Do(req)
	duration := time.Since(startTime)

	if err != nil {
		c.logger.Warn("HTTP request failed",
			"url", reqURL,
			"duration_ms", duration.Milliseconds(),
			"error", err)
		return nil, &notifier.FetchError{URL: reqURL, Err: err}
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			c.logger.Warn("Failed to close response body", "error", closeErr)
		}
	}()

	c.logger.Info("HTTP request completed",
		"url", reqURL,
		"status_code", resp.StatusCode,
		"duration_ms", duration.Milliseconds(),
		"content_length", resp.ContentLength)

	if resp.StatusCode != http.StatusOK {
		// Drain a little of the body so the error carries the upstream reason.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &notifier.FetchError{
			URL:        reqURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("unexpected status: %s", snippetOrStatus(snippet, resp.Status)),
		}
	}

	payload, err := decodePayload(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, &notifier.FetchError{URL: reqURL, StatusCode: resp.StatusCode, Err: err}
	}

	return payload, nil
}

func (c *Client) requestURL(cursor int64) (string, error) {
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	q := u.Query()
	q.Set("from_date", strconv.FormatInt(cursor, 10))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func decodePayload(r io.Reader) (notifier.Payload, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var payload notifier.Payload
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	if payload == nil {
		return nil, errors.New("decode json: body is not an object")
	}
	return payload, nil
}

func snippetOrStatus(snippet []byte, status string) string {
	if len(snippet) == 0 {
		return status
	}
	return string(snippet)
}
