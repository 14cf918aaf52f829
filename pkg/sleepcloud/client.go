package sleepcloud

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"sleepfetch/pkg/config"
	"sleepfetch/pkg/errors"
	"sleepfetch/pkg/logger"
	"sleepfetch/pkg/models"
)

// Client fetches sleep records from the cloud endpoint. It is stateless: one
// call issues one request, and every failure is reported as a typed error so
// the fetch loop can decide whether and how to retry.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userToken  string
	userAgent  string
	logger     logger.Logger
}

// NewClient creates a new sleep-cloud client. It fails fast on a missing or
// blank user token, before any network activity.
func NewClient(cfg *config.CloudConfig, log logger.Logger) (*Client, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	if strings.TrimSpace(cfg.UserToken) == "" {
		return nil, errors.New(errors.ErrorTypeAuth, "user token is required")
	}

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		userToken:  cfg.UserToken,
		userAgent:  cfg.UserAgent,
		logger:     log,
	}, nil
}

// FetchRecords fetches the page of sleep records older than the given cursor
// timestamp (epoch milliseconds). A non-positive cursor is a precondition
// violation and returns a validation error immediately. Invalid records are
// filtered out of the returned batch; the batch is never rejected wholesale
// over them.
func (c *Client) FetchRecords(ctx context.Context, cursor int64) ([]models.SleepRecord, error) {
	if cursor <= 0 {
		return nil, errors.New(errors.ErrorTypeValidation,
			fmt.Sprintf("cursor timestamp must be positive, got %d", cursor))
	}

	reqURL := c.recordsURL(cursor)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, errors.New(errors.ErrorTypeUnknown,
			fmt.Sprintf("failed to create request: %v", err))
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	c.logger.DebugWithFields("sending fetch request", map[string]interface{}{
		"cursor": cursor,
	})

	resp, err := c.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		errType := errors.ErrorTypeNetwork
		if urlErr, ok := err.(*url.Error); ok && urlErr.Timeout() {
			errType = errors.ErrorTypeTimeout
		}
		c.logger.ErrorWithFields("fetch request failed", map[string]interface{}{
			"cursor":   cursor,
			"error":    err.Error(),
			"duration": duration,
		})
		return nil, &errors.Error{
			Type:    errType,
			Message: fmt.Sprintf("request failed: %v", err),
		}
	}
	defer resp.Body.Close()

	if err := c.checkResponseStatus(resp); err != nil {
		return nil, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &errors.Error{
			Type:    errors.ErrorTypeNetwork,
			Message: fmt.Sprintf("failed to read response body: %v", err),
			Code:    resp.StatusCode,
		}
	}

	// Absence of the "sleeps" key is an empty page, not an error.
	var set models.RecordSet
	if err := json.Unmarshal(body, &set); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200] + "..."
		}
		c.logger.ErrorWithFields("failed to parse response", map[string]interface{}{
			"cursor":       cursor,
			"status":       resp.StatusCode,
			"error":        err.Error(),
			"body_preview": bodyPreview,
		})
		return nil, &errors.Error{
			Type:    errors.ErrorTypeParsing,
			Message: fmt.Sprintf("failed to parse JSON: %v", err),
			Code:    resp.StatusCode,
		}
	}

	valid, dropped := models.FilterValid(set.Sleeps)
	if dropped > 0 {
		c.logger.WarnWithFields("filtered out invalid records", map[string]interface{}{
			"cursor":  cursor,
			"dropped": dropped,
		})
	}

	c.logger.DebugWithFields("fetch request completed", map[string]interface{}{
		"cursor":   cursor,
		"records":  len(valid),
		"duration": duration,
	})

	return valid, nil
}

// recordsURL builds the endpoint URL for the given cursor
func (c *Client) recordsURL(cursor int64) string {
	params := url.Values{}
	params.Set("user_token", c.userToken)
	params.Set("timestamp", strconv.FormatInt(cursor, 10))
	return c.baseURL + "?" + params.Encode()
}

// checkResponseStatus maps HTTP status codes to typed errors
func (c *Client) checkResponseStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		c.logger.WarnWithFields("authentication error", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeAuth,
			Message: "authentication rejected by endpoint",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		c.logger.WarnWithFields("rate limit exceeded", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeRateLimit,
			Message: "rate limit exceeded",
			Code:    resp.StatusCode,
		}
	case resp.StatusCode >= 500:
		c.logger.ErrorWithFields("server error", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeServerError,
			Message: "server error",
			Code:    resp.StatusCode,
		}
	default:
		c.logger.ErrorWithFields("unexpected response status", map[string]interface{}{
			"status": resp.StatusCode,
		})
		return &errors.Error{
			Type:    errors.ErrorTypeUnknown,
			Message: fmt.Sprintf("unexpected status code: %d", resp.StatusCode),
			Code:    resp.StatusCode,
		}
	}
}
