package monitorapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"tokendash/config"

	"go.uber.org/zap"
)

const (
	statsPath  = "/api/stats"
	tokensPath = "/api/tokens"
)

// MonitorApiClient reads the monitoring service's HTTP surface.
type MonitorApiClient struct {
	logger     *zap.Logger
	httpClient *http.Client
	baseURL    string
}

func NewMonitorApiClient(logger *zap.Logger, cfg *config.Config) *MonitorApiClient {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &MonitorApiClient{
		logger: logger,
		httpClient: &http.Client{
			Timeout: cfg.Monitor.RequestTimeout,
		},
		baseURL: strings.TrimRight(cfg.Monitor.BaseURL, "/"),
	}
}

// BaseURL returns the configured backend base URL.
func (c *MonitorApiClient) BaseURL() string {
	return c.baseURL
}

// ---- Wire types ----

// StatsSnapshot is the backend's monitoring summary.
type StatsSnapshot struct {
	TotalTokensFound  int       `json:"total_tokens_found"`
	TotalTokensPosted int       `json:"total_tokens_posted"`
	IsRunning         bool      `json:"is_running"`
	LastCheck         Timestamp `json:"last_check"`
	LastError         string    `json:"last_error,omitempty"`
}

// TokenRecord is one posted token.
type TokenRecord struct {
	ID              int       `json:"id,omitempty"`
	Name            string    `json:"name"`
	ContractAddress string    `json:"contract_address"`
	PostedAt        Timestamp `json:"posted_at"`
}

// MonitorError is the payload of a pushed monitor_error event.
type MonitorError struct {
	Error string `json:"error"`
}

// StatsResponse is the envelope of GET /api/stats.
type StatsResponse struct {
	Success bool          `json:"success"`
	Stats   StatsSnapshot `json:"stats"`
	Error   string        `json:"error,omitempty"`
}

// TokensResponse is the envelope of GET /api/tokens.
type TokensResponse struct {
	Success bool          `json:"success"`
	Tokens  []TokenRecord `json:"tokens"`
	Error   string        `json:"error,omitempty"`
}

// APIError is an application-level failure (success=false).
type APIError struct {
	Endpoint string
	Status   int
	Message  string // server-provided, may be empty
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: request unsuccessful (status=%d)", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("%s: %s (status=%d)", e.Endpoint, e.Message, e.Status)
}

// ServerMessage returns the server-provided message of an application
// failure, or "" when err is a transport failure.
func ServerMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}

// GetStats fetches the monitoring statistics.
// A success=false envelope is returned as *APIError.
func (c *MonitorApiClient) GetStats(ctx context.Context) (StatsSnapshot, error) {
	var resp StatsResponse
	status, err := c.doGet(ctx, c.baseURL+statsPath, &resp)
	if err != nil {
		return StatsSnapshot{}, err
	}
	if !resp.Success {
		return StatsSnapshot{}, &APIError{Endpoint: statsPath, Status: status, Message: resp.Error}
	}
	return resp.Stats, nil
}

// GetTokens fetches all posted tokens, newest first as ordered by the backend.
// A success=false envelope is returned as *APIError.
func (c *MonitorApiClient) GetTokens(ctx context.Context) ([]TokenRecord, error) {
	var resp TokensResponse
	status, err := c.doGet(ctx, c.baseURL+tokensPath, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, &APIError{Endpoint: tokensPath, Status: status, Message: resp.Error}
	}
	if resp.Tokens == nil {
		resp.Tokens = []TokenRecord{}
	}
	return resp.Tokens, nil
}

// doGet performs a GET request and decodes the JSON envelope.
// Non-2xx responses are decoded too when the body carries an envelope,
// since the backend reports its failures as {success:false} with status 500.
func (c *MonitorApiClient) doGet(ctx context.Context, url string, dest any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("monitor api response",
		zap.String("url", url),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)),
	)

	if resp.StatusCode/100 != 2 {
		var probe struct {
			Success *bool `json:"success"`
		}
		if json.Unmarshal(body, &probe) != nil || probe.Success == nil {
			return resp.StatusCode, fmt.Errorf("status=%d body=%s", resp.StatusCode, truncateBody(body))
		}
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return resp.StatusCode, fmt.Errorf("decode json: %w", err)
	}

	return resp.StatusCode, nil
}

// truncateBody bounds a response body quoted in an error.
func truncateBody(b []byte) string {
	const limit = 120
	if len(b) > limit {
		return string(b[:limit]) + "..."
	}
	return string(b)
}
