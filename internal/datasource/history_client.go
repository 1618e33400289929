package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yourusername/taixiu-oracle/internal/metrics"
	"github.com/yourusername/taixiu-oracle/internal/models"
)

// maxPayloadBytes caps how much of an upstream response is read.
const maxPayloadBytes = 8 << 20

// HistoryClient implements HistorySource for the game's history API
type HistoryClient struct {
	httpClient *RateLimitedHTTPClient
	url        string
	name       string
	logger     *logrus.Entry
}

// NewHistoryClient creates a new history API client
func NewHistoryClient(httpClient *RateLimitedHTTPClient, name, url string, logger *logrus.Logger) *HistoryClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &HistoryClient{
		httpClient: httpClient,
		url:        url,
		name:       name,
		logger:     logger.WithField("source", name),
	}
}

// Name returns the name of the data source
func (c *HistoryClient) Name() string {
	return c.name
}

// FetchHistory retrieves the upstream history, newest first
func (c *HistoryClient) FetchHistory(ctx context.Context) ([]models.GameRound, error) {
	body, err := fetchBody(ctx, c.httpClient, c.name, c.url)
	if err != nil {
		return nil, err
	}

	items, err := splitArray(c.name, body)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, NewDataSourceError(c.name, ErrCodeEmptyPayload, "upstream returned an empty array", nil)
	}

	rounds := make([]models.GameRound, 0, len(items))
	for i, item := range items {
		var round models.GameRound
		if err := json.Unmarshal(item, &round); err != nil {
			return nil, NewDataSourceError(c.name, ErrCodeInvalidData, fmt.Sprintf("failed to parse round %d", i), err)
		}
		rounds = append(rounds, round)
	}

	c.logger.WithFields(logrus.Fields{
		"rounds": len(rounds),
		"latest": rounds[0].Phien,
	}).Debug("Fetched upstream history")
	return rounds, nil
}

// fetchBody performs a GET and returns the body of a 2xx response. Failures
// are classified as DataSourceError values and recorded in metrics.
func fetchBody(ctx context.Context, client *RateLimitedHTTPClient, source, url string) ([]byte, error) {
	start := time.Now()
	outcome := "error"
	defer func() {
		metrics.RecordUpstreamRequest(source, outcome, time.Since(start).Seconds())
	}()

	resp, err := client.Get(ctx, url)
	if err != nil {
		if errors.Is(err, ErrCircuitOpen) {
			return nil, NewDataSourceError(source, ErrCodeCircuitOpen, "upstream temporarily disabled", err)
		}
		return nil, NewDataSourceError(source, ErrCodeNetworkError, "failed to fetch upstream", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
	if err != nil {
		return nil, NewDataSourceError(source, ErrCodeNetworkError, "failed to read response", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(source, ErrCodeRateLimitExceeded, "upstream rate limit exceeded", nil)
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(source, ErrCodeServerError, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return nil, NewDataSourceError(source, ErrCodeServerError, fmt.Sprintf("unexpected status %d: %s", resp.StatusCode, truncate(body, 200)), nil)
	}

	outcome = "success"
	return body, nil
}

// splitArray returns the elements of a JSON array payload. Anything that is
// not a JSON array is reported as an empty payload.
func splitArray(source string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, NewDataSourceError(source, ErrCodeEmptyPayload, "upstream payload is not an array", nil)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, NewDataSourceError(source, ErrCodeEmptyPayload, "upstream payload is not an array", err)
	}
	return items, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
