package datasource

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
)

// FeedClient implements RecordSource for the collector's upstream, which
// publishes either the current round as an object or a list of rounds.
type FeedClient struct {
	httpClient *RateLimitedHTTPClient
	url        string
	name       string
	logger     *logrus.Entry
}

// NewFeedClient creates a new feed client
func NewFeedClient(httpClient *RateLimitedHTTPClient, name, url string, logger *logrus.Logger) *FeedClient {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &FeedClient{
		httpClient: httpClient,
		url:        url,
		name:       name,
		logger:     logger.WithField("source", name),
	}
}

// Name returns the name of the data source
func (c *FeedClient) Name() string {
	return c.name
}

// FetchRecords retrieves the payload as raw JSON objects, newest first
func (c *FeedClient) FetchRecords(ctx context.Context) ([]json.RawMessage, error) {
	body, err := fetchBody(ctx, c.httpClient, c.name, c.url)
	if err != nil {
		return nil, err
	}
	return SplitRecords(c.name, body)
}

// SplitRecords turns an object or array payload into individual records.
// Array elements that are not JSON objects are dropped.
func SplitRecords(source string, body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return nil, NewDataSourceError(source, ErrCodeEmptyPayload, "upstream returned an empty body", nil)
	}

	switch trimmed[0] {
	case '{':
		if !json.Valid(trimmed) {
			return nil, NewDataSourceError(source, ErrCodeInvalidData, "malformed JSON object", nil)
		}
		return []json.RawMessage{json.RawMessage(trimmed)}, nil
	case '[':
		items, err := splitArray(source, trimmed)
		if err != nil {
			return nil, err
		}
		records := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) > 0 && item[0] == '{' {
				records = append(records, item)
			}
		}
		return records, nil
	default:
		return nil, NewDataSourceError(source, ErrCodeInvalidData, "payload is neither an object nor an array", nil)
	}
}
