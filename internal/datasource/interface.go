package datasource

import (
	"context"
	"encoding/json"

	"github.com/yourusername/taixiu-oracle/internal/models"
)

// HistorySource returns the recent round history of the game, newest first.
type HistorySource interface {
	// FetchHistory retrieves the upstream history. An empty or non-array
	// payload yields ErrEmptyPayload.
	FetchHistory(ctx context.Context) ([]models.GameRound, error)

	// Name returns the name of the data source
	Name() string
}

// RecordSource returns raw round objects for the rolling collector.
type RecordSource interface {
	// FetchRecords retrieves the current payload as individual JSON objects,
	// newest first. A single object payload yields one record.
	FetchRecords(ctx context.Context) ([]json.RawMessage, error)

	// Name returns the name of the data source
	Name() string
}
