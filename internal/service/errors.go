package service

import "errors"

var (
	// ErrNoData means upstream answered with an empty or non-array payload.
	ErrNoData = errors.New("no data returned by upstream")
	// ErrNotReady means no prediction has been computed yet.
	ErrNotReady = errors.New("no prediction available yet")
)
