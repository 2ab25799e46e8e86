package models

import "errors"

// Custom errors
var (
	ErrNotFound        = errors.New("record not found")
	ErrSourceDisabled  = errors.New("data source is disabled")
	ErrNoSourcesActive = errors.New("no enabled data sources configured")
)
