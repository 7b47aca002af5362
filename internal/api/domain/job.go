package domain

import (
	"errors"
)

// Job status values. Only PENDING is produced by the API service;
// the remaining states are written by downstream consumers.
const (
	JobStatusPending   = "PENDING"
	JobStatusRunning   = "RUNNING"
	JobStatusCompleted = "COMPLETED"
	JobStatusFailed    = "FAILED"
)

var (
	// ErrJobNotFound is returned when a job id has no matching row
	ErrJobNotFound = errors.New("ocr job not found")
)
