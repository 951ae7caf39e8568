package models

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedAPILevel is returned when no baseline or parameter set exists for an API level
	ErrUnsupportedAPILevel = errors.New("unsupported api level")
	// ErrScorerUnavailable is returned when a metric has no per-API-level dispatch
	ErrScorerUnavailable = errors.New("scorer unavailable")
	// ErrUnknownMetric is returned for metric names outside the known vocabulary
	ErrUnknownMetric = errors.New("unknown metric")
)

// ConfigurationError reports an unmapped API level or metric combination.
// It is fatal to the metric computation that raised it.
type ConfigurationError struct {
	Metric   MetricKey
	APILevel int
	Err      error
}

func (e *ConfigurationError) Error() string {
	if e.Metric == "" {
		return fmt.Sprintf("configuration error: api level %d: %v", e.APILevel, e.Err)
	}
	return fmt.Sprintf("configuration error: metric %s, api level %d: %v", e.Metric, e.APILevel, e.Err)
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// DataIntegrityError reports a baseline document with missing or empty fields
type DataIntegrityError struct {
	Dataset string
	Field   string
	Reason  string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity error: dataset %s: field %s %s", e.Dataset, e.Field, e.Reason)
}

// MismatchKind classifies a policy mismatch warning
type MismatchKind string

const (
	MismatchInstaller MismatchKind = "installer"
	MismatchGMS       MismatchKind = "gms"
)

// PolicyMismatch describes a whitelisted package signed by an unexpected certificate.
// It is logged and counted, never returned as an error.
type PolicyMismatch struct {
	Kind     MismatchKind
	Package  string
	Expected string
	Actual   string
}
