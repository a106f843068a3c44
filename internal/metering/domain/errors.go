package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidAccount    = errors.New("metering_account_required")
	ErrInvalidMetricKind = errors.New("metering_metric_kind_required")
	ErrInvalidWindow     = errors.New("metering_window_invalid")
)

// MeteringError reports an error status returned by the metrics backend.
type MeteringError struct {
	MetricKind string
	Message    string
}

func (e *MeteringError) Error() string {
	return fmt.Sprintf("Unable to fetch %s metrics: %s", e.MetricKind, e.Message)
}

// IsMeteringError reports whether err carries a backend error status.
func IsMeteringError(err error) bool {
	var target *MeteringError
	return errors.As(err, &target)
}
