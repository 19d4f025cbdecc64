// internal/domain/metric/errors.go

package metric

import (
	"fmt"
)

// MissingFieldError reports a required metric field that was absent from
// a snapshot. Callers are responsible for backfilling defaults or
// skipping the record.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required metric field %q", e.Field)
}

// InvalidMetricError reports a numeric field whose value is outside its
// domain, such as a negative follower count or a popularity above 100.
// The scoring engine rejects such input rather than silently clamping it.
type InvalidMetricError struct {
	Field  string
	Value  float64
	Reason string
}

func (e *InvalidMetricError) Error() string {
	return fmt.Sprintf("invalid metric %s=%v: %s", e.Field, e.Value, e.Reason)
}
