package analytics

import "fmt"

// AnalyticsError reports an exceptional internal state during an analytics
// run. Degenerate inputs (empty graphs, zero total edge weight) are not
// errors; they produce well-defined zero-valued results instead.
type AnalyticsError struct {
	// Stage is the algorithm stage that failed.
	Stage string

	// Err is the underlying cause.
	Err error
}

func (e *AnalyticsError) Error() string {
	return fmt.Sprintf("analytics %s: %v", e.Stage, e.Err)
}

func (e *AnalyticsError) Unwrap() error {
	return e.Err
}
