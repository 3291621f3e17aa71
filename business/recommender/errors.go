package recommender

import (
	"errors"
	"fmt"
)

// ErrNoTrainingData is returned by Retrain when the fetch produced zero
// interactions. The active snapshot is left untouched.
var ErrNoTrainingData = errors.New("no training data available")

// InsufficientDataError fails a training attempt that is below the
// configured minimum sample count.
type InsufficientDataError struct {
	Samples int
	Minimum int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient training data: %d < %d", e.Samples, e.Minimum)
}

func IsInsufficientData(err error) bool {
	var target *InsufficientDataError
	return errors.As(err, &target)
}

// DataSourceError wraps a failed external fetch so callers can tell an
// upstream outage apart from genuinely empty results.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("data source unavailable (%s): %v", e.Op, e.Err)
}

func (e *DataSourceError) Unwrap() error {
	return e.Err
}
