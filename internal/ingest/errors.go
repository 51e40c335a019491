package ingest

import (
	"errors"
	"fmt"
)

// ErrScanTimeout marks sources abandoned because the scan deadline expired.
var ErrScanTimeout = errors.New("scan timeout exceeded")

// FetchError is a transport or status failure for one URL after all attempts.
type FetchError struct {
	URL        string
	Attempts   int
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: unexpected status code %d after %d attempt(s)", e.URL, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("fetch %s failed after %d attempt(s): %v", e.URL, e.Attempts, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError describes one item an extractor could not turn into a record.
// It never aborts extraction of the remaining items.
type ParseError struct {
	Source string
	Index  int
	Reason SkipReason
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s item %d skipped: %s", e.Source, e.Index, e.Reason)
	}
	return fmt.Sprintf("%s item %d skipped: %s (%s)", e.Source, e.Index, e.Reason, e.Detail)
}

// Failure reports whether the skip was caused by malformed input rather than
// by a filtering rule.
func (e *ParseError) Failure() bool {
	return e.Reason == SkipMalformed
}
