package weather

import "fmt"

// FetchError indicates that the upstream request failed: network error,
// exhausted retries, or a non-success status.
type FetchError struct {
	Provider string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: fetch failed: %v", e.Provider, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError indicates that the upstream responded but the payload is
// missing expected fields or is internally inconsistent.
type ParseError struct {
	Provider string
	Reason   string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: bad payload: %s", e.Provider, e.Reason)
}
